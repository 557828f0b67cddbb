package cron

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/internal/reviews"
	"github.com/logiccrafts/connect-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type RatingReconcileJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Aggregator *reviews.Aggregator
}

// NewRatingReconcileJob recomputes every craft's rating and review_count
// from the reviews table.
func NewRatingReconcileJob(params RatingReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Aggregator == nil {
		return nil, fmt.Errorf("rating aggregator required")
	}
	return &ratingReconcileJob{
		logg:       params.Logger,
		db:         params.DB,
		aggregator: params.Aggregator,
	}, nil
}

type ratingReconcileJob struct {
	logg       *logger.Logger
	db         txRunner
	aggregator *reviews.Aggregator
}

func (j *ratingReconcileJob) Name() string { return "rating-reconcile" }

func (j *ratingReconcileJob) Run(ctx context.Context) error {
	reconciled, err := j.aggregator.ReconcileAll(ctx, j.db)
	logCtx := j.logg.WithField(ctx, "crafts_reconciled", reconciled)
	if err != nil {
		return fmt.Errorf("rating reconcile: %w", err)
	}
	j.logg.Info(logCtx, "rating reconcile complete")
	return nil
}
