package reviews

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/internal/crafts"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Aggregator derives crafts.rating and crafts.review_count from the reviews
// table. Recomputing is idempotent.
type Aggregator struct {
	reviews *Repository
	crafts  *crafts.Repository
}

func NewAggregator(reviews *Repository, craftRepo *crafts.Repository) *Aggregator {
	return &Aggregator{reviews: reviews, crafts: craftRepo}
}

// Recompute writes the current average and count for craftID through tx.
func (a *Aggregator) Recompute(ctx context.Context, tx *gorm.DB, craftID uuid.UUID) (float64, int, error) {
	avg, total, err := a.reviews.WithTx(tx).Stats(ctx, craftID)
	if err != nil {
		return 0, 0, fmt.Errorf("rating stats: %w", err)
	}
	rating := math.Round(avg*100) / 100
	if err := a.crafts.WithTx(tx).SetRating(ctx, craftID, rating, total); err != nil {
		return 0, 0, fmt.Errorf("store rating: %w", err)
	}
	return rating, total, nil
}

// ReconcileAll recomputes every craft, each in its own transaction. Failures
// are collected so one bad row does not stop the sweep.
func (a *Aggregator) ReconcileAll(ctx context.Context, runner txRunner) (int, error) {
	ids, err := a.crafts.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list crafts: %w", err)
	}
	var (
		errs  error
		fixed int
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return fixed, multierr.Append(errs, err)
		}
		craftID := id
		err := runner.WithTx(ctx, func(tx *gorm.DB) error {
			_, _, err := a.Recompute(ctx, tx, craftID)
			return err
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("craft %s: %w", craftID, err))
			continue
		}
		fixed++
	}
	return fixed, errs
}
