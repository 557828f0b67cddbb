package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/logger"
)

const defaultOutboxMaxAttempts = 10

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	Repository outboxPurger
	Retention  int
	// MaxAttempts is the publisher's give-up threshold. Rows that reached it
	// are swept along with published ones.
	MaxAttempts int
}

type outboxRetentionJob struct {
	retentionWindow
	logg        *logger.Logger
	repo        outboxPurger
	maxAttempts int
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository required")
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultOutboxMaxAttempts
	}
	return &outboxRetentionJob{
		retentionWindow: newRetentionWindow(params.Retention),
		logg:            params.Logger,
		repo:            params.Repository,
		maxAttempts:     maxAttempts,
	}, nil
}

func (*outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	purged, err := j.repo.DeletePublishedBefore(ctx, nil, cutoff, j.maxAttempts)
	if err != nil {
		return fmt.Errorf("purge outbox rows: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"max_attempts":   j.maxAttempts,
		"purged":         purged,
	}), "outbox rows purged")
	return nil
}
