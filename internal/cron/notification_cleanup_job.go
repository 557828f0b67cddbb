package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/logiccrafts/connect-backend/pkg/logger"
)

type readNotificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	Repository readNotificationPurger
	// Retention is in days.
	Retention int
}

type notificationCleanupJob struct {
	retentionWindow
	logg *logger.Logger
	repo readNotificationPurger
}

// NewNotificationCleanupJob purges read notifications past the retention
// window. Unread notifications survive regardless of age.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Repository == nil {
		return nil, errors.New("notifications repository required")
	}
	return &notificationCleanupJob{
		retentionWindow: newRetentionWindow(params.Retention),
		logg:            params.Logger,
		repo:            params.Repository,
	}, nil
}

func (*notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.cutoff()
	purged, err := j.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge read notifications: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"purged":         purged,
	}), "read notifications purged")
	return nil
}
