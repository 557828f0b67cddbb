package main

import (
	"context"
	"errors"
	"flag"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/logiccrafts/connect-backend/internal/crafts"
	"github.com/logiccrafts/connect-backend/internal/cron"
	"github.com/logiccrafts/connect-backend/internal/notifications"
	"github.com/logiccrafts/connect-backend/internal/reviews"
	"github.com/logiccrafts/connect-backend/pkg/bootstrap"
	"github.com/logiccrafts/connect-backend/pkg/config"
	"github.com/logiccrafts/connect-backend/pkg/db"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/metrics"
	"github.com/logiccrafts/connect-backend/pkg/outbox"
)

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	flag.Parse()

	rt := bootstrap.Start("cron-worker")
	defer rt.Shutdown()
	boot := context.Background()

	dbClient, err := rt.Database(boot)
	if err != nil {
		rt.Fatal(boot, "failed to bootstrap database", err)
	}
	redisClient, err := rt.Redis(boot)
	if err != nil {
		rt.Fatal(boot, "failed to bootstrap redis", err)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(rt.Service), rt.Config.Cron.LockTTL)
	if err != nil {
		rt.Fatal(boot, "failed to create cron lock", err)
	}

	jobs, err := buildJobs(rt.Config, rt.Logger, dbClient)
	if err != nil {
		rt.Fatal(boot, "failed to build cron jobs", err)
	}
	registry, err := cron.NewRegistry(jobs...)
	if err != nil {
		rt.Fatal(boot, "failed to register cron jobs", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   rt.Logger,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: rt.Config.Cron.Interval,
	})
	if err != nil {
		rt.Fatal(boot, "failed to create cron service", err)
	}

	ctx, stop := rt.Context(map[string]any{"jobs": len(jobs)})
	defer stop()

	if *once {
		rt.Logger.Info(ctx, "running cron jobs once")
		if err := service.RunOnce(ctx); err != nil {
			rt.Fatal(ctx, "cron jobs failed", err)
		}
		return
	}

	rt.Logger.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		rt.Fatal(ctx, "cron worker stopped unexpectedly", err)
	}

	rt.Logger.Info(ctx, "cron worker shutting down gracefully")
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) ([]cron.Job, error) {
	conn := dbClient.DB()

	ratingJob, err := cron.NewRatingReconcileJob(cron.RatingReconcileJobParams{
		Logger:     logg,
		DB:         dbClient,
		Aggregator: reviews.NewAggregator(reviews.NewRepository(conn), crafts.NewRepository(conn)),
	})
	if err != nil {
		return nil, err
	}

	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notifications.NewRepository(conn),
		Retention:  cfg.Cron.RetentionDays,
	})
	if err != nil {
		return nil, err
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		Repository:  outbox.NewRepository(conn),
		Retention:   cfg.Cron.RetentionDays,
		MaxAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	return []cron.Job{ratingJob, cleanupJob, retentionJob}, nil
}
