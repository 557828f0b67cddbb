package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/logiccrafts/connect-backend/internal/notifications"
	"github.com/logiccrafts/connect-backend/pkg/bootstrap"
	"github.com/logiccrafts/connect-backend/pkg/metrics"
	"github.com/logiccrafts/connect-backend/pkg/outbox/idempotency"
	"github.com/logiccrafts/connect-backend/pkg/outbox/registry"
)

func main() {
	rt := bootstrap.Start("worker")
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
	pubsubClient, err := rt.PubSub(boot)
	if err != nil {
		rt.Fatal(boot, "failed to bootstrap pubsub", err)
	}

	tracker, err := idempotency.NewTracker(redisClient, rt.Config.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		rt.Fatal(boot, "failed to create idempotency tracker", err)
	}

	notificationConsumer, err := notifications.NewConsumer(notifications.ConsumerParams{
		Repo:         notifications.NewRepository(dbClient.DB()),
		Subscription: pubsubClient.DomainSubscription(),
		Idempotency:  tracker,
		Decoders:     registry.NewDomainDecoderRegistry(),
		Metrics:      metrics.NewConsumerMetrics(prometheus.DefaultRegisterer),
		Logger:       rt.Logger,
	})
	if err != nil {
		rt.Fatal(boot, "failed to create notification consumer", err)
	}

	service, err := NewService(ServiceParams{
		Config:               rt.Config,
		Logger:               rt.Logger,
		DB:                   dbClient,
		Redis:                redisClient,
		PubSub:               pubsubClient,
		NotificationConsumer: notificationConsumer,
	})
	if err != nil {
		rt.Fatal(boot, "failed to create worker service", err)
	}

	ctx, stop := rt.Context(nil)
	defer stop()
	rt.Logger.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		rt.Fatal(ctx, "worker stopped unexpectedly", err)
	}

	rt.Logger.Info(ctx, "worker shutting down gracefully")
}
