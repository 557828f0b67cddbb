package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/logiccrafts/connect-backend/pkg/bootstrap"
	"github.com/logiccrafts/connect-backend/pkg/metrics"
	"github.com/logiccrafts/connect-backend/pkg/outbox"
	"github.com/logiccrafts/connect-backend/pkg/outbox/registry"
)

func main() {
	rt := bootstrap.Start("outbox-publisher")
	defer rt.Shutdown()
	boot := context.Background()

	dbClient, err := rt.Database(boot)
	if err != nil {
		rt.Fatal(boot, "failed to bootstrap database", err)
	}
	pubsubClient, err := rt.PubSub(boot)
	if err != nil {
		rt.Fatal(boot, "failed to bootstrap pubsub", err)
	}

	events, err := registry.NewEventRegistry(rt.Config.PubSub)
	if err != nil {
		rt.Fatal(boot, "failed to build event registry", err)
	}

	service, err := NewService(ServiceParams{
		Config:     rt.Config,
		Logger:     rt.Logger,
		DB:         dbClient,
		PubSub:     pubsubClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Registry:   events,
		Metrics:    metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		rt.Fatal(boot, "failed to create outbox publisher", err)
	}

	ctx, stop := rt.Context(map[string]any{"batch_size": rt.Config.Outbox.BatchSize})
	defer stop()
	rt.Logger.Info(ctx, "starting outbox publisher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		rt.Fatal(ctx, "outbox publisher stopped unexpectedly", err)
	}

	rt.Logger.Info(ctx, "outbox publisher shutting down gracefully")
}
