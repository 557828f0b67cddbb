package main

import (
	"context"
	"errors"

	"github.com/logiccrafts/connect-backend/pkg/bootstrap"
	"github.com/logiccrafts/connect-backend/pkg/config"
	"github.com/logiccrafts/connect-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

type consumer interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Config               *config.Config
	Logger               *logger.Logger
	DB                   pinger
	Redis                pinger
	PubSub               pinger
	NotificationConsumer consumer
}

// Service gates the notification consumer behind dependency checks.
type Service struct {
	logg     *logger.Logger
	checks   []bootstrap.Check
	consumer consumer
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Redis == nil:
		return nil, errors.New("redis client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.NotificationConsumer == nil:
		return nil, errors.New("notification consumer is required")
	}

	return &Service{
		logg: params.Logger,
		checks: []bootstrap.Check{
			{Name: "database", Ping: params.DB.Ping},
			{Name: "redis", Ping: params.Redis.Ping},
			{Name: "pubsub", Ping: params.PubSub.Ping},
		},
		consumer: params.NotificationConsumer,
	}, nil
}

// Run blocks until the consumer stops or ctx is canceled. On cancellation it
// waits for the consumer to drain in-flight messages before returning.
func (s *Service) Run(ctx context.Context) error {
	if err := bootstrap.AwaitReady(ctx, s.logg, s.checks...); err != nil {
		return err
	}
	s.logg.Info(ctx, "worker dependencies ready, consuming")

	done := make(chan error, 1)
	go func() { done <- s.consumer.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "consumer stopped unexpectedly", err)
		}
		return err
	case <-ctx.Done():
		s.logg.Info(ctx, "worker context canceled")
		<-done
		return ctx.Err()
	}
}
