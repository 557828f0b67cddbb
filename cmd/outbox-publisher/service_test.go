package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/config"
	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/metrics"
	"github.com/logiccrafts/connect-backend/pkg/outbox"
	"github.com/logiccrafts/connect-backend/pkg/outbox/payloads"
	"github.com/logiccrafts/connect-backend/pkg/outbox/registry"
)

func TestProcessBatchContinuesAfterTransientFailure(t *testing.T) {
	first, second := orderCreatedRow(t, 0), orderCreatedRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	reg := prometheus.NewRegistry()
	svc := newTestService(t, repo, pub, &fakeRegistry{resolved: resolvedOrderEvent()}, config.OutboxConfig{MaxAttempts: 5}, reg)

	handled, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, handled)
	assert.Equal(t, []uuid.UUID{first.ID}, repo.failed)
	assert.Equal(t, []uuid.UUID{second.ID}, repo.published)

	expected := `
# HELP lcc_outbox_events_total Outbox rows handled by the publisher, by event type and outcome.
# TYPE lcc_outbox_events_total counter
lcc_outbox_events_total{event_type="order_created",outcome="published"} 1
lcc_outbox_events_total{event_type="order_created",outcome="retried"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lcc_outbox_events_total"))
}

func TestProcessBatchEmpty(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, config.OutboxConfig{}, nil)

	handled, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, handled)
}

func TestProcessBatchPropagatesClaimError(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("relation missing")}
	svc := newTestService(t, repo, &fakePublisher{}, &fakeRegistry{}, config.OutboxConfig{}, nil)

	_, err := svc.processBatch(context.Background())
	require.ErrorContains(t, err, "claim outbox rows")
}

func TestProcessBatchParksUnresolvableRow(t *testing.T) {
	event := orderCreatedRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	resolver := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	svc := newTestService(t, repo, &fakePublisher{}, resolver, config.OutboxConfig{MaxAttempts: 5}, nil)

	handled, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, handled)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	assert.Equal(t, 5, repo.terminalAttempts)
	assert.Empty(t, repo.failed)
	assert.Empty(t, repo.published)
}

func TestProcessBatchParksOnMaxAttempts(t *testing.T) {
	event := orderCreatedRow(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("transient")}}}
	svc := newTestService(t, repo, pub, &fakeRegistry{resolved: resolvedOrderEvent()}, config.OutboxConfig{BatchSize: 1, MaxAttempts: 2}, nil)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	assert.Equal(t, 2, repo.terminalAttempts)
	assert.ErrorContains(t, repo.terminalErr, "max publish attempts reached")
	assert.Empty(t, repo.failed)
}

func TestProcessBatchParksWhenTopicHasNoPublisher(t *testing.T) {
	event := orderCreatedRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	svc := newTestService(t, repo, nil, &fakeRegistry{resolved: resolvedOrderEvent()}, config.OutboxConfig{}, nil)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	assert.Equal(t, defaultMaxAttempts, repo.terminalAttempts)
}

func TestPublishResolvedSetsMessageAttributes(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       envelopePayload(t, "status"),
		CreatedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	resolved := &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{Topic: "domain-topic", AggregateType: enums.AggregateOrder},
		Envelope:   outbox.PayloadEnvelope{EventID: "evt-1", OccurredAt: time.Now()},
		Payload:    &payloads.OrderStatusChangedEvent{},
	}
	svc := newTestService(t, &fakeRepo{}, pub, &fakeRegistry{resolved: resolved}, config.OutboxConfig{}, nil)

	require.NoError(t, svc.publishResolved(context.Background(), event, resolved))
	require.Len(t, pub.messages, 1)

	msg := pub.messages[0]
	assert.Equal(t, map[string]string{
		"event_id":       "evt-1",
		"event_type":     "order_status_changed",
		"aggregate_type": "order",
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     "2024-05-01T12:00:00Z",
	}, msg.Attributes)
	assert.JSONEq(t, string(event.Payload), string(msg.Data))
}

func TestNewServiceValidatesAndDefaults(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard})

	_, err := NewService(ServiceParams{Logger: logg})
	require.EqualError(t, err, "config is required")

	_, err = NewService(ServiceParams{Config: &config.Config{}, Logger: logg, DB: &fakeDB{}, PubSub: &fakePubSubClient{}})
	require.EqualError(t, err, "outbox repository is required")

	svc := newTestService(t, &fakeRepo{}, nil, &fakeRegistry{}, config.OutboxConfig{}, nil)
	assert.Equal(t, defaultBatchSize, svc.batchSize)
	assert.Equal(t, defaultMaxAttempts, svc.maxAttempts)
	assert.Equal(t, defaultPoll, svc.poll)
}

func TestRunStopsWhenDependencyUnavailable(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logg,
		DB:         &fakeDB{pingErr: errors.New("connection refused")},
		PubSub:     &fakePubSubClient{},
		Repository: &fakeRepo{},
		Registry:   &fakeRegistry{},
	})
	require.NoError(t, err)

	err = svc.Run(context.Background())
	require.ErrorContains(t, err, "database ping failed")
}

func TestRunReturnsOnCancel(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, nil, &fakeRegistry{}, config.OutboxConfig{PollIntervalMS: 10}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, svc.Run(ctx), context.DeadlineExceeded)
}

func TestPollDelayBacksOffAndResets(t *testing.T) {
	d := newPollDelay(time.Second, 5*time.Second)

	wait := d.failed()
	assert.Equal(t, 2*time.Second, d.current)
	assert.GreaterOrEqual(t, wait, 2*time.Second)
	assert.Less(t, wait, 2*time.Second+jitterWindow)

	d.failed()
	d.failed()
	assert.Equal(t, 5*time.Second, d.current)

	d.reset()
	assert.Equal(t, time.Second, d.current)
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, resolver registryResolver, outboxCfg config.OutboxConfig, reg *prometheus.Registry) *Service {
	t.Helper()
	params := ServiceParams{
		Config:     &config.Config{Outbox: outboxCfg},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:         &fakeDB{},
		PubSub:     &fakePubSubClient{},
		Repository: repo,
		Registry:   resolver,
		PublisherFactory: func(string) publisher {
			if pub == nil {
				return nil
			}
			return pub
		},
	}
	if reg != nil {
		params.Metrics = metrics.NewOutboxMetrics(reg)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func orderCreatedRow(t *testing.T, attempts int) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       envelopePayload(t, uuid.NewString()),
		AttemptCount:  attempts,
	}
}

func resolvedOrderEvent() *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{Topic: "domain-topic", AggregateType: enums.AggregateOrder},
		Envelope:   outbox.PayloadEnvelope{EventID: uuid.NewString(), OccurredAt: time.Now()},
		Payload:    &payloads.OrderCreatedEvent{},
	}
}

func envelopePayload(t *testing.T, eventID string) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	return payload
}

type fakeRepo struct {
	events           []models.OutboxEvent
	fetchErr         error
	published        []uuid.UUID
	failed           []uuid.UUID
	terminal         []uuid.UUID
	terminalAttempts int
	terminalErr      error
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, f.fetchErr
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	f.terminal = append(f.terminal, id)
	f.terminalAttempts = terminalAttempts
	f.terminalErr = err
	return nil
}

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error { return nil }

func (f *fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.resolved == nil {
		return nil, registry.NewNonRetryableError(errors.New("no descriptor"))
	}
	resolved := *f.resolved
	resolved.Descriptor.AggregateType = event.AggregateType
	return &resolved, nil
}
