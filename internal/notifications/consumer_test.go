package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/metrics"
	"github.com/logiccrafts/connect-backend/pkg/outbox"
	"github.com/logiccrafts/connect-backend/pkg/outbox/idempotency"
	"github.com/logiccrafts/connect-backend/pkg/outbox/payloads"
	"github.com/logiccrafts/connect-backend/pkg/outbox/registry"
)

type memoryStore struct {
	keys     map[string]bool
	setErr   error
	deletion []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]bool{}}
}

func (m *memoryStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "lcc:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
		m.deletion = append(m.deletion, key)
	}
	return nil
}

type recordingWriter struct {
	created []models.Notification
	err     error
}

func (r *recordingWriter) Create(_ context.Context, notification *models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, *notification)
	return nil
}

type consumerFixture struct {
	consumer *Consumer
	writer   *recordingWriter
	store    *memoryStore
	registry *prometheus.Registry
}

func newConsumerFixture(t *testing.T) consumerFixture {
	t.Helper()
	store := newMemoryStore()
	tracker, err := idempotency.NewTracker(store, time.Hour)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	writer := &recordingWriter{}
	return consumerFixture{
		consumer: &Consumer{
			repo:        writer,
			idempotency: tracker,
			decoders:    registry.NewDomainDecoderRegistry(),
			metrics:     metrics.NewConsumerMetrics(reg),
			logg:        logger.New(logger.Options{ServiceName: "notifications-test", Output: io.Discard}),
		},
		writer:   writer,
		store:    store,
		registry: reg,
	}
}

func buildEventMessage(t *testing.T, eventType enums.OutboxEventType, eventID uuid.UUID, data any) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		EventType:  string(eventType),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:   uuid.NewString(),
		Data: body,
		Attributes: map[string]string{
			"event_id":   eventID.String(),
			"event_type": string(eventType),
		},
	}
}

func TestConsumer_OrderCreatedNotifiesArtisan(t *testing.T) {
	fx := newConsumerFixture(t)
	artisanID := uuid.New()
	orderID := uuid.New()

	msg := buildEventMessage(t, enums.EventOrderCreated, uuid.New(), payloads.OrderCreatedEvent{
		OrderID:     orderID,
		OrderNumber: "ORD-20260101-00042",
		BuyerID:     uuid.New(),
		ArtisanID:   artisanID,
		ItemCount:   2,
	})

	result := fx.consumer.process(context.Background(), msg)
	require.True(t, result.ack)
	require.Equal(t, outcomeProcessed, result.outcome)
	require.Len(t, fx.writer.created, 1)

	created := fx.writer.created[0]
	require.Equal(t, artisanID, created.UserID)
	require.Equal(t, enums.NotificationTypeOrderPlaced, created.Type)
	require.Contains(t, created.Message, "ORD-20260101-00042")
	require.Contains(t, created.Message, "2 items")
	require.NotNil(t, created.Link)
	require.Equal(t, "/orders/"+orderID.String(), *created.Link)
}

func TestConsumer_DuplicateEventIsAcked(t *testing.T) {
	fx := newConsumerFixture(t)
	eventID := uuid.New()
	msg := buildEventMessage(t, enums.EventOrderCreated, eventID, payloads.OrderCreatedEvent{
		OrderID:   uuid.New(),
		ArtisanID: uuid.New(),
		ItemCount: 1,
	})

	first := fx.consumer.process(context.Background(), msg)
	second := fx.consumer.process(context.Background(), msg)

	require.Equal(t, outcomeProcessed, first.outcome)
	require.True(t, second.ack)
	require.Equal(t, outcomeDuplicate, second.outcome)
	require.Len(t, fx.writer.created, 1)

	count, err := testutil.GatherAndCount(fx.registry, "lcc_consumer_messages_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestConsumer_StatusChangeRecipients(t *testing.T) {
	buyerID := uuid.New()
	artisanID := uuid.New()

	cases := []struct {
		name      string
		event     payloads.OrderStatusChangedEvent
		recipient uuid.UUID
		kind      enums.NotificationType
		contains  string
	}{
		{
			name: "artisan ships",
			event: payloads.OrderStatusChangedEvent{
				Status:         enums.OrderStatusShipped,
				ChangedBy:      enums.UserRoleArtisan,
				TrackingNumber: "TRK-1",
			},
			recipient: buyerID,
			kind:      enums.NotificationTypeOrderStatus,
			contains:  "Tracking number: TRK-1",
		},
		{
			name: "buyer cancels",
			event: payloads.OrderStatusChangedEvent{
				Status:    enums.OrderStatusCancelled,
				ChangedBy: enums.UserRoleBuyer,
				Reason:    "changed mind",
			},
			recipient: artisanID,
			kind:      enums.NotificationTypeOrderCancelled,
			contains:  "Reason: changed mind",
		},
		{
			name: "buyer returns",
			event: payloads.OrderStatusChangedEvent{
				Status:    enums.OrderStatusReturned,
				ChangedBy: enums.UserRoleBuyer,
				Reason:    "damaged",
			},
			recipient: artisanID,
			kind:      enums.NotificationTypeOrderReturned,
			contains:  "returned",
		},
		{
			name: "out for delivery",
			event: payloads.OrderStatusChangedEvent{
				Status:    enums.OrderStatusOutForDelivery,
				ChangedBy: enums.UserRoleArtisan,
			},
			recipient: buyerID,
			kind:      enums.NotificationTypeOrderStatus,
			contains:  "out for delivery",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newConsumerFixture(t)
			event := tc.event
			event.OrderID = uuid.New()
			event.OrderNumber = "ORD-20260101-00001"
			event.BuyerID = buyerID
			event.ArtisanID = artisanID

			result := fx.consumer.process(context.Background(), buildEventMessage(t, enums.EventOrderStatusChanged, uuid.New(), event))
			require.Equal(t, outcomeProcessed, result.outcome)
			require.Len(t, fx.writer.created, 1)
			require.Equal(t, tc.recipient, fx.writer.created[0].UserID)
			require.Equal(t, tc.kind, fx.writer.created[0].Type)
			require.Contains(t, fx.writer.created[0].Message, tc.contains)
		})
	}
}

func TestConsumer_ReviewSubmittedNotifiesArtisan(t *testing.T) {
	fx := newConsumerFixture(t)
	artisanID := uuid.New()

	msg := buildEventMessage(t, enums.EventReviewSubmitted, uuid.New(), payloads.ReviewSubmittedEvent{
		ReviewID:  uuid.New(),
		CraftID:   uuid.New(),
		CraftName: "Hand-thrown mug",
		BuyerID:   uuid.New(),
		ArtisanID: artisanID,
		Rating:    4,
	})

	result := fx.consumer.process(context.Background(), msg)
	require.Equal(t, outcomeProcessed, result.outcome)
	require.Len(t, fx.writer.created, 1)
	require.Equal(t, artisanID, fx.writer.created[0].UserID)
	require.Equal(t, enums.NotificationTypeReviewReceived, fx.writer.created[0].Type)
	require.Equal(t, "A buyer rated Hand-thrown mug 4/5.", fx.writer.created[0].Message)
}

func TestConsumer_SkipsUnknownAndMalformedEvents(t *testing.T) {
	fx := newConsumerFixture(t)

	unknown := &pubsub.Message{ID: "1", Data: []byte(`{}`), Attributes: map[string]string{"event_type": "craft_viewed"}}
	result := fx.consumer.process(context.Background(), unknown)
	require.True(t, result.ack)
	require.Equal(t, outcomeSkipped, result.outcome)

	malformed := &pubsub.Message{ID: "2", Data: []byte("not-json"), Attributes: map[string]string{"event_type": string(enums.EventOrderCreated)}}
	result = fx.consumer.process(context.Background(), malformed)
	require.True(t, result.ack)
	require.Equal(t, outcomeFailed, result.outcome)

	missingRecipient := buildEventMessage(t, enums.EventOrderCreated, uuid.New(), payloads.OrderCreatedEvent{OrderID: uuid.New()})
	result = fx.consumer.process(context.Background(), missingRecipient)
	require.True(t, result.ack)
	require.Equal(t, outcomeFailed, result.outcome)

	require.Empty(t, fx.writer.created)
	require.Empty(t, fx.store.keys)
}

func TestConsumer_InsertFailureReleasesKeyAndNacks(t *testing.T) {
	fx := newConsumerFixture(t)
	fx.writer.err = errors.New("db down")
	eventID := uuid.New()
	msg := buildEventMessage(t, enums.EventOrderCreated, eventID, payloads.OrderCreatedEvent{
		OrderID:   uuid.New(),
		ArtisanID: uuid.New(),
		ItemCount: 1,
	})

	result := fx.consumer.process(context.Background(), msg)
	require.True(t, result.nack)
	require.Equal(t, outcomeFailed, result.outcome)
	require.Len(t, fx.store.deletion, 1)
	require.Empty(t, fx.store.keys)

	fx.writer.err = nil
	retry := fx.consumer.process(context.Background(), msg)
	require.Equal(t, outcomeProcessed, retry.outcome)
	require.Len(t, fx.writer.created, 1)
}

func TestConsumer_IdempotencyStoreErrorNacks(t *testing.T) {
	fx := newConsumerFixture(t)
	fx.store.setErr = errors.New("redis unavailable")
	msg := buildEventMessage(t, enums.EventOrderCreated, uuid.New(), payloads.OrderCreatedEvent{
		OrderID:   uuid.New(),
		ArtisanID: uuid.New(),
	})

	result := fx.consumer.process(context.Background(), msg)
	require.True(t, result.nack)
	require.Empty(t, fx.writer.created)
}

func TestNewConsumer_RequiresDependencies(t *testing.T) {
	_, err := NewConsumer(ConsumerParams{})
	require.Error(t, err)
}
