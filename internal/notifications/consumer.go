package notifications

import (
	"context"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/metrics"
	"github.com/logiccrafts/connect-backend/pkg/outbox"
	"github.com/logiccrafts/connect-backend/pkg/outbox/idempotency"
	"github.com/logiccrafts/connect-backend/pkg/outbox/payloads"
	"github.com/logiccrafts/connect-backend/pkg/outbox/registry"
)

const orderNotificationConsumer = "order-notifications"

const (
	outcomeProcessed = "processed"
	outcomeDuplicate = "duplicate"
	outcomeSkipped   = "skipped"
	outcomeFailed    = "failed"
)

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// ConsumerParams groups the dependencies of the order notification consumer.
type ConsumerParams struct {
	Repo         notificationWriter
	Subscription *pubsub.Subscriber
	Idempotency  *idempotency.Tracker
	Decoders     *registry.DecoderRegistry
	Metrics      *metrics.ConsumerMetrics
	Logger       *logger.Logger
}

// Consumer turns order and review domain events into in-app notifications.
type Consumer struct {
	repo         notificationWriter
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Tracker
	decoders     *registry.DecoderRegistry
	metrics      *metrics.ConsumerMetrics
	logg         *logger.Logger
}

// NewConsumer builds the order notification consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency tracker required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	decoders := params.Decoders
	if decoders == nil {
		decoders = registry.NewDomainDecoderRegistry()
	}
	return &Consumer{
		repo:         params.Repo,
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		decoders:     decoders,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack     bool
	nack    bool
	outcome string
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	result := c.handleMessage(ctx, msg)
	eventType := msg.Attributes["event_type"]
	c.metrics.Inc(orderNotificationConsumer, eventType, result.outcome)
	return result
}

func (c *Consumer) handleMessage(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
		"consumer":   orderNotificationConsumer,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if !handledEvent(eventType) {
		c.logg.Debug(logCtx, "skipping unhandled event")
		return processResult{ack: true, outcome: outcomeSkipped}
	}

	envelope, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true, outcome: outcomeFailed}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true, outcome: outcomeFailed}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	payload, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true, outcome: outcomeFailed}
	}

	notification, err := buildNotification(payload)
	if err != nil {
		c.logg.Error(logCtx, "payload missing recipient", err)
		return processResult{ack: true, outcome: outcomeFailed}
	}
	if notification == nil {
		c.logg.Debug(logCtx, "event does not notify anyone")
		return processResult{ack: true, outcome: outcomeSkipped}
	}

	first, err := c.idempotency.Claim(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true, outcome: outcomeFailed}
	}
	if !first {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true, outcome: outcomeDuplicate}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"user_id":           notification.UserID.String(),
		"notification_type": string(notification.Type),
	})
	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "notification insert failed", err)
		if delErr := c.idempotency.Release(ctx, orderNotificationConsumer, eventID); delErr != nil {
			c.logg.Error(logCtx, "failed to release idempotency key", delErr)
		}
		return processResult{nack: true, outcome: outcomeFailed}
	}

	c.logg.Info(logCtx, "notification created")
	return processResult{ack: true, outcome: outcomeProcessed}
}

func handledEvent(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventOrderCreated, enums.EventOrderStatusChanged, enums.EventReviewSubmitted:
		return true
	default:
		return false
	}
}

// buildNotification maps a decoded payload to the notification it produces.
// A nil notification with a nil error means the event is informational only.
func buildNotification(payload interface{}) (*models.Notification, error) {
	switch event := payload.(type) {
	case *payloads.OrderCreatedEvent:
		return orderPlacedNotification(event)
	case *payloads.OrderStatusChangedEvent:
		return orderStatusNotification(event)
	case *payloads.ReviewSubmittedEvent:
		return reviewReceivedNotification(event)
	default:
		return nil, nil
	}
}

func orderPlacedNotification(event *payloads.OrderCreatedEvent) (*models.Notification, error) {
	if event.ArtisanID == uuid.Nil {
		return nil, fmt.Errorf("artisan id missing")
	}
	return &models.Notification{
		UserID:  event.ArtisanID,
		Type:    enums.NotificationTypeOrderPlaced,
		Title:   "New order received",
		Message: fmt.Sprintf("Order %s was placed with %s.", event.OrderNumber, pluralItems(event.ItemCount)),
		Link:    stringPtr(orderLink(event.OrderID)),
	}, nil
}

func orderStatusNotification(event *payloads.OrderStatusChangedEvent) (*models.Notification, error) {
	switch event.Status {
	case enums.OrderStatusCancelled, enums.OrderStatusReturned:
		if event.ChangedBy != enums.UserRoleBuyer {
			return buyerStatusNotification(event)
		}
		if event.ArtisanID == uuid.Nil {
			return nil, fmt.Errorf("artisan id missing")
		}
		notificationType := enums.NotificationTypeOrderCancelled
		title := "Order cancelled"
		verb := "cancelled"
		if event.Status == enums.OrderStatusReturned {
			notificationType = enums.NotificationTypeOrderReturned
			title = "Order returned"
			verb = "returned"
		}
		message := fmt.Sprintf("The buyer %s order %s.", verb, event.OrderNumber)
		if reason := strings.TrimSpace(event.Reason); reason != "" {
			message = fmt.Sprintf("%s Reason: %s", message, reason)
		}
		return &models.Notification{
			UserID:  event.ArtisanID,
			Type:    notificationType,
			Title:   title,
			Message: message,
			Link:    stringPtr(orderLink(event.OrderID)),
		}, nil
	default:
		return buyerStatusNotification(event)
	}
}

func buyerStatusNotification(event *payloads.OrderStatusChangedEvent) (*models.Notification, error) {
	if event.BuyerID == uuid.Nil {
		return nil, fmt.Errorf("buyer id missing")
	}
	message := fmt.Sprintf("Order %s is now %s.", event.OrderNumber, humanStatus(event.Status))
	if event.TrackingNumber != "" {
		message = fmt.Sprintf("%s Tracking number: %s", message, event.TrackingNumber)
	}
	return &models.Notification{
		UserID:  event.BuyerID,
		Type:    enums.NotificationTypeOrderStatus,
		Title:   "Order update",
		Message: message,
		Link:    stringPtr(orderLink(event.OrderID)),
	}, nil
}

func reviewReceivedNotification(event *payloads.ReviewSubmittedEvent) (*models.Notification, error) {
	if event.ArtisanID == uuid.Nil {
		return nil, fmt.Errorf("artisan id missing")
	}
	name := strings.TrimSpace(event.CraftName)
	if name == "" {
		name = "your craft"
	}
	return &models.Notification{
		UserID:  event.ArtisanID,
		Type:    enums.NotificationTypeReviewReceived,
		Title:   "New review",
		Message: fmt.Sprintf("A buyer rated %s %d/5.", name, event.Rating),
		Link:    stringPtr(fmt.Sprintf("/crafts/%s/reviews", event.CraftID)),
	}, nil
}

func orderLink(orderID uuid.UUID) string {
	return fmt.Sprintf("/orders/%s", orderID)
}

func humanStatus(status enums.OrderStatus) string {
	return strings.ReplaceAll(string(status), "_", " ")
}

func pluralItems(count int) string {
	if count == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", count)
}

func stringPtr(value string) *string {
	return &value
}
