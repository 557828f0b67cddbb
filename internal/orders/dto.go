package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/money"
)

// OrderItemInput is one requested line. Price is the unit price the buyer saw.
type OrderItemInput struct {
	CraftID  uuid.UUID       `json:"craft_id" validate:"required"`
	Quantity int             `json:"quantity" validate:"required,gte=1"`
	Price    decimal.Decimal `json:"price"`
}

// PlaceOrderInput is the buyer request for a new order.
type PlaceOrderInput struct {
	ArtisanID       uuid.UUID            `json:"artisan_id" validate:"required"`
	Items           []OrderItemInput     `json:"items" validate:"required,min=1,dive"`
	TotalAmount     *decimal.Decimal     `json:"total_amount" validate:"required"`
	ShippingAddress string               `json:"shipping_address" validate:"required"`
	BuyerPhone      string               `json:"buyer_phone" validate:"required"`
	PaymentMethod   *enums.PaymentMethod `json:"payment_method,omitempty"`
	Notes           *string              `json:"notes,omitempty"`
	ClearCart       bool                 `json:"clear_cart"`
}

// UpdateStatusInput carries an artisan fulfillment update.
type UpdateStatusInput struct {
	Status            enums.OrderStatus `json:"status" validate:"required"`
	TrackingNumber    *string           `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time        `json:"estimated_delivery,omitempty"`
}

// ReasonInput carries the buyer reason for a cancel or return.
type ReasonInput struct {
	Reason string `json:"reason" validate:"required"`
}

// ListInput is the actor-agnostic order listing request.
type ListInput struct {
	Status   *enums.OrderStatus
	FromDate *time.Time
	ToDate   *time.Time
}

// ListResult carries the orders visible to the actor.
type ListResult struct {
	Orders []OrderDTO `json:"orders"`
	Count  int        `json:"count"`
}

type OrderItemDTO struct {
	ID              uuid.UUID       `json:"id"`
	CraftID         uuid.UUID       `json:"craft_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type OrderDTO struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	BuyerID            uuid.UUID           `json:"buyer_id"`
	ArtisanID          uuid.UUID           `json:"artisan_id"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	Status             enums.OrderStatus   `json:"status"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	PaymentMethod      enums.PaymentMethod `json:"payment_method"`
	ShippingAddress    string              `json:"shipping_address"`
	BuyerPhone         string              `json:"buyer_phone"`
	Notes              *string             `json:"notes,omitempty"`
	TrackingNumber     *string             `json:"tracking_number,omitempty"`
	EstimatedDelivery  *time.Time          `json:"estimated_delivery,omitempty"`
	DeliveredAt        *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`
	ReturnedAt         *time.Time          `json:"returned_at,omitempty"`
	ReturnReason       *string             `json:"return_reason,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Items              []OrderItemDTO      `json:"items"`
}

// FromModel maps a persisted order and its items to the API shape.
func FromModel(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:              item.ID,
			CraftID:         item.CraftID,
			Quantity:        item.Quantity,
			PriceAtPurchase: money.FromCents(item.PriceAtPurchaseCents),
			Subtotal:        money.FromCents(item.SubtotalCents),
		})
	}
	return OrderDTO{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		BuyerID:            order.BuyerID,
		ArtisanID:          order.ArtisanID,
		TotalAmount:        money.FromCents(order.TotalAmountCents),
		Status:             order.Status,
		PaymentStatus:      order.PaymentStatus,
		PaymentMethod:      order.PaymentMethod,
		ShippingAddress:    order.ShippingAddress,
		BuyerPhone:         order.BuyerPhone,
		Notes:              order.Notes,
		TrackingNumber:     order.TrackingNumber,
		EstimatedDelivery:  order.EstimatedDelivery,
		DeliveredAt:        order.DeliveredAt,
		CancelledAt:        order.CancelledAt,
		CancellationReason: order.CancellationReason,
		ReturnedAt:         order.ReturnedAt,
		ReturnReason:       order.ReturnReason,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
		Items:              items,
	}
}
