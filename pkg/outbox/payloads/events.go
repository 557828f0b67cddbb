package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/logiccrafts/connect-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when a buyer places an order.
type OrderCreatedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	BuyerID          uuid.UUID `json:"buyer_id"`
	ArtisanID        uuid.UUID `json:"artisan_id"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	ItemCount        int       `json:"item_count"`
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	BuyerID        uuid.UUID         `json:"buyer_id"`
	ArtisanID      uuid.UUID         `json:"artisan_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	ChangedBy      enums.UserRole    `json:"changed_by"`
	Reason         string            `json:"reason,omitempty"`
	TrackingNumber string            `json:"tracking_number,omitempty"`
	ChangedAt      time.Time         `json:"changed_at"`
}

// ReviewSubmittedEvent tells the artisan a buyer reviewed one of their crafts.
type ReviewSubmittedEvent struct {
	ReviewID  uuid.UUID `json:"review_id"`
	CraftID   uuid.UUID `json:"craft_id"`
	CraftName string    `json:"craft_name"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	ArtisanID uuid.UUID `json:"artisan_id"`
	Rating    int       `json:"rating"`
}
