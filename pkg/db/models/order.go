package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/enums"
)

// Order is the header row for a buyer purchase from a single artisan.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber        string              `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	BuyerID            uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index:orders_buyer_id_idx"`
	ArtisanID          uuid.UUID           `gorm:"column:artisan_id;type:uuid;not null;index:orders_artisan_id_idx"`
	TotalAmountCents   int64               `gorm:"column:total_amount_cents;not null"`
	Status             enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'placed'"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cod'"`
	ShippingAddress    string              `gorm:"column:shipping_address;not null"`
	BuyerPhone         string              `gorm:"column:buyer_phone;not null"`
	Notes              *string             `gorm:"column:notes"`
	TrackingNumber     *string             `gorm:"column:tracking_number"`
	EstimatedDelivery  *time.Time          `gorm:"column:estimated_delivery"`
	DeliveredAt        *time.Time          `gorm:"column:delivered_at"`
	CancelledAt        *time.Time          `gorm:"column:cancelled_at"`
	CancellationReason *string             `gorm:"column:cancellation_reason"`
	ReturnedAt         *time.Time          `gorm:"column:returned_at"`
	ReturnReason       *string             `gorm:"column:return_reason"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
