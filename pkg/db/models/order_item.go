package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem snapshots the price a buyer paid for a craft. Later craft price
// changes never touch these rows.
type OrderItem struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID              uuid.UUID `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	CraftID              uuid.UUID `gorm:"column:craft_id;type:uuid;not null;index:order_items_craft_id_idx"`
	Quantity             int       `gorm:"column:quantity;not null"`
	PriceAtPurchaseCents int64     `gorm:"column:price_at_purchase_cents;not null"`
	SubtotalCents        int64     `gorm:"column:subtotal_cents;not null"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
