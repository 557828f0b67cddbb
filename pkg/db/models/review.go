package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a buyer's rating of a craft they received.
type Review struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID      uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:reviews_buyer_craft_key"`
	CraftID      uuid.UUID  `gorm:"column:craft_id;type:uuid;not null;uniqueIndex:reviews_buyer_craft_key;index:reviews_craft_id_idx"`
	OrderID      *uuid.UUID `gorm:"column:order_id;type:uuid"`
	Rating       int        `gorm:"column:rating;not null"`
	ReviewText   *string    `gorm:"column:review_text"`
	Images       []string   `gorm:"column:images;type:jsonb;serializer:json"`
	HelpfulCount int        `gorm:"column:helpful_count;not null;default:0"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Review) TableName() string { return "reviews" }

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// ReviewHelpful records a single helpful vote.
type ReviewHelpful struct {
	ReviewID  uuid.UUID `gorm:"column:review_id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ReviewHelpful) TableName() string { return "review_helpful" }
