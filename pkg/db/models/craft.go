package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/enums"
)

// Craft is a handmade listing owned by an artisan. Rating and ReviewCount are
// derived from reviews and only written by the rating aggregator.
type Craft struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	ArtisanID   uuid.UUID             `gorm:"column:artisan_id;type:uuid;not null;index:crafts_artisan_id_idx"`
	Name        string                `gorm:"column:name;not null"`
	Description string                `gorm:"column:description;not null;default:''"`
	Category    string                `gorm:"column:category;not null;index:crafts_category_idx"`
	PriceCents  int64                 `gorm:"column:price_cents;not null"`
	Stock       int                   `gorm:"column:stock;not null;default:0"`
	Status      enums.CraftStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	Visibility  enums.CraftVisibility `gorm:"column:visibility;type:text;not null;default:'public'"`
	Rating      float64               `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	ReviewCount int                   `gorm:"column:review_count;not null;default:0"`
	ViewCount   int64                 `gorm:"column:view_count;not null;default:0"`
	SaveCount   int64                 `gorm:"column:save_count;not null;default:0"`
	OrderCount  int64                 `gorm:"column:order_count;not null;default:0"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Craft) TableName() string { return "crafts" }

func (c *Craft) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// IsPurchasable reports whether buyers can see and buy the craft.
func (c Craft) IsPurchasable() bool {
	return c.Status == enums.CraftStatusApproved && c.Visibility == enums.CraftVisibilityPublic
}
