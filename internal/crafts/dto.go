package crafts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/money"
)

// CraftDTO is the API view of a craft listing.
type CraftDTO struct {
	ID          uuid.UUID             `json:"id"`
	ArtisanID   uuid.UUID             `json:"artisan_id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Price       decimal.Decimal       `json:"price"`
	Stock       int                   `json:"stock"`
	Status      enums.CraftStatus     `json:"status"`
	Visibility  enums.CraftVisibility `json:"visibility"`
	Rating      float64               `json:"rating"`
	ReviewCount int                   `json:"review_count"`
	ViewCount   int64                 `json:"view_count"`
	SaveCount   int64                 `json:"save_count"`
	OrderCount  int64                 `json:"order_count"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// FromModel maps a persisted craft to its DTO.
func FromModel(c *models.Craft) CraftDTO {
	return CraftDTO{
		ID:          c.ID,
		ArtisanID:   c.ArtisanID,
		Name:        c.Name,
		Description: c.Description,
		Category:    c.Category,
		Price:       money.FromCents(c.PriceCents),
		Stock:       c.Stock,
		Status:      c.Status,
		Visibility:  c.Visibility,
		Rating:      c.Rating,
		ReviewCount: c.ReviewCount,
		ViewCount:   c.ViewCount,
		SaveCount:   c.SaveCount,
		OrderCount:  c.OrderCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// FromModels maps a slice of crafts.
func FromModels(rows []models.Craft) []CraftDTO {
	out := make([]CraftDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

// CreateCraftInput is the artisan payload for a new listing.
type CreateCraftInput struct {
	Name        string                 `json:"name" validate:"required,min=2,max=200"`
	Description string                 `json:"description" validate:"max=5000"`
	Category    string                 `json:"category" validate:"required,max=64"`
	Price       decimal.Decimal        `json:"price"`
	Stock       int                    `json:"stock" validate:"gte=0"`
	Visibility  *enums.CraftVisibility `json:"visibility,omitempty" validate:"omitempty,oneof=public hidden"`
}

// UpdateCraftInput carries optional field changes; nil means unchanged.
type UpdateCraftInput struct {
	Name        *string                `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description *string                `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category    *string                `json:"category,omitempty" validate:"omitempty,max=64"`
	Price       *decimal.Decimal       `json:"price,omitempty"`
	Stock       *int                   `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Visibility  *enums.CraftVisibility `json:"visibility,omitempty" validate:"omitempty,oneof=public hidden"`
}

// ModerateInput is the admin decision for a pending craft.
type ModerateInput struct {
	Status enums.CraftStatus `json:"status" validate:"required,oneof=approved rejected"`
}

// DeleteResult reports whether the craft was removed or only hidden because
// orders still reference it.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
	Hidden  bool `json:"hidden"`
}
