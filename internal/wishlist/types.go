package wishlist

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logiccrafts/connect-backend/pkg/enums"
)

// CraftSummary is the craft projection embedded in a wishlist row.
type CraftSummary struct {
	ID          uuid.UUID             `json:"id"`
	ArtisanID   uuid.UUID             `json:"artisan_id"`
	Name        string                `json:"name"`
	Category    string                `json:"category"`
	Price       decimal.Decimal       `json:"price"`
	Stock       int                   `json:"stock"`
	Rating      float64               `json:"rating"`
	ReviewCount int                   `json:"review_count"`
	Status      enums.CraftStatus     `json:"status"`
	Visibility  enums.CraftVisibility `json:"visibility"`
}

// WishlistItemDTO wraps the craft summary included in a wishlist row.
type WishlistItemDTO struct {
	Craft     CraftSummary `json:"craft"`
	CreatedAt time.Time    `json:"created_at"`
}

// Pagination describes the cursor window of a wishlist page.
type Pagination struct {
	Total   int    `json:"total"`
	Current string `json:"current"`
	First   string `json:"first"`
	Last    string `json:"last"`
	Prev    string `json:"prev"`
	Next    string `json:"next"`
}

// WishlistItemsPageDTO returns a cursor-paginated wishlist view.
type WishlistItemsPageDTO struct {
	Items      []WishlistItemDTO `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// WishlistIDsDTO is a lightweight projection containing only craft IDs plus pagination metadata.
type WishlistIDsDTO struct {
	CraftIDs   []uuid.UUID `json:"craft_ids"`
	Pagination Pagination  `json:"pagination"`
}

// AddItemInput is the body of POST /api/wishlist.
type AddItemInput struct {
	CraftID uuid.UUID `json:"craft_id" validate:"required"`
}
