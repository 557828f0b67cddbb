package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
)

type CreateReviewInput struct {
	CraftID    uuid.UUID `json:"craft_id" validate:"required"`
	Rating     int       `json:"rating" validate:"required,min=1,max=5"`
	ReviewText *string   `json:"review_text,omitempty" validate:"omitempty,max=2000"`
	Images     []string  `json:"images,omitempty" validate:"omitempty,max=5,dive,url"`
}

// UpdateReviewInput leaves nil fields untouched.
type UpdateReviewInput struct {
	Rating     *int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	ReviewText *string   `json:"review_text,omitempty" validate:"omitempty,max=2000"`
	Images     *[]string `json:"images,omitempty" validate:"omitempty,max=5"`
}

type ReviewDTO struct {
	ID           uuid.UUID  `json:"id"`
	CraftID      uuid.UUID  `json:"craft_id"`
	BuyerID      uuid.UUID  `json:"buyer_id"`
	BuyerName    string     `json:"buyer_name,omitempty"`
	OrderID      *uuid.UUID `json:"order_id,omitempty"`
	Rating       int        `json:"rating"`
	ReviewText   *string    `json:"review_text,omitempty"`
	Images       []string   `json:"images"`
	HelpfulCount int        `json:"helpful_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CraftRating is the aggregate returned after a review write.
type CraftRating struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// ReviewResult pairs a written review with the refreshed craft aggregate.
type ReviewResult struct {
	Review ReviewDTO   `json:"review"`
	Craft  CraftRating `json:"craft"`
}

type ListResult struct {
	Reviews    []ReviewDTO `json:"reviews"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func FromModel(review models.Review) ReviewDTO {
	images := review.Images
	if images == nil {
		images = []string{}
	}
	return ReviewDTO{
		ID:           review.ID,
		CraftID:      review.CraftID,
		BuyerID:      review.BuyerID,
		OrderID:      review.OrderID,
		Rating:       review.Rating,
		ReviewText:   review.ReviewText,
		Images:       images,
		HelpfulCount: review.HelpfulCount,
		CreatedAt:    review.CreatedAt,
		UpdatedAt:    review.UpdatedAt,
	}
}
