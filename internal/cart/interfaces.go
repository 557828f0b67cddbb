package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Find(ctx context.Context, buyerID, craftID uuid.UUID) (*models.CartItem, error)
	Upsert(ctx context.Context, buyerID, craftID uuid.UUID, quantity int) error
	Remove(ctx context.Context, buyerID, craftID uuid.UUID) (bool, error)
	ListLines(ctx context.Context, buyerID uuid.UUID) ([]CartLine, error)
	Clear(ctx context.Context, buyerID uuid.UUID) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type craftLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Craft, error)
}
