package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
)

// Service exposes buyer cart operations.
type Service interface {
	Add(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*CartDTO, error)
	Update(ctx context.Context, buyerID, craftID uuid.UUID, input UpdateItemInput) (*CartDTO, error)
	Remove(ctx context.Context, buyerID, craftID uuid.UUID) (*CartDTO, error)
	List(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, buyerID uuid.UUID) (bool, error)
	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo   CartRepository
	tx     txRunner
	crafts craftLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, crafts craftLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if crafts == nil {
		return nil, fmt.Errorf("craft loader required")
	}
	return &service{repo: repo, tx: tx, crafts: crafts}, nil
}

// WithTx returns a service whose repository writes through tx, so the order
// writer can clear the cart inside its own transaction.
func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), tx: s.tx, crafts: s.crafts}
}

// Add merges quantity into the existing line. The total is capped at the
// craft's stock.
func (s *service) Add(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be >= 1")
	}
	craft, err := s.purchasableCraft(ctx, input.CraftID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		quantity := input.Quantity
		existing, err := txRepo.Find(ctx, buyerID, craft.ID)
		switch {
		case err == nil:
			quantity += existing.Quantity
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		if quantity > craft.Stock {
			quantity = craft.Stock
		}
		return txRepo.Upsert(ctx, buyerID, craft.ID, quantity)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	return s.List(ctx, buyerID)
}

func (s *service) Update(ctx context.Context, buyerID, craftID uuid.UUID, input UpdateItemInput) (*CartDTO, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be >= 1")
	}
	if _, err := s.repo.Find(ctx, buyerID, craftID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	craft, err := s.purchasableCraft(ctx, craftID)
	if err != nil {
		return nil, err
	}
	if input.Quantity > craft.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds available stock").
			WithDetails(map[string]any{"stock": craft.Stock})
	}
	if err := s.repo.Upsert(ctx, buyerID, craftID, input.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.List(ctx, buyerID)
}

func (s *service) Remove(ctx context.Context, buyerID, craftID uuid.UUID) (*CartDTO, error) {
	removed, err := s.repo.Remove(ctx, buyerID, craftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.List(ctx, buyerID)
}

func (s *service) List(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	lines, err := s.repo.ListLines(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	dto := newCartDTO(lines)
	return &dto, nil
}

// Clear empties the cart. It reports false for a cart that was already empty.
func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) (bool, error) {
	removed, err := s.repo.Clear(ctx, buyerID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return removed > 0, nil
}

func (s *service) purchasableCraft(ctx context.Context, craftID uuid.UUID) (*models.Craft, error) {
	craft, err := s.crafts.FindByID(ctx, craftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "craft not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load craft")
	}
	if !craft.IsPurchasable() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "craft not found")
	}
	if craft.Stock < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "craft is out of stock")
	}
	return craft, nil
}
