package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/internal/crafts"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
	"github.com/logiccrafts/connect-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo *Repository
	CraftRepo    *crafts.Repository
	Tx           txRunner
}

// Service exposes business rules for wishlist management.
type Service interface {
	GetWishlist(ctx context.Context, buyerID uuid.UUID, cursor string, limit int) (WishlistItemsPageDTO, error)
	GetWishlistIDs(ctx context.Context, buyerID uuid.UUID, cursor string, limit int) (WishlistIDsDTO, error)
	AddItem(ctx context.Context, buyerID, craftID uuid.UUID) error
	RemoveItem(ctx context.Context, buyerID, craftID uuid.UUID) error
}

type service struct {
	wishlistRepo *Repository
	craftRepo    *crafts.Repository
	tx           txRunner
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, fmt.Errorf("wishlist repo is required")
	}
	if params.CraftRepo == nil {
		return nil, fmt.Errorf("craft repo is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{
		wishlistRepo: params.WishlistRepo,
		craftRepo:    params.CraftRepo,
		tx:           params.Tx,
	}, nil
}

// GetWishlist returns the paginated wishlist for a buyer.
func (s *service) GetWishlist(ctx context.Context, buyerID uuid.UUID, cursor string, limit int) (WishlistItemsPageDTO, error) {
	if err := checkCursor(cursor); err != nil {
		return WishlistItemsPageDTO{}, err
	}
	page, err := s.wishlistRepo.ListItems(ctx, buyerID, cursor, limit)
	if err != nil {
		return WishlistItemsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wishlist")
	}
	return page, nil
}

// GetWishlistIDs returns saved craft IDs for the buyer.
func (s *service) GetWishlistIDs(ctx context.Context, buyerID uuid.UUID, cursor string, limit int) (WishlistIDsDTO, error) {
	if err := checkCursor(cursor); err != nil {
		return WishlistIDsDTO{}, err
	}
	ids, err := s.wishlistRepo.ListItemIDs(ctx, buyerID, cursor, limit)
	if err != nil {
		return WishlistIDsDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wishlist ids")
	}
	return ids, nil
}

// AddItem saves an approved craft. Saving twice is a no-op and only the first
// save bumps the craft's save_count.
func (s *service) AddItem(ctx context.Context, buyerID, craftID uuid.UUID) error {
	if craftID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "craft id is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		craftRepo := s.craftRepo.WithTx(tx)
		craft, err := craftRepo.FindByID(ctx, craftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "craft not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load craft")
		}
		if craft.Status != enums.CraftStatusApproved {
			return pkgerrors.New(pkgerrors.CodeNotFound, "craft not found")
		}

		added, err := s.wishlistRepo.WithTx(tx).AddItem(ctx, buyerID, craftID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add wishlist item")
		}
		if !added {
			return nil
		}
		if err := craftRepo.AdjustSaveCount(ctx, craftID, 1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update save count")
		}
		return nil
	})
}

// RemoveItem drops the wishlist entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, buyerID, craftID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		removed, err := s.wishlistRepo.WithTx(tx).RemoveItem(ctx, buyerID, craftID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove wishlist item")
		}
		if !removed {
			return nil
		}
		if err := s.craftRepo.WithTx(tx).AdjustSaveCount(ctx, craftID, -1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update save count")
		}
		return nil
	})
}

func checkCursor(cursor string) error {
	if _, err := pagination.ParseCursor(cursor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return nil
}
