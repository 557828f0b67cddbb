package crafts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/db"
	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/money"
	"github.com/logiccrafts/connect-backend/pkg/pagination"
)

// Service exposes artisan, admin and public catalog operations.
type Service interface {
	Create(ctx context.Context, artisanID uuid.UUID, input CreateCraftInput) (*CraftDTO, error)
	Update(ctx context.Context, artisanID, craftID uuid.UUID, input UpdateCraftInput) (*CraftDTO, error)
	Delete(ctx context.Context, artisanID, craftID uuid.UUID) (*DeleteResult, error)
	ListMine(ctx context.Context, artisanID uuid.UUID) ([]CraftDTO, error)
	Moderate(ctx context.Context, craftID uuid.UUID, input ModerateInput) (*CraftDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, craftID uuid.UUID) (*CraftDTO, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	logg     *logger.Logger
}

// NewService constructs a craft service instance.
func NewService(repo *Repository, dbClient *db.Client, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("craft repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, artisanID uuid.UUID, input CreateCraftInput) (*CraftDTO, error) {
	name := strings.TrimSpace(input.Name)
	category := normalizeCategory(input.Category)
	if name == "" || category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and category are required")
	}
	priceCents, err := money.NonNegativeCents(input.Price)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be >= 0")
	}

	visibility := enums.CraftVisibilityPublic
	if input.Visibility != nil {
		if !input.Visibility.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid visibility")
		}
		visibility = *input.Visibility
	}

	craft := &models.Craft{
		ArtisanID:   artisanID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Category:    category,
		PriceCents:  priceCents,
		Stock:       input.Stock,
		Status:      enums.CraftStatusPending,
		Visibility:  visibility,
	}
	if err := s.repo.Create(ctx, craft); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create craft")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "craft_id", craft.ID.String()), "craft created")
	}
	dto := FromModel(craft)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, artisanID, craftID uuid.UUID, input UpdateCraftInput) (*CraftDTO, error) {
	craft, err := s.ownedCraft(ctx, artisanID, craftID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		craft.Name = name
	}
	if input.Description != nil {
		craft.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		category := normalizeCategory(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be empty")
		}
		craft.Category = category
	}
	if input.Price != nil {
		cents, err := money.NonNegativeCents(*input.Price)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		craft.PriceCents = cents
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be >= 0")
		}
		craft.Stock = *input.Stock
	}
	if input.Visibility != nil {
		if !input.Visibility.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid visibility")
		}
		craft.Visibility = *input.Visibility
	}

	if err := s.repo.Save(ctx, craft); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update craft")
	}
	dto := FromModel(craft)
	return &dto, nil
}

// Delete removes an unreferenced craft. Crafts that appear on orders are
// hidden instead so order history keeps resolving.
func (s *service) Delete(ctx context.Context, artisanID, craftID uuid.UUID) (*DeleteResult, error) {
	craft, err := s.ownedCraft(ctx, artisanID, craftID)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{}
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		referenced, err := txRepo.HasOrderItems(ctx, craft.ID)
		if err != nil {
			return err
		}
		if referenced {
			craft.Visibility = enums.CraftVisibilityHidden
			result.Hidden = true
			return txRepo.Save(ctx, craft)
		}
		result.Deleted = true
		return txRepo.Delete(ctx, craft.ID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete craft")
	}
	return result, nil
}

func (s *service) ListMine(ctx context.Context, artisanID uuid.UUID) ([]CraftDTO, error) {
	rows, err := s.repo.ListByArtisan(ctx, artisanID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list crafts")
	}
	return FromModels(rows), nil
}

func (s *service) Moderate(ctx context.Context, craftID uuid.UUID, input ModerateInput) (*CraftDTO, error) {
	if input.Status != enums.CraftStatusApproved && input.Status != enums.CraftStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or rejected")
	}
	craft, err := s.load(ctx, craftID)
	if err != nil {
		return nil, err
	}
	craft.Status = input.Status
	if err := s.repo.Save(ctx, craft); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "moderate craft")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"craft_id": craft.ID.String(), "status": string(craft.Status)})
		s.logg.Info(logCtx, "craft moderated")
	}
	dto := FromModel(craft)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	sort := input.Filters.Sort
	if sort == "" {
		sort = enums.CraftSortNewest
	}
	if !sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	q := listQuery{
		Category: normalizeCategory(input.Filters.Category),
		Query:    input.Filters.Query,
		Sort:     sort,
		Limit:    limit + 1,
	}
	if input.Filters.MinPrice != nil {
		cents := money.ToCents(*input.Filters.MinPrice)
		q.MinPriceCents = &cents
	}
	if input.Filters.MaxPrice != nil {
		cents := money.ToCents(*input.Filters.MaxPrice)
		q.MaxPriceCents = &cents
	}
	if q.MinPriceCents != nil && q.MaxPriceCents != nil && *q.MinPriceCents > *q.MaxPriceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}

	page := 0
	if sort == enums.CraftSortNewest {
		cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		q.Cursor = cursor
	} else {
		page = input.Page
		if page < 1 {
			page = 1
		}
		q.Offset = (page - 1) * limit
	}

	rows, total, err := s.repo.listPublic(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list crafts")
	}

	result := &ListResult{Total: total, Page: page}
	if len(rows) > limit {
		rows = rows[:limit]
		if sort == enums.CraftSortNewest {
			last := rows[len(rows)-1]
			result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		}
	}
	result.Crafts = FromModels(rows)
	return result, nil
}

// Get returns a purchasable craft and counts the view.
func (s *service) Get(ctx context.Context, craftID uuid.UUID) (*CraftDTO, error) {
	craft, err := s.load(ctx, craftID)
	if err != nil {
		return nil, err
	}
	if !craft.IsPurchasable() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "craft not found")
	}
	if err := s.repo.IncrementViewCount(ctx, craft.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record view")
	}
	craft.ViewCount++
	dto := FromModel(craft)
	return &dto, nil
}

func (s *service) load(ctx context.Context, craftID uuid.UUID) (*models.Craft, error) {
	craft, err := s.repo.FindByID(ctx, craftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "craft not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load craft")
	}
	return craft, nil
}

func (s *service) ownedCraft(ctx context.Context, artisanID, craftID uuid.UUID) (*models.Craft, error) {
	craft, err := s.load(ctx, craftID)
	if err != nil {
		return nil, err
	}
	if craft.ArtisanID != artisanID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "craft not found")
	}
	return craft, nil
}

func normalizeCategory(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
