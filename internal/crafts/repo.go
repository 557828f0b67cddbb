package crafts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
)

// Repository encapsulates craft persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a craft repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, craft *models.Craft) error {
	return r.db.WithContext(ctx).Create(craft).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Craft, error) {
	var craft models.Craft
	if err := r.db.WithContext(ctx).First(&craft, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &craft, nil
}

// FindByIDs loads the crafts with the given ids keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Craft, error) {
	out := make(map[uuid.UUID]models.Craft, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Craft
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// Save writes the editable columns of craft.
func (r *Repository) Save(ctx context.Context, craft *models.Craft) error {
	return r.db.WithContext(ctx).
		Model(craft).
		Select("name", "description", "category", "price_cents", "stock", "visibility", "status", "updated_at").
		Updates(craft).Error
}

// Delete removes the craft and the cart and wishlist rows pointing at it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("craft_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("craft_id = ?", id).Delete(&models.WishlistItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Craft{}, "id = ?", id).Error
}

// HasOrderItems reports whether any order line references the craft.
func (r *Repository) HasOrderItems(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("craft_id = ?", id).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByArtisan returns every craft owned by the artisan, newest first.
func (r *Repository) ListByArtisan(ctx context.Context, artisanID uuid.UUID) ([]models.Craft, error) {
	var rows []models.Craft
	err := r.db.WithContext(ctx).
		Where("artisan_id = ?", artisanID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// ListIDs returns the id of every craft, used by the rating reconcile job.
func (r *Repository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Craft{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (r *Repository) listPublic(ctx context.Context, q listQuery) ([]models.Craft, int64, error) {
	var total int64
	if err := r.publicScope(ctx, q).Model(&models.Craft{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.publicScope(ctx, q)
	switch q.Sort {
	case enums.CraftSortPriceAsc:
		query = query.Order("price_cents ASC").Order("id ASC").Offset(q.Offset)
	case enums.CraftSortPriceDesc:
		query = query.Order("price_cents DESC").Order("id ASC").Offset(q.Offset)
	case enums.CraftSortRating:
		query = query.Order("rating DESC").Order("review_count DESC").Order("id ASC").Offset(q.Offset)
	default:
		if q.Cursor != nil {
			query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
		}
		query = query.Order("created_at DESC").Order("id DESC")
	}

	var rows []models.Craft
	if err := query.Limit(q.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) publicScope(ctx context.Context, q listQuery) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.Craft{}).
		Where("status = ? AND visibility = ?", enums.CraftStatusApproved, enums.CraftVisibilityPublic)
	if category := strings.TrimSpace(q.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if term := strings.ToLower(strings.TrimSpace(q.Query)); term != "" {
		pattern := "%" + term + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}
	if q.MinPriceCents != nil {
		query = query.Where("price_cents >= ?", *q.MinPriceCents)
	}
	if q.MaxPriceCents != nil {
		query = query.Where("price_cents <= ?", *q.MaxPriceCents)
	}
	return query
}

// IncrementViewCount bumps view_count by one.
func (r *Repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Craft{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// AdjustSaveCount adds delta to save_count without going below zero.
func (r *Repository) AdjustSaveCount(ctx context.Context, id uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.Craft{}).
		Where("id = ?", id).
		UpdateColumn("save_count", gorm.Expr("CASE WHEN save_count + ? < 0 THEN 0 ELSE save_count + ? END", delta, delta)).Error
}

// IncrementOrderCount bumps order_count for every craft in ids by one.
func (r *Repository) IncrementOrderCount(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Craft{}).
		Where("id IN ?", ids).
		UpdateColumn("order_count", gorm.Expr("order_count + 1")).Error
}

// SetRating stores the aggregate written by the rating aggregator.
func (r *Repository) SetRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error {
	return r.db.WithContext(ctx).
		Model(&models.Craft{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"rating": rating, "review_count": reviewCount}).Error
}
