package recommendations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
)

// trendingScore ranks crafts by buyer engagement.
const trendingScore = "(order_count * 3 + save_count * 2 + view_count + rating * review_count)"

// Repository reads buyer history and ranked craft candidates.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CraftQuery narrows a ranked craft lookup.
type CraftQuery struct {
	Categories []string
	Exclude    []uuid.UUID
	Limit      int
}

// RankedCrafts returns approved public crafts ordered by trending score.
func (r *Repository) RankedCrafts(ctx context.Context, q CraftQuery) ([]models.Craft, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Craft{}).
		Where("status = ? AND visibility = ?", enums.CraftStatusApproved, enums.CraftVisibilityPublic)
	if len(q.Categories) > 0 {
		query = query.Where("category IN ?", q.Categories)
	}
	if len(q.Exclude) > 0 {
		query = query.Where("id NOT IN ?", q.Exclude)
	}
	var rows []models.Craft
	err := query.
		Order(trendingScore + " DESC").
		Order("created_at DESC").
		Order("id ASC").
		Limit(q.Limit).
		Find(&rows).Error
	return rows, err
}

type categoryCount struct {
	Category string
	Total    int
}

// OrderedCategories counts ordered line items per craft category.
func (r *Repository) OrderedCategories(ctx context.Context, buyerID uuid.UUID) (map[string]int, error) {
	var rows []categoryCount
	err := r.db.WithContext(ctx).
		Table("order_items oi").
		Select("c.category AS category, COUNT(*) AS total").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN crafts c ON c.id = oi.craft_id").
		Where("o.buyer_id = ?", buyerID).
		Group("c.category").
		Scan(&rows).Error
	return toMap(rows), err
}

// CartCategories counts cart lines per craft category.
func (r *Repository) CartCategories(ctx context.Context, buyerID uuid.UUID) (map[string]int, error) {
	var rows []categoryCount
	err := r.db.WithContext(ctx).
		Table("cart ci").
		Select("c.category AS category, COUNT(*) AS total").
		Joins("JOIN crafts c ON c.id = ci.craft_id").
		Where("ci.buyer_id = ?", buyerID).
		Group("c.category").
		Scan(&rows).Error
	return toMap(rows), err
}

// OrderedCraftIDs lists every craft the buyer has ordered at least once.
func (r *Repository) OrderedCraftIDs(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("order_items oi").
		Distinct("oi.craft_id").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.buyer_id = ?", buyerID).
		Pluck("oi.craft_id", &ids).Error
	return ids, err
}

func toMap(rows []categoryCount) map[string]int {
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Category] = row.Total
	}
	return out
}
