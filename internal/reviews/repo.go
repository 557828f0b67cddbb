package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/pagination"
)

// Repository persists reviews and helpful votes.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a review repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ExistsForBuyer reports whether the buyer already reviewed the craft.
func (r *Repository) ExistsForBuyer(ctx context.Context, buyerID, craftID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("buyer_id = ? AND craft_id = ?", buyerID, craftID).
		Count(&count).Error
	return count > 0, err
}

// DeliveredOrderFor returns the most recent delivered order of the buyer that
// contains the craft, or nil when there is none.
func (r *Repository) DeliveredOrderFor(ctx context.Context, buyerID, craftID uuid.UUID) (*uuid.UUID, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("orders.id").
		Joins("JOIN order_items oi ON oi.order_id = orders.id").
		Where("orders.buyer_id = ? AND oi.craft_id = ? AND orders.status = ?", buyerID, craftID, enums.OrderStatusDelivered).
		Order("orders.created_at DESC").
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order.ID, nil
}

// Save writes the editable review columns.
func (r *Repository) Save(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).
		Model(review).
		Select("rating", "review_text", "images", "updated_at").
		Updates(review).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("review_id = ?", id).Delete(&models.ReviewHelpful{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Review{}).Error
}

// ListForCraft pages reviews newest first using a (created_at, id) keyset.
func (r *Repository) ListForCraft(ctx context.Context, craftID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Review, error) {
	query := r.db.WithContext(ctx).Where("craft_id = ?", craftID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Review
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// BuyerNames resolves display names for review authors.
func (r *Repository) BuyerNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u.Name
	}
	return out, nil
}

// AddHelpful records a vote and bumps the counter. A repeat vote surfaces as
// a unique violation from the insert.
func (r *Repository) AddHelpful(ctx context.Context, reviewID, userID uuid.UUID) error {
	vote := models.ReviewHelpful{ReviewID: reviewID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(&vote).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", reviewID).
		UpdateColumn("helpful_count", gorm.Expr("helpful_count + 1")).Error
}

type ratingStats struct {
	Average float64
	Total   int64
}

// Stats returns the average rating and review count for a craft; zero when
// the craft has no reviews.
func (r *Repository) Stats(ctx context.Context, craftID uuid.UUID) (float64, int, error) {
	var stats ratingStats
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("craft_id = ?", craftID).
		Scan(&stats).Error
	if err != nil {
		return 0, 0, err
	}
	return stats.Average, int(stats.Total), nil
}
