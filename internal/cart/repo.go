package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) CartRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, buyerID, craftID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND craft_id = ?", buyerID, craftID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Upsert writes the final quantity for the buyer/craft pair.
func (r *repository) Upsert(ctx context.Context, buyerID, craftID uuid.UUID, quantity int) error {
	item := models.CartItem{BuyerID: buyerID, CraftID: craftID, Quantity: quantity}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "buyer_id"}, {Name: "craft_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   quantity,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&item).Error
}

func (r *repository) Remove(ctx context.Context, buyerID, craftID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("buyer_id = ? AND craft_id = ?", buyerID, craftID).
		Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

// CartLine is a cart row joined with the craft it points at.
type CartLine struct {
	CraftID    uuid.UUID             `gorm:"column:craft_id"`
	ArtisanID  uuid.UUID             `gorm:"column:artisan_id"`
	Name       string                `gorm:"column:name"`
	PriceCents int64                 `gorm:"column:price_cents"`
	Stock      int                   `gorm:"column:stock"`
	Status     enums.CraftStatus     `gorm:"column:status"`
	Visibility enums.CraftVisibility `gorm:"column:visibility"`
	Quantity   int                   `gorm:"column:quantity"`
	AddedAt    time.Time             `gorm:"column:added_at"`
}

func (r *repository) ListLines(ctx context.Context, buyerID uuid.UUID) ([]CartLine, error) {
	var lines []CartLine
	err := r.db.WithContext(ctx).
		Table("cart ci").
		Select("ci.craft_id, c.artisan_id, c.name, c.price_cents, c.stock, c.status, c.visibility, ci.quantity, ci.created_at AS added_at").
		Joins("JOIN crafts c ON c.id = ci.craft_id").
		Where("ci.buyer_id = ?", buyerID).
		Order("ci.created_at ASC").
		Scan(&lines).Error
	return lines, err
}

// Clear deletes every cart row of the buyer and reports how many went.
func (r *repository) Clear(ctx context.Context, buyerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
