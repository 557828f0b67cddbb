package wishlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/money"
	"github.com/logiccrafts/connect-backend/pkg/pagination"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// AddItem inserts a wishlist entry and ignores duplicates. It reports
// whether a new row was written.
func (r *Repository) AddItem(ctx context.Context, buyerID, craftID uuid.UUID) (bool, error) {
	if buyerID == uuid.Nil || craftID == uuid.Nil {
		return false, gorm.ErrInvalidValue
	}
	item := models.WishlistItem{BuyerID: buyerID, CraftID: craftID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "buyer_id"}, {Name: "craft_id"}},
			DoNothing: true,
		}).
		Create(&item)
	return res.RowsAffected > 0, res.Error
}

// RemoveItem deletes the buyer-craft entry if it exists.
func (r *Repository) RemoveItem(ctx context.Context, buyerID, craftID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("buyer_id = ? AND craft_id = ?", buyerID, craftID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

// savedCraftColumns projects the joined craft row next to the wishlist key.
var savedCraftColumns = strings.Join([]string{
	"wi.id AS wishlist_id",
	"wi.created_at AS wishlist_created_at",
	"c.id AS craft_id",
	"c.artisan_id",
	"c.name",
	"c.category",
	"c.price_cents",
	"c.stock",
	"c.rating",
	"c.review_count",
	"c.status",
	"c.visibility",
}, ", ")

// ListItems returns the buyer's saved crafts, newest save first.
func (r *Repository) ListItems(ctx context.Context, buyerID uuid.UUID, cursor string, limit int) (WishlistItemsPageDTO, error) {
	after, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return WishlistItemsPageDTO{}, err
	}

	q := r.db.WithContext(ctx).
		Table("wishlist_items wi").
		Select(savedCraftColumns).
		Joins("JOIN crafts c ON c.id = wi.craft_id").
		Where("wi.buyer_id = ?", buyerID)

	var rows []wishlistCraftRecord
	if err := newestFirst(q, "wi.", after, limit).Scan(&rows).Error; err != nil {
		return WishlistItemsPageDTO{}, err
	}
	rows, next := pagination.Page(rows, pagination.NormalizeLimit(limit), func(row wishlistCraftRecord) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.WishlistCreatedAt, ID: row.WishlistID}
	})

	page := WishlistItemsPageDTO{Items: make([]WishlistItemDTO, 0, len(rows))}
	for _, row := range rows {
		page.Items = append(page.Items, row.toDTO())
	}
	page.Pagination, err = r.window(ctx, buyerID, cursor, next)
	return page, err
}

// ListItemIDs returns only the craft IDs a buyer has saved.
func (r *Repository) ListItemIDs(ctx context.Context, buyerID uuid.UUID, cursor string, limit int) (WishlistIDsDTO, error) {
	after, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return WishlistIDsDTO{}, err
	}

	q := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Select("id", "created_at", "craft_id").
		Where("buyer_id = ?", buyerID)

	var rows []models.WishlistItem
	if err := newestFirst(q, "", after, limit).Find(&rows).Error; err != nil {
		return WishlistIDsDTO{}, err
	}
	rows, next := pagination.Page(rows, pagination.NormalizeLimit(limit), func(row models.WishlistItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})

	out := WishlistIDsDTO{CraftIDs: make([]uuid.UUID, 0, len(rows))}
	for _, row := range rows {
		out.CraftIDs = append(out.CraftIDs, row.CraftID)
	}
	out.Pagination, err = r.window(ctx, buyerID, cursor, next)
	return out, err
}

// newestFirst applies keyset ordering on (created_at, id) and fetches one row
// past the page so the caller can tell whether another page exists.
func newestFirst(q *gorm.DB, prefix string, after *pagination.Cursor, limit int) *gorm.DB {
	if after != nil {
		q = q.Where(
			fmt.Sprintf("(%[1]screated_at < ?) OR (%[1]screated_at = ? AND %[1]sid < ?)", prefix),
			after.CreatedAt, after.CreatedAt, after.ID,
		)
	}
	return q.Order(prefix + "created_at DESC").Order(prefix + "id DESC").Limit(pagination.LimitWithBuffer(limit))
}

// CategoryCounts returns how many saved crafts the buyer has per category.
func (r *Repository) CategoryCounts(ctx context.Context, buyerID uuid.UUID) (map[string]int, error) {
	var rows []struct {
		Category string
		Total    int
	}
	err := r.db.WithContext(ctx).
		Table("wishlist_items wi").
		Select("c.category AS category, COUNT(*) AS total").
		Joins("JOIN crafts c ON c.id = wi.craft_id").
		Where("wi.buyer_id = ?", buyerID).
		Group("c.category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Category] = row.Total
	}
	return out, nil
}

// window fills the pagination block: the total, the cursors of the oldest and
// newest saves, and the cursor that resumes after this page.
func (r *Repository) window(ctx context.Context, buyerID uuid.UUID, cursor string, next *pagination.Cursor) (Pagination, error) {
	current := strings.TrimSpace(cursor)
	meta := Pagination{Current: current, Prev: current}
	if next != nil {
		meta.Next = pagination.EncodeCursor(*next)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.WishlistItem{}).Where("buyer_id = ?", buyerID).Count(&total).Error; err != nil {
		return Pagination{}, err
	}
	meta.Total = int(total)
	if total == 0 {
		return meta, nil
	}

	var err error
	if meta.First, err = r.edge(ctx, buyerID, "ASC"); err != nil {
		return Pagination{}, err
	}
	if meta.Last, err = r.edge(ctx, buyerID, "DESC"); err != nil {
		return Pagination{}, err
	}
	return meta, nil
}

func (r *Repository) edge(ctx context.Context, buyerID uuid.UUID, dir string) (string, error) {
	var row models.WishlistItem
	err := r.db.WithContext(ctx).
		Select("created_at", "id").
		Where("buyer_id = ?", buyerID).
		Order("created_at " + dir).Order("id " + dir).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return pagination.EncodeCursor(pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}), nil
}

type wishlistCraftRecord struct {
	WishlistID        uuid.UUID             `gorm:"column:wishlist_id"`
	WishlistCreatedAt time.Time             `gorm:"column:wishlist_created_at"`
	ID                uuid.UUID             `gorm:"column:craft_id"`
	ArtisanID         uuid.UUID             `gorm:"column:artisan_id"`
	Name              string                `gorm:"column:name"`
	Category          string                `gorm:"column:category"`
	PriceCents        int64                 `gorm:"column:price_cents"`
	Stock             int                   `gorm:"column:stock"`
	Rating            float64               `gorm:"column:rating"`
	ReviewCount       int                   `gorm:"column:review_count"`
	Status            enums.CraftStatus     `gorm:"column:status"`
	Visibility        enums.CraftVisibility `gorm:"column:visibility"`
}

func (r wishlistCraftRecord) toDTO() WishlistItemDTO {
	return WishlistItemDTO{
		Craft: CraftSummary{
			ID:          r.ID,
			ArtisanID:   r.ArtisanID,
			Name:        r.Name,
			Category:    r.Category,
			Price:       money.FromCents(r.PriceCents),
			Stock:       r.Stock,
			Rating:      r.Rating,
			ReviewCount: r.ReviewCount,
			Status:      r.Status,
			Visibility:  r.Visibility,
		},
		CreatedAt: r.WishlistCreatedAt,
	}
}
