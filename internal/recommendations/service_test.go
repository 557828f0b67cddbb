package recommendations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/internal/wishlist"
	"github.com/logiccrafts/connect-backend/pkg/db/dbtest"
	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), wishlist.NewRepository(conn), nil)
	require.NoError(t, err)
	return svc, conn
}

func seedCraft(t *testing.T, conn *gorm.DB, artisanID uuid.UUID, category string, counters map[string]any) models.Craft {
	t.Helper()
	craft := dbtest.SeedCraft(t, conn, artisanID, 1000)
	updates := map[string]any{"category": category}
	for k, v := range counters {
		updates[k] = v
	}
	require.NoError(t, conn.Model(&models.Craft{}).Where("id = ?", craft.ID).UpdateColumns(updates).Error)
	craft.Category = category
	return craft
}

func ids(result *Result) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(result.Crafts))
	for _, c := range result.Crafts {
		out = append(out, c.ID)
	}
	return out
}

func TestTrendingOrdersByScore(t *testing.T) {
	svc, conn := newTestService(t)
	artisan := dbtest.SeedUser(t, conn, enums.UserRoleArtisan)

	ordered := seedCraft(t, conn, artisan.ID, "pottery", map[string]any{"order_count": 5})
	saved := seedCraft(t, conn, artisan.ID, "pottery", map[string]any{"save_count": 10})
	viewed := seedCraft(t, conn, artisan.ID, "pottery", map[string]any{"view_count": 3})
	rated := seedCraft(t, conn, artisan.ID, "pottery", map[string]any{"rating": 4.5, "review_count": 2})
	seedCraft(t, conn, artisan.ID, "pottery", map[string]any{"order_count": 100, "status": enums.CraftStatusPending})
	seedCraft(t, conn, artisan.ID, "pottery", map[string]any{"order_count": 100, "visibility": enums.CraftVisibilityHidden})

	result, err := svc.Trending(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, SourceTrending, result.Source)
	assert.Equal(t, []uuid.UUID{saved.ID, ordered.ID, rated.ID, viewed.ID}, ids(result))
}

func TestForBuyerWithoutHistoryFallsBackToTrending(t *testing.T) {
	svc, conn := newTestService(t)
	artisan := dbtest.SeedUser(t, conn, enums.UserRoleArtisan)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	seedCraft(t, conn, artisan.ID, "glass", nil)

	result, err := svc.ForBuyer(context.Background(), buyer.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, SourceTrending, result.Source)
	assert.Len(t, result.Crafts, 1)
}

func TestForBuyerRanksByCategoryWeight(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	artisan := dbtest.SeedUser(t, conn, enums.UserRoleArtisan)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)

	bought := seedCraft(t, conn, artisan.ID, "pottery", nil)
	dbtest.SeedOrder(t, conn, buyer.ID, artisan.ID, bought.ID, enums.OrderStatusDelivered)

	savedScarf := seedCraft(t, conn, artisan.ID, "textiles", nil)
	require.NoError(t, conn.Create(&models.WishlistItem{BuyerID: buyer.ID, CraftID: savedScarf.ID}).Error)

	quietBowl := seedCraft(t, conn, artisan.ID, "pottery", map[string]any{"view_count": 1})
	popularRug := seedCraft(t, conn, artisan.ID, "textiles", map[string]any{"order_count": 50})
	glass := seedCraft(t, conn, artisan.ID, "glass", map[string]any{"order_count": 90})

	result, err := svc.ForBuyer(ctx, buyer.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, SourcePersonalized, result.Source)
	assert.Equal(t, map[string]int{"pottery": 3, "textiles": 2}, result.Weights)

	got := ids(result)
	assert.NotContains(t, got, bought.ID)
	assert.Equal(t, []uuid.UUID{quietBowl.ID, popularRug.ID, savedScarf.ID, glass.ID}, got)
}

func TestForBuyerCountsCartLines(t *testing.T) {
	svc, conn := newTestService(t)
	artisan := dbtest.SeedUser(t, conn, enums.UserRoleArtisan)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	basket := seedCraft(t, conn, artisan.ID, "weaving", nil)
	require.NoError(t, conn.Create(&models.CartItem{ID: uuid.New(), BuyerID: buyer.ID, CraftID: basket.ID, Quantity: 1}).Error)

	result, err := svc.ForBuyer(context.Background(), buyer.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"weaving": 1}, result.Weights)
	assert.Equal(t, []uuid.UUID{basket.ID}, ids(result))
}
