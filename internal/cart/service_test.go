package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/internal/crafts"
	"github.com/logiccrafts/connect-backend/pkg/db"
	"github.com/logiccrafts/connect-backend/pkg/db/dbtest"
	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), crafts.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestAddMergesAndCapsAtStock(t *testing.T) {
	svc, conn := newTestService(t)
	artisan := dbtest.SeedUser(t, conn, enums.UserRoleArtisan)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	craft := dbtest.SeedCraft(t, conn, artisan.ID, 1250)
	ctx := context.Background()

	cart, err := svc.Add(ctx, buyer.ID, AddItemInput{CraftID: craft.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "25.00", cart.Total.StringFixed(2))

	cart, err = svc.Add(ctx, buyer.ID, AddItemInput{CraftID: craft.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	cart, err = svc.Add(ctx, buyer.ID, AddItemInput{CraftID: craft.ID, Quantity: 100})
	require.NoError(t, err)
	assert.Equal(t, craft.Stock, cart.Items[0].Quantity)
	assert.Equal(t, craft.Stock, cart.ItemCount)
}

func TestAddRejectsUnpurchasableCraft(t *testing.T) {
	svc, conn := newTestService(t)
	artisan := dbtest.SeedUser(t, conn, enums.UserRoleArtisan)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	craft := dbtest.SeedCraft(t, conn, artisan.ID, 100)
	require.NoError(t, conn.Model(&models.Craft{}).Where("id = ?", craft.ID).Update("status", enums.CraftStatusPending).Error)

	_, err := svc.Add(context.Background(), buyer.ID, AddItemInput{CraftID: craft.ID, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Add(context.Background(), buyer.ID, AddItemInput{CraftID: uuid.New(), Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateAndRemove(t *testing.T) {
	svc, conn := newTestService(t)
	artisan := dbtest.SeedUser(t, conn, enums.UserRoleArtisan)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	craft := dbtest.SeedCraft(t, conn, artisan.ID, 100)
	ctx := context.Background()

	_, err := svc.Update(ctx, buyer.ID, craft.ID, UpdateItemInput{Quantity: 2})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Add(ctx, buyer.ID, AddItemInput{CraftID: craft.ID, Quantity: 1})
	require.NoError(t, err)

	cart, err := svc.Update(ctx, buyer.ID, craft.ID, UpdateItemInput{Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, "4.00", cart.Items[0].LineTotal.StringFixed(2))

	_, err = svc.Update(ctx, buyer.ID, craft.ID, UpdateItemInput{Quantity: craft.Stock + 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	cart, err = svc.Remove(ctx, buyer.ID, craft.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = svc.Remove(ctx, buyer.ID, craft.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestClearIsIdempotent(t *testing.T) {
	svc, conn := newTestService(t)
	artisan := dbtest.SeedUser(t, conn, enums.UserRoleArtisan)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	other := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	craft := dbtest.SeedCraft(t, conn, artisan.ID, 100)
	ctx := context.Background()

	cleared, err := svc.Clear(ctx, buyer.ID)
	require.NoError(t, err)
	assert.False(t, cleared, "empty cart reports nothing cleared")

	_, err = svc.Add(ctx, buyer.ID, AddItemInput{CraftID: craft.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Add(ctx, other.ID, AddItemInput{CraftID: craft.ID, Quantity: 1})
	require.NoError(t, err)

	cleared, err = svc.Clear(ctx, buyer.ID)
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = svc.Clear(ctx, buyer.ID)
	require.NoError(t, err)
	assert.False(t, cleared)

	remaining, err := svc.List(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, remaining.Items, 1)
}

func TestClearWithTxRollsBack(t *testing.T) {
	svc, conn := newTestService(t)
	artisan := dbtest.SeedUser(t, conn, enums.UserRoleArtisan)
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
	craft := dbtest.SeedCraft(t, conn, artisan.ID, 100)
	ctx := context.Background()
	_, err := svc.Add(ctx, buyer.ID, AddItemInput{CraftID: craft.ID, Quantity: 1})
	require.NoError(t, err)

	err = db.Wrap(conn).WithTx(ctx, func(tx *gorm.DB) error {
		cleared, err := svc.WithTx(tx).Clear(ctx, buyer.ID)
		require.NoError(t, err)
		require.True(t, cleared)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	cart, err := svc.List(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}
