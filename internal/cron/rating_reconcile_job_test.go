package cron

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logiccrafts/connect-backend/internal/crafts"
	"github.com/logiccrafts/connect-backend/internal/reviews"
	"github.com/logiccrafts/connect-backend/pkg/db/dbtest"
	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/logger"
)

func TestRatingReconcileJobRepairsDrift(t *testing.T) {
	client, conn := dbtest.Client(t)
	artisan := dbtest.SeedUser(t, conn, enums.UserRoleArtisan)
	craft := dbtest.SeedCraft(t, conn, artisan.ID, 1500)
	unreviewed := dbtest.SeedCraft(t, conn, artisan.ID, 900)

	for _, rating := range []int{5, 4} {
		buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer)
		require.NoError(t, conn.Create(&models.Review{BuyerID: buyer.ID, CraftID: craft.ID, Rating: rating}).Error)
	}
	require.NoError(t, conn.Model(&models.Craft{}).Where("id IN ?", []any{craft.ID, unreviewed.ID}).
		UpdateColumns(map[string]any{"rating": 1.0, "review_count": 12}).Error)

	aggregator := reviews.NewAggregator(reviews.NewRepository(conn), crafts.NewRepository(conn))
	job, err := NewRatingReconcileJob(RatingReconcileJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		DB:         client,
		Aggregator: aggregator,
	})
	require.NoError(t, err)
	require.Equal(t, "rating-reconcile", job.Name())
	require.NoError(t, job.Run(context.Background()))

	var stored models.Craft
	require.NoError(t, conn.First(&stored, "id = ?", craft.ID).Error)
	require.InDelta(t, 4.5, stored.Rating, 0.001)
	require.Equal(t, 2, stored.ReviewCount)

	var other models.Craft
	require.NoError(t, conn.First(&other, "id = ?", unreviewed.ID).Error)
	require.InDelta(t, 0, other.Rating, 0.001)
	require.Equal(t, 0, other.ReviewCount)
}

func TestNewRatingReconcileJobRequiresDependencies(t *testing.T) {
	_, err := NewRatingReconcileJob(RatingReconcileJobParams{})
	require.Error(t, err)
}
