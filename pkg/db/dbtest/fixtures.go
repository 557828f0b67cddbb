package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
)

// SeedUser inserts an active user with the given role.
func SeedUser(t *testing.T, conn *gorm.DB, role enums.UserRole) models.User {
	t.Helper()
	id := uuid.New()
	user := models.User{
		ID:           id,
		Name:         fmt.Sprintf("%s %s", role, id.String()[:8]),
		Email:        fmt.Sprintf("%s@example.com", id.String()[:12]),
		PasswordHash: "hash",
		Role:         role,
		IsActive:     true,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedCraft inserts an approved public craft owned by artisanID.
func SeedCraft(t *testing.T, conn *gorm.DB, artisanID uuid.UUID, priceCents int64) models.Craft {
	t.Helper()
	craft := models.Craft{
		ArtisanID:  artisanID,
		Name:       "Hand-thrown mug",
		Category:   "pottery",
		PriceCents: priceCents,
		Stock:      25,
		Status:     enums.CraftStatusApproved,
		Visibility: enums.CraftVisibilityPublic,
	}
	if err := conn.Create(&craft).Error; err != nil {
		t.Fatalf("seed craft: %v", err)
	}
	return craft
}

// SeedOrder inserts an order with a single item in the given status.
func SeedOrder(t *testing.T, conn *gorm.DB, buyerID, artisanID, craftID uuid.UUID, status enums.OrderStatus) models.Order {
	t.Helper()
	order := models.Order{
		OrderNumber:      fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), uuid.NewString()[:5]),
		BuyerID:          buyerID,
		ArtisanID:        artisanID,
		TotalAmountCents: 2000,
		Status:           status,
		PaymentStatus:    enums.PaymentStatusPending,
		PaymentMethod:    enums.PaymentMethodCOD,
		ShippingAddress:  "1 Kiln Lane",
		BuyerPhone:       "555-0100",
	}
	if err := conn.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	item := models.OrderItem{
		OrderID:              order.ID,
		CraftID:              craftID,
		Quantity:             2,
		PriceAtPurchaseCents: 1000,
		SubtotalCents:        2000,
	}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("seed order item: %v", err)
	}
	order.Items = []models.OrderItem{item}
	return order
}
