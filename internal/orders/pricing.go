package orders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/money"
)

type pricedLine struct {
	CraftID       uuid.UUID
	Quantity      int
	PriceCents    int64
	SubtotalCents int64
}

// priceLines computes quantity * price for every line using decimal
// arithmetic. The caller supplied price is the snapshot; crafts are not re-read.
func priceLines(items []OrderItemInput) ([]pricedLine, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one item is required")
	}
	lines := make([]pricedLine, 0, len(items))
	for i, item := range items {
		if item.CraftID == uuid.Nil {
			return nil, fmt.Errorf("items[%d]: craft_id is required", i)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("items[%d]: quantity must be >= 1", i)
		}
		priceCents, err := money.NonNegativeCents(item.Price)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		lines = append(lines, pricedLine{
			CraftID:       item.CraftID,
			Quantity:      item.Quantity,
			PriceCents:    priceCents,
			SubtotalCents: money.ToCents(money.LineSubtotal(item.Quantity, money.FromCents(priceCents))),
		})
	}
	return lines, nil
}

func (l pricedLine) toModel(orderID uuid.UUID) models.OrderItem {
	return models.OrderItem{
		OrderID:              orderID,
		CraftID:              l.CraftID,
		Quantity:             l.Quantity,
		PriceAtPurchaseCents: l.PriceCents,
		SubtotalCents:        l.SubtotalCents,
	}
}

func distinctCraftIDs(lines []pricedLine) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.CraftID]; ok {
			continue
		}
		seen[line.CraftID] = struct{}{}
		ids = append(ids, line.CraftID)
	}
	return ids
}
