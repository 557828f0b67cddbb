package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/money"
)

// AddItemInput adds quantity of a craft to the cart.
type AddItemInput struct {
	CraftID  uuid.UUID `json:"craft_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gte=1"`
}

// UpdateItemInput sets the quantity of an existing cart line.
type UpdateItemInput struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// CartItemDTO is one cart line with its current craft price.
type CartItemDTO struct {
	CraftID   uuid.UUID       `json:"craft_id"`
	ArtisanID uuid.UUID       `json:"artisan_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Stock     int             `json:"stock"`
	Available bool            `json:"available"`
}

// CartDTO is the buyer's full cart.
type CartDTO struct {
	Items     []CartItemDTO   `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

func newCartDTO(lines []CartLine) CartDTO {
	out := CartDTO{Items: make([]CartItemDTO, 0, len(lines)), Total: decimal.Zero}
	for _, line := range lines {
		price := money.FromCents(line.PriceCents)
		lineTotal := money.LineSubtotal(line.Quantity, price)
		available := line.Status == enums.CraftStatusApproved && line.Visibility == enums.CraftVisibilityPublic && line.Stock >= line.Quantity
		out.Items = append(out.Items, CartItemDTO{
			CraftID:   line.CraftID,
			ArtisanID: line.ArtisanID,
			Name:      line.Name,
			Price:     price,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
			Stock:     line.Stock,
			Available: available,
		})
		out.ItemCount += line.Quantity
		if available {
			out.Total = out.Total.Add(lineTotal)
		}
	}
	return out
}
