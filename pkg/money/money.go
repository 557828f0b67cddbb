// Package money converts between API decimal amounts and stored integer cents.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FromCents converts a stored cent amount into a two-place decimal.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}

// ToCents rounds amount half-away-from-zero to cents.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

// NonNegativeCents converts amount and rejects negatives.
func NonNegativeCents(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount %s must not be negative", amount.String())
	}
	return ToCents(amount), nil
}

// LineSubtotal multiplies a unit price by quantity and rounds to cents.
func LineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
