package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderNumberSpace = 100000

// numberGenerator produces a candidate order number for the given instant.
type numberGenerator func(now time.Time) (string, error)

// NewOrderNumber returns ORD-YYYYMMDD-NNNNN using the UTC date and a
// crypto-random five digit suffix.
func NewOrderNumber(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(orderNumberSpace))
	if err != nil {
		return "", fmt.Errorf("order number suffix: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%05d", now.UTC().Format("20060102"), n.Int64()), nil
}
