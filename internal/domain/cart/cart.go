// Package cart implements the shopping cart store.
package cart

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// ErrInvalidQuantity is returned when an item is added with a quantity
// below one.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// ErrQuantityTooLarge is returned when adding would push a line's quantity
// past the largest representable int.
var ErrQuantityTooLarge = errors.New("quantity too large")

// Key identifies a cart line. An empty Variant means no variant selected.
type Key struct {
	ProductID int
	Variant   string
}

// Line is one product variant in the cart.
type Line struct {
	Product  product.Product `json:"product"`
	Variant  string          `json:"variant,omitempty"`
	Quantity int             `json:"quantity"`
}

// Key returns the identity of l.
func (l Line) Key() Key {
	return Key{ProductID: l.Product.ID, Variant: l.Variant}
}

// Subtotal returns price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total returns the sum of line subtotals.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Count returns the number of units across lines, capped at math.MaxInt.
func Count(lines []Line) int {
	n := 0
	for _, l := range lines {
		if n > math.MaxInt-l.Quantity {
			return math.MaxInt
		}
		n += l.Quantity
	}
	return n
}

func indexOf(lines []Line, k Key) int {
	for i, l := range lines {
		if l.Key() == k {
			return i
		}
	}
	return -1
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
