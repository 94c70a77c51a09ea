// Package coupon prices promo codes against the contents of a cart.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported promo discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount off, never more than the subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeLowest makes one unit of the cheapest product free.
	DiscountFreeLowest DiscountType = "free_lowest"
)

var (
	// ErrInvalidCoupon is returned when a promo code is unknown or the cart
	// does not hold enough items for it.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponExpired is returned outside a promo code's validity window.
	ErrCouponExpired = errors.New("coupon expired")
)

// Rule is a promo code definition from the catalog document.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinItems     int
	Description  string
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	// MaxDiscount caps the computed amount when positive.
	MaxDiscount decimal.Decimal
}

// Discount is the computed reduction for a cart.
type Discount struct {
	Amount      decimal.Decimal
	Description string
}

// Item is a cart line as seen by the discount calculation.
type Item struct {
	ProductID int
	Price     decimal.Decimal
	Quantity  int
}

// Repository looks promo rules up by code, case-insensitively.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}
