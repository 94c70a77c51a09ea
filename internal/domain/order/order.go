// Package order implements checkout, order history and re-ordering.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/address"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ErrUnknownStatus is returned by ParseStatus for unrecognised values.
var ErrUnknownStatus = errors.New("unknown order status")

// ParseStatus validates s. The empty string and "all" parse to the zero
// Status, which matches every order in History.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	case "", "all":
		return "", nil
	default:
		return "", ErrUnknownStatus
	}
}

// PaymentMethod is how an order was paid for. Payment itself is simulated.
type PaymentMethod string

const (
	PaymentCard      PaymentMethod = "card"
	PaymentPayPal    PaymentMethod = "paypal"
	PaymentApplePay  PaymentMethod = "apple-pay"
	PaymentGooglePay PaymentMethod = "google-pay"
)

// PaymentMethods lists the accepted payment methods in display order.
var PaymentMethods = []PaymentMethod{PaymentCard, PaymentPayPal, PaymentApplePay, PaymentGooglePay}

// ErrUnknownPaymentMethod is returned for a payment method not in
// PaymentMethods.
var ErrUnknownPaymentMethod = errors.New("unknown payment method")

// ParsePaymentMethod validates s.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	for _, m := range PaymentMethods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", ErrUnknownPaymentMethod
}

// Order is a placed order.
type Order struct {
	ID              string          `json:"id"`
	Items           []Item          `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	CouponCode      string          `json:"couponCode,omitempty"`
	Status          Status          `json:"status"`
	DeliveryAddress address.Address `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Item is an order line priced at checkout time.
type Item struct {
	ProductID int             `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Variant   string          `json:"variant,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Count returns the number of units in o.
func (o *Order) Count() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Repository persists orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// List returns every order, newest first.
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
