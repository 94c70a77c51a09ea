package order

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/notify"
)

// Sentinel errors for order placement.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNoDeliveryAddress = errors.New("no delivery address selected")
	ErrOrderNotFound     = errors.New("order not found")
)

// ProductNotFoundError indicates a cart product is no longer in the catalog.
type ProductNotFoundError struct {
	ProductID int
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// Cart is the part of the cart store the service depends on.
type Cart interface {
	Lines() []cart.Line
	Subtract(ctx context.Context, ordered []cart.Line) error
	AddItemSilent(ctx context.Context, p product.Product, variant string, quantity int) error
}

// Addresses provides the delivery address.
type Addresses interface {
	Selected() *address.Address
}

// PlaceOrderRequest holds the checkout input.
type PlaceOrderRequest struct {
	PaymentMethod string
	CouponCode    string
}

// Service encapsulates checkout and order history.
type Service struct {
	products  product.Repository
	coupons   coupon.Validator
	orders    Repository
	cart      Cart
	addresses Addresses
	sink      notify.Sink

	now   func() time.Time
	newID func() string
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	coupons coupon.Validator,
	orders Repository,
	cartStore Cart,
	addresses Addresses,
	sink notify.Sink,
) *Service {
	if sink == nil {
		sink = notify.Discard
	}
	return &Service{
		products:  products,
		coupons:   coupons,
		orders:    orders,
		cart:      cartStore,
		addresses: addresses,
		sink:      sink,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// PlaceOrder turns the current cart into an order. Lines are re-priced from
// the catalog in one batch, the promo code is applied, the order is stored
// and the cart is cleared.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	lines := s.cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	delivery := s.addresses.Selected()
	if delivery == nil {
		return nil, ErrNoDeliveryAddress
	}
	method, err := ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	byID, err := s.fetch(ctx, lineIDs(lines))
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(lines))
	couponItems := make([]coupon.Item, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.Product.ID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: l.Product.ID}
		}
		items = append(items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     firstImage(p),
			Price:     p.Price,
			Variant:   l.Variant,
			Quantity:  l.Quantity,
		})
		couponItems = append(couponItems, coupon.Item{
			ProductID: p.ID,
			Price:     p.Price,
			Quantity:  l.Quantity,
		})
	}

	subtotal := coupon.Subtotal(couponItems)
	discount := decimal.Zero
	if req.CouponCode != "" {
		d, err := s.coupons.Validate(ctx, req.CouponCode, couponItems)
		if err != nil {
			return nil, errors.Wrap(err, "validate coupon")
		}
		discount = d.Amount
	}

	// Floored at zero, rounded to 2 decimal places.
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	o := &Order{
		ID:              s.newID(),
		Items:           items,
		Subtotal:        subtotal.Round(2),
		Discount:        discount.Round(2),
		Total:           total.Round(2),
		CouponCode:      req.CouponCode,
		Status:          StatusProcessing,
		DeliveryAddress: *delivery,
		PaymentMethod:   method,
		CreatedAt:       s.now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// Only the ordered units leave the cart. Lines added meanwhile stay.
	if err := s.cart.Subtract(ctx, lines); err != nil {
		zctx.From(ctx).Error("Remove ordered lines from cart", zap.String("order_id", o.ID), zap.Error(err))
	}
	s.sink.Notify(ctx, notify.Success("Order placed",
		"Order "+o.ID+" total "+product.FormatPrice(o.Total)))
	return o, nil
}

// History returns orders newest first, keeping only those in status when it
// is set.
func (s *Service) History(ctx context.Context, status Status) ([]Order, error) {
	all, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if status == "" {
		return all, nil
	}
	out := make([]Order, 0, len(all))
	for _, o := range all {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// UpdateStatus moves an order to status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if status == "" {
		return ErrUnknownStatus
	}
	return s.orders.UpdateStatus(ctx, id, status)
}

// Reorder adds the items of a past order to the cart at current catalog
// prices. Products no longer in the catalog are skipped. It emits a single
// summary notification and returns the number of lines added.
func (s *Service) Reorder(ctx context.Context, id string) (int, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	ids := make([]int, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	byID, err := s.fetch(ctx, ids)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, it := range o.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		variant := it.Variant
		if !p.HasVariant(variant) {
			variant = ""
		}
		if err := s.cart.AddItemSilent(ctx, p, variant, it.Quantity); err != nil {
			return added, errors.Wrap(err, "add to cart")
		}
		added++
	}

	if added == 0 {
		s.sink.Notify(ctx, notify.Info("Nothing added", "None of the ordered products are available"))
		return 0, nil
	}
	s.sink.Notify(ctx, notify.Success("Added to cart", strconv.Itoa(added)+" items added to cart"))
	return added, nil
}

func (s *Service) fetch(ctx context.Context, ids []int) (map[int]product.Product, error) {
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[int]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}
	return byID, nil
}

func lineIDs(lines []cart.Line) []int {
	ids := make([]int, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.Product.ID)
	}
	return ids
}

func firstImage(p product.Product) string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
