package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/notify"
	"github.com/xenking/storefront/internal/storage/memory"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[int]product.Product
	getErr error
	// onGetByIDs runs before GetByIDs answers.
	onGetByIDs func()
}

func (m *mockProductRepo) List(_ context.Context, _ product.Filter) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []int) ([]product.Product, error) {
	if m.onGetByIDs != nil {
		m.onGetByIDs()
	}
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockCouponValidator struct {
	discount *coupon.Discount
	err      error
	code     string
}

func (m *mockCouponValidator) Validate(_ context.Context, code string, _ []coupon.Item) (*coupon.Discount, error) {
	m.code = code
	return m.discount, m.err
}

type mockOrderRepo struct {
	Repository
	err error
}

func (m *mockOrderRepo) Create(context.Context, *Order) error { return m.err }

type mockAddresses struct {
	selected *address.Address
}

func (m *mockAddresses) Selected() *address.Address { return m.selected }

type recordingSink struct {
	events []notify.Event
}

func (r *recordingSink) Notify(_ context.Context, e notify.Event) {
	r.events = append(r.events, e)
}

// --- Helpers ---

var home = &address.Address{ID: "home", Label: "Home", Street: "1 Main", City: "Tashkent", ZipCode: "100000", Phone: "1"}

func newTestProduct(id int, name, price string, colors ...string) product.Product {
	return product.Product{
		ID:     id,
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Colors: colors,
		Images: []string{name + ".jpg"},
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[int]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductRepo{byID: byID}
}

type fixture struct {
	svc     *Service
	cart    *cart.Store
	history *History
	sink    *recordingSink
}

func newFixture(t *testing.T, products *mockProductRepo, cv coupon.Validator, addr *address.Address) *fixture {
	t.Helper()
	ctx := context.Background()
	kv := memory.New()

	c, err := cart.Open(ctx, kv, nil)
	require.NoError(t, err)
	h, err := OpenHistory(ctx, kv)
	require.NoError(t, err)

	sink := &recordingSink{}
	svc := NewService(products, cv, h, c, &mockAddresses{selected: addr}, sink)
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "order-1" }
	return &fixture{svc: svc, cart: c, history: h, sink: sink}
}

// --- Tests ---

func TestPlaceOrder_Preconditions(t *testing.T) {
	ctx := context.Background()
	p1 := newTestProduct(1, "Widget", "10")

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t, newProductRepo(p1), &mockCouponValidator{}, home)
		_, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "card"})
		require.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("no address", func(t *testing.T) {
		f := newFixture(t, newProductRepo(p1), &mockCouponValidator{}, nil)
		require.NoError(t, f.cart.AddItem(ctx, p1, "", 1))
		_, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "card"})
		require.ErrorIs(t, err, ErrNoDeliveryAddress)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		f := newFixture(t, newProductRepo(p1), &mockCouponValidator{}, home)
		require.NoError(t, f.cart.AddItem(ctx, p1, "", 1))
		_, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "cash"})
		require.ErrorIs(t, err, ErrUnknownPaymentMethod)
	})
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newProductRepo(), &mockCouponValidator{}, home)
	require.NoError(t, f.cart.AddItem(ctx, newTestProduct(9, "Gone", "5"), "", 1))

	_, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "card"})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, 9, pnfErr.ProductID)
	assert.Len(t, f.cart.Lines(), 1, "cart is kept on failure")
}

func TestPlaceOrder_RepricesFromCatalog(t *testing.T) {
	ctx := context.Background()
	current := newTestProduct(1, "Widget", "12.50")
	f := newFixture(t, newProductRepo(current), &mockCouponValidator{}, home)

	stale := current
	stale.Price = decimal.NewFromInt(10)
	require.NoError(t, f.cart.AddItem(ctx, stale, "", 2))

	o, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "paypal"})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("25").Equal(o.Total), "got %s", o.Total)
	assert.Equal(t, StatusProcessing, o.Status)
	assert.Equal(t, PaymentPayPal, o.PaymentMethod)
	assert.Equal(t, *home, o.DeliveryAddress)
	assert.Equal(t, "Widget.jpg", o.Items[0].Image)
	assert.Empty(t, f.cart.Lines(), "cart is cleared")

	stored, err := f.history.Get(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, "Order placed", f.sink.events[0].Summary)
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	ctx := context.Background()
	p1 := newTestProduct(1, "Widget", "10.00")
	p2 := newTestProduct(2, "Gadget", "20.00")
	cv := &mockCouponValidator{discount: &coupon.Discount{Amount: decimal.RequireFromString("5.00")}}
	f := newFixture(t, newProductRepo(p1, p2), cv, home)
	require.NoError(t, f.cart.AddItem(ctx, p1, "", 2))
	require.NoError(t, f.cart.AddItem(ctx, p2, "", 1))

	o, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "card", CouponCode: "SAVE5"})
	require.NoError(t, err)

	assert.Equal(t, "SAVE5", cv.code)
	assert.True(t, decimal.RequireFromString("40").Equal(o.Subtotal))
	assert.True(t, decimal.RequireFromString("5").Equal(o.Discount))
	assert.True(t, decimal.RequireFromString("35").Equal(o.Total))
}

func TestPlaceOrder_InvalidCoupon(t *testing.T) {
	ctx := context.Background()
	p1 := newTestProduct(1, "Widget", "10")
	f := newFixture(t, newProductRepo(p1), &mockCouponValidator{err: coupon.ErrInvalidCoupon}, home)
	require.NoError(t, f.cart.AddItem(ctx, p1, "", 1))

	_, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "card", CouponCode: "BOGUS"})
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	assert.Len(t, f.cart.Lines(), 1)
}

func TestPlaceOrder_DiscountFlooredAtZero(t *testing.T) {
	ctx := context.Background()
	p1 := newTestProduct(1, "Widget", "10")
	cv := &mockCouponValidator{discount: &coupon.Discount{Amount: decimal.NewFromInt(999)}}
	f := newFixture(t, newProductRepo(p1), cv, home)
	require.NoError(t, f.cart.AddItem(ctx, p1, "", 1))

	o, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "card", CouponCode: "HUGE"})
	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(o.Total))
}

func TestPlaceOrder_KeepsLinesAddedDuringCheckout(t *testing.T) {
	ctx := context.Background()
	p1 := newTestProduct(1, "Widget", "10")
	p2 := newTestProduct(2, "Gadget", "5")
	repo := newProductRepo(p1, p2)
	f := newFixture(t, repo, &mockCouponValidator{}, home)
	require.NoError(t, f.cart.AddItem(ctx, p1, "", 2))

	repo.onGetByIDs = func() {
		repo.onGetByIDs = nil
		require.NoError(t, f.cart.AddItem(ctx, p2, "", 1))
		require.NoError(t, f.cart.AddItem(ctx, p1, "", 3))
	}

	o, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "card"})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)

	remaining := map[cart.Key]int{}
	for _, l := range f.cart.Lines() {
		remaining[l.Key()] = l.Quantity
	}
	assert.Equal(t, map[cart.Key]int{
		{ProductID: 1}: 3,
		{ProductID: 2}: 1,
	}, remaining)
}

func TestPlaceOrder_CreateError(t *testing.T) {
	ctx := context.Background()
	p1 := newTestProduct(1, "Widget", "10")
	c, err := cart.Open(ctx, memory.New(), nil)
	require.NoError(t, err)
	require.NoError(t, c.AddItem(ctx, p1, "", 1))

	svc := NewService(newProductRepo(p1), &mockCouponValidator{},
		&mockOrderRepo{err: errors.New("disk full")}, c, &mockAddresses{selected: home}, nil)

	_, err = svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "card"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
	assert.Len(t, c.Lines(), 1)
}

func TestHistory_FilterByStatus(t *testing.T) {
	ctx := context.Background()
	p1 := newTestProduct(1, "Widget", "10")
	f := newFixture(t, newProductRepo(p1), &mockCouponValidator{}, home)

	ids := []string{"a", "b", "c"}
	for i, id := range ids {
		f.svc.newID = func() string { return id }
		at := time.Date(2026, 1, i+1, 0, 0, 0, 0, time.UTC)
		f.svc.now = func() time.Time { return at }
		require.NoError(t, f.cart.AddItem(ctx, p1, "", 1))
		_, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "card"})
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.UpdateStatus(ctx, "b", StatusDelivered))

	all, err := f.svc.History(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID, "newest first")

	delivered, err := f.svc.History(ctx, StatusDelivered)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "b", delivered[0].ID)

	require.ErrorIs(t, f.svc.UpdateStatus(ctx, "zzz", StatusShipped), ErrOrderNotFound)
}

func TestReorder(t *testing.T) {
	ctx := context.Background()
	phone := newTestProduct(1, "Phone", "100", "black", "green")
	buds := newTestProduct(2, "Buds", "50")
	products := newProductRepo(phone, buds)
	f := newFixture(t, products, &mockCouponValidator{}, home)

	require.NoError(t, f.cart.AddItem(ctx, phone, "green", 2))
	require.NoError(t, f.cart.AddItem(ctx, buds, "", 1))
	_, err := f.svc.PlaceOrder(ctx, PlaceOrderRequest{PaymentMethod: "card"})
	require.NoError(t, err)
	require.Empty(t, f.cart.Lines())

	// Buds left the catalog and phone got cheaper.
	delete(products.byID, 2)
	cheaper := phone
	cheaper.Price = decimal.NewFromInt(80)
	products.byID[1] = cheaper
	f.sink.events = nil

	added, err := f.svc.Reorder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	lines := f.cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "green", lines[0].Variant)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(160).Equal(f.cart.Total()))

	require.Len(t, f.sink.events, 1, "one summary notification")
	assert.Equal(t, "1 items added to cart", f.sink.events[0].Detail)
}

func TestReorder_NotFound(t *testing.T) {
	f := newFixture(t, newProductRepo(), &mockCouponValidator{}, home)

	_, err := f.svc.Reorder(context.Background(), "missing")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{"": "", "all": "", "shipped": StatusShipped} {
		got, err := ParseStatus(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStatus("lost")
	require.ErrorIs(t, err, ErrUnknownStatus)
}
