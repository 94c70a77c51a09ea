// Package catalog serves read-only queries over the static catalog document.
package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/product"
)

const instrumentationName = "github.com/xenking/storefront/internal/catalog"

// DefaultAllCategoryID is the category id that matches every product.
const DefaultAllCategoryID = 5

var (
	_ product.Repository = (*Repository)(nil)
	_ coupon.Repository  = (*Repository)(nil)
)

// Repository answers catalog queries. The document is loaded from the Source
// on every call, with a single attempt and no caching.
type Repository struct {
	src           Source
	allCategoryID int

	tracer       trace.Tracer
	loadDuration metric.Float64Histogram
	loadErrors   metric.Int64Counter
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	allCategoryID int
	tp            trace.TracerProvider
	mp            metric.MeterProvider
}

// WithAllCategoryID sets the match-all category sentinel.
func WithAllCategoryID(id int) Option {
	return func(o *options) { o.allCategoryID = id }
}

// WithTracerProvider sets the provider used for load spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithMeterProvider sets the provider used for load metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.mp = mp }
}

// New creates a Repository reading from src.
func New(src Source, opts ...Option) (*Repository, error) {
	o := options{
		allCategoryID: DefaultAllCategoryID,
		tp:            tracenoop.NewTracerProvider(),
		mp:            metricnoop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.mp.Meter(instrumentationName)
	loadDuration, err := meter.Float64Histogram("catalog.load.duration",
		metric.WithDescription("Time spent loading and decoding the catalog document"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create load histogram")
	}
	loadErrors, err := meter.Int64Counter("catalog.load.errors",
		metric.WithDescription("Failed catalog document loads"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create load error counter")
	}

	return &Repository{
		src:           src,
		allCategoryID: o.allCategoryID,
		tracer:        o.tp.Tracer(instrumentationName),
		loadDuration:  loadDuration,
		loadErrors:    loadErrors,
	}, nil
}

// AllCategoryID returns the configured match-all category sentinel.
func (r *Repository) AllCategoryID() int { return r.allCategoryID }

// Load reads and decodes the whole document.
func (r *Repository) Load(ctx context.Context) (_ *Document, rerr error) {
	ctx, span := r.tracer.Start(ctx, "catalog.Load")
	start := time.Now()
	defer func() {
		r.loadDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.Bool("error", rerr != nil)))
		if rerr != nil {
			r.loadErrors.Add(ctx, 1)
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	rc, err := r.src.Open(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}
	defer func() { _ = rc.Close() }()

	var raw documentJSON
	if err := json.NewDecoder(rc).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	doc := raw.toDomain()
	span.SetAttributes(attribute.Int("catalog.products", len(doc.Products)))
	return doc, nil
}

// List returns the products matching f in document order. A category equal
// to the match-all sentinel does not constrain the result.
func (r *Repository) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return f.WithoutMatchAll(r.allCategoryID).Apply(doc.Products), nil
}

// GetByID returns the product with the given id or product.ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id int) (*product.Product, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Products {
		if doc.Products[i].ID == id {
			p := doc.Products[i]
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

// GetByIDs returns the products whose id is in ids, in document order.
// Unknown ids are skipped.
func (r *Repository) GetByIDs(ctx context.Context, ids []int) ([]product.Product, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]product.Product, 0, len(ids))
	for _, p := range doc.Products {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Categories returns the category tree.
func (r *Repository) Categories(ctx context.Context) ([]product.Category, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

// Brands returns all brands.
func (r *Repository) Brands(ctx context.Context) ([]product.Brand, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Brands, nil
}

// Banners returns the home view banners.
func (r *Repository) Banners(ctx context.Context) ([]product.Banner, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Banners, nil
}

// Addresses returns the addresses bundled with the catalog.
func (r *Repository) Addresses(ctx context.Context) ([]address.Address, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Addresses, nil
}

// PriceRange returns the lowest and highest product price. Both are zero for
// an empty catalog.
func (r *Repository) PriceRange(ctx context.Context) (product.PriceRange, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return product.PriceRange{}, err
	}
	if len(doc.Products) == 0 {
		return product.PriceRange{Min: decimal.Zero, Max: decimal.Zero}, nil
	}
	pr := product.PriceRange{Min: doc.Products[0].Price, Max: doc.Products[0].Price}
	for _, p := range doc.Products[1:] {
		pr.Min = decimal.Min(pr.Min, p.Price)
		pr.Max = decimal.Max(pr.Max, p.Price)
	}
	return pr, nil
}

// FindByCode returns the promotion with the given code, compared
// case-insensitively, or coupon.ErrInvalidCoupon.
func (r *Repository) FindByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	for i := range doc.Promotions {
		if strings.EqualFold(doc.Promotions[i].Code, code) {
			rule := doc.Promotions[i]
			return &rule, nil
		}
	}
	return nil, coupon.ErrInvalidCoupon
}
