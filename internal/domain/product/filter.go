package product

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Filter describes a product query. Zero-valued fields do not constrain the
// result; a product must satisfy every field that is set.
type Filter struct {
	CategoryID int
	BrandID    int
	Search     string
	MinPrice   decimal.NullDecimal
	MaxPrice   decimal.NullDecimal
	MinRating  float64
	BrandIDs   []int
}

// WithoutMatchAll returns a copy of f whose category constraint is dropped
// when it equals allCategoryID.
func (f Filter) WithoutMatchAll(allCategoryID int) Filter {
	if f.CategoryID != 0 && f.CategoryID == allCategoryID {
		f.CategoryID = 0
	}
	return f
}

// IsZero reports whether f places no constraint at all.
func (f Filter) IsZero() bool {
	return f.CategoryID == 0 && f.BrandID == 0 && f.Search == "" &&
		!f.MinPrice.Valid && !f.MaxPrice.Valid && f.MinRating == 0 && len(f.BrandIDs) == 0
}

// Match reports whether p satisfies every constraint in f.
func (f Filter) Match(p Product) bool {
	if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
		return false
	}
	if f.BrandID != 0 && p.BrandID != f.BrandID {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
		return false
	}
	if f.MinPrice.Valid && p.Price.LessThan(f.MinPrice.Decimal) {
		return false
	}
	if f.MaxPrice.Valid && p.Price.GreaterThan(f.MaxPrice.Decimal) {
		return false
	}
	if f.MinRating > 0 && p.Rating < f.MinRating {
		return false
	}
	if len(f.BrandIDs) > 0 && !containsInt(f.BrandIDs, p.BrandID) {
		return false
	}
	return true
}

// Apply returns the products matching f, preserving their order.
func (f Filter) Apply(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
