package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. The JSON form is
// used for the snapshots kept in cart and wishlist storage.
type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int             `json:"categoryId"`
	BrandID     int             `json:"brandId"`
	Colors      []string        `json:"colors,omitempty"`
	Rating      float64         `json:"rating"`
	Images      []string        `json:"images,omitempty"`
	Description string          `json:"description,omitempty"`
}

// HasVariant reports whether color is one of the product's color variants.
// An empty color always matches.
func (p Product) HasVariant(color string) bool {
	if color == "" {
		return true
	}
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}

// Category groups products. Categories may nest.
type Category struct {
	ID       int
	Name     string
	Slug     string
	Icon     string
	Children []Category
}

// Brand is a product manufacturer.
type Brand struct {
	ID   int
	Name string
	Logo string
}

// Banner is a promotional slide shown on the home view.
type Banner struct {
	ID    int
	Title string
	Image string
	Link  string
}

// PriceRange holds the lowest and highest product price in the catalog.
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id int) (*Product, error)
	GetByIDs(ctx context.Context, ids []int) ([]Product, error)
}
