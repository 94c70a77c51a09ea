// Package handler exposes the storefront stores over JSON HTTP endpoints and
// a WebSocket event stream.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/wishlist"
)

// Catalog is the read side of the product catalog.
type Catalog interface {
	List(ctx context.Context, f product.Filter) ([]product.Product, error)
	GetByID(ctx context.Context, id int) (*product.Product, error)
	Categories(ctx context.Context) ([]product.Category, error)
	Brands(ctx context.Context) ([]product.Brand, error)
	Banners(ctx context.Context) ([]product.Banner, error)
	PriceRange(ctx context.Context) (product.PriceRange, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in responses.
	// When empty, paths are returned as stored in the catalog.
	ImageBaseURL string
}

// Deps are the stores and services the Handler serves.
type Deps struct {
	Catalog  Catalog
	Cart     *cart.Store
	Wishlist *wishlist.Store
	Book     *address.Book
	Orders   *order.Service
	Hub      *Hub
}

// Handler serves the storefront API.
type Handler struct {
	catalog  Catalog
	cart     *cart.Store
	wishlist *wishlist.Store
	book     *address.Book
	orders   *order.Service
	hub      *Hub
	present  presenter
}

// New constructs a Handler.
func New(cfg Config, deps Deps) *Handler {
	return &Handler{
		catalog:  deps.Catalog,
		cart:     deps.Cart,
		wishlist: deps.Wishlist,
		book:     deps.Book,
		orders:   deps.Orders,
		hub:      deps.Hub,
		present:  presenter{imageBaseURL: cfg.ImageBaseURL},
	}
}

// Register adds every API route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("GET /api/brands", h.listBrands)
	mux.HandleFunc("GET /api/banners", h.listBanners)
	mux.HandleFunc("GET /api/price-range", h.getPriceRange)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{productId}", h.setCartQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{productId}", h.removeCartItem)

	mux.HandleFunc("GET /api/wishlist", h.getWishlist)
	mux.HandleFunc("DELETE /api/wishlist", h.clearWishlist)
	mux.HandleFunc("POST /api/wishlist/{productId}", h.addToWishlist)
	mux.HandleFunc("DELETE /api/wishlist/{productId}", h.removeFromWishlist)
	mux.HandleFunc("POST /api/wishlist/{productId}/toggle", h.toggleWishlist)

	mux.HandleFunc("GET /api/addresses", h.listAddresses)
	mux.HandleFunc("POST /api/addresses", h.addAddress)
	mux.HandleFunc("GET /api/addresses/options", h.addressOptions)
	mux.HandleFunc("GET /api/addresses/selected", h.getSelectedAddress)
	mux.HandleFunc("PUT /api/addresses/selected", h.setSelectedAddress)
	mux.HandleFunc("GET /api/addresses/{id}", h.getAddress)
	mux.HandleFunc("PUT /api/addresses/{id}", h.updateAddress)
	mux.HandleFunc("DELETE /api/addresses/{id}", h.deleteAddress)

	mux.HandleFunc("GET /api/payment-methods", h.listPaymentMethods)
	mux.HandleFunc("POST /api/orders", h.placeOrder)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/export", h.exportOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.updateOrderStatus)
	mux.HandleFunc("POST /api/orders/{id}/reorder", h.reorder)

	mux.HandleFunc("POST /api/navigation/filters", h.navigateFilters)
	mux.HandleFunc("POST /api/navigation/search", h.navigateSearch)
	mux.HandleFunc("POST /api/navigation/category/{id}", h.navigateCategory)
	mux.HandleFunc("POST /api/navigation/brand/{id}", h.navigateBrand)
	mux.HandleFunc("POST /api/navigation/product/{id}", h.navigateProduct)

	mux.HandleFunc("GET /api/events", h.events)
}

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
