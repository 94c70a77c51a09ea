package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/navigate"
)

// listProducts serves the product list. It accepts the same query
// parameters the navigation requests carry.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	f, err := navigate.ParseFilter(navigate.FromURL(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	products, err := h.catalog.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.present.products(e, products) })
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("product")
		h.present.product(e, *p)
		e.FieldStart("inWishlist")
		e.Bool(h.wishlist.Contains(p.ID))
		e.ObjEnd()
	})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range categories {
			h.present.category(e, c)
		}
		e.ArrEnd()
	})
}

func (h *Handler) listBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.Brands(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, b := range brands {
			h.present.brand(e, b)
		}
		e.ArrEnd()
	})
}

func (h *Handler) listBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.catalog.Banners(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, b := range banners {
			h.present.banner(e, b)
		}
		e.ArrEnd()
	})
}

func (h *Handler) getPriceRange(w http.ResponseWriter, r *http.Request) {
	pr, err := h.catalog.PriceRange(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { priceRange(e, pr) })
}
