package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) getWishlist(w http.ResponseWriter, _ *http.Request) {
	entries := h.wishlist.Entries()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.present.wishlist(e, entries) })
}

func (h *Handler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.wishlist.Add(r.Context(), *p); err != nil {
		writeError(w, r, err)
		return
	}
	h.getWishlist(w, r)
}

// removeFromWishlist does not consult the catalog so entries for products
// that left the catalog can still be removed.
func (h *Handler) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.wishlist.Remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.getWishlist(w, r)
}

func (h *Handler) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := h.wishlist.Toggle(r.Context(), *p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("productId")
		e.Int(id)
		e.FieldStart("inWishlist")
		e.Bool(in)
		e.ObjEnd()
	})
}

func (h *Handler) clearWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.wishlist.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	h.getWishlist(w, r)
}
