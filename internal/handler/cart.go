package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) getCart(w http.ResponseWriter, _ *http.Request) {
	lines := h.cart.Lines()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.present.cart(e, lines) })
}

// addCartItem handles {"productId":1,"variant":"red","quantity":2}. A
// missing quantity means one unit.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var (
		productID int
		variant   string
		quantity  = 1
	)
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Int()
		case "variant":
			variant, err = d.Str()
		case "quantity":
			quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.catalog.GetByID(r.Context(), productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !p.HasVariant(variant) {
		writeError(w, r, ErrUnknownVariant)
		return
	}
	if err := h.cart.AddItem(r.Context(), *p, variant, quantity); err != nil {
		writeError(w, r, err)
		return
	}
	h.getCart(w, r)
}

// setCartQuantity handles {"variant":"red","quantity":3}. A quantity of
// zero or less removes the line.
func (h *Handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var (
		variant  string
		quantity *int
	)
	err = decodeObject(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "variant":
			v, err := d.Str()
			variant = v
			return err
		case "quantity":
			v, err := d.Int()
			quantity = &v
			return err
		default:
			return d.Skip()
		}
	})
	if err == nil && quantity == nil {
		err = badRequest("quantity is required", nil)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.cart.SetQuantity(r.Context(), productID, variant, *quantity); err != nil {
		writeError(w, r, err)
		return
	}
	h.getCart(w, r)
}

// removeCartItem deletes the line identified by the product id and the
// optional variant query parameter.
func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.cart.RemoveItem(r.Context(), productID, r.URL.Query().Get("variant")); err != nil {
		writeError(w, r, err)
		return
	}
	h.getCart(w, r)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	h.getCart(w, r)
}
