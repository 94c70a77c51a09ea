package handler

import (
	"bytes"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/export"
)

func (h *Handler) listPaymentMethods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, m := range order.PaymentMethods {
			e.Str(string(m))
		}
		e.ArrEnd()
	})
}

// placeOrder handles {"paymentMethod":"card","couponCode":"HAPPYHOURS"}.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req order.PlaceOrderRequest
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "paymentMethod":
			req.PaymentMethod, err = d.Str()
		case "couponCode":
			if d.Next() == jx.Null {
				return d.Null()
			}
			req.CouponCode, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { h.present.order(e, *o) })
}

// history resolves the optional status query parameter.
func (h *Handler) history(r *http.Request) ([]order.Order, error) {
	status, err := order.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		return nil, err
	}
	return h.orders.History(r.Context(), status)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.history(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, o := range orders {
			h.present.order(e, o)
		}
		e.ArrEnd()
	})
}

// exportOrders serves the filtered history as an xlsx download. The sheet is
// rendered in memory so a failure still yields a JSON error.
func (h *Handler) exportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.history(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteOrders(&buf, orders); err != nil {
		writeError(w, r, errors.Wrap(err, "export orders"))
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="orders.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.present.order(e, *o) })
}

// updateOrderStatus handles {"status":"shipped"}.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var raw string
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		v, err := d.Str()
		raw = v
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	status, err := order.ParseStatus(raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := r.PathValue("id")
	if err := h.orders.UpdateStatus(r.Context(), id, status); err != nil {
		writeError(w, r, err)
		return
	}
	h.getOrder(w, r)
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	added, err := h.orders.Reorder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	lines := h.cart.Lines()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("added")
		e.Int(added)
		e.FieldStart("cart")
		h.present.cart(e, lines)
		e.ObjEnd()
	})
}
