package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/address"
)

func decodeAddress(w http.ResponseWriter, r *http.Request) (address.Address, error) {
	var a address.Address
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "label":
			a.Label, err = d.Str()
		case "address":
			a.Street, err = d.Str()
		case "city":
			a.City, err = d.Str()
		case "zipCode":
			a.ZipCode, err = d.Str()
		case "phone":
			a.Phone, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return address.Address{}, err
	}
	return a, address.Validate(a)
}

func (h *Handler) listAddresses(w http.ResponseWriter, _ *http.Request) {
	list := h.book.List()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeAddresses(e, list) })
}

func (h *Handler) getAddress(w http.ResponseWriter, r *http.Request) {
	a, err := h.book.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeAddress(e, a) })
}

// addAddress stores a new address; the book selects it.
func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	a, err := decodeAddress(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := h.book.Add(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeAddress(e, saved) })
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.book.Get(id); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := decodeAddress(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.ID = id
	if err := h.book.Update(r.Context(), a); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeAddress(e, a) })
}

// deleteAddress is idempotent: unknown ids succeed.
func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.book.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) addressOptions(w http.ResponseWriter, _ *http.Request) {
	opts := h.book.ListForSelection()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOptions(e, opts) })
}

func (h *Handler) getSelectedAddress(w http.ResponseWriter, _ *http.Request) {
	selected := h.book.Selected()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSelected(e, selected) })
}

// setSelectedAddress handles {"id":"..."}. A null or empty id clears the
// selection. Picking the add-new option leaves the selection unchanged and
// tells the client to open the address form.
func (h *Handler) setSelectedAddress(w http.ResponseWriter, r *http.Request) {
	var id string
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "id" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		v, err := d.Str()
		id = v
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if address.IsAddNew(id) {
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("addNew")
			e.Bool(true)
			e.ObjEnd()
		})
		return
	}
	if id != "" {
		if _, err := h.book.Get(id); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if err := h.book.SetSelected(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.getSelectedAddress(w, r)
}
