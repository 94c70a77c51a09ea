package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/navigate"
)

// navigateFilters builds the products navigation for the filter panel:
//
//	{"categoryId":3,"minPrice":10,"maxPrice":90,"brandIds":[1,2],"minRating":4}
//
// The price range is compared against the catalog bounds.
func (h *Handler) navigateFilters(w http.ResponseWriter, r *http.Request) {
	var f product.Filter
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case navigate.ParamCategoryID:
			f.CategoryID, err = d.Int()
		case navigate.ParamBrandID:
			f.BrandID, err = d.Int()
		case navigate.ParamSearch:
			f.Search, err = d.Str()
		case navigate.ParamMinPrice:
			f.MinPrice.Decimal, err = decodeDecimal(d)
			f.MinPrice.Valid = err == nil
		case navigate.ParamMaxPrice:
			f.MaxPrice.Decimal, err = decodeDecimal(d)
			f.MaxPrice.Valid = err == nil
		case navigate.ParamBrandIDs:
			f.BrandIDs, err = decodeInts(d)
		case navigate.ParamMinRating:
			f.MinRating, err = d.Float64()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	bounds, err := h.catalog.PriceRange(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.navigate(w, r, navigate.Filters(f, bounds))
}

// navigateSearch handles {"text":"shoes"}.
func (h *Handler) navigateSearch(w http.ResponseWriter, r *http.Request) {
	var text string
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "text" {
			return d.Skip()
		}
		v, err := d.Str()
		text = v
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.navigate(w, r, navigate.Search(text))
}

func (h *Handler) navigateCategory(w http.ResponseWriter, r *http.Request) {
	h.navigateByID(w, r, navigate.Category)
}

func (h *Handler) navigateBrand(w http.ResponseWriter, r *http.Request) {
	h.navigateByID(w, r, navigate.Brand)
}

func (h *Handler) navigateProduct(w http.ResponseWriter, r *http.Request) {
	h.navigateByID(w, r, navigate.Product)
}

func (h *Handler) navigateByID(w http.ResponseWriter, r *http.Request, build func(int) navigate.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.navigate(w, r, build(id))
}

// navigate forwards req to connected clients and echoes it back.
func (h *Handler) navigate(w http.ResponseWriter, r *http.Request, req navigate.Request) {
	if err := h.hub.Navigate(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeNavigation(e, req) })
}
