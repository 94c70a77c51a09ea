// Package navigate builds the navigation requests emitted by catalog
// browsing and parses their parameters back into a product filter.
package navigate

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// Views a Request can target.
const (
	ViewProducts = "products"
	ViewProduct  = "product"
)

// Query parameter names.
const (
	ParamCategoryID = "categoryId"
	ParamBrandID    = "brandId"
	ParamSearch     = "search"
	ParamMinPrice   = "minPrice"
	ParamMaxPrice   = "maxPrice"
	ParamBrandIDs   = "brandIds"
	ParamMinRating  = "minRating"
	ParamID         = "id"
)

// Request is a view name plus flat query parameters.
type Request struct {
	View   string
	Params map[string]string
}

// String renders r as "view?k=v&..." with parameters in key order.
func (r Request) String() string {
	if len(r.Params) == 0 {
		return r.View
	}
	q := make(url.Values, len(r.Params))
	for k, v := range r.Params {
		q.Set(k, v)
	}
	return r.View + "?" + q.Encode()
}

// Navigator performs navigation. The routing table lives outside this
// module.
type Navigator interface {
	Navigate(ctx context.Context, r Request) error
}

// Category navigates to the product list of a category.
func Category(id int) Request {
	return Request{View: ViewProducts, Params: map[string]string{ParamCategoryID: strconv.Itoa(id)}}
}

// Brand navigates to the product list of a brand.
func Brand(id int) Request {
	return Request{View: ViewProducts, Params: map[string]string{ParamBrandID: strconv.Itoa(id)}}
}

// Search navigates to the product list filtered by text. Blank text yields
// the unfiltered list.
func Search(text string) Request {
	text = strings.TrimSpace(text)
	if text == "" {
		return Request{View: ViewProducts}
	}
	return Request{View: ViewProducts, Params: map[string]string{ParamSearch: text}}
}

// Product navigates to a product detail view.
func Product(id int) Request {
	return Request{View: ViewProduct, Params: map[string]string{ParamID: strconv.Itoa(id)}}
}

// Filters navigates to the product list narrowed by f. The price range is
// only included when it differs from the catalog bounds.
func Filters(f product.Filter, bounds product.PriceRange) Request {
	params := make(map[string]string)
	if f.CategoryID != 0 {
		params[ParamCategoryID] = strconv.Itoa(f.CategoryID)
	}
	if f.BrandID != 0 {
		params[ParamBrandID] = strconv.Itoa(f.BrandID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		params[ParamSearch] = s
	}

	minPrice, maxPrice := bounds.Min, bounds.Max
	if f.MinPrice.Valid {
		minPrice = f.MinPrice.Decimal
	}
	if f.MaxPrice.Valid {
		maxPrice = f.MaxPrice.Decimal
	}
	if !minPrice.Equal(bounds.Min) || !maxPrice.Equal(bounds.Max) {
		params[ParamMinPrice] = minPrice.String()
		params[ParamMaxPrice] = maxPrice.String()
	}

	if len(f.BrandIDs) > 0 {
		ids := make([]string, len(f.BrandIDs))
		for i, id := range f.BrandIDs {
			ids[i] = strconv.Itoa(id)
		}
		params[ParamBrandIDs] = strings.Join(ids, ",")
	}
	if f.MinRating > 0 {
		params[ParamMinRating] = strconv.FormatFloat(f.MinRating, 'f', -1, 64)
	}

	if len(params) == 0 {
		return Request{View: ViewProducts}
	}
	return Request{View: ViewProducts, Params: params}
}

// ParamError reports a query parameter that could not be parsed.
type ParamError struct {
	Param string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	return "invalid " + e.Param + " " + strconv.Quote(e.Value) + ": " + e.Err.Error()
}

func (e *ParamError) Unwrap() error { return e.Err }

// ParseFilter is the inverse of Filters. Unknown parameters are ignored and
// empty values are treated as absent.
func ParseFilter(params map[string]string) (product.Filter, error) {
	var (
		f   product.Filter
		err error
	)
	if f.CategoryID, err = parseInt(params, ParamCategoryID); err != nil {
		return product.Filter{}, err
	}
	if f.BrandID, err = parseInt(params, ParamBrandID); err != nil {
		return product.Filter{}, err
	}
	f.Search = strings.TrimSpace(params[ParamSearch])
	if f.MinPrice, err = parseDecimal(params, ParamMinPrice); err != nil {
		return product.Filter{}, err
	}
	if f.MaxPrice, err = parseDecimal(params, ParamMaxPrice); err != nil {
		return product.Filter{}, err
	}
	if v := params[ParamMinRating]; v != "" {
		r, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return product.Filter{}, &ParamError{Param: ParamMinRating, Value: v, Err: perr}
		}
		f.MinRating = r
	}
	if v := params[ParamBrandIDs]; v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, perr := strconv.Atoi(part)
			if perr != nil {
				return product.Filter{}, &ParamError{Param: ParamBrandIDs, Value: v, Err: perr}
			}
			f.BrandIDs = append(f.BrandIDs, id)
		}
	}
	return f, nil
}

// FromURL converts URL query values to the flat parameter map, keeping the
// first value of each key.
func FromURL(q url.Values) map[string]string {
	params := make(map[string]string, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params
}

func parseInt(params map[string]string, key string) (int, error) {
	v := params[key]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ParamError{Param: key, Value: v, Err: err}
	}
	return n, nil
}

func parseDecimal(params map[string]string, key string) (decimal.NullDecimal, error) {
	v := params[key]
	if v == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, &ParamError{Param: key, Value: v, Err: errors.Wrap(err, "parse decimal")}
	}
	return decimal.NewNullDecimal(d), nil
}
