package handler

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/wishlist"
	"github.com/xenking/storefront/internal/navigate"
)

// presenter renders domain values as JSON. HTTP responses and event stream
// frames share it so both carry identical shapes.
type presenter struct {
	// imageBaseURL is prepended to relative image paths.
	imageBaseURL string
}

func (p presenter) image(path string) string {
	if p.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(p.imageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeStrings(e *jx.Encoder, ss []string, fn func(string) string) {
	e.ArrStart()
	for _, s := range ss {
		e.Str(fn(s))
	}
	e.ArrEnd()
}

func identity(s string) string { return s }

func (p presenter) product(e *jx.Encoder, v product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int(v.ID)
	e.FieldStart("name")
	e.Str(v.Name)
	e.FieldStart("price")
	encodeDecimal(e, v.Price)
	e.FieldStart("priceFormatted")
	e.Str(product.FormatPrice(v.Price))
	e.FieldStart("categoryId")
	e.Int(v.CategoryID)
	e.FieldStart("brandId")
	e.Int(v.BrandID)
	e.FieldStart("colors")
	encodeStrings(e, v.Colors, identity)
	e.FieldStart("rating")
	e.Float64(v.Rating)
	e.FieldStart("images")
	encodeStrings(e, v.Images, p.image)
	if v.Description != "" {
		e.FieldStart("description")
		e.Str(v.Description)
	}
	e.ObjEnd()
}

func (p presenter) products(e *jx.Encoder, vs []product.Product) {
	e.ArrStart()
	for _, v := range vs {
		p.product(e, v)
	}
	e.ArrEnd()
}

func (p presenter) category(e *jx.Encoder, c product.Category) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	if c.Slug != "" {
		e.FieldStart("slug")
		e.Str(c.Slug)
	}
	if c.Icon != "" {
		e.FieldStart("icon")
		e.Str(p.image(c.Icon))
	}
	if len(c.Children) > 0 {
		e.FieldStart("children")
		e.ArrStart()
		for _, child := range c.Children {
			p.category(e, child)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
}

func (p presenter) brand(e *jx.Encoder, b product.Brand) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int(b.ID)
	e.FieldStart("name")
	e.Str(b.Name)
	if b.Logo != "" {
		e.FieldStart("logo")
		e.Str(p.image(b.Logo))
	}
	e.ObjEnd()
}

func (p presenter) banner(e *jx.Encoder, b product.Banner) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int(b.ID)
	e.FieldStart("title")
	e.Str(b.Title)
	e.FieldStart("image")
	e.Str(p.image(b.Image))
	if b.Link != "" {
		e.FieldStart("link")
		e.Str(b.Link)
	}
	e.ObjEnd()
}

func priceRange(e *jx.Encoder, r product.PriceRange) {
	e.ObjStart()
	e.FieldStart("min")
	encodeDecimal(e, r.Min)
	e.FieldStart("max")
	encodeDecimal(e, r.Max)
	e.ObjEnd()
}

func (p presenter) cart(e *jx.Encoder, lines []cart.Line) {
	total := cart.Total(lines)
	e.ObjStart()
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("product")
		p.product(e, l.Product)
		if l.Variant != "" {
			e.FieldStart("variant")
			e.Str(l.Variant)
		}
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("subtotal")
		encodeDecimal(e, l.Subtotal())
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("count")
	e.Int(cart.Count(lines))
	e.FieldStart("total")
	encodeDecimal(e, total)
	e.FieldStart("totalFormatted")
	e.Str(product.FormatPrice(total))
	e.ObjEnd()
}

func (p presenter) wishlist(e *jx.Encoder, entries []wishlist.Entry) {
	e.ObjStart()
	e.FieldStart("entries")
	e.ArrStart()
	for _, en := range entries {
		e.ObjStart()
		e.FieldStart("product")
		p.product(e, en.Product)
		e.FieldStart("addedAt")
		e.Str(en.AddedAt.UTC().Format(time.RFC3339))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("count")
	e.Int(len(entries))
	e.ObjEnd()
}

func encodeAddress(e *jx.Encoder, a address.Address) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(a.ID)
	e.FieldStart("label")
	e.Str(a.Label)
	e.FieldStart("address")
	e.Str(a.Street)
	e.FieldStart("city")
	e.Str(a.City)
	e.FieldStart("zipCode")
	e.Str(a.ZipCode)
	e.FieldStart("phone")
	e.Str(a.Phone)
	e.ObjEnd()
}

func encodeAddresses(e *jx.Encoder, as []address.Address) {
	e.ArrStart()
	for _, a := range as {
		encodeAddress(e, a)
	}
	e.ArrEnd()
}

// encodeSelected writes the selected address or null.
func encodeSelected(e *jx.Encoder, a *address.Address) {
	if a == nil {
		e.Null()
		return
	}
	encodeAddress(e, *a)
}

func encodeOptions(e *jx.Encoder, opts []address.Option) {
	e.ArrStart()
	for _, o := range opts {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(o.ID)
		e.FieldStart("displayLabel")
		e.Str(o.DisplayLabel)
		e.FieldStart("addNew")
		e.Bool(o.AddNew)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func (p presenter) order(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Int(it.ProductID)
		e.FieldStart("name")
		e.Str(it.Name)
		if it.Image != "" {
			e.FieldStart("image")
			e.Str(p.image(it.Image))
		}
		e.FieldStart("price")
		encodeDecimal(e, it.Price)
		if it.Variant != "" {
			e.FieldStart("variant")
			e.Str(it.Variant)
		}
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("count")
	e.Int(o.Count())
	e.FieldStart("subtotal")
	encodeDecimal(e, o.Subtotal)
	e.FieldStart("discount")
	encodeDecimal(e, o.Discount)
	e.FieldStart("total")
	encodeDecimal(e, o.Total)
	if o.CouponCode != "" {
		e.FieldStart("couponCode")
		e.Str(o.CouponCode)
	}
	e.FieldStart("paymentMethod")
	e.Str(string(o.PaymentMethod))
	e.FieldStart("deliveryAddress")
	encodeAddress(e, o.DeliveryAddress)
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}

func encodeNavigation(e *jx.Encoder, r navigate.Request) {
	e.ObjStart()
	e.FieldStart("view")
	e.Str(r.View)
	e.FieldStart("params")
	e.ObjStart()
	for _, k := range slices.Sorted(maps.Keys(r.Params)) {
		e.FieldStart(k)
		e.Str(r.Params[k])
	}
	e.ObjEnd()
	e.FieldStart("url")
	e.Str(r.String())
	e.ObjEnd()
}
