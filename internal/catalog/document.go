package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/product"
)

// Document is a decoded catalog.
type Document struct {
	Products   []product.Product
	Categories []product.Category
	Brands     []product.Brand
	Banners    []product.Banner
	Addresses  []address.Address
	Promotions []coupon.Rule
}

type documentJSON struct {
	Products   []productJSON   `json:"products"`
	Categories []categoryJSON  `json:"categories"`
	Brands     []brandJSON     `json:"brands"`
	Banners    []bannerJSON    `json:"banners"`
	Addresses  []addressJSON   `json:"addresses"`
	Promotions []promotionJSON `json:"promotions"`
}

// productJSON accepts the price as a number or a string (decimal handles
// both) and the legacy single "image" field.
type productJSON struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int             `json:"categoryId"`
	BrandID     int             `json:"brandId"`
	Colors      []string        `json:"colors"`
	Rating      float64         `json:"rating"`
	Images      []string        `json:"images"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

type categoryJSON struct {
	ID       int            `json:"id"`
	Name     string         `json:"name"`
	Slug     string         `json:"slug"`
	Icon     string         `json:"icon"`
	Children []categoryJSON `json:"children"`
}

type brandJSON struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

type bannerJSON struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
	Link  string `json:"link"`
}

type addressJSON struct {
	ID      flexID `json:"id"`
	Label   string `json:"label"`
	Street  string `json:"address"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
	Phone   string `json:"phone"`
}

type promotionJSON struct {
	Code         string          `json:"code"`
	DiscountType string          `json:"discountType"`
	Value        decimal.Decimal `json:"value"`
	MinItems     int             `json:"minItems"`
	Description  string          `json:"description"`
	ValidFrom    *time.Time      `json:"validFrom"`
	ValidUntil   *time.Time      `json:"validUntil"`
	MaxDiscount  decimal.Decimal `json:"maxDiscount"`
}

// flexID is an identifier written either as a JSON string or a number.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}

func (d documentJSON) toDomain() *Document {
	doc := &Document{
		Products:   make([]product.Product, 0, len(d.Products)),
		Categories: convertCategories(d.Categories),
		Brands:     make([]product.Brand, 0, len(d.Brands)),
		Banners:    make([]product.Banner, 0, len(d.Banners)),
		Addresses:  make([]address.Address, 0, len(d.Addresses)),
		Promotions: make([]coupon.Rule, 0, len(d.Promotions)),
	}
	for _, p := range d.Products {
		images := p.Images
		if len(images) == 0 && p.Image != "" {
			images = []string{p.Image}
		}
		doc.Products = append(doc.Products, product.Product{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			CategoryID:  p.CategoryID,
			BrandID:     p.BrandID,
			Colors:      p.Colors,
			Rating:      p.Rating,
			Images:      images,
			Description: p.Description,
		})
	}
	for _, b := range d.Brands {
		doc.Brands = append(doc.Brands, product.Brand{ID: b.ID, Name: b.Name, Logo: b.Logo})
	}
	for _, b := range d.Banners {
		doc.Banners = append(doc.Banners, product.Banner{ID: b.ID, Title: b.Title, Image: b.Image, Link: b.Link})
	}
	for i, a := range d.Addresses {
		id := string(a.ID)
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		doc.Addresses = append(doc.Addresses, address.Address{
			ID:      id,
			Label:   a.Label,
			Street:  a.Street,
			City:    a.City,
			ZipCode: a.ZipCode,
			Phone:   a.Phone,
		})
	}
	for _, p := range d.Promotions {
		doc.Promotions = append(doc.Promotions, coupon.Rule{
			Code:         p.Code,
			DiscountType: coupon.DiscountType(p.DiscountType),
			Value:        p.Value,
			MinItems:     p.MinItems,
			Description:  p.Description,
			ValidFrom:    p.ValidFrom,
			ValidUntil:   p.ValidUntil,
			MaxDiscount:  p.MaxDiscount,
		})
	}
	return doc
}

func convertCategories(in []categoryJSON) []product.Category {
	if len(in) == 0 {
		return nil
	}
	out := make([]product.Category, 0, len(in))
	for _, c := range in {
		out = append(out, product.Category{
			ID:       c.ID,
			Name:     c.Name,
			Slug:     c.Slug,
			Icon:     c.Icon,
			Children: convertCategories(c.Children),
		})
	}
	return out
}
