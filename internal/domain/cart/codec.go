package cart

import (
	"encoding/json"
	"math"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage"
)

// legacyLine is the pre-envelope format: a product object carrying its cart
// quantity and optional color.
type legacyLine struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    int             `json:"categoryId"`
	BrandID       int             `json:"brandId"`
	Colors        []string        `json:"colors"`
	Rating        float64         `json:"rating"`
	Images        []string        `json:"images"`
	Image         string          `json:"image"`
	Description   string          `json:"description"`
	Quantity      int             `json:"quantity"`
	SelectedColor string          `json:"selectedColor"`
}

func decodeLines(rec storage.Record) ([]Line, error) {
	switch rec.Version {
	case 0:
		var legacy []legacyLine
		if err := json.Unmarshal(rec.Data, &legacy); err != nil {
			return nil, errors.Wrap(err, "decode legacy cart")
		}
		lines := make([]Line, 0, len(legacy))
		for _, l := range legacy {
			images := l.Images
			if len(images) == 0 && l.Image != "" {
				images = []string{l.Image}
			}
			var err error
			lines, err = appendLine(lines, Line{
				Product: product.Product{
					ID:          l.ID,
					Name:        l.Name,
					Price:       l.Price,
					CategoryID:  l.CategoryID,
					BrandID:     l.BrandID,
					Colors:      l.Colors,
					Rating:      l.Rating,
					Images:      images,
					Description: l.Description,
				},
				Variant:  l.SelectedColor,
				Quantity: l.Quantity,
			})
			if err != nil {
				return nil, errors.Wrap(err, "decode legacy cart")
			}
		}
		return lines, nil
	case storage.SchemaVersion:
		var stored []Line
		err := json.Unmarshal(rec.Data, &stored)
		if err != nil {
			return nil, errors.Wrap(err, "decode cart")
		}
		lines := make([]Line, 0, len(stored))
		for _, l := range stored {
			if lines, err = appendLine(lines, l); err != nil {
				return nil, errors.Wrap(err, "decode cart")
			}
		}
		return lines, nil
	default:
		return nil, errors.Errorf("unsupported cart version %d", rec.Version)
	}
}

// appendLine merges l into lines by key and drops non-positive quantities.
// lines is left untouched when the merged quantity would overflow.
func appendLine(lines []Line, l Line) ([]Line, error) {
	if l.Quantity < 1 {
		return lines, nil
	}
	if i := indexOf(lines, l.Key()); i >= 0 {
		if lines[i].Quantity > math.MaxInt-l.Quantity {
			return lines, ErrQuantityTooLarge
		}
		lines[i].Quantity += l.Quantity
		return lines, nil
	}
	return append(lines, l), nil
}
