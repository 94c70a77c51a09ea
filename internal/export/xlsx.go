// Package export renders order history as a spreadsheet.
package export

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"github.com/xenking/storefront/internal/domain/order"
)

// ContentType is the MIME type of the documents written by WriteOrders.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04:05"

var orderHeaders = []string{
	"Order ID", "Created", "Status", "Payment", "Coupon",
	"Product ID", "Product", "Variant", "Quantity", "Unit price", "Line total",
	"Order subtotal", "Order discount", "Order total", "Delivery address",
}

// WriteOrders writes an .xlsx workbook with one row per order item.
func WriteOrders(w io.Writer, orders []order.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return errors.Wrap(err, "add sheet")
	}

	header := sheet.AddRow()
	for _, h := range orderHeaders {
		header.AddCell().SetString(h)
	}

	for _, o := range orders {
		addr := o.DeliveryAddress.Street + ", " + o.DeliveryAddress.City + " " + o.DeliveryAddress.ZipCode
		for _, it := range o.Items {
			row := sheet.AddRow()
			row.AddCell().SetString(o.ID)
			row.AddCell().SetString(o.CreatedAt.Format(timeLayout))
			row.AddCell().SetString(string(o.Status))
			row.AddCell().SetString(string(o.PaymentMethod))
			row.AddCell().SetString(o.CouponCode)
			row.AddCell().SetInt(it.ProductID)
			row.AddCell().SetString(it.Name)
			row.AddCell().SetString(it.Variant)
			row.AddCell().SetInt(it.Quantity)
			row.AddCell().SetFloat(it.Price.InexactFloat64())
			row.AddCell().SetFloat(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).InexactFloat64())
			row.AddCell().SetFloat(o.Subtotal.InexactFloat64())
			row.AddCell().SetFloat(o.Discount.InexactFloat64())
			row.AddCell().SetFloat(o.Total.InexactFloat64())
			row.AddCell().SetString(addr)
		}
	}

	if err := file.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}
