package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/address"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/navigate"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// ErrUnknownVariant is returned when a cart add names a color the product
// is not offered in.
var ErrUnknownVariant = errors.New("product is not offered in this variant")

// classify maps an error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	var (
		reqErr      *requestError
		paramErr    *navigate.ParamError
		validation  *address.ValidationError
		unavailable *order.ProductNotFoundError
	)
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, address.ErrNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &paramErr):
		return http.StatusBadRequest, "invalid_parameter"
	case errors.Is(err, order.ErrUnknownStatus):
		return http.StatusBadRequest, "unknown_status"
	case errors.Is(err, order.ErrUnknownPaymentMethod):
		return http.StatusBadRequest, "unknown_payment_method"
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity, "invalid_quantity"
	case errors.Is(err, cart.ErrQuantityTooLarge):
		return http.StatusUnprocessableEntity, "quantity_too_large"
	case errors.Is(err, ErrUnknownVariant):
		return http.StatusUnprocessableEntity, "unknown_variant"
	case errors.Is(err, coupon.ErrCouponExpired):
		return http.StatusUnprocessableEntity, "coupon_expired"
	case errors.Is(err, coupon.ErrInvalidCoupon):
		return http.StatusUnprocessableEntity, "invalid_coupon"
	case errors.Is(err, order.ErrEmptyCart):
		return http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, order.ErrNoDeliveryAddress):
		return http.StatusUnprocessableEntity, "no_delivery_address"
	case errors.As(err, &unavailable):
		return http.StatusUnprocessableEntity, "product_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError maps err to a response. Server-side failures are logged and
// their details are not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = "internal server error"
	}
	httpmiddleware.WriteError(w, r, status, code, msg)
}
