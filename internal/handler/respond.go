package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/najiyasheri/pawsome/internal/domain/cart"
	"github.com/najiyasheri/pawsome/internal/domain/catalog"
	"github.com/najiyasheri/pawsome/internal/domain/coupon"
	"github.com/najiyasheri/pawsome/internal/domain/order"
	"github.com/najiyasheri/pawsome/internal/domain/user"
	"github.com/najiyasheri/pawsome/internal/domain/wallet"
	"github.com/najiyasheri/pawsome/internal/domain/wishlist"
	"github.com/najiyasheri/pawsome/internal/payment"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads the JSON request body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: http.StatusBadRequest, Message: msg})
}

// writeError maps a domain error to its HTTP status. Unknown errors become an
// opaque 500 and get logged with the request context.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, status, errorResponse{Code: status, Message: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Code: status, Message: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, user.ErrUnauthorized),
		errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrNotVerified):
		return http.StatusUnauthorized

	case errors.Is(err, user.ErrBlocked):
		return http.StatusForbidden

	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrVariantNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, user.ErrAddressNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, wishlist.ErrNotInWishlist),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrItemNotFound),
		errors.Is(err, payment.ErrIntentNotFound):
		return http.StatusNotFound

	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, coupon.ErrCodeExists),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrItemNotCancellable),
		errors.Is(err, order.ErrNotDelivered),
		errors.Is(err, order.ErrReturnWindowClosed):
		return http.StatusConflict

	case errors.Is(err, payment.ErrSignatureMismatch):
		return http.StatusPaymentRequired

	case errors.Is(err, catalog.ErrNotPurchasable),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrInsufficientStock),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrCODLimitExceeded),
		errors.Is(err, order.ErrNoAddress),
		errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, coupon.ErrInvalidCoupon),
		errors.Is(err, coupon.ErrCouponExpired),
		errors.Is(err, coupon.ErrMinPurchase),
		errors.Is(err, coupon.ErrAlreadyUsed),
		errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, user.ErrInvalidOTP),
		errors.Is(err, user.ErrOTPExpired),
		errors.Is(err, user.ErrInvalidReferral):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// pageInfo is the pagination envelope shared by list responses.
type pageInfo struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Total   int `json:"total"`
}
