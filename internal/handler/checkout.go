package handler

import (
	"net/http"

	"github.com/najiyasheri/pawsome/internal/domain/order"
	"github.com/najiyasheri/pawsome/internal/domain/user"
)

type checkoutRequest struct {
	// AddressID selects a saved address; when empty the default address is used.
	AddressID     string `json:"addressId,omitempty"`
	Shipping      string `json:"shippingMethod"`
	PaymentMethod string `json:"paymentMethod"`
	CouponCode    string `json:"couponCode,omitempty"`
}

type checkoutResponse struct {
	Order orderResponse `json:"order"`
	// IntentID is set for online payments; the client completes the capture
	// against the gateway and calls the verify endpoint.
	IntentID string `json:"intentId,omitempty"`
}

// Checkout places an order from the cart.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	u := currentUser(r.Context())
	addr, err := h.checkoutAddress(r, u, req.AddressID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	shipping := order.ShipRegular
	if req.Shipping == string(order.ShipExpress) {
		shipping = order.ShipExpress
	}

	method := order.PaymentMethod(req.PaymentMethod)
	switch method {
	case order.PayCOD, order.PayWallet, order.PayOnline:
	default:
		badRequest(w, "paymentMethod must be COD, WALLET, or ONLINE")
		return
	}

	result, err := h.orders.Checkout(r.Context(), order.CheckoutRequest{
		UserID:     u.ID,
		Address:    *addr,
		Shipping:   shipping,
		Payment:    method,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		Order:    toOrderResponse(result.Order),
		IntentID: result.IntentID,
	})
}

// checkoutAddress resolves the chosen or default saved address into the
// snapshot copied onto the order.
func (h *Handler) checkoutAddress(r *http.Request, u *user.User, addressID string) (*order.Address, error) {
	if addressID != "" {
		saved, err := h.users.Addresses(r.Context(), u.ID)
		if err != nil {
			return nil, err
		}
		for i := range saved {
			if saved[i].ID == addressID {
				return &order.Address{Name: saved[i].Name, Phone: saved[i].Phone, Text: saved[i].Text}, nil
			}
		}
		return nil, user.ErrAddressNotFound
	}

	def, err := h.users.DefaultAddress(r.Context(), u.ID)
	if err != nil {
		return nil, order.ErrNoAddress
	}
	return &order.Address{Name: def.Name, Phone: def.Phone, Text: def.Text}, nil
}

type verifyPaymentRequest struct {
	IntentID  string `json:"intentId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

// VerifyPayment completes an online checkout after the gateway capture.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.IntentID == "" || req.PaymentID == "" || req.Signature == "" {
		badRequest(w, "intentId, paymentId, and signature are required")
		return
	}

	o, err := h.orders.VerifyPayment(r.Context(), currentUser(r.Context()).ID,
		req.IntentID, req.PaymentID, req.Signature)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": toOrderResponse(o)})
}
