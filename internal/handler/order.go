package handler

import (
	"net/http"
	"time"

	"github.com/najiyasheri/pawsome/internal/domain/order"
)

type orderItemResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Size      string  `json:"size"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	OldPrice  float64 `json:"oldPrice"`
	Subtotal  float64 `json:"subtotal"`
	Status    string  `json:"status"`
	Reason    string  `json:"cancellationReason,omitempty"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	PaymentMethod  string              `json:"paymentMethod"`
	PaymentStatus  string              `json:"paymentStatus"`
	TotalAmount    float64             `json:"totalAmount"`
	DeliveryCharge float64             `json:"deliveryCharge"`
	DiscountAmount float64             `json:"discountAmount"`
	FinalAmount    float64             `json:"finalAmount"`
	AddressName    string              `json:"addressName"`
	AddressPhone   string              `json:"addressPhone"`
	Address        string              `json:"address"`
	Status         string              `json:"status"`
	Reason         string              `json:"cancellationReason,omitempty"`
	DeliveredAt    *time.Time          `json:"deliveredAt,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	Items          []orderItemResponse `json:"items"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		PaymentMethod:  string(o.PaymentMethod),
		PaymentStatus:  string(o.PaymentStatus),
		TotalAmount:    o.TotalAmount.InexactFloat64(),
		DeliveryCharge: o.DeliveryCharge.InexactFloat64(),
		DiscountAmount: o.DiscountAmount.InexactFloat64(),
		FinalAmount:    o.FinalAmount.InexactFloat64(),
		AddressName:    o.Address.Name,
		AddressPhone:   o.Address.Phone,
		Address:        o.Address.Text,
		Status:         string(o.Status),
		Reason:         o.CancellationReason,
		DeliveredAt:    o.DeliveredAt,
		CreatedAt:      o.CreatedAt,
		Items:          make([]orderItemResponse, len(o.Items)),
	}
	for i, it := range o.Items {
		resp.Items[i] = orderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Size:      it.Variant.Size,
			Quantity:  it.Quantity,
			Price:     it.Price.InexactFloat64(),
			OldPrice:  it.OldPrice.InexactFloat64(),
			Subtotal:  it.Subtotal.InexactFloat64(),
			Status:    string(it.Status),
			Reason:    it.CancellationReason,
		}
	}
	return resp
}

// ListOrders returns the user's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := order.ListParams{
		UserID:  currentUser(r.Context()).ID,
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "perPage"),
	}
	orders, total, err := h.orders.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, struct {
		Orders []orderResponse `json:"orders"`
		pageInfo
	}{out, pageInfo{Page: params.Page, PerPage: params.PerPage, Total: total}})
}

// GetOrder returns one of the user's orders.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), currentUser(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder cancels the whole order.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	userID := currentUser(r.Context()).ID
	if err := h.orders.CancelOrder(r.Context(), userID, r.PathValue("id"), req.Reason); err != nil {
		writeError(w, r, err)
		return
	}
	h.respondOrder(w, r, userID, r.PathValue("id"))
}

// CancelOrderItem cancels a single line of the order.
func (h *Handler) CancelOrderItem(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	userID := currentUser(r.Context()).ID
	err := h.orders.CancelItem(r.Context(), userID, r.PathValue("id"), r.PathValue("itemID"), req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondOrder(w, r, userID, r.PathValue("id"))
}

// ReturnOrderItem requests a post-delivery return of one line.
func (h *Handler) ReturnOrderItem(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	userID := currentUser(r.Context()).ID
	err := h.orders.ReturnItem(r.Context(), userID, r.PathValue("id"), r.PathValue("itemID"), req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondOrder(w, r, userID, r.PathValue("id"))
}

func (h *Handler) respondOrder(w http.ResponseWriter, r *http.Request, userID, orderID string) {
	o, err := h.orders.Get(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
