package handler

import (
	"net/http"

	"github.com/najiyasheri/pawsome/internal/domain/cart"
)

type cartLineResponse struct {
	ProductID   string  `json:"productId"`
	VariantID   string  `json:"variantId"`
	ProductName string  `json:"productName"`
	Image       string  `json:"image"`
	Size        string  `json:"size"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	OldPrice    float64 `json:"oldPrice"`
	Subtotal    float64 `json:"subtotal"`
	Stock       int     `json:"stock"`
}

type cartResponse struct {
	Lines    []cartLineResponse `json:"items"`
	Subtotal float64            `json:"subtotal"`
}

func toCartResponse(view *cart.View) cartResponse {
	resp := cartResponse{
		Lines:    make([]cartLineResponse, len(view.Lines)),
		Subtotal: view.Subtotal.InexactFloat64(),
	}
	for i, l := range view.Lines {
		resp.Lines[i] = cartLineResponse{
			ProductID:   l.ProductID,
			VariantID:   l.VariantID,
			ProductName: l.ProductName,
			Image:       l.Image,
			Size:        l.Size,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.InexactFloat64(),
			OldPrice:    l.OldPrice.InexactFloat64(),
			Subtotal:    l.Subtotal.InexactFloat64(),
			Stock:       l.Stock,
		}
	}
	return resp
}

// GetCart returns the priced cart contents.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.Contents(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

type cartAddRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// AddToCart puts a variant into the cart.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req cartAddRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.ProductID == "" || req.VariantID == "" {
		badRequest(w, "productId and variantId are required")
		return
	}

	userID := currentUser(r.Context()).ID
	if err := h.carts.Add(r.Context(), userID, req.ProductID, req.VariantID, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	h.respondCart(w, r, userID)
}

type cartUpdateRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	// Delta adjusts the quantity; -1 and +1 implement the stepper buttons.
	Delta int `json:"delta"`
}

// UpdateCart adjusts a line's quantity by a delta.
func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req cartUpdateRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Delta == 0 {
		badRequest(w, "delta must be non-zero")
		return
	}

	userID := currentUser(r.Context()).ID
	if err := h.carts.UpdateQuantity(r.Context(), userID, req.ProductID, req.VariantID, req.Delta); err != nil {
		writeError(w, r, err)
		return
	}
	h.respondCart(w, r, userID)
}

// RemoveFromCart deletes one line.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r.Context()).ID
	err := h.carts.Remove(r.Context(), userID, r.PathValue("productID"), r.PathValue("variantID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondCart(w, r, userID)
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r.Context()).ID
	if err := h.carts.Clear(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	h.respondCart(w, r, userID)
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, userID string) {
	view, err := h.carts.Contents(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}
