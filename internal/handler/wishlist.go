package handler

import (
	"net/http"
	"time"
)

type wishlistItemResponse struct {
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Price     float64   `json:"price"`
	OldPrice  float64   `json:"oldPrice"`
	InStock   bool      `json:"inStock"`
	AddedAt   time.Time `json:"addedAt"`
}

// GetWishlist returns the user's saved products.
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.wishlists.List(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]wishlistItemResponse, len(items))
	for i, it := range items {
		out[i] = wishlistItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     it.Price.InexactFloat64(),
			OldPrice:  it.OldPrice.InexactFloat64(),
			InStock:   it.InStock,
			AddedAt:   it.AddedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

type wishlistAddRequest struct {
	ProductID string `json:"productId"`
}

// AddToWishlist saves a product.
func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistAddRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.ProductID == "" {
		badRequest(w, "productId is required")
		return
	}

	if err := h.wishlists.Add(r.Context(), currentUser(r.Context()).ID, req.ProductID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// RemoveFromWishlist deletes a saved product.
func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	err := h.wishlists.Remove(r.Context(), currentUser(r.Context()).ID, r.PathValue("productID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type moveToCartRequest struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// MoveToCart adds a saved product to the cart and removes it from the wishlist.
func (h *Handler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	var req moveToCartRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.VariantID == "" {
		badRequest(w, "variantId is required")
		return
	}

	userID := currentUser(r.Context()).ID
	err := h.wishlists.MoveToCart(r.Context(), userID, r.PathValue("productID"), req.VariantID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondCart(w, r, userID)
}
