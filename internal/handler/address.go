package handler

import (
	"net/http"

	"github.com/najiyasheri/pawsome/internal/domain/user"
)

type addressRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Kind    string `json:"kind"`
	Address string `json:"address"`
	Default bool   `json:"default"`
}

type addressResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Kind    string `json:"kind"`
	Address string `json:"address"`
	Default bool   `json:"default"`
}

func toAddressResponse(a user.Address) addressResponse {
	return addressResponse{
		ID:      a.ID,
		Name:    a.Name,
		Phone:   a.Phone,
		Kind:    a.Kind,
		Address: a.Text,
		Default: a.Default,
	}
}

// ListAddresses returns the user's saved addresses.
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.users.Addresses(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]addressResponse, len(addrs))
	for i, a := range addrs {
		out[i] = toAddressResponse(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"addresses": out})
}

// AddAddress saves a new delivery address.
func (h *Handler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Name == "" || req.Phone == "" || req.Address == "" {
		badRequest(w, "name, phone, and address are required")
		return
	}

	a := &user.Address{
		UserID:  currentUser(r.Context()).ID,
		Name:    req.Name,
		Phone:   req.Phone,
		Kind:    req.Kind,
		Text:    req.Address,
		Default: req.Default,
	}
	if err := h.users.AddAddress(r.Context(), a); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAddressResponse(*a))
}

// UpdateAddress updates an address owned by the user.
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	a := &user.Address{
		ID:      r.PathValue("id"),
		UserID:  currentUser(r.Context()).ID,
		Name:    req.Name,
		Phone:   req.Phone,
		Kind:    req.Kind,
		Text:    req.Address,
		Default: req.Default,
	}
	if err := h.users.UpdateAddress(r.Context(), a); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAddressResponse(*a))
}

// DeleteAddress removes an address owned by the user.
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	err := h.users.DeleteAddress(r.Context(), currentUser(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
