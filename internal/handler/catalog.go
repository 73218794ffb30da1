package handler

import (
	"net/http"
	"strconv"

	"github.com/najiyasheri/pawsome/internal/domain/catalog"
)

type variantResponse struct {
	ID       string  `json:"id"`
	Size     string  `json:"size"`
	Price    float64 `json:"price"`
	OldPrice float64 `json:"oldPrice"`
	Stock    int     `json:"stock"`
	Active   bool    `json:"active"`
}

type productResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Brand       string            `json:"brand"`
	CategoryID  string            `json:"categoryId"`
	Images      []string          `json:"images"`
	Discount    float64           `json:"discountPercentage"`
	Variants    []variantResponse `json:"variants,omitempty"`
}

type categoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Offer       float64 `json:"offerPercentage"`
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// ListProducts returns a storefront page of products with priced variants.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := catalog.ListParams{
		Search:     r.URL.Query().Get("search"),
		CategoryID: r.URL.Query().Get("category"),
		Page:       queryInt(r, "page"),
		PerPage:    queryInt(r, "perPage"),
	}

	products, total, err := h.catalog.ListProducts(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for i := range products {
		resp, err := h.productResponse(r, &products[i], false)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out = append(out, resp)
	}

	writeJSON(w, http.StatusOK, struct {
		Products []productResponse `json:"products"`
		pageInfo
	}{out, pageInfo{Page: params.Page, PerPage: params.PerPage, Total: total}})
}

// GetProduct returns one product with its variants and effective prices.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p.Blocked {
		writeError(w, r, catalog.ErrProductNotFound)
		return
	}

	resp, err := h.productResponse(r, p, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// productResponse assembles the API shape of a product. Inactive variants are
// hidden from the storefront; withInactive keeps them for admin use.
func (h *Handler) productResponse(r *http.Request, p *catalog.Product, withInactive bool) (productResponse, error) {
	c, err := h.catalog.GetCategory(r.Context(), p.CategoryID)
	if err != nil {
		return productResponse{}, err
	}
	variants, err := h.catalog.VariantsByProduct(r.Context(), p.ID)
	if err != nil {
		return productResponse{}, err
	}

	resp := productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		CategoryID:  p.CategoryID,
		Images:      p.Images,
		Discount:    catalog.EffectiveDiscount(p.DiscountPercentage, c.OfferPercentage).InexactFloat64(),
	}
	for i := range variants {
		v := &variants[i]
		if !v.Active && !withInactive {
			continue
		}
		resp.Variants = append(resp.Variants, variantResponse{
			ID:       v.ID,
			Size:     v.Size,
			Price:    catalog.UnitPrice(p, v, c.OfferPercentage).InexactFloat64(),
			OldPrice: catalog.OldPrice(p, v).InexactFloat64(),
			Stock:    v.Stock,
			Active:   v.Active,
		})
	}
	return resp, nil
}

// ListCategories returns the visible categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]categoryResponse, len(categories))
	for i, c := range categories {
		out[i] = categoryResponse{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Offer:       c.OfferPercentage.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}
