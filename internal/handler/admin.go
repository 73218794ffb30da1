package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/najiyasheri/pawsome/internal/domain/catalog"
	"github.com/najiyasheri/pawsome/internal/domain/coupon"
	"github.com/najiyasheri/pawsome/internal/domain/order"
	"github.com/najiyasheri/pawsome/internal/domain/user"
)

// AdminListUsers returns a page of customer accounts.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	params := user.ListParams{
		Search:  r.URL.Query().Get("search"),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "perPage"),
	}
	users, total, err := h.users.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type adminUser struct {
		userResponse
		Blocked   bool      `json:"blocked"`
		CreatedAt time.Time `json:"createdAt"`
	}
	out := make([]adminUser, len(users))
	for i := range users {
		out[i] = adminUser{
			userResponse: toUserResponse(&users[i]),
			Blocked:      users[i].Blocked,
			CreatedAt:    users[i].CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, struct {
		Users []adminUser `json:"users"`
		pageInfo
	}{out, pageInfo{Page: params.Page, PerPage: params.PerPage, Total: total}})
}

type blockRequest struct {
	Blocked bool `json:"blocked"`
}

// AdminBlockUser blocks or unblocks an account.
func (h *Handler) AdminBlockUser(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.users.SetBlocked(r.Context(), r.PathValue("id"), req.Blocked); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"blocked": req.Blocked})
}

type productRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	CategoryID  string   `json:"categoryId"`
	Images      []string `json:"images"`
	BasePrice   float64  `json:"basePrice"`
	Discount    float64  `json:"discountPercentage"`
}

func (req *productRequest) validate() string {
	switch {
	case req.Name == "":
		return "name is required"
	case req.CategoryID == "":
		return "categoryId is required"
	case req.BasePrice <= 0:
		return "basePrice must be positive"
	case req.Discount < 0 || req.Discount > 100:
		return "discountPercentage must be between 0 and 100"
	}
	return ""
}

// AdminListProducts returns a page of products including blocked ones.
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	params := catalog.ListParams{
		Search:         r.URL.Query().Get("search"),
		CategoryID:     r.URL.Query().Get("category"),
		IncludeBlocked: true,
		Page:           queryInt(r, "page"),
		PerPage:        queryInt(r, "perPage"),
	}
	products, total, err := h.catalog.ListProducts(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for i := range products {
		resp, err := h.productResponse(r, &products[i], true)
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

// AdminCreateProduct adds a product to the catalog.
func (h *Handler) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(w, msg)
		return
	}

	p := &catalog.Product{
		ID:                 uuid.New().String(),
		Name:               req.Name,
		Description:        req.Description,
		Brand:              req.Brand,
		CategoryID:         req.CategoryID,
		Images:             req.Images,
		BasePrice:          decimal.NewFromFloat(req.BasePrice).Round(2),
		DiscountPercentage: decimal.NewFromFloat(req.Discount).Round(2),
	}
	if err := h.catalog.CreateProduct(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": p.ID})
}

// AdminUpdateProduct updates a product's fields.
func (h *Handler) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(w, msg)
		return
	}

	p := &catalog.Product{
		ID:                 r.PathValue("id"),
		Name:               req.Name,
		Description:        req.Description,
		Brand:              req.Brand,
		CategoryID:         req.CategoryID,
		Images:             req.Images,
		BasePrice:          decimal.NewFromFloat(req.BasePrice).Round(2),
		DiscountPercentage: decimal.NewFromFloat(req.Discount).Round(2),
	}
	if err := h.catalog.UpdateProduct(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": p.ID})
}

// AdminBlockProduct hides or restores a product.
func (h *Handler) AdminBlockProduct(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.catalog.SetProductBlocked(r.Context(), r.PathValue("id"), req.Blocked); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"blocked": req.Blocked})
}

type variantRequest struct {
	Size            string  `json:"size"`
	AdditionalPrice float64 `json:"additionalPrice"`
	Stock           int     `json:"stock"`
	Active          bool    `json:"active"`
}

// AdminCreateVariant adds a variant to a product.
func (h *Handler) AdminCreateVariant(w http.ResponseWriter, r *http.Request) {
	var req variantRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Size == "" || req.Stock < 0 {
		badRequest(w, "size is required and stock must not be negative")
		return
	}

	if _, err := h.catalog.GetProduct(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	v := &catalog.Variant{
		ID:              uuid.New().String(),
		ProductID:       r.PathValue("id"),
		Size:            req.Size,
		AdditionalPrice: decimal.NewFromFloat(req.AdditionalPrice).Round(2),
		Stock:           req.Stock,
		Active:          req.Active,
	}
	if err := h.catalog.CreateVariant(r.Context(), v); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": v.ID})
}

// AdminUpdateVariant updates a variant's fields.
func (h *Handler) AdminUpdateVariant(w http.ResponseWriter, r *http.Request) {
	var req variantRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Size == "" || req.Stock < 0 {
		badRequest(w, "size is required and stock must not be negative")
		return
	}

	v := &catalog.Variant{
		ID:              r.PathValue("variantID"),
		Size:            req.Size,
		AdditionalPrice: decimal.NewFromFloat(req.AdditionalPrice).Round(2),
		Stock:           req.Stock,
		Active:          req.Active,
	}
	if err := h.catalog.UpdateVariant(r.Context(), v); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": v.ID})
}

type categoryRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Offer       float64 `json:"offerPercentage"`
}

// AdminListCategories returns all categories, blocked included.
func (h *Handler) AdminListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	type adminCategory struct {
		categoryResponse
		Blocked bool `json:"blocked"`
	}
	out := make([]adminCategory, len(categories))
	for i, c := range categories {
		out[i] = adminCategory{
			categoryResponse: categoryResponse{
				ID:          c.ID,
				Name:        c.Name,
				Description: c.Description,
				Offer:       c.OfferPercentage.InexactFloat64(),
			},
			Blocked: c.Blocked,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

// AdminCreateCategory adds a category.
func (h *Handler) AdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Name == "" || req.Offer < 0 || req.Offer > 100 {
		badRequest(w, "name is required and offerPercentage must be between 0 and 100")
		return
	}

	c := &catalog.Category{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Description:     req.Description,
		OfferPercentage: decimal.NewFromFloat(req.Offer).Round(2),
	}
	if err := h.catalog.CreateCategory(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": c.ID})
}

// AdminUpdateCategory updates a category's fields.
func (h *Handler) AdminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Name == "" || req.Offer < 0 || req.Offer > 100 {
		badRequest(w, "name is required and offerPercentage must be between 0 and 100")
		return
	}

	c := &catalog.Category{
		ID:              r.PathValue("id"),
		Name:            req.Name,
		Description:     req.Description,
		OfferPercentage: decimal.NewFromFloat(req.Offer).Round(2),
	}
	if err := h.catalog.UpdateCategory(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": c.ID})
}

// AdminBlockCategory hides or restores a category.
func (h *Handler) AdminBlockCategory(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.catalog.SetCategoryBlocked(r.Context(), r.PathValue("id"), req.Blocked); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"blocked": req.Blocked})
}

type couponRequest struct {
	Code          string    `json:"code"`
	DiscountValue float64   `json:"discountValue"`
	ValidFrom     time.Time `json:"validFrom"`
	ValidUntil    time.Time `json:"validUntil"`
	MinPurchase   float64   `json:"minPurchase"`
	MaxDiscount   float64   `json:"maxDiscount"`
	UsageLimit    int       `json:"usageLimit"`
	Active        bool      `json:"active"`
}

type couponResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	DiscountValue float64   `json:"discountValue"`
	ValidFrom     time.Time `json:"validFrom"`
	ValidUntil    time.Time `json:"validUntil"`
	MinPurchase   float64   `json:"minPurchase"`
	MaxDiscount   float64   `json:"maxDiscount"`
	UsageLimit    int       `json:"usageLimit"`
	Active        bool      `json:"active"`
}

func toCouponResponse(c *coupon.Coupon) couponResponse {
	return couponResponse{
		ID:            c.ID,
		Code:          c.Code,
		DiscountValue: c.DiscountValue.InexactFloat64(),
		ValidFrom:     c.ValidFrom,
		ValidUntil:    c.ValidUntil,
		MinPurchase:   c.MinPurchase.InexactFloat64(),
		MaxDiscount:   c.MaxDiscount.InexactFloat64(),
		UsageLimit:    c.UsageLimit,
		Active:        c.Active,
	}
}

func (req *couponRequest) toCoupon(id string) (*coupon.Coupon, string) {
	switch {
	case req.Code == "":
		return nil, "code is required"
	case req.DiscountValue <= 0:
		return nil, "discountValue must be positive"
	case !req.ValidUntil.After(req.ValidFrom):
		return nil, "validUntil must be after validFrom"
	}
	return &coupon.Coupon{
		ID:            id,
		Code:          req.Code,
		DiscountValue: decimal.NewFromFloat(req.DiscountValue).Round(2),
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		MinPurchase:   decimal.NewFromFloat(req.MinPurchase).Round(2),
		MaxDiscount:   decimal.NewFromFloat(req.MaxDiscount).Round(2),
		UsageLimit:    req.UsageLimit,
		Active:        req.Active,
	}, ""
}

// AdminListCoupons returns a page of coupons.
func (h *Handler) AdminListCoupons(w http.ResponseWriter, r *http.Request) {
	params := coupon.ListParams{
		Search:  r.URL.Query().Get("search"),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "perPage"),
	}
	coupons, total, err := h.coupons.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]couponResponse, len(coupons))
	for i := range coupons {
		out[i] = toCouponResponse(&coupons[i])
	}
	writeJSON(w, http.StatusOK, struct {
		Coupons []couponResponse `json:"coupons"`
		pageInfo
	}{out, pageInfo{Page: params.Page, PerPage: params.PerPage, Total: total}})
}

// AdminCreateCoupon adds a coupon.
func (h *Handler) AdminCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	c, msg := req.toCoupon(uuid.New().String())
	if msg != "" {
		badRequest(w, msg)
		return
	}
	if err := h.coupons.Create(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCouponResponse(c))
}

// AdminUpdateCoupon updates a coupon.
func (h *Handler) AdminUpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	c, msg := req.toCoupon(r.PathValue("id"))
	if msg != "" {
		badRequest(w, msg)
		return
	}
	if err := h.coupons.Update(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(c))
}

// AdminDeleteCoupon deactivates a coupon.
func (h *Handler) AdminDeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AdminListOrders returns a page of all orders.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	params := order.ListParams{
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

// AdminGetOrder returns any order, regardless of owner.
func (h *Handler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	h.respondOrder(w, r, "", r.PathValue("id"))
}

type statusRequest struct {
	Status string `json:"status"`
}

// AdminUpdateOrderStatus applies a forward status transition to an order.
func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	next := order.Status(req.Status)
	switch next {
	case order.StatusConfirmed, order.StatusShipped, order.StatusDelivered, order.StatusCancelled:
	default:
		badRequest(w, "status must be Confirmed, Shipped, Delivered, or Cancelled")
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), next); err != nil {
		writeError(w, r, err)
		return
	}
	h.respondOrder(w, r, "", r.PathValue("id"))
}
