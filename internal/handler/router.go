package handler

import "net/http"

// Routes builds the API mux. All routes live under /api; admin routes under
// /api/admin require the admin flag on top of a valid session.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Public.
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/verify-otp", h.VerifyOTP)
	mux.HandleFunc("POST /api/auth/resend-otp", h.ResendOTP)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/categories", h.ListCategories)

	// Authenticated.
	mux.HandleFunc("POST /api/auth/logout", h.requireUser(h.Logout))
	mux.HandleFunc("GET /api/profile", h.requireUser(h.Profile))
	mux.HandleFunc("PUT /api/profile", h.requireUser(h.UpdateProfile))

	mux.HandleFunc("GET /api/addresses", h.requireUser(h.ListAddresses))
	mux.HandleFunc("POST /api/addresses", h.requireUser(h.AddAddress))
	mux.HandleFunc("PUT /api/addresses/{id}", h.requireUser(h.UpdateAddress))
	mux.HandleFunc("DELETE /api/addresses/{id}", h.requireUser(h.DeleteAddress))

	mux.HandleFunc("GET /api/cart", h.requireUser(h.GetCart))
	mux.HandleFunc("POST /api/cart", h.requireUser(h.AddToCart))
	mux.HandleFunc("PATCH /api/cart", h.requireUser(h.UpdateCart))
	mux.HandleFunc("DELETE /api/cart", h.requireUser(h.ClearCart))
	mux.HandleFunc("DELETE /api/cart/{productID}/{variantID}", h.requireUser(h.RemoveFromCart))

	mux.HandleFunc("GET /api/wishlist", h.requireUser(h.GetWishlist))
	mux.HandleFunc("POST /api/wishlist", h.requireUser(h.AddToWishlist))
	mux.HandleFunc("DELETE /api/wishlist/{productID}", h.requireUser(h.RemoveFromWishlist))
	mux.HandleFunc("POST /api/wishlist/{productID}/move-to-cart", h.requireUser(h.MoveToCart))

	mux.HandleFunc("POST /api/checkout", h.requireUser(h.Checkout))
	mux.HandleFunc("POST /api/payment/verify", h.requireUser(h.VerifyPayment))

	mux.HandleFunc("GET /api/orders", h.requireUser(h.ListOrders))
	mux.HandleFunc("GET /api/orders/{id}", h.requireUser(h.GetOrder))
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.requireUser(h.CancelOrder))
	mux.HandleFunc("POST /api/orders/{id}/items/{itemID}/cancel", h.requireUser(h.CancelOrderItem))
	mux.HandleFunc("POST /api/orders/{id}/items/{itemID}/return", h.requireUser(h.ReturnOrderItem))

	mux.HandleFunc("GET /api/wallet", h.requireUser(h.GetWallet))
	mux.HandleFunc("GET /api/wallet/transactions", h.requireUser(h.ListWalletTransactions))
	mux.HandleFunc("POST /api/wallet/topup", h.requireUser(h.CreateTopup))
	mux.HandleFunc("POST /api/wallet/topup/verify", h.requireUser(h.VerifyTopup))

	// Admin.
	mux.HandleFunc("GET /api/admin/users", h.requireAdmin(h.AdminListUsers))
	mux.HandleFunc("PATCH /api/admin/users/{id}/block", h.requireAdmin(h.AdminBlockUser))

	mux.HandleFunc("GET /api/admin/products", h.requireAdmin(h.AdminListProducts))
	mux.HandleFunc("POST /api/admin/products", h.requireAdmin(h.AdminCreateProduct))
	mux.HandleFunc("PUT /api/admin/products/{id}", h.requireAdmin(h.AdminUpdateProduct))
	mux.HandleFunc("PATCH /api/admin/products/{id}/block", h.requireAdmin(h.AdminBlockProduct))
	mux.HandleFunc("POST /api/admin/products/{id}/variants", h.requireAdmin(h.AdminCreateVariant))
	mux.HandleFunc("PUT /api/admin/products/{id}/variants/{variantID}", h.requireAdmin(h.AdminUpdateVariant))

	mux.HandleFunc("GET /api/admin/categories", h.requireAdmin(h.AdminListCategories))
	mux.HandleFunc("POST /api/admin/categories", h.requireAdmin(h.AdminCreateCategory))
	mux.HandleFunc("PUT /api/admin/categories/{id}", h.requireAdmin(h.AdminUpdateCategory))
	mux.HandleFunc("PATCH /api/admin/categories/{id}/block", h.requireAdmin(h.AdminBlockCategory))

	mux.HandleFunc("GET /api/admin/coupons", h.requireAdmin(h.AdminListCoupons))
	mux.HandleFunc("POST /api/admin/coupons", h.requireAdmin(h.AdminCreateCoupon))
	mux.HandleFunc("PUT /api/admin/coupons/{id}", h.requireAdmin(h.AdminUpdateCoupon))
	mux.HandleFunc("DELETE /api/admin/coupons/{id}", h.requireAdmin(h.AdminDeleteCoupon))

	mux.HandleFunc("GET /api/admin/orders", h.requireAdmin(h.AdminListOrders))
	mux.HandleFunc("GET /api/admin/orders/{id}", h.requireAdmin(h.AdminGetOrder))
	mux.HandleFunc("PATCH /api/admin/orders/{id}/status", h.requireAdmin(h.AdminUpdateOrderStatus))

	return mux
}
