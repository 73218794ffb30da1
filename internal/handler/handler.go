// Package handler exposes the storefront and admin HTTP API. Handlers decode
// the request, delegate to a domain service, and map domain errors to HTTP
// status codes; no business rules live here.
package handler

import (
	"github.com/najiyasheri/pawsome/internal/domain/cart"
	"github.com/najiyasheri/pawsome/internal/domain/catalog"
	"github.com/najiyasheri/pawsome/internal/domain/coupon"
	"github.com/najiyasheri/pawsome/internal/domain/order"
	"github.com/najiyasheri/pawsome/internal/domain/user"
	"github.com/najiyasheri/pawsome/internal/domain/wallet"
	"github.com/najiyasheri/pawsome/internal/domain/wishlist"
)

// Handler carries the domain services every route delegates to.
type Handler struct {
	users     *user.Service
	catalog   catalog.Repository
	carts     *cart.Service
	wishlists *wishlist.Service
	orders    *order.Service
	wallets   *wallet.Service
	coupons   coupon.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	users *user.Service,
	cat catalog.Repository,
	carts *cart.Service,
	wishlists *wishlist.Service,
	orders *order.Service,
	wallets *wallet.Service,
	coupons coupon.Repository,
) *Handler {
	return &Handler{
		users:     users,
		catalog:   cat,
		carts:     carts,
		wishlists: wishlists,
		orders:    orders,
		wallets:   wallets,
		coupons:   coupons,
	}
}
