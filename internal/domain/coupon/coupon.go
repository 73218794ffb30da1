// Package coupon implements discount codes and their eligibility rules.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCoupon is returned when a coupon code is unknown or inactive.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponExpired is returned when a coupon is outside its validity window.
	ErrCouponExpired = errors.New("coupon expired or not yet valid")
	// ErrMinPurchase is returned when the cart subtotal is below the coupon's
	// minimum purchase amount.
	ErrMinPurchase = errors.New("minimum purchase not met")
	// ErrAlreadyUsed is returned when the user has already redeemed the coupon.
	ErrAlreadyUsed = errors.New("coupon already used")
	// ErrUsageLimitReached is returned when a coupon has exhausted its total
	// allowed redemptions.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrCodeExists is returned by admin creation when the code is taken.
	ErrCodeExists = errors.New("coupon code already exists")
)

// Coupon is a flat-value discount code with a validity window.
type Coupon struct {
	ID            string
	Code          string
	DiscountValue decimal.Decimal
	ValidFrom     time.Time
	ValidUntil    time.Time
	MinPurchase   decimal.Decimal
	// MaxDiscount caps the applied discount; zero means no cap.
	MaxDiscount decimal.Decimal
	// UsageLimit caps total redemptions across all users; zero means unlimited.
	UsageLimit int
	Active     bool
	CreatedAt  time.Time
}

// Redemption records a single use of a coupon by a user. At most one
// redemption exists per (coupon, user); the schema enforces this.
type Redemption struct {
	CouponID   string
	UserID     string
	OrderID    string
	RedeemedAt time.Time
}

// ListParams controls admin coupon listings.
type ListParams struct {
	Search  string
	Page    int
	PerPage int
}

// Repository defines persistence operations for coupons.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	GetByID(ctx context.Context, id string) (*Coupon, error)
	List(ctx context.Context, params ListParams) ([]Coupon, int, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id string) error

	CountRedemptions(ctx context.Context, couponID string) (int, error)
	HasRedemption(ctx context.Context, couponID, userID string) (bool, error)
}
