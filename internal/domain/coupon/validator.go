package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Discount holds the outcome of a successful eligibility check.
type Discount struct {
	Coupon *Coupon
	Amount decimal.Decimal
}

// Validator checks whether a coupon code may be applied to a purchase with
// the given subtotal, and computes the resulting discount.
type Validator interface {
	Validate(ctx context.Context, code, userID string, subtotal decimal.Decimal) (*Discount, error)
}

// RepoValidator implements Validator against a coupon Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the coupon by code and applies the eligibility rules in
// order: active code exists, now within [ValidFrom, ValidUntil], subtotal >=
// MinPurchase, user has not redeemed it before, and the total usage limit is
// not exhausted. On success it returns the discount amount, capped at
// MaxDiscount (when set) and at the subtotal.
func (v *RepoValidator) Validate(ctx context.Context, code, userID string, subtotal decimal.Decimal) (*Discount, error) {
	c, err := v.repo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return nil, ErrInvalidCoupon
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	if !c.Active {
		return nil, ErrInvalidCoupon
	}

	now := v.now()
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return nil, ErrCouponExpired
	}

	if subtotal.LessThan(c.MinPurchase) {
		return nil, ErrMinPurchase
	}

	used, err := v.repo.HasRedemption(ctx, c.ID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "check redemption")
	}
	if used {
		return nil, ErrAlreadyUsed
	}

	if c.UsageLimit > 0 {
		count, err := v.repo.CountRedemptions(ctx, c.ID)
		if err != nil {
			return nil, errors.Wrap(err, "count redemptions")
		}
		if count >= c.UsageLimit {
			return nil, ErrUsageLimitReached
		}
	}

	return &Discount{Coupon: c, Amount: Amount(c, subtotal)}, nil
}

// Amount computes the discount a coupon grants on the given subtotal: the flat
// DiscountValue, capped at MaxDiscount (when set) and never exceeding the
// subtotal itself.
func Amount(c *Coupon, subtotal decimal.Decimal) decimal.Decimal {
	amount := c.DiscountValue
	if c.MaxDiscount.IsPositive() && amount.GreaterThan(c.MaxDiscount) {
		amount = c.MaxDiscount
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount.Round(2)
}
