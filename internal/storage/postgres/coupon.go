package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/najiyasheri/pawsome/internal/domain/coupon"
)

const (
	couponColumns = `id, code, discount_value, valid_from, valid_until,
		min_purchase, max_discount, usage_limit, active, created_at`

	getCouponByCodeSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	getCouponByIDSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	insertCouponSQL = `INSERT INTO coupons (id, code, discount_value, valid_from, valid_until,
			min_purchase, max_discount, usage_limit, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateCouponSQL = `UPDATE coupons SET code = $2, discount_value = $3, valid_from = $4,
			valid_until = $5, min_purchase = $6, max_discount = $7, usage_limit = $8, active = $9
		WHERE id = $1`

	deleteCouponSQL = `UPDATE coupons SET active = FALSE WHERE id = $1`

	countRedemptionsSQL = `SELECT count(*) FROM coupon_redemptions WHERE coupon_id = $1`

	hasRedemptionSQL = `SELECT EXISTS (
		SELECT 1 FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2)`

	redeemCouponSQL = `INSERT INTO coupon_redemptions (coupon_id, user_id, order_id)
		VALUES ($1, $2, $3)`

	releaseRedemptionSQL = `DELETE FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its code (case-insensitive).
// Returns coupon.ErrInvalidCoupon when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// GetByID returns a coupon by id, active or not.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("getting coupon %q: %w", id, err)
	}
	return &c, nil
}

// List returns a page of coupons for the admin console.
func (r *CouponRepository) List(ctx context.Context, params coupon.ListParams) ([]coupon.Coupon, int, error) {
	where := `WHERE ($1 = '' OR code ILIKE '%' || $1 || '%')`

	var total int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM coupons `+where, params.Search).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting coupons: %w", err)
	}

	page, perPage := normalizePage(params.Page, params.PerPage)
	rows, err := r.pool.Query(ctx,
		`SELECT `+couponColumns+` FROM coupons `+where+
			` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		params.Search, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing coupons: %w", err)
	}

	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, 0, fmt.Errorf("listing coupons: %w", err)
	}
	return coupons, total, nil
}

// Create persists a new coupon. Returns coupon.ErrCodeExists for a taken code.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, insertCouponSQL,
		c.ID, c.Code, c.DiscountValue, c.ValidFrom, c.ValidUntil,
		c.MinPurchase, c.MaxDiscount, c.UsageLimit, c.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrCodeExists
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update updates a coupon's fields.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	tag, err := r.pool.Exec(ctx, updateCouponSQL,
		c.ID, c.Code, c.DiscountValue, c.ValidFrom, c.ValidUntil,
		c.MinPurchase, c.MaxDiscount, c.UsageLimit, c.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrCodeExists
		}
		return fmt.Errorf("updating coupon %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrInvalidCoupon
	}
	return nil
}

// Delete deactivates a coupon. Redemption history stays intact.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrInvalidCoupon
	}
	return nil
}

// CountRedemptions returns the total number of redemptions of a coupon.
func (r *CouponRepository) CountRedemptions(ctx context.Context, couponID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, countRedemptionsSQL, couponID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting redemptions of %q: %w", couponID, err)
	}
	return n, nil
}

// HasRedemption reports whether the user has already redeemed the coupon.
func (r *CouponRepository) HasRedemption(ctx context.Context, couponID, userID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, hasRedemptionSQL, couponID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking redemption of %q: %w", couponID, err)
	}
	return ok, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountValue, &c.ValidFrom, &c.ValidUntil,
		&c.MinPurchase, &c.MaxDiscount, &c.UsageLimit, &c.Active, &c.CreatedAt,
	)
	return c, err
}
