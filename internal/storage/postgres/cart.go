package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/najiyasheri/pawsome/internal/domain/cart"
)

const (
	cartLinesSQL = `SELECT product_id, variant_id, quantity, added_at
		FROM cart_lines WHERE user_id = $1 ORDER BY added_at`

	upsertCartLineSQL = `INSERT INTO cart_lines (user_id, product_id, variant_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id, variant_id) DO UPDATE SET quantity = EXCLUDED.quantity`

	removeCartLineSQL = `DELETE FROM cart_lines
		WHERE user_id = $1 AND product_id = $2 AND variant_id = $3`

	clearCartSQL = `DELETE FROM cart_lines WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Lines returns the user's cart lines in insertion order.
func (r *CartRepository) Lines(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, cartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart lines: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Line, error) {
		var l cart.Line
		err := row.Scan(&l.ProductID, &l.VariantID, &l.Quantity, &l.AddedAt)
		return l, err
	})
}

// Upsert inserts the line or replaces the quantity of an existing one.
func (r *CartRepository) Upsert(ctx context.Context, userID string, line cart.Line) error {
	_, err := r.pool.Exec(ctx, upsertCartLineSQL,
		userID, line.ProductID, line.VariantID, line.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upserting cart line: %w", err)
	}
	return nil
}

// Remove deletes a cart line.
func (r *CartRepository) Remove(ctx context.Context, userID, productID, variantID string) error {
	tag, err := r.pool.Exec(ctx, removeCartLineSQL, userID, productID, variantID)
	if err != nil {
		return fmt.Errorf("removing cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

// Clear empties the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, clearCartSQL, userID)
	if err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}
