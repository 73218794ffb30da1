package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/najiyasheri/pawsome/internal/domain/wishlist"
)

const (
	wishlistEntriesSQL = `SELECT user_id, product_id, added_at
		FROM wishlist_entries WHERE user_id = $1 ORDER BY added_at DESC`

	addWishlistEntrySQL = `INSERT INTO wishlist_entries (user_id, product_id, added_at)
		VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`

	removeWishlistEntrySQL = `DELETE FROM wishlist_entries WHERE user_id = $1 AND product_id = $2`

	wishlistContainsSQL = `SELECT EXISTS (
		SELECT 1 FROM wishlist_entries WHERE user_id = $1 AND product_id = $2)`
)

var _ wishlist.Repository = (*WishlistRepository)(nil)

// WishlistRepository implements wishlist.Repository backed by PostgreSQL.
type WishlistRepository struct {
	pool *pgxpool.Pool
}

// NewWishlistRepository returns a WishlistRepository that uses the given pool.
func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

// List returns the user's saved products, most recent first.
func (r *WishlistRepository) List(ctx context.Context, userID string) ([]wishlist.Entry, error) {
	rows, err := r.pool.Query(ctx, wishlistEntriesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing wishlist: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (wishlist.Entry, error) {
		var e wishlist.Entry
		err := row.Scan(&e.UserID, &e.ProductID, &e.AddedAt)
		return e, err
	})
}

// Add saves a product; duplicates are ignored.
func (r *WishlistRepository) Add(ctx context.Context, e *wishlist.Entry) error {
	_, err := r.pool.Exec(ctx, addWishlistEntrySQL, e.UserID, e.ProductID, e.AddedAt)
	if err != nil {
		return fmt.Errorf("adding wishlist entry: %w", err)
	}
	return nil
}

// Remove deletes a saved product.
func (r *WishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	tag, err := r.pool.Exec(ctx, removeWishlistEntrySQL, userID, productID)
	if err != nil {
		return fmt.Errorf("removing wishlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return wishlist.ErrNotInWishlist
	}
	return nil
}

// Contains reports whether the product is saved.
func (r *WishlistRepository) Contains(ctx context.Context, userID, productID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, wishlistContainsSQL, userID, productID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking wishlist entry: %w", err)
	}
	return ok, nil
}
