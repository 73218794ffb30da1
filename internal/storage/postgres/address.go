package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/najiyasheri/pawsome/internal/domain/user"
)

const (
	addressColumns = `id, user_id, name, phone, kind, address, is_default`

	listAddressesSQL = `SELECT ` + addressColumns + ` FROM addresses
		WHERE user_id = $1 ORDER BY is_default DESC, id`

	getAddressSQL = `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

	getDefaultAddressSQL = `SELECT ` + addressColumns + ` FROM addresses
		WHERE user_id = $1 ORDER BY is_default DESC, id LIMIT 1`

	insertAddressSQL = `INSERT INTO addresses (id, user_id, name, phone, kind, address, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updateAddressSQL = `UPDATE addresses SET name = $2, phone = $3, kind = $4, address = $5
		WHERE id = $1`

	deleteAddressSQL = `DELETE FROM addresses WHERE id = $1`

	clearDefaultSQL = `UPDATE addresses SET is_default = FALSE WHERE user_id = $1`

	setDefaultSQL = `UPDATE addresses SET is_default = TRUE WHERE user_id = $1 AND id = $2`
)

var _ user.AddressRepository = (*AddressRepository)(nil)

// AddressRepository implements user.AddressRepository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// ListForUser returns the user's addresses, default first.
func (r *AddressRepository) ListForUser(ctx context.Context, userID string) ([]user.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses: %w", err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

// Get returns an address by id.
func (r *AddressRepository) Get(ctx context.Context, id string) (*user.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrAddressNotFound
		}
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}
	return &a, nil
}

// GetDefault returns the default address, falling back to any address.
func (r *AddressRepository) GetDefault(ctx context.Context, userID string) (*user.Address, error) {
	rows, err := r.pool.Query(ctx, getDefaultAddressSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("getting default address: %w", err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrAddressNotFound
		}
		return nil, fmt.Errorf("getting default address: %w", err)
	}
	return &a, nil
}

// Create persists a new address.
func (r *AddressRepository) Create(ctx context.Context, a *user.Address) error {
	_, err := r.pool.Exec(ctx, insertAddressSQL,
		a.ID, a.UserID, a.Name, a.Phone, a.Kind, a.Text, a.Default,
	)
	if err != nil {
		return fmt.Errorf("creating address %q: %w", a.ID, err)
	}
	return nil
}

// Update updates an address's fields.
func (r *AddressRepository) Update(ctx context.Context, a *user.Address) error {
	tag, err := r.pool.Exec(ctx, updateAddressSQL, a.ID, a.Name, a.Phone, a.Kind, a.Text)
	if err != nil {
		return fmt.Errorf("updating address %q: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrAddressNotFound
	}
	return nil
}

// Delete removes an address.
func (r *AddressRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteAddressSQL, id)
	if err != nil {
		return fmt.Errorf("deleting address %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrAddressNotFound
	}
	return nil
}

// SetDefault marks one address default and clears the flag on the rest.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, addressID string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, clearDefaultSQL, userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, setDefaultSQL, userID, addressID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrAddressNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, user.ErrAddressNotFound) {
			return user.ErrAddressNotFound
		}
		return fmt.Errorf("setting default address: %w", err)
	}
	return nil
}

func scanAddress(row pgx.CollectableRow) (user.Address, error) {
	var a user.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Phone, &a.Kind, &a.Text, &a.Default)
	return a, err
}
