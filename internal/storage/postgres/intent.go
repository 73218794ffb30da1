package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/najiyasheri/pawsome/internal/payment"
)

const (
	insertIntentSQL = `INSERT INTO payment_intents (id, user_id, purpose, order_id, amount, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`

	getIntentSQL = `SELECT id, user_id, purpose, COALESCE(order_id, ''), amount, status, created_at
		FROM payment_intents WHERE id = $1`

	setIntentStatusSQL = `UPDATE payment_intents SET status = $2 WHERE id = $1`
)

var _ payment.Repository = (*IntentRepository)(nil)

// IntentRepository implements payment.Repository backed by PostgreSQL.
type IntentRepository struct {
	pool *pgxpool.Pool
}

// NewIntentRepository returns an IntentRepository that uses the given pool.
func NewIntentRepository(pool *pgxpool.Pool) *IntentRepository {
	return &IntentRepository{pool: pool}
}

// Create persists the local record of a gateway payment intent.
func (r *IntentRepository) Create(ctx context.Context, intent *payment.Intent) error {
	_, err := r.pool.Exec(ctx, insertIntentSQL,
		intent.ID, intent.UserID, intent.Purpose, intent.OrderID, intent.Amount, intent.Status,
	)
	if err != nil {
		return fmt.Errorf("creating payment intent %q: %w", intent.ID, err)
	}
	return nil
}

// Get returns an intent by id.
func (r *IntentRepository) Get(ctx context.Context, id string) (*payment.Intent, error) {
	var i payment.Intent
	err := r.pool.QueryRow(ctx, getIntentSQL, id).Scan(
		&i.ID, &i.UserID, &i.Purpose, &i.OrderID, &i.Amount, &i.Status, &i.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrIntentNotFound
		}
		return nil, fmt.Errorf("getting payment intent %q: %w", id, err)
	}
	return &i, nil
}

// SetStatus moves an intent through its lifecycle.
func (r *IntentRepository) SetStatus(ctx context.Context, id string, status payment.IntentStatus) error {
	tag, err := r.pool.Exec(ctx, setIntentStatusSQL, id, status)
	if err != nil {
		return fmt.Errorf("updating payment intent %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrIntentNotFound
	}
	return nil
}
