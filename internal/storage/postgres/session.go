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
	insertSessionSQL = `INSERT INTO sessions (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`

	getSessionSQL = `SELECT token_hash, user_id, expires_at, created_at
		FROM sessions WHERE token_hash = $1`

	deleteSessionSQL = `DELETE FROM sessions WHERE token_hash = $1`

	deleteUserSessionsSQL = `DELETE FROM sessions WHERE user_id = $1`

	insertOTPSQL = `INSERT INTO otps (email, code, expires_at) VALUES ($1, $2, $3)`

	latestOTPSQL = `SELECT email, code, expires_at FROM otps
		WHERE email = $1 ORDER BY created_at DESC LIMIT 1`

	deleteOTPsSQL = `DELETE FROM otps WHERE email = $1`
)

var (
	_ user.SessionRepository = (*SessionRepository)(nil)
	_ user.OTPRepository     = (*OTPRepository)(nil)
)

// SessionRepository implements user.SessionRepository backed by PostgreSQL.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a SessionRepository that uses the given pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create persists a session keyed by token hash.
func (r *SessionRepository) Create(ctx context.Context, s *user.Session) error {
	_, err := r.pool.Exec(ctx, insertSessionSQL, s.TokenHash, s.UserID, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// Get returns the session behind a token hash.
func (r *SessionRepository) Get(ctx context.Context, tokenHash string) (*user.Session, error) {
	rows, err := r.pool.Query(ctx, getSessionSQL, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (user.Session, error) {
		var s user.Session
		err := row.Scan(&s.TokenHash, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUnauthorized
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return &s, nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, deleteSessionSQL, tokenHash)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteForUser removes every session of a user.
func (r *SessionRepository) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, deleteUserSessionsSQL, userID)
	if err != nil {
		return fmt.Errorf("deleting sessions of %q: %w", userID, err)
	}
	return nil
}

// OTPRepository implements user.OTPRepository backed by PostgreSQL.
type OTPRepository struct {
	pool *pgxpool.Pool
}

// NewOTPRepository returns an OTPRepository that uses the given pool.
func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

// Create stores a new verification code.
func (r *OTPRepository) Create(ctx context.Context, otp *user.OTP) error {
	_, err := r.pool.Exec(ctx, insertOTPSQL, otp.Email, otp.Code, otp.ExpiresAt)
	if err != nil {
		return fmt.Errorf("creating otp: %w", err)
	}
	return nil
}

// Latest returns the most recently issued code for the email.
func (r *OTPRepository) Latest(ctx context.Context, email string) (*user.OTP, error) {
	var otp user.OTP
	err := r.pool.QueryRow(ctx, latestOTPSQL, email).Scan(&otp.Email, &otp.Code, &otp.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrInvalidOTP
		}
		return nil, fmt.Errorf("getting latest otp: %w", err)
	}
	return &otp, nil
}

// DeleteForEmail removes all codes issued to the email.
func (r *OTPRepository) DeleteForEmail(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, deleteOTPsSQL, email)
	if err != nil {
		return fmt.Errorf("deleting otps: %w", err)
	}
	return nil
}
