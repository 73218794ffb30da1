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
	userColumns = `id, name, email, password_hash, profile_image, blocked, verified, admin,
		referral_code, COALESCE(referred_by, ''), referral_paid, created_at, updated_at`

	getUserByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	getUserByReferralSQL = `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`

	insertUserSQL = `INSERT INTO users
			(id, name, email, password_hash, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`

	setUserBlockedSQL = `UPDATE users SET blocked = $2, updated_at = now() WHERE id = $1`

	setUserVerifiedSQL = `UPDATE users SET verified = TRUE, updated_at = now() WHERE id = $1`

	setReferralPaidSQL = `UPDATE users SET referral_paid = TRUE, updated_at = now() WHERE id = $1`

	updateProfileSQL = `UPDATE users SET name = $2, profile_image = $3, updated_at = now() WHERE id = $1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create persists a new account. Returns user.ErrEmailTaken for a duplicate
// email.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.pool.Exec(ctx, insertUserSQL,
		u.ID, u.Name, u.Email, u.PasswordHash, u.ReferralCode, u.ReferredBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("creating user %q: %w", u.ID, err)
	}
	return nil
}

// GetByID returns a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

// FindByReferralCode returns the owner of a referral code.
func (r *UserRepository) FindByReferralCode(ctx context.Context, code string) (*user.User, error) {
	return r.getOne(ctx, getUserByReferralSQL, code)
}

func (r *UserRepository) getOne(ctx context.Context, sql, arg string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// List returns a page of users for the admin console.
func (r *UserRepository) List(ctx context.Context, params user.ListParams) ([]user.User, int, error) {
	where := `WHERE NOT admin
		AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')`

	var total int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users `+where, params.Search).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	page, perPage := normalizePage(params.Page, params.PerPage)
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users `+where+
			` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		params.Search, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}

	users, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

// SetBlocked blocks or unblocks an account.
func (r *UserRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return r.exec(ctx, setUserBlockedSQL, id, blocked)
}

// SetVerified marks the account's email as verified.
func (r *UserRepository) SetVerified(ctx context.Context, id string) error {
	return r.exec(ctx, setUserVerifiedSQL, id)
}

// SetReferralPaid records that the referral bonus for this signup was paid.
func (r *UserRepository) SetReferralPaid(ctx context.Context, id string) error {
	return r.exec(ctx, setReferralPaidSQL, id)
}

// UpdateProfile updates the mutable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, profileImage string) error {
	return r.exec(ctx, updateProfileSQL, id, name, profileImage)
}

func (r *UserRepository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ProfileImage,
		&u.Blocked, &u.Verified, &u.Admin,
		&u.ReferralCode, &u.ReferredBy, &u.ReferralPaid,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}
