// Package user implements accounts, email OTP verification, opaque session
// tokens, addresses, and referral bonuses.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned at registration for a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for a wrong email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrBlocked is returned when a blocked user tries to authenticate.
	ErrBlocked = errors.New("account is blocked")
	// ErrNotVerified is returned when logging in before OTP verification.
	ErrNotVerified = errors.New("email not verified")
	// ErrInvalidOTP is returned for a wrong or unknown OTP code.
	ErrInvalidOTP = errors.New("invalid OTP")
	// ErrOTPExpired is returned when the OTP code is past its expiry.
	ErrOTPExpired = errors.New("OTP has expired")
	// ErrUnauthorized is returned for a missing, unknown, or expired session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidReferral is returned for an unknown referral code.
	ErrInvalidReferral = errors.New("invalid referral code")
	// ErrAddressNotFound is returned when a requested address does not exist.
	ErrAddressNotFound = errors.New("address not found")
)

// User is a customer or admin account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ProfileImage string
	Blocked      bool
	Verified     bool
	Admin        bool
	ReferralCode string
	ReferredBy   string
	ReferralPaid bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Address is a saved delivery address. Orders copy the chosen address at
// checkout instead of referencing it.
type Address struct {
	ID      string
	UserID  string
	Name    string
	Phone   string
	Kind    string
	Text    string
	Default bool
}

// Session is a server-side record of an issued bearer token. Only the HMAC
// hash of the token is stored.
type Session struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// OTP is a short-lived email verification code.
type OTP struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// ListParams controls admin user listings.
type ListParams struct {
	Search  string
	Page    int
	PerPage int
}

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	FindByReferralCode(ctx context.Context, code string) (*User, error)
	List(ctx context.Context, params ListParams) ([]User, int, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
	SetVerified(ctx context.Context, id string) error
	SetReferralPaid(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id, name, profileImage string) error
}

// SessionRepository defines persistence for sessions, keyed by token hash.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, tokenHash string) (*Session, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteForUser(ctx context.Context, userID string) error
}

// OTPRepository defines persistence for verification codes.
type OTPRepository interface {
	Create(ctx context.Context, otp *OTP) error
	// Latest returns the most recently issued code for the email.
	Latest(ctx context.Context, email string) (*OTP, error)
	DeleteForEmail(ctx context.Context, email string) error
}

// AddressRepository defines persistence for saved addresses.
type AddressRepository interface {
	ListForUser(ctx context.Context, userID string) ([]Address, error)
	Get(ctx context.Context, id string) (*Address, error)
	// GetDefault returns the default address, falling back to any address.
	GetDefault(ctx context.Context, userID string) (*Address, error)
	Create(ctx context.Context, a *Address) error
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, id string) error
	// SetDefault marks one address default and clears the flag on the rest.
	SetDefault(ctx context.Context, userID, addressID string) error
}
