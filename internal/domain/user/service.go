package user

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/najiyasheri/pawsome/internal/domain/wallet"
	"github.com/najiyasheri/pawsome/internal/email"
)

// Config holds account-related business constants.
type Config struct {
	SessionTTL    time.Duration
	OTPTTL        time.Duration
	ReferralBonus decimal.Decimal
}

// Service encapsulates account, session, and address business rules.
type Service struct {
	users     Repository
	sessions  SessionRepository
	otps      OTPRepository
	addresses AddressRepository
	wallets   wallet.Repository
	sender    email.Sender
	pepper    []byte
	cfg       Config
	now       func() time.Time
}

// NewService creates a user Service. pepper keys the HMAC used to hash
// session tokens at rest.
func NewService(
	users Repository,
	sessions SessionRepository,
	otps OTPRepository,
	addresses AddressRepository,
	wallets wallet.Repository,
	sender email.Sender,
	pepper []byte,
	cfg Config,
) *Service {
	return &Service{
		users:     users,
		sessions:  sessions,
		otps:      otps,
		addresses: addresses,
		wallets:   wallets,
		sender:    sender,
		pepper:    pepper,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Register creates an unverified account and sends the verification OTP.
// A referral code, when given, must belong to an existing user; the bonus is
// credited once the new account verifies.
func (s *Service) Register(ctx context.Context, name, emailAddr, password, referralCode string) (*User, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check email")
	}

	referredBy := ""
	if referralCode != "" {
		ref, err := s.users.FindByReferralCode(ctx, strings.ToUpper(strings.TrimSpace(referralCode)))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrInvalidReferral
			}
			return nil, errors.Wrap(err, "lookup referral")
		}
		referredBy = ref.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        emailAddr,
		PasswordHash: string(hash),
		ReferralCode: newReferralCode(),
		ReferredBy:   referredBy,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	if err := s.issueOTP(ctx, emailAddr); err != nil {
		return nil, err
	}
	return u, nil
}

// issueOTP generates, stores, and emails a fresh verification code.
func (s *Service) issueOTP(ctx context.Context, emailAddr string) error {
	code, err := newOTPCode()
	if err != nil {
		return errors.Wrap(err, "generate otp")
	}
	if err := s.otps.Create(ctx, &OTP{
		Email:     emailAddr,
		Code:      code,
		ExpiresAt: s.now().Add(s.cfg.OTPTTL),
	}); err != nil {
		return errors.Wrap(err, "store otp")
	}
	if err := s.sender.SendOTP(ctx, emailAddr, code); err != nil {
		return errors.Wrap(err, "send otp")
	}
	return nil
}

// ResendOTP issues a new code for an unverified account.
func (s *Service) ResendOTP(ctx context.Context, emailAddr string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	u, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if u.Verified {
		return nil
	}
	return s.issueOTP(ctx, emailAddr)
}

// VerifyOTP checks the code against the most recently issued one and marks
// the account verified. The referrer's bonus is credited exactly once, on
// first verification.
func (s *Service) VerifyOTP(ctx context.Context, emailAddr, code string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	u, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}

	otp, err := s.otps.Latest(ctx, emailAddr)
	if err != nil {
		return err
	}
	if otp.Code != strings.TrimSpace(code) {
		return ErrInvalidOTP
	}
	if s.now().After(otp.ExpiresAt) {
		return ErrOTPExpired
	}

	if !u.Verified {
		if err := s.users.SetVerified(ctx, u.ID); err != nil {
			return errors.Wrap(err, "mark verified")
		}
		if u.ReferredBy != "" && !u.ReferralPaid && s.cfg.ReferralBonus.IsPositive() {
			err := s.wallets.Credit(ctx, &wallet.Transaction{
				ID:          uuid.New().String(),
				UserID:      u.ReferredBy,
				Type:        wallet.TxReferralBonus,
				Direction:   wallet.Credit,
				Amount:      s.cfg.ReferralBonus,
				Description: fmt.Sprintf("Referral bonus for inviting %s", u.Name),
			})
			if err != nil {
				return errors.Wrap(err, "credit referral bonus")
			}
			if err := s.users.SetReferralPaid(ctx, u.ID); err != nil {
				return errors.Wrap(err, "mark referral paid")
			}
		}
	}

	return s.otps.DeleteForEmail(ctx, emailAddr)
}

// Login verifies credentials and issues an opaque bearer token. Only the
// token's HMAC-SHA256 hash is persisted.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (string, *User, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	u, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if u.Blocked {
		return "", nil, ErrBlocked
	}
	if !u.Verified {
		return "", nil, ErrNotVerified
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, errors.Wrap(err, "generate token")
	}
	token := hex.EncodeToString(raw)

	if err := s.sessions.Create(ctx, &Session{
		TokenHash: s.hashToken(token),
		UserID:    u.ID,
		ExpiresAt: s.now().Add(s.cfg.SessionTTL),
	}); err != nil {
		return "", nil, errors.Wrap(err, "store session")
	}
	return token, u, nil
}

// Logout invalidates the session behind the given token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, s.hashToken(token))
}

// Authenticate resolves a bearer token to its user. Expired sessions and
// blocked users are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	sess, err := s.sessions.Get(ctx, s.hashToken(token))
	if err != nil {
		return nil, ErrUnauthorized
	}
	if s.now().After(sess.ExpiresAt) {
		_ = s.sessions.Delete(ctx, sess.TokenHash)
		return nil, ErrUnauthorized
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if u.Blocked {
		return nil, ErrBlocked
	}
	return u, nil
}

// hashToken computes the at-rest representation of a session token.
func (s *Service) hashToken(token string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns users for the admin console.
func (s *Service) List(ctx context.Context, params ListParams) ([]User, int, error) {
	return s.users.List(ctx, params)
}

// SetBlocked blocks or unblocks a user. Blocking invalidates all sessions.
func (s *Service) SetBlocked(ctx context.Context, id string, blocked bool) error {
	if err := s.users.SetBlocked(ctx, id, blocked); err != nil {
		return err
	}
	if blocked {
		return s.sessions.DeleteForUser(ctx, id)
	}
	return nil
}

// UpdateProfile updates mutable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id, name, profileImage string) error {
	return s.users.UpdateProfile(ctx, id, name, profileImage)
}

// Addresses lists the user's saved addresses.
func (s *Service) Addresses(ctx context.Context, userID string) ([]Address, error) {
	return s.addresses.ListForUser(ctx, userID)
}

// AddAddress saves a new address; the first address becomes the default.
func (s *Service) AddAddress(ctx context.Context, a *Address) error {
	existing, err := s.addresses.ListForUser(ctx, a.UserID)
	if err != nil {
		return err
	}
	a.ID = uuid.New().String()
	if len(existing) == 0 {
		a.Default = true
	}
	if err := s.addresses.Create(ctx, a); err != nil {
		return err
	}
	if a.Default && len(existing) > 0 {
		return s.addresses.SetDefault(ctx, a.UserID, a.ID)
	}
	return nil
}

// UpdateAddress updates an address owned by the user.
func (s *Service) UpdateAddress(ctx context.Context, a *Address) error {
	current, err := s.addresses.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	if current.UserID != a.UserID {
		return ErrAddressNotFound
	}
	if err := s.addresses.Update(ctx, a); err != nil {
		return err
	}
	if a.Default {
		return s.addresses.SetDefault(ctx, a.UserID, a.ID)
	}
	return nil
}

// DeleteAddress removes an address owned by the user.
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	current, err := s.addresses.Get(ctx, addressID)
	if err != nil {
		return err
	}
	if current.UserID != userID {
		return ErrAddressNotFound
	}
	return s.addresses.Delete(ctx, addressID)
}

// DefaultAddress returns the user's default (or any) address.
func (s *Service) DefaultAddress(ctx context.Context, userID string) (*Address, error) {
	return s.addresses.GetDefault(ctx, userID)
}

// newOTPCode returns a 6-digit code from crypto/rand.
func newOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// newReferralCode returns a short shareable code.
func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
