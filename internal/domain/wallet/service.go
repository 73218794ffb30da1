package wallet

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/najiyasheri/pawsome/internal/payment"
)

// ErrInvalidAmount is returned for a non-positive top-up or credit amount.
var ErrInvalidAmount = errors.New("amount must be positive")

// Service handles wallet reads and gateway-backed top-ups.
type Service struct {
	wallets Repository
	gateway payment.Gateway
	intents payment.Repository
}

// NewService creates a wallet Service.
func NewService(wallets Repository, gateway payment.Gateway, intents payment.Repository) *Service {
	return &Service{wallets: wallets, gateway: gateway, intents: intents}
}

// Balance returns the user's wallet, creating an empty one on first use.
func (s *Service) Balance(ctx context.Context, userID string) (*Wallet, error) {
	return s.wallets.Get(ctx, userID)
}

// Transactions returns a page of the user's ledger, newest first.
func (s *Service) Transactions(ctx context.Context, userID string, page, perPage int) ([]Transaction, int, error) {
	return s.wallets.Transactions(ctx, userID, page, perPage)
}

// CreateTopup opens a gateway payment intent for adding money to the wallet.
// The balance only moves once VerifyTopup confirms the capture.
func (s *Service) CreateTopup(ctx context.Context, userID string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}

	intentID, err := s.gateway.CreateIntent(ctx, amount, "topup-"+userID)
	if err != nil {
		return "", errors.Wrap(err, "create payment intent")
	}
	if err := s.intents.Create(ctx, &payment.Intent{
		ID:      intentID,
		UserID:  userID,
		Purpose: payment.PurposeTopup,
		Amount:  amount,
		Status:  payment.IntentCreated,
	}); err != nil {
		return "", errors.Wrap(err, "record payment intent")
	}
	return intentID, nil
}

// VerifyTopup checks the capture signature and credits the wallet.
func (s *Service) VerifyTopup(ctx context.Context, userID, intentID, paymentID, signature string) (*Wallet, error) {
	intent, err := s.intents.Get(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.UserID != userID || intent.Purpose != payment.PurposeTopup {
		return nil, payment.ErrIntentNotFound
	}
	if intent.Status != payment.IntentCreated {
		return nil, errors.Errorf("payment intent already %s", intent.Status)
	}

	if !s.gateway.VerifySignature(intentID, paymentID, signature) {
		_ = s.intents.SetStatus(ctx, intentID, payment.IntentFailed)
		return nil, payment.ErrSignatureMismatch
	}

	err = s.wallets.Credit(ctx, &Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        TxTopup,
		Direction:   Credit,
		Amount:      intent.Amount,
		Description: fmt.Sprintf("Wallet top-up via payment %s", paymentID),
	})
	if err != nil {
		return nil, errors.Wrap(err, "credit wallet")
	}
	if err := s.intents.SetStatus(ctx, intentID, payment.IntentVerified); err != nil {
		return nil, errors.Wrap(err, "mark intent verified")
	}
	return s.wallets.Get(ctx, userID)
}
