// Package wallet implements the per-user stored-value balance and its
// append-only transaction ledger.
package wallet

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInsufficientBalance is returned when a debit would take the balance
// below zero. The check happens before any other mutation in the sequence.
var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// TxType categorises a ledger entry.
type TxType string

const (
	TxOrderPayment  TxType = "order_payment"
	TxTopup         TxType = "wallet_topup"
	TxRefund        TxType = "refund"
	TxReferralBonus TxType = "referral_bonus"
	TxAdminCredit   TxType = "admin_credit"
)

// Direction is the sign of a ledger entry.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// Wallet is a user's stored-value balance. Balance never goes negative.
type Wallet struct {
	UserID    string
	Balance   decimal.Decimal
	UpdatedAt time.Time
}

// Transaction is one immutable ledger entry. BalanceAfter is filled in by the
// storage layer at insert time, from the post-mutation balance.
type Transaction struct {
	ID           string
	UserID       string
	Type         TxType
	Direction    Direction
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	OrderID      string
	Description  string
	CreatedAt    time.Time
}

// Repository defines persistence operations for wallets outside of order
// transactions (top-ups, referral bonuses, admin credits). Order payment and
// refund entries are written through the order store's transaction instead.
type Repository interface {
	// Get returns the user's wallet, creating an empty one on first use.
	Get(ctx context.Context, userID string) (*Wallet, error)
	Transactions(ctx context.Context, userID string, page, perPage int) ([]Transaction, int, error)
	// Credit atomically increases the balance and appends a ledger entry.
	Credit(ctx context.Context, txn *Transaction) error
	// Debit atomically decreases the balance and appends a ledger entry.
	// Returns ErrInsufficientBalance when the balance cannot cover the amount.
	Debit(ctx context.Context, txn *Transaction) error
}
