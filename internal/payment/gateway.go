// Package payment is the adapter boundary to the external payment gateway.
// The service's only obligations toward the gateway are intent creation and
// HMAC signature verification of the asynchronous capture callback.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrIntentNotFound is returned when a referenced payment intent is unknown.
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrSignatureMismatch is returned when the capture signature does not
	// verify against the gateway secret.
	ErrSignatureMismatch = errors.New("payment signature verification failed")
)

// Purpose says what a payment intent pays for.
type Purpose string

const (
	PurposeOrder Purpose = "order"
	PurposeTopup Purpose = "wallet_topup"
)

// IntentStatus tracks the lifecycle of a payment intent.
type IntentStatus string

const (
	IntentCreated  IntentStatus = "created"
	IntentVerified IntentStatus = "verified"
	IntentFailed   IntentStatus = "failed"
)

// Intent is the local record of a remote gateway payment intent.
type Intent struct {
	ID        string
	UserID    string
	Purpose   Purpose
	OrderID   string
	Amount    decimal.Decimal
	Status    IntentStatus
	CreatedAt time.Time
}

// Repository defines persistence operations for payment intents.
type Repository interface {
	Create(ctx context.Context, intent *Intent) error
	Get(ctx context.Context, id string) (*Intent, error)
	SetStatus(ctx context.Context, id string, status IntentStatus) error
}

// Gateway is the narrow call/response contract with the remote gateway:
// amount in, intent id out; capture identifiers in, signature validity out.
type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, receipt string) (string, error)
	VerifySignature(intentID, paymentID, signature string) bool
}

// VerifyHMAC checks signature == hex(HMAC-SHA256(intentID|paymentID, secret))
// in constant time. This is the verification scheme the gateway documents for
// capture callbacks.
func VerifyHMAC(secret []byte, intentID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(intentID + "|" + paymentID))
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}
