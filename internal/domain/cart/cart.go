// Package cart implements the per-user shopping cart.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrLineNotFound is returned when a cart operation targets a line that
	// does not exist.
	ErrLineNotFound = errors.New("cart item not found")
	// ErrInsufficientStock is returned when the requested quantity exceeds the
	// variant's available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrEmptyCart is returned at checkout when the cart has no lines.
	ErrEmptyCart = errors.New("cart is empty")
)

// Line is a single (product, variant, quantity) entry in a user's cart.
type Line struct {
	ProductID string
	VariantID string
	Quantity  int
	AddedAt   time.Time
}

// Repository defines persistence operations for cart lines.
type Repository interface {
	Lines(ctx context.Context, userID string) ([]Line, error)
	// Upsert inserts the line or replaces the quantity of an existing one.
	Upsert(ctx context.Context, userID string, line Line) error
	Remove(ctx context.Context, userID, productID, variantID string) error
	Clear(ctx context.Context, userID string) error
}

// PricedLine is a cart line joined with its catalog data and effective prices.
type PricedLine struct {
	Line
	ProductName string
	Image       string
	Size        string
	UnitPrice   decimal.Decimal
	OldPrice    decimal.Decimal
	Subtotal    decimal.Decimal
	Stock       int
}

// View is the fully priced contents of a cart.
type View struct {
	Lines    []PricedLine
	Subtotal decimal.Decimal
}
