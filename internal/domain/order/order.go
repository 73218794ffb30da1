// Package order implements the order aggregate: checkout, payment capture,
// status progression, and cancellation/return with stock restoration and
// wallet refunds.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/najiyasheri/pawsome/internal/domain/wallet"
)

// Status is the overall order state. Transitions are validated; see CanTransition.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// CanTransition reports whether an order may move from s to next.
// Pending → Confirmed → Shipped → Delivered is the forward path; Pending and
// Confirmed orders may be cancelled. Delivered and Cancelled are terminal
// (returns are tracked per item, not as an order status).
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered
	default:
		return false
	}
}

// ItemStatus is the per-line state.
type ItemStatus string

const (
	ItemPending   ItemStatus = "Pending"
	ItemCancelled ItemStatus = "Cancelled"
	ItemReturned  ItemStatus = "Returned"
)

// PaymentMethod selects how an order is paid.
type PaymentMethod string

const (
	PayCOD    PaymentMethod = "COD"
	PayWallet PaymentMethod = "WALLET"
	PayOnline PaymentMethod = "ONLINE"
)

// PaymentStatus tracks capture state independently of fulfilment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentSuccess  PaymentStatus = "Success"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

// ShippingMethod selects the delivery tier at checkout.
type ShippingMethod string

const (
	ShipRegular ShippingMethod = "Regular"
	ShipExpress ShippingMethod = "Express"
)

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrItemNotFound is returned when a requested order item does not exist.
	ErrItemNotFound = errors.New("order item not found")
	// ErrInvalidTransition is returned for a status change the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrItemNotCancellable is returned when the item or order state forbids
	// cancellation.
	ErrItemNotCancellable = errors.New("item cannot be cancelled")
	// ErrNotDelivered is returned when a return is requested before delivery.
	ErrNotDelivered = errors.New("order has not been delivered")
	// ErrReturnWindowClosed is returned when the return window has elapsed.
	ErrReturnWindowClosed = errors.New("return window has closed")
	// ErrInsufficientStock is returned when a variant cannot cover the
	// ordered quantity at capture time.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrCODLimitExceeded is returned when a COD order exceeds the ceiling.
	ErrCODLimitExceeded = errors.New("order value exceeds cash on delivery limit")
	// ErrNoAddress is returned at checkout without a usable address.
	ErrNoAddress = errors.New("delivery address required")
)

// Address is the delivery address snapshot copied into the order at creation.
type Address struct {
	Name  string
	Phone string
	Text  string
}

// VariantSnapshot preserves the purchased variant's attributes.
type VariantSnapshot struct {
	ID              string
	Size            string
	AdditionalPrice decimal.Decimal
}

// Item is one order line, priced at checkout time.
type Item struct {
	ID                 string
	OrderID            string
	ProductID          string
	Name               string
	Image              string
	Variant            VariantSnapshot
	Quantity           int
	Price              decimal.Decimal
	OldPrice           decimal.Decimal
	Subtotal           decimal.Decimal
	Status             ItemStatus
	CancellationReason string
}

// Order is the aggregate tying a cart snapshot, address, discount, and
// payment state together. Orders are created Pending and never deleted.
type Order struct {
	ID                 string
	UserID             string
	PaymentMethod      PaymentMethod
	PaymentStatus      PaymentStatus
	TotalAmount        decimal.Decimal
	DeliveryCharge     decimal.Decimal
	DiscountAmount     decimal.Decimal
	FinalAmount        decimal.Decimal
	CouponID           string
	Address            Address
	Items              []Item
	Status             Status
	CancellationReason string
	DeliveredAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ActiveSubtotal sums the subtotals of items that are neither cancelled nor
// returned.
func (o *Order) ActiveSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		if it.Status == ItemPending {
			sum = sum.Add(it.Subtotal)
		}
	}
	return sum
}

// AllItemsInactive reports whether every item is cancelled or returned.
func (o *Order) AllItemsInactive() bool {
	for _, it := range o.Items {
		if it.Status == ItemPending {
			return false
		}
	}
	return len(o.Items) > 0
}

// ListParams controls order listings.
type ListParams struct {
	// UserID filters to one user's orders; empty lists all (admin).
	UserID  string
	Page    int
	PerPage int
}

// Store defines persistence for orders, including the transactional view used
// by the multi-step stock/wallet/coupon mutation sequences.
type Store interface {
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, params ListParams) ([]Order, int, error)
	// InTx runs fn atomically; every mutation inside either commits as a whole
	// or leaves no trace.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of mutations available inside an order transaction. The
// business rules deciding which of them run, and in what order, live in the
// Service; the storage layer only guarantees each one's atomic effect.
type Tx interface {
	CreateOrder(ctx context.Context, o *Order) error
	// SetStatus updates the overall status; reason is stored for Cancelled.
	SetStatus(ctx context.Context, orderID string, status Status, reason string) error
	SetPaymentStatus(ctx context.Context, orderID string, ps PaymentStatus) error
	SetDeliveredAt(ctx context.Context, orderID string, at time.Time) error
	SetItemStatus(ctx context.Context, itemID string, status ItemStatus, reason string) error

	// DecrementStock conditionally reduces variant stock; it fails with
	// ErrInsufficientStock instead of going negative.
	DecrementStock(ctx context.Context, variantID string, qty int) error
	RestoreStock(ctx context.Context, variantID string, qty int) error

	RedeemCoupon(ctx context.Context, couponID, userID, orderID string) error
	ReleaseRedemption(ctx context.Context, couponID, userID string) error

	// DebitWallet and CreditWallet adjust the balance and append the ledger
	// entry in one step. Debit fails with wallet.ErrInsufficientBalance.
	DebitWallet(ctx context.Context, userID string, amount decimal.Decimal, txType wallet.TxType, orderID, description string) error
	CreditWallet(ctx context.Context, userID string, amount decimal.Decimal, txType wallet.TxType, orderID, description string) error

	ClearCart(ctx context.Context, userID string) error
}
