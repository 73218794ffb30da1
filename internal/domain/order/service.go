package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/najiyasheri/pawsome/internal/domain/cart"
	"github.com/najiyasheri/pawsome/internal/domain/catalog"
	"github.com/najiyasheri/pawsome/internal/domain/coupon"
	"github.com/najiyasheri/pawsome/internal/domain/wallet"
	"github.com/najiyasheri/pawsome/internal/payment"
)

// Config holds the checkout business constants.
type Config struct {
	// DeliveryCharge is the flat charge for regular shipping.
	DeliveryCharge decimal.Decimal
	// ExpressDeliveryCharge is the flat charge for express shipping.
	ExpressDeliveryCharge decimal.Decimal
	// CODLimit is the maximum final amount accepted for cash on delivery.
	CODLimit decimal.Decimal
	// ReturnWindow is how long after delivery a return is accepted.
	ReturnWindow time.Duration
}

// Service encapsulates the order lifecycle business rules.
type Service struct {
	store      Store
	catalog    catalog.Repository
	carts      *cart.Service
	coupons    coupon.Validator
	couponRepo coupon.Repository
	gateway    payment.Gateway
	intents    payment.Repository
	cfg        Config
	now        func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(
	store Store,
	cat catalog.Repository,
	carts *cart.Service,
	validator coupon.Validator,
	coupons coupon.Repository,
	gateway payment.Gateway,
	intents payment.Repository,
	cfg Config,
) *Service {
	return &Service{
		store:      store,
		catalog:    cat,
		carts:      carts,
		coupons:    validator,
		couponRepo: coupons,
		gateway:    gateway,
		intents:    intents,
		cfg:        cfg,
		now:        time.Now,
	}
}

// CheckoutRequest is the input for placing an order from the user's cart.
type CheckoutRequest struct {
	UserID     string
	Address    Address
	Shipping   ShippingMethod
	Payment    PaymentMethod
	CouponCode string
}

// CheckoutResult is the outcome of checkout. For ONLINE payments IntentID is
// set and the order stays Pending until VerifyPayment confirms the capture.
type CheckoutResult struct {
	Order    *Order
	IntentID string
}

// Checkout snapshots the cart into a new order and runs the payment branch
// for the chosen method. The order row is always persisted before any capture
// is attempted so that failed gateway attempts remain auditable.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.Address.Name == "" || req.Address.Phone == "" || req.Address.Text == "" {
		return nil, ErrNoAddress
	}

	view, err := s.carts.Contents(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(view.Lines) == 0 {
		return nil, cart.ErrEmptyCart
	}

	o, err := s.buildOrder(ctx, req, view)
	if err != nil {
		return nil, err
	}

	switch req.Payment {
	case PayCOD:
		if o.FinalAmount.GreaterThan(s.cfg.CODLimit) {
			return nil, ErrCODLimitExceeded
		}
		if err := s.captureTx(ctx, o, false); err != nil {
			return nil, err
		}
		return &CheckoutResult{Order: o}, nil

	case PayWallet:
		if err := s.captureTx(ctx, o, true); err != nil {
			return nil, err
		}
		return &CheckoutResult{Order: o}, nil

	case PayOnline:
		// Persist the Pending order first; the gateway round-trip happens
		// outside any transaction.
		if err := s.store.InTx(ctx, func(tx Tx) error {
			return tx.CreateOrder(ctx, o)
		}); err != nil {
			return nil, errors.Wrap(err, "create order")
		}

		intentID, err := s.gateway.CreateIntent(ctx, o.FinalAmount, o.ID)
		if err != nil {
			return nil, errors.Wrap(err, "create payment intent")
		}
		if err := s.intents.Create(ctx, &payment.Intent{
			ID:      intentID,
			UserID:  req.UserID,
			Purpose: payment.PurposeOrder,
			OrderID: o.ID,
			Amount:  o.FinalAmount,
			Status:  payment.IntentCreated,
		}); err != nil {
			return nil, errors.Wrap(err, "record payment intent")
		}
		return &CheckoutResult{Order: o, IntentID: intentID}, nil

	default:
		return nil, errors.Errorf("unsupported payment method %q", req.Payment)
	}
}

// buildOrder prices the cart lines, applies the coupon, and assembles the
// order aggregate in Pending state without persisting it.
func (s *Service) buildOrder(ctx context.Context, req CheckoutRequest, view *cart.View) (*Order, error) {
	items := make([]Item, 0, len(view.Lines))
	subtotal := decimal.Zero
	orderID := uuid.New().String()

	for _, line := range view.Lines {
		p, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		v, err := s.catalog.GetVariant(ctx, line.VariantID)
		if err != nil {
			return nil, err
		}
		c, err := s.catalog.GetCategory(ctx, p.CategoryID)
		if err != nil {
			return nil, err
		}
		if err := catalog.Purchasable(p, v, c); err != nil {
			return nil, err
		}
		if line.Quantity > v.Stock {
			return nil, ErrInsufficientStock
		}

		unit := catalog.UnitPrice(p, v, c.OfferPercentage)
		sub := unit.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)

		items = append(items, Item{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: p.ID,
			Name:      p.Name,
			Image:     line.Image,
			Variant: VariantSnapshot{
				ID:              v.ID,
				Size:            v.Size,
				AdditionalPrice: v.AdditionalPrice,
			},
			Quantity: line.Quantity,
			Price:    unit,
			OldPrice: catalog.OldPrice(p, v),
			Subtotal: sub,
			Status:   ItemPending,
		})
		subtotal = subtotal.Add(sub)
	}

	delivery := s.cfg.DeliveryCharge
	if req.Shipping == ShipExpress {
		delivery = s.cfg.ExpressDeliveryCharge
	}

	discount := decimal.Zero
	couponID := ""
	if req.CouponCode != "" {
		d, err := s.coupons.Validate(ctx, req.CouponCode, req.UserID, subtotal)
		if err != nil {
			return nil, err
		}
		discount = d.Amount
		couponID = d.Coupon.ID
	}

	total := subtotal.Add(delivery)
	final := total.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return &Order{
		ID:             orderID,
		UserID:         req.UserID,
		PaymentMethod:  req.Payment,
		PaymentStatus:  PaymentPending,
		TotalAmount:    total.Round(2),
		DeliveryCharge: delivery.Round(2),
		DiscountAmount: discount.Round(2),
		FinalAmount:    final.Round(2),
		CouponID:       couponID,
		Address:        req.Address,
		Items:          items,
		Status:         StatusPending,
	}, nil
}

// captureTx runs the confirmation sequence for immediately captured methods
// (COD, wallet) as one transaction: create the Pending order, debit the
// wallet when asked, decrement stock, redeem the coupon, confirm, clear cart.
// The wallet debit runs before any stock mutation so an insufficient balance
// aborts cleanly.
func (s *Service) captureTx(ctx context.Context, o *Order, debitWallet bool) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.CreateOrder(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		if debitWallet {
			err := tx.DebitWallet(ctx, o.UserID, o.FinalAmount, wallet.TxOrderPayment, o.ID,
				fmt.Sprintf("Payment for order %s", o.ID))
			if err != nil {
				return err
			}
		}

		if err := s.confirmTx(ctx, tx, o); err != nil {
			return err
		}

		ps := PaymentPending // COD is collected at delivery
		if debitWallet {
			ps = PaymentSuccess
		}
		if err := tx.SetPaymentStatus(ctx, o.ID, ps); err != nil {
			return errors.Wrap(err, "set payment status")
		}
		o.PaymentStatus = ps
		return nil
	})
}

// confirmTx performs the shared capture steps: stock decrement per item,
// coupon redemption, status Confirmed, cart clear.
func (s *Service) confirmTx(ctx context.Context, tx Tx, o *Order) error {
	for _, it := range o.Items {
		// Items cancelled while the order was still Pending take no stock.
		if it.Status != ItemPending {
			continue
		}
		if err := tx.DecrementStock(ctx, it.Variant.ID, it.Quantity); err != nil {
			return err
		}
	}

	if o.CouponID != "" {
		if err := tx.RedeemCoupon(ctx, o.CouponID, o.UserID, o.ID); err != nil {
			return err
		}
	}

	if err := tx.SetStatus(ctx, o.ID, StatusConfirmed, ""); err != nil {
		return errors.Wrap(err, "confirm order")
	}
	o.Status = StatusConfirmed

	if err := tx.ClearCart(ctx, o.UserID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

// VerifyPayment completes an ONLINE checkout: it checks the capture signature
// and, on success, runs the confirmation transaction. A signature mismatch
// marks the payment Failed.
func (s *Service) VerifyPayment(ctx context.Context, userID, intentID, paymentID, signature string) (*Order, error) {
	intent, err := s.intents.Get(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.UserID != userID || intent.Purpose != payment.PurposeOrder {
		return nil, payment.ErrIntentNotFound
	}
	if intent.Status != payment.IntentCreated {
		return nil, errors.Errorf("payment intent already %s", intent.Status)
	}

	o, err := s.store.Get(ctx, intent.OrderID)
	if err != nil {
		return nil, err
	}
	// Only a still-Pending order can be confirmed; a cancelled order stays
	// cancelled even when the gateway capture lands late. Any money taken at
	// the gateway is an operations followup, not a confirmation.
	if o.Status != StatusPending {
		_ = s.intents.SetStatus(ctx, intentID, payment.IntentFailed)
		return nil, ErrInvalidTransition
	}

	if !s.gateway.VerifySignature(intentID, paymentID, signature) {
		_ = s.intents.SetStatus(ctx, intentID, payment.IntentFailed)
		_ = s.store.InTx(ctx, func(tx Tx) error {
			return tx.SetPaymentStatus(ctx, o.ID, PaymentFailed)
		})
		return nil, payment.ErrSignatureMismatch
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := s.confirmTx(ctx, tx, o); err != nil {
			return err
		}
		return tx.SetPaymentStatus(ctx, o.ID, PaymentSuccess)
	})
	if err != nil {
		// Capture succeeded but confirmation could not be applied (e.g. stock
		// ran out while the payment was in flight). The refund is operational
		// followup; the order records the failure.
		_ = s.intents.SetStatus(ctx, intentID, payment.IntentFailed)
		_ = s.store.InTx(ctx, func(tx Tx) error {
			return tx.SetPaymentStatus(ctx, o.ID, PaymentFailed)
		})
		return nil, err
	}

	if err := s.intents.SetStatus(ctx, intentID, payment.IntentVerified); err != nil {
		return nil, errors.Wrap(err, "mark intent verified")
	}
	o.PaymentStatus = PaymentSuccess
	return o, nil
}

// Get returns an order, optionally scoped to a user. Admin callers pass an
// empty userID.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if userID != "" && o.UserID != userID {
		return nil, ErrNotFound
	}
	return o, nil
}

// List returns orders matching params, newest first.
func (s *Service) List(ctx context.Context, params ListParams) ([]Order, int, error) {
	return s.store.List(ctx, params)
}

// CancelItem cancels a single order line: the item is marked Cancelled, its
// stock restored, a proportional refund credited for captured non-COD
// payments, and the coupon redemption released when the remaining subtotal
// falls below the coupon's minimum purchase. Cancelling the last active item
// cancels the whole order.
func (s *Service) CancelItem(ctx context.Context, userID, orderID, itemID, reason string) error {
	o, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if o.Status != StatusPending && o.Status != StatusConfirmed {
		return ErrItemNotCancellable
	}

	item := findItem(o, itemID)
	if item == nil {
		return ErrItemNotFound
	}
	if item.Status != ItemPending {
		return ErrItemNotCancellable
	}

	return s.store.InTx(ctx, func(tx Tx) error {
		if err := s.retireItemTx(ctx, tx, o, item, ItemCancelled, reason); err != nil {
			return err
		}
		if o.AllItemsInactive() {
			return s.finishCancellationTx(ctx, tx, o, reason)
		}
		return nil
	})
}

// CancelOrder cancels every remaining active item and the order itself.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID, reason string) error {
	o, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if !o.Status.CanTransition(StatusCancelled) {
		return ErrInvalidTransition
	}

	return s.store.InTx(ctx, func(tx Tx) error {
		for i := range o.Items {
			if o.Items[i].Status != ItemPending {
				continue
			}
			if err := s.retireItemTx(ctx, tx, o, &o.Items[i], ItemCancelled, reason); err != nil {
				return err
			}
		}
		return s.finishCancellationTx(ctx, tx, o, reason)
	})
}

// ReturnItem processes a post-delivery return. The order must be Delivered
// and within the return window; refunds follow the cancellation rules.
func (s *Service) ReturnItem(ctx context.Context, userID, orderID, itemID, reason string) error {
	o, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if o.Status != StatusDelivered || o.DeliveredAt == nil {
		return ErrNotDelivered
	}
	if s.now().After(o.DeliveredAt.Add(s.cfg.ReturnWindow)) {
		return ErrReturnWindowClosed
	}

	item := findItem(o, itemID)
	if item == nil {
		return ErrItemNotFound
	}
	if item.Status != ItemPending {
		return ErrItemNotCancellable
	}

	return s.store.InTx(ctx, func(tx Tx) error {
		if err := s.retireItemTx(ctx, tx, o, item, ItemReturned, reason); err != nil {
			return err
		}
		// A fully returned captured order is considered refunded.
		if o.AllItemsInactive() && o.PaymentStatus == PaymentSuccess {
			if err := tx.SetPaymentStatus(ctx, o.ID, PaymentRefunded); err != nil {
				return err
			}
			o.PaymentStatus = PaymentRefunded
		}
		return nil
	})
}

// UpdateStatus applies an admin-driven forward transition. Delivered stamps
// the delivery date (and marks COD payments collected); Cancelled is routed
// through the full cancellation sequence so stock and refunds stay correct.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next Status) error {
	if next == StatusCancelled {
		return s.CancelOrder(ctx, "", orderID, "Cancelled by admin")
	}

	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.Status.CanTransition(next) {
		return ErrInvalidTransition
	}

	return s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.SetStatus(ctx, o.ID, next, ""); err != nil {
			return err
		}
		if next != StatusDelivered {
			return nil
		}
		if err := tx.SetDeliveredAt(ctx, o.ID, s.now()); err != nil {
			return err
		}
		// Cash is collected on the doorstep.
		if o.PaymentMethod == PayCOD && o.PaymentStatus == PaymentPending {
			return tx.SetPaymentStatus(ctx, o.ID, PaymentSuccess)
		}
		return nil
	})
}

// retireItemTx marks one item Cancelled/Returned and applies the stock,
// refund, and coupon consequences. The caller supplies the transaction.
func (s *Service) retireItemTx(ctx context.Context, tx Tx, o *Order, item *Item, status ItemStatus, reason string) error {
	if err := tx.SetItemStatus(ctx, item.ID, status, reason); err != nil {
		return errors.Wrap(err, "set item status")
	}
	item.Status = status
	item.CancellationReason = reason

	// Stock is decremented and the coupon redeemed at confirmation, so a
	// still-Pending order has neither to unwind.
	captured := o.Status != StatusPending

	if captured {
		if err := tx.RestoreStock(ctx, item.Variant.ID, item.Quantity); err != nil {
			return errors.Wrap(err, "restore stock")
		}
	}

	// Refund the item's share for captured non-COD payments. The coupon
	// discount is shared proportionally across items, so the refund is the
	// item subtotal minus its share of the discount.
	if o.PaymentMethod != PayCOD && o.PaymentStatus == PaymentSuccess {
		refund := item.Subtotal.Sub(s.discountShare(o, item))
		if refund.IsPositive() {
			err := tx.CreditWallet(ctx, o.UserID, refund, wallet.TxRefund, o.ID,
				fmt.Sprintf("Refund for %s (order %s)", item.Name, o.ID))
			if err != nil {
				return errors.Wrap(err, "credit refund")
			}
		}
	}

	// Release the coupon when the order no longer meets its minimum purchase.
	if captured && o.CouponID != "" {
		c, err := s.couponRepo.GetByID(ctx, o.CouponID)
		if err != nil {
			return errors.Wrap(err, "load coupon")
		}
		if o.ActiveSubtotal().LessThan(c.MinPurchase) {
			if err := tx.ReleaseRedemption(ctx, o.CouponID, o.UserID); err != nil {
				return errors.Wrap(err, "release coupon")
			}
		}
	}

	return nil
}

// finishCancellationTx cancels the order itself once no active items remain:
// delivery charge refunded for captured payments, payment marked Refunded.
func (s *Service) finishCancellationTx(ctx context.Context, tx Tx, o *Order, reason string) error {
	if err := tx.SetStatus(ctx, o.ID, StatusCancelled, reason); err != nil {
		return errors.Wrap(err, "cancel order")
	}
	o.Status = StatusCancelled

	if o.PaymentStatus != PaymentSuccess {
		return nil
	}
	if o.DeliveryCharge.IsPositive() {
		err := tx.CreditWallet(ctx, o.UserID, o.DeliveryCharge, wallet.TxRefund, o.ID,
			fmt.Sprintf("Delivery charge refund (order %s)", o.ID))
		if err != nil {
			return errors.Wrap(err, "refund delivery charge")
		}
	}
	if err := tx.SetPaymentStatus(ctx, o.ID, PaymentRefunded); err != nil {
		return err
	}
	o.PaymentStatus = PaymentRefunded
	return nil
}

// discountShare returns the item's proportional share of the order discount:
// discount * itemSubtotal / itemsSubtotal, rounded to 2 decimal places.
func (s *Service) discountShare(o *Order, item *Item) decimal.Decimal {
	if o.DiscountAmount.IsZero() {
		return decimal.Zero
	}
	itemsSubtotal := o.TotalAmount.Sub(o.DeliveryCharge)
	if !itemsSubtotal.IsPositive() {
		return decimal.Zero
	}
	return o.DiscountAmount.Mul(item.Subtotal).Div(itemsSubtotal).Round(2)
}

func findItem(o *Order, itemID string) *Item {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}
