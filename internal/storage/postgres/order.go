package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/najiyasheri/pawsome/internal/domain/coupon"
	"github.com/najiyasheri/pawsome/internal/domain/order"
	"github.com/najiyasheri/pawsome/internal/domain/wallet"
)

const (
	orderColumns = `id, user_id, payment_method, payment_status, total_amount, delivery_charge,
		discount_amount, final_amount, COALESCE(coupon_id, ''),
		address_name, address_phone, address_text,
		status, cancellation_reason, delivered_at, created_at, updated_at`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	orderItemColumns = `id, order_id, product_id, name, image,
		variant_id, variant_size, variant_additional_price,
		quantity, price, old_price, subtotal, status, cancellation_reason`

	getOrderItemsSQL = `SELECT ` + orderItemColumns + ` FROM order_items
		WHERE order_id = ANY($1) ORDER BY id`

	insertOrderSQL = `INSERT INTO orders (id, user_id, payment_method, payment_status,
			total_amount, delivery_charge, discount_amount, final_amount, coupon_id,
			address_name, address_phone, address_text, status, cancellation_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12, $13, $14)`

	insertOrderItemSQL = `INSERT INTO order_items (id, order_id, product_id, name, image,
			variant_id, variant_size, variant_additional_price,
			quantity, price, old_price, subtotal, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	setOrderStatusSQL = `UPDATE orders SET status = $2,
			cancellation_reason = CASE WHEN $3 <> '' THEN $3 ELSE cancellation_reason END,
			updated_at = now()
		WHERE id = $1`

	setPaymentStatusSQL = `UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`

	setDeliveredAtSQL = `UPDATE orders SET delivered_at = $2, updated_at = now() WHERE id = $1`

	setItemStatusSQL = `UPDATE order_items SET status = $2,
			cancellation_reason = CASE WHEN $3 <> '' THEN $3 ELSE cancellation_reason END
		WHERE id = $1`

	decrementStockSQL = `UPDATE variants SET stock = stock - $2 WHERE id = $1 AND stock >= $2`

	restoreStockSQL = `UPDATE variants SET stock = stock + $2 WHERE id = $1`
)

var (
	_ order.Store = (*OrderStore)(nil)
	_ order.Tx    = (*orderTx)(nil)
)

// OrderStore implements order.Store backed by PostgreSQL. Mutations run
// through InTx so the multi-step stock/wallet/coupon sequences commit
// atomically.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Get returns an order with its items.
func (s *OrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	if err := s.attachItems(ctx, []*order.Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns a page of orders, newest first, with items attached.
func (s *OrderStore) List(ctx context.Context, params order.ListParams) ([]order.Order, int, error) {
	where := `WHERE ($1 = '' OR user_id = $1)`

	var total int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM orders `+where, params.UserID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	page, perPage := normalizePage(params.Page, params.PerPage)
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders `+where+
			` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		params.UserID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}

	refs := make([]*order.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := s.attachItems(ctx, refs); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *OrderStore) attachItems(ctx context.Context, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*order.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := s.pool.Query(ctx, getOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("loading order items: %w", err)
	}

	items, err := pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return fmt.Errorf("loading order items: %w", err)
	}
	for _, it := range items {
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return nil
}

// InTx runs fn inside a single database transaction.
func (s *OrderStore) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&orderTx{tx: tx})
	})
}

// orderTx implements order.Tx over a live pgx transaction.
type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) CreateOrder(ctx context.Context, o *order.Order) error {
	_, err := t.tx.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, o.PaymentMethod, o.PaymentStatus,
		o.TotalAmount, o.DeliveryCharge, o.DiscountAmount, o.FinalAmount, o.CouponID,
		o.Address.Name, o.Address.Phone, o.Address.Text,
		o.Status, o.CancellationReason,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		_, err := t.tx.Exec(ctx, insertOrderItemSQL,
			it.ID, o.ID, it.ProductID, it.Name, it.Image,
			it.Variant.ID, it.Variant.Size, it.Variant.AdditionalPrice,
			it.Quantity, it.Price, it.OldPrice, it.Subtotal, it.Status,
		)
		if err != nil {
			return fmt.Errorf("creating order item %q: %w", it.ID, err)
		}
	}
	return nil
}

func (t *orderTx) SetStatus(ctx context.Context, orderID string, status order.Status, reason string) error {
	tag, err := t.tx.Exec(ctx, setOrderStatusSQL, orderID, status, reason)
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (t *orderTx) SetPaymentStatus(ctx context.Context, orderID string, ps order.PaymentStatus) error {
	tag, err := t.tx.Exec(ctx, setPaymentStatusSQL, orderID, ps)
	if err != nil {
		return fmt.Errorf("updating order %q payment status: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (t *orderTx) SetDeliveredAt(ctx context.Context, orderID string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, setDeliveredAtSQL, orderID, at)
	if err != nil {
		return fmt.Errorf("stamping order %q delivery: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (t *orderTx) SetItemStatus(ctx context.Context, itemID string, status order.ItemStatus, reason string) error {
	tag, err := t.tx.Exec(ctx, setItemStatusSQL, itemID, status, reason)
	if err != nil {
		return fmt.Errorf("updating order item %q status: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrItemNotFound
	}
	return nil
}

// DecrementStock reduces variant stock only when enough remains, so two
// concurrent checkouts cannot oversell.
func (t *orderTx) DecrementStock(ctx context.Context, variantID string, qty int) error {
	tag, err := t.tx.Exec(ctx, decrementStockSQL, variantID, qty)
	if err != nil {
		return fmt.Errorf("decrementing stock of %q: %w", variantID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrInsufficientStock
	}
	return nil
}

func (t *orderTx) RestoreStock(ctx context.Context, variantID string, qty int) error {
	_, err := t.tx.Exec(ctx, restoreStockSQL, variantID, qty)
	if err != nil {
		return fmt.Errorf("restoring stock of %q: %w", variantID, err)
	}
	return nil
}

// RedeemCoupon records the redemption; the primary key turns a double
// redemption into coupon.ErrAlreadyUsed.
func (t *orderTx) RedeemCoupon(ctx context.Context, couponID, userID, orderID string) error {
	_, err := t.tx.Exec(ctx, redeemCouponSQL, couponID, userID, orderID)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrAlreadyUsed
		}
		return fmt.Errorf("redeeming coupon %q: %w", couponID, err)
	}
	return nil
}

func (t *orderTx) ReleaseRedemption(ctx context.Context, couponID, userID string) error {
	_, err := t.tx.Exec(ctx, releaseRedemptionSQL, couponID, userID)
	if err != nil {
		return fmt.Errorf("releasing coupon %q: %w", couponID, err)
	}
	return nil
}

func (t *orderTx) DebitWallet(ctx context.Context, userID string, amount decimal.Decimal, txType wallet.TxType, orderID, description string) error {
	return debitWallet(ctx, t.tx, &wallet.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		OrderID:     orderID,
		Description: description,
	})
}

func (t *orderTx) CreditWallet(ctx context.Context, userID string, amount decimal.Decimal, txType wallet.TxType, orderID, description string) error {
	return creditWallet(ctx, t.tx, &wallet.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		OrderID:     orderID,
		Description: description,
	})
}

func (t *orderTx) ClearCart(ctx context.Context, userID string) error {
	_, err := t.tx.Exec(ctx, clearCartSQL, userID)
	if err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.PaymentMethod, &o.PaymentStatus,
		&o.TotalAmount, &o.DeliveryCharge, &o.DiscountAmount, &o.FinalAmount, &o.CouponID,
		&o.Address.Name, &o.Address.Phone, &o.Address.Text,
		&o.Status, &o.CancellationReason, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Image,
		&it.Variant.ID, &it.Variant.Size, &it.Variant.AdditionalPrice,
		&it.Quantity, &it.Price, &it.OldPrice, &it.Subtotal,
		&it.Status, &it.CancellationReason,
	)
	return it, err
}
