package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najiyasheri/pawsome/internal/domain/cart"
	"github.com/najiyasheri/pawsome/internal/domain/catalog"
	"github.com/najiyasheri/pawsome/internal/domain/coupon"
	"github.com/najiyasheri/pawsome/internal/domain/wallet"
	"github.com/najiyasheri/pawsome/internal/payment"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// walletOp records one wallet mutation applied through the fake transaction.
type walletOp struct {
	amount  decimal.Decimal
	txType  wallet.TxType
	orderID string
}

// fakeStore is an in-memory Store whose InTx rolls back on error, mirroring
// the all-or-nothing behaviour of the real transaction.
type fakeStore struct {
	orders      map[string]*Order
	stock       map[string]int
	balance     decimal.Decimal
	credits     []walletOp
	debits      []walletOp
	redemptions map[string]string
	cartClears  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:      make(map[string]*Order),
		stock:       make(map[string]int),
		redemptions: make(map[string]string),
	}
}

func (s *fakeStore) Get(_ context.Context, id string) (*Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *fakeStore) List(_ context.Context, params ListParams) ([]Order, int, error) {
	var out []Order
	for _, o := range s.orders {
		if params.UserID == "" || o.UserID == params.UserID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	snapshot := s.clone()
	if err := fn(&fakeTx{store: s}); err != nil {
		*s = *snapshot
		return err
	}
	return nil
}

func (s *fakeStore) clone() *fakeStore {
	c := &fakeStore{
		orders:      make(map[string]*Order, len(s.orders)),
		stock:       make(map[string]int, len(s.stock)),
		balance:     s.balance,
		credits:     append([]walletOp(nil), s.credits...),
		debits:      append([]walletOp(nil), s.debits...),
		redemptions: make(map[string]string, len(s.redemptions)),
		cartClears:  s.cartClears,
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.redemptions {
		c.redemptions[k] = v
	}
	return c
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) CreateOrder(_ context.Context, o *Order) error {
	t.store.orders[o.ID] = o
	return nil
}

func (t *fakeTx) SetStatus(_ context.Context, orderID string, status Status, reason string) error {
	o, ok := t.store.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	if reason != "" {
		o.CancellationReason = reason
	}
	return nil
}

func (t *fakeTx) SetPaymentStatus(_ context.Context, orderID string, ps PaymentStatus) error {
	o, ok := t.store.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.PaymentStatus = ps
	return nil
}

func (t *fakeTx) SetDeliveredAt(_ context.Context, orderID string, at time.Time) error {
	o, ok := t.store.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.DeliveredAt = &at
	return nil
}

func (t *fakeTx) SetItemStatus(_ context.Context, itemID string, status ItemStatus, reason string) error {
	for _, o := range t.store.orders {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items[i].Status = status
				o.Items[i].CancellationReason = reason
				return nil
			}
		}
	}
	return ErrItemNotFound
}

func (t *fakeTx) DecrementStock(_ context.Context, variantID string, qty int) error {
	if t.store.stock[variantID] < qty {
		return ErrInsufficientStock
	}
	t.store.stock[variantID] -= qty
	return nil
}

func (t *fakeTx) RestoreStock(_ context.Context, variantID string, qty int) error {
	t.store.stock[variantID] += qty
	return nil
}

func (t *fakeTx) RedeemCoupon(_ context.Context, couponID, userID, orderID string) error {
	key := couponID + "|" + userID
	if _, ok := t.store.redemptions[key]; ok {
		return coupon.ErrAlreadyUsed
	}
	t.store.redemptions[key] = orderID
	return nil
}

func (t *fakeTx) ReleaseRedemption(_ context.Context, couponID, userID string) error {
	delete(t.store.redemptions, couponID+"|"+userID)
	return nil
}

func (t *fakeTx) DebitWallet(_ context.Context, _ string, amount decimal.Decimal, txType wallet.TxType, orderID, _ string) error {
	if t.store.balance.LessThan(amount) {
		return wallet.ErrInsufficientBalance
	}
	t.store.balance = t.store.balance.Sub(amount)
	t.store.debits = append(t.store.debits, walletOp{amount: amount, txType: txType, orderID: orderID})
	return nil
}

func (t *fakeTx) CreditWallet(_ context.Context, _ string, amount decimal.Decimal, txType wallet.TxType, orderID, _ string) error {
	t.store.balance = t.store.balance.Add(amount)
	t.store.credits = append(t.store.credits, walletOp{amount: amount, txType: txType, orderID: orderID})
	return nil
}

func (t *fakeTx) ClearCart(context.Context, string) error {
	t.store.cartClears++
	return nil
}

// memCarts is an in-memory cart.Repository.
type memCarts struct {
	lines map[string][]cart.Line
}

func (m *memCarts) Lines(_ context.Context, userID string) ([]cart.Line, error) {
	return m.lines[userID], nil
}

func (m *memCarts) Upsert(_ context.Context, userID string, line cart.Line) error {
	m.lines[userID] = append(m.lines[userID], line)
	return nil
}

func (m *memCarts) Remove(context.Context, string, string, string) error { return nil }

func (m *memCarts) Clear(_ context.Context, userID string) error {
	delete(m.lines, userID)
	return nil
}

// fakeCatalog serves fixed products, variants, and categories.
type fakeCatalog struct {
	catalog.Repository

	products   map[string]*catalog.Product
	variants   map[string]*catalog.Variant
	categories map[string]*catalog.Category
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, catalog.ErrProductNotFound
}

func (f *fakeCatalog) GetVariant(_ context.Context, id string) (*catalog.Variant, error) {
	if v, ok := f.variants[id]; ok {
		return v, nil
	}
	return nil, catalog.ErrVariantNotFound
}

func (f *fakeCatalog) GetCategory(_ context.Context, id string) (*catalog.Category, error) {
	if c, ok := f.categories[id]; ok {
		return c, nil
	}
	return nil, catalog.ErrCategoryNotFound
}

// fakeValidator approves a single code with a fixed discount.
type fakeValidator struct {
	code     string
	discount decimal.Decimal
	coupon   *coupon.Coupon
	err      error
}

func (f *fakeValidator) Validate(_ context.Context, code, _ string, _ decimal.Decimal) (*coupon.Discount, error) {
	if f.err != nil {
		return nil, f.err
	}
	if code != f.code {
		return nil, coupon.ErrInvalidCoupon
	}
	return &coupon.Discount{Coupon: f.coupon, Amount: f.discount}, nil
}

// fakeCouponRepo serves GetByID for the release-redemption check.
type fakeCouponRepo struct {
	coupon.Repository

	coupons map[string]*coupon.Coupon
}

func (f *fakeCouponRepo) GetByID(_ context.Context, id string) (*coupon.Coupon, error) {
	if c, ok := f.coupons[id]; ok {
		return c, nil
	}
	return nil, coupon.ErrInvalidCoupon
}

// fakeGateway returns a fixed intent id and accepts one signature.
type fakeGateway struct {
	intentID   string
	goodSig    string
	lastAmount decimal.Decimal
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount decimal.Decimal, _ string) (string, error) {
	g.lastAmount = amount
	return g.intentID, nil
}

func (g *fakeGateway) VerifySignature(_, _, signature string) bool {
	return signature == g.goodSig
}

// fakeIntents is an in-memory payment.Repository.
type fakeIntents struct {
	intents map[string]*payment.Intent
}

func (f *fakeIntents) Create(_ context.Context, intent *payment.Intent) error {
	f.intents[intent.ID] = intent
	return nil
}

func (f *fakeIntents) Get(_ context.Context, id string) (*payment.Intent, error) {
	if i, ok := f.intents[id]; ok {
		return i, nil
	}
	return nil, payment.ErrIntentNotFound
}

func (f *fakeIntents) SetStatus(_ context.Context, id string, status payment.IntentStatus) error {
	if i, ok := f.intents[id]; ok {
		i.Status = status
		return nil
	}
	return payment.ErrIntentNotFound
}

type fixture struct {
	svc     *Service
	store   *fakeStore
	gateway *fakeGateway
	intents *fakeIntents
	carts   *memCarts
	catalog *fakeCatalog
}

var testConfig = Config{
	DeliveryCharge:        d("50"),
	ExpressDeliveryCharge: d("120"),
	CODLimit:              d("10000"),
	ReturnWindow:          7 * 24 * time.Hour,
}

func newFixture() *fixture {
	cat := &fakeCatalog{
		products: map[string]*catalog.Product{
			"p1": {ID: "p1", Name: "Kibble", CategoryID: "c1", BasePrice: d("500")},
			"p2": {ID: "p2", Name: "Rope Tug", CategoryID: "c1", BasePrice: d("250")},
		},
		variants: map[string]*catalog.Variant{
			"v1": {ID: "v1", ProductID: "p1", Size: "3kg", Stock: 10, Active: true},
			"v2": {ID: "v2", ProductID: "p2", Size: "L", Stock: 10, Active: true},
		},
		categories: map[string]*catalog.Category{
			"c1": {ID: "c1", Name: "Dog Food", OfferPercentage: d("0")},
		},
	}
	carts := &memCarts{lines: map[string][]cart.Line{
		"u1": {
			{ProductID: "p1", VariantID: "v1", Quantity: 2}, // 1000
			{ProductID: "p2", VariantID: "v2", Quantity: 1}, // 250
		},
	}}
	store := newFakeStore()
	store.stock["v1"] = 10
	store.stock["v2"] = 10

	gateway := &fakeGateway{intentID: "order_rzp1", goodSig: "goodsig"}
	intents := &fakeIntents{intents: make(map[string]*payment.Intent)}

	validator := &fakeValidator{
		code:     "SAVE100",
		discount: d("100"),
		coupon:   &coupon.Coupon{ID: "cpn-1", Code: "SAVE100", MinPurchase: d("1000")},
	}
	couponRepo := &fakeCouponRepo{coupons: map[string]*coupon.Coupon{
		"cpn-1": {ID: "cpn-1", Code: "SAVE100", MinPurchase: d("1000")},
	}}

	svc := NewService(
		store, cat, cart.NewService(carts, cat),
		validator, couponRepo, gateway, intents, testConfig,
	)
	return &fixture{svc: svc, store: store, gateway: gateway, intents: intents, carts: carts, catalog: cat}
}

func checkoutReq(method PaymentMethod) CheckoutRequest {
	return CheckoutRequest{
		UserID:   "u1",
		Address:  Address{Name: "Maya", Phone: "9999999999", Text: "12 Hill Road"},
		Shipping: ShipRegular,
		Payment:  method,
	}
}

func TestCheckoutCOD(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res, err := f.svc.Checkout(ctx, checkoutReq(PayCOD))
	require.NoError(t, err)
	o := res.Order

	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.True(t, d("1300").Equal(o.TotalAmount), "subtotal 1250 + delivery 50, got %s", o.TotalAmount)
	assert.True(t, d("1300").Equal(o.FinalAmount))
	assert.Equal(t, 8, f.store.stock["v1"])
	assert.Equal(t, 9, f.store.stock["v2"])
	assert.Equal(t, 1, f.store.cartClears)
	assert.Empty(t, res.IntentID)

	stored, err := f.store.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
}

func TestCheckoutCODLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.catalog.products["p1"].BasePrice = d("6000")

	_, err := f.svc.Checkout(ctx, checkoutReq(PayCOD))
	assert.ErrorIs(t, err, ErrCODLimitExceeded)
	assert.Empty(t, f.store.orders)
	assert.Equal(t, 10, f.store.stock["v1"])
}

func TestCheckoutExpressShipping(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	req := checkoutReq(PayCOD)
	req.Shipping = ShipExpress

	res, err := f.svc.Checkout(ctx, req)
	require.NoError(t, err)
	assert.True(t, d("120").Equal(res.Order.DeliveryCharge))
	assert.True(t, d("1370").Equal(res.Order.FinalAmount))
}

func TestCheckoutWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("debits the wallet before capture", func(t *testing.T) {
		f := newFixture()
		f.store.balance = d("2000")

		res, err := f.svc.Checkout(ctx, checkoutReq(PayWallet))
		require.NoError(t, err)

		assert.Equal(t, PaymentSuccess, res.Order.PaymentStatus)
		assert.True(t, d("700").Equal(f.store.balance), "2000 - 1300, got %s", f.store.balance)
		require.Len(t, f.store.debits, 1)
		assert.Equal(t, wallet.TxOrderPayment, f.store.debits[0].txType)
		assert.Equal(t, res.Order.ID, f.store.debits[0].orderID)
	})

	t.Run("insufficient balance rolls everything back", func(t *testing.T) {
		f := newFixture()
		f.store.balance = d("100")

		_, err := f.svc.Checkout(ctx, checkoutReq(PayWallet))
		assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)
		assert.Empty(t, f.store.orders)
		assert.Equal(t, 10, f.store.stock["v1"])
		assert.True(t, d("100").Equal(f.store.balance))
		assert.Zero(t, f.store.cartClears)
	})
}

func TestCheckoutOnline(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res, err := f.svc.Checkout(ctx, checkoutReq(PayOnline))
	require.NoError(t, err)

	assert.Equal(t, "order_rzp1", res.IntentID)
	assert.Equal(t, StatusPending, res.Order.Status)
	assert.Equal(t, PaymentPending, res.Order.PaymentStatus)
	assert.True(t, f.gateway.lastAmount.Equal(res.Order.FinalAmount))

	// Nothing is captured until the payment verifies.
	assert.Equal(t, 10, f.store.stock["v1"])
	assert.Zero(t, f.store.cartClears)

	intent, err := f.intents.Get(ctx, "order_rzp1")
	require.NoError(t, err)
	assert.Equal(t, payment.PurposeOrder, intent.Purpose)
	assert.Equal(t, res.Order.ID, intent.OrderID)
}

func TestCheckoutCoupon(t *testing.T) {
	ctx := context.Background()

	t.Run("applies the discount and redeems", func(t *testing.T) {
		f := newFixture()
		req := checkoutReq(PayCOD)
		req.CouponCode = "SAVE100"

		res, err := f.svc.Checkout(ctx, req)
		require.NoError(t, err)

		assert.True(t, d("100").Equal(res.Order.DiscountAmount))
		assert.True(t, d("1200").Equal(res.Order.FinalAmount), "1300 - 100, got %s", res.Order.FinalAmount)
		assert.Equal(t, res.Order.ID, f.store.redemptions["cpn-1|u1"])
	})

	t.Run("rejects an invalid code", func(t *testing.T) {
		f := newFixture()
		req := checkoutReq(PayCOD)
		req.CouponCode = "BOGUS"

		_, err := f.svc.Checkout(ctx, req)
		assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
		assert.Empty(t, f.store.orders)
	})
}

func TestCheckoutValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture()
		f.carts.lines["u1"] = nil

		_, err := f.svc.Checkout(ctx, checkoutReq(PayCOD))
		assert.ErrorIs(t, err, cart.ErrEmptyCart)
	})

	t.Run("missing address", func(t *testing.T) {
		f := newFixture()
		req := checkoutReq(PayCOD)
		req.Address.Text = ""

		_, err := f.svc.Checkout(ctx, req)
		assert.ErrorIs(t, err, ErrNoAddress)
	})

	t.Run("stock ran out", func(t *testing.T) {
		f := newFixture()
		f.catalog.variants["v1"].Stock = 1

		_, err := f.svc.Checkout(ctx, checkoutReq(PayCOD))
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("blocked product", func(t *testing.T) {
		f := newFixture()
		f.catalog.products["p1"].Blocked = true

		_, err := f.svc.Checkout(ctx, checkoutReq(PayCOD))
		assert.ErrorIs(t, err, catalog.ErrNotPurchasable)
	})
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *Order) {
		t.Helper()
		f := newFixture()
		res, err := f.svc.Checkout(ctx, checkoutReq(PayOnline))
		require.NoError(t, err)
		return f, res.Order
	}

	t.Run("confirms on a valid signature", func(t *testing.T) {
		f, o := setup(t)

		got, err := f.svc.VerifyPayment(ctx, "u1", "order_rzp1", "pay_1", "goodsig")
		require.NoError(t, err)

		assert.Equal(t, StatusConfirmed, got.Status)
		assert.Equal(t, PaymentSuccess, got.PaymentStatus)
		assert.Equal(t, 8, f.store.stock["v1"])
		assert.Equal(t, 1, f.store.cartClears)

		intent, _ := f.intents.Get(ctx, "order_rzp1")
		assert.Equal(t, payment.IntentVerified, intent.Status)
		assert.Equal(t, o.ID, intent.OrderID)
	})

	t.Run("rejects a bad signature", func(t *testing.T) {
		f, o := setup(t)

		_, err := f.svc.VerifyPayment(ctx, "u1", "order_rzp1", "pay_1", "badsig")
		assert.ErrorIs(t, err, payment.ErrSignatureMismatch)

		stored, _ := f.store.Get(ctx, o.ID)
		assert.Equal(t, PaymentFailed, stored.PaymentStatus)
		assert.Equal(t, StatusPending, stored.Status)
		assert.Equal(t, 10, f.store.stock["v1"])

		intent, _ := f.intents.Get(ctx, "order_rzp1")
		assert.Equal(t, payment.IntentFailed, intent.Status)
	})

	t.Run("rejects another user's intent", func(t *testing.T) {
		f, _ := setup(t)

		_, err := f.svc.VerifyPayment(ctx, "u2", "order_rzp1", "pay_1", "goodsig")
		assert.ErrorIs(t, err, payment.ErrIntentNotFound)
	})

	t.Run("rejects a replayed intent", func(t *testing.T) {
		f, _ := setup(t)

		_, err := f.svc.VerifyPayment(ctx, "u1", "order_rzp1", "pay_1", "goodsig")
		require.NoError(t, err)

		_, err = f.svc.VerifyPayment(ctx, "u1", "order_rzp1", "pay_1", "goodsig")
		assert.Error(t, err)
	})

	t.Run("rejects an order the user already cancelled", func(t *testing.T) {
		f, o := setup(t)
		require.NoError(t, f.svc.CancelOrder(ctx, "u1", o.ID, "changed my mind"))

		_, err := f.svc.VerifyPayment(ctx, "u1", "order_rzp1", "pay_1", "goodsig")
		assert.ErrorIs(t, err, ErrInvalidTransition)

		// A late capture must not resurrect the order or touch stock.
		stored, _ := f.store.Get(ctx, o.ID)
		assert.Equal(t, StatusCancelled, stored.Status)
		assert.Equal(t, 10, f.store.stock["v1"])
		assert.Equal(t, 10, f.store.stock["v2"])
		assert.Zero(t, f.store.cartClears)

		intent, _ := f.intents.Get(ctx, "order_rzp1")
		assert.Equal(t, payment.IntentFailed, intent.Status)
	})

	t.Run("skips items cancelled while pending", func(t *testing.T) {
		f, o := setup(t)
		require.NoError(t, f.svc.CancelItem(ctx, "u1", o.ID, o.Items[0].ID, "dropped"))

		got, err := f.svc.VerifyPayment(ctx, "u1", "order_rzp1", "pay_1", "goodsig")
		require.NoError(t, err)

		assert.Equal(t, StatusConfirmed, got.Status)
		assert.Equal(t, 10, f.store.stock["v1"], "cancelled item takes no stock")
		assert.Equal(t, 9, f.store.stock["v2"])
	})
}

// seedOrder places a captured two-item wallet order directly in the store.
func seedOrder(f *fixture, mutate func(*Order)) *Order {
	o := &Order{
		ID:             "ord-1",
		UserID:         "u1",
		PaymentMethod:  PayWallet,
		PaymentStatus:  PaymentSuccess,
		TotalAmount:    d("1300"),
		DeliveryCharge: d("50"),
		DiscountAmount: d("0"),
		FinalAmount:    d("1300"),
		Status:         StatusConfirmed,
		Items: []Item{
			{
				ID: "it-1", OrderID: "ord-1", ProductID: "p1", Name: "Kibble",
				Variant: VariantSnapshot{ID: "v1", Size: "3kg"},
				Quantity: 2, Price: d("500"), OldPrice: d("500"), Subtotal: d("1000"),
				Status: ItemPending,
			},
			{
				ID: "it-2", OrderID: "ord-1", ProductID: "p2", Name: "Rope Tug",
				Variant: VariantSnapshot{ID: "v2", Size: "L"},
				Quantity: 1, Price: d("250"), OldPrice: d("250"), Subtotal: d("250"),
				Status: ItemPending,
			},
		},
	}
	if mutate != nil {
		mutate(o)
	}
	f.store.orders[o.ID] = o
	f.store.stock["v1"] = 8
	f.store.stock["v2"] = 9
	return o
}

func TestCancelItem(t *testing.T) {
	ctx := context.Background()

	t.Run("restores stock and refunds the item", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, nil)

		require.NoError(t, f.svc.CancelItem(ctx, "u1", "ord-1", "it-1", "changed my mind"))

		o, _ := f.store.Get(ctx, "ord-1")
		assert.Equal(t, ItemCancelled, o.Items[0].Status)
		assert.Equal(t, "changed my mind", o.Items[0].CancellationReason)
		assert.Equal(t, StatusConfirmed, o.Status)
		assert.Equal(t, 10, f.store.stock["v1"])

		require.Len(t, f.store.credits, 1)
		assert.True(t, d("1000").Equal(f.store.credits[0].amount))
		assert.Equal(t, wallet.TxRefund, f.store.credits[0].txType)
	})

	t.Run("refund excludes the proportional discount share", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, func(o *Order) {
			o.CouponID = "cpn-1"
			o.DiscountAmount = d("100")
			o.FinalAmount = d("1200")
		})
		f.store.redemptions["cpn-1|u1"] = "ord-1"

		require.NoError(t, f.svc.CancelItem(ctx, "u1", "ord-1", "it-1", ""))

		// Item share: 100 * 1000/1250 = 80. Refund 1000 - 80 = 920.
		require.Len(t, f.store.credits, 1)
		assert.True(t, d("920").Equal(f.store.credits[0].amount), "got %s", f.store.credits[0].amount)

		// Remaining subtotal 250 is below the coupon's 1000 minimum.
		assert.NotContains(t, f.store.redemptions, "cpn-1|u1")
	})

	t.Run("COD items are not refunded", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, func(o *Order) {
			o.PaymentMethod = PayCOD
			o.PaymentStatus = PaymentPending
		})

		require.NoError(t, f.svc.CancelItem(ctx, "u1", "ord-1", "it-1", ""))
		assert.Empty(t, f.store.credits)
		assert.Equal(t, 10, f.store.stock["v1"])
	})

	t.Run("cancelling the last item cancels the order", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, nil)

		require.NoError(t, f.svc.CancelItem(ctx, "u1", "ord-1", "it-1", ""))
		require.NoError(t, f.svc.CancelItem(ctx, "u1", "ord-1", "it-2", ""))

		o, _ := f.store.Get(ctx, "ord-1")
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, PaymentRefunded, o.PaymentStatus)

		// Item refunds plus the delivery charge.
		require.Len(t, f.store.credits, 3)
		assert.True(t, d("50").Equal(f.store.credits[2].amount))
	})

	t.Run("rejects shipped orders", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, func(o *Order) { o.Status = StatusShipped })

		err := f.svc.CancelItem(ctx, "u1", "ord-1", "it-1", "")
		assert.ErrorIs(t, err, ErrItemNotCancellable)
	})

	t.Run("rejects an already cancelled item", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, func(o *Order) { o.Items[0].Status = ItemCancelled })

		err := f.svc.CancelItem(ctx, "u1", "ord-1", "it-1", "")
		assert.ErrorIs(t, err, ErrItemNotCancellable)
	})

	t.Run("pending online item takes no stock or refund", func(t *testing.T) {
		f := newFixture()
		res, err := f.svc.Checkout(ctx, checkoutReq(PayOnline))
		require.NoError(t, err)

		require.NoError(t, f.svc.CancelItem(ctx, "u1", res.Order.ID, res.Order.Items[0].ID, "dropped"))

		o, _ := f.store.Get(ctx, res.Order.ID)
		assert.Equal(t, ItemCancelled, o.Items[0].Status)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, 10, f.store.stock["v1"])
		assert.Empty(t, f.store.credits)
	})

	t.Run("scoped to the owner", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, nil)

		err := f.svc.CancelItem(ctx, "u2", "ord-1", "it-1", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels all active items", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, nil)

		require.NoError(t, f.svc.CancelOrder(ctx, "u1", "ord-1", "moved house"))

		o, _ := f.store.Get(ctx, "ord-1")
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, "moved house", o.CancellationReason)
		assert.Equal(t, PaymentRefunded, o.PaymentStatus)
		assert.Equal(t, 10, f.store.stock["v1"])
		assert.Equal(t, 10, f.store.stock["v2"])

		// 1000 + 250 + 50 delivery.
		total := decimal.Zero
		for _, c := range f.store.credits {
			total = total.Add(c.amount)
		}
		assert.True(t, d("1300").Equal(total), "got %s", total)
	})

	t.Run("rejects delivered orders", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, func(o *Order) { o.Status = StatusDelivered })

		err := f.svc.CancelOrder(ctx, "u1", "ord-1", "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("pending online order leaves stock untouched", func(t *testing.T) {
		f := newFixture()
		res, err := f.svc.Checkout(ctx, checkoutReq(PayOnline))
		require.NoError(t, err)

		require.NoError(t, f.svc.CancelOrder(ctx, "u1", res.Order.ID, "abandoned payment"))

		// Stock was never decremented for the unpaid order, so there is
		// nothing to restore.
		o, _ := f.store.Get(ctx, res.Order.ID)
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, 10, f.store.stock["v1"])
		assert.Equal(t, 10, f.store.stock["v2"])
		assert.Empty(t, f.store.credits)
	})
}

func TestReturnItem(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	delivered := func(o *Order) {
		o.Status = StatusDelivered
		at := now.Add(-48 * time.Hour)
		o.DeliveredAt = &at
	}

	t.Run("refunds within the window", func(t *testing.T) {
		f := newFixture()
		f.svc.now = func() time.Time { return now }
		seedOrder(f, delivered)

		require.NoError(t, f.svc.ReturnItem(ctx, "u1", "ord-1", "it-2", "wrong size"))

		o, _ := f.store.Get(ctx, "ord-1")
		assert.Equal(t, ItemReturned, o.Items[1].Status)
		assert.Equal(t, PaymentSuccess, o.PaymentStatus)
		assert.Equal(t, 10, f.store.stock["v2"])
		require.Len(t, f.store.credits, 1)
		assert.True(t, d("250").Equal(f.store.credits[0].amount))
	})

	t.Run("fully returned order is refunded", func(t *testing.T) {
		f := newFixture()
		f.svc.now = func() time.Time { return now }
		seedOrder(f, delivered)

		require.NoError(t, f.svc.ReturnItem(ctx, "u1", "ord-1", "it-1", ""))
		require.NoError(t, f.svc.ReturnItem(ctx, "u1", "ord-1", "it-2", ""))

		o, _ := f.store.Get(ctx, "ord-1")
		assert.Equal(t, PaymentRefunded, o.PaymentStatus)
	})

	t.Run("rejects before delivery", func(t *testing.T) {
		f := newFixture()
		f.svc.now = func() time.Time { return now }
		seedOrder(f, nil)

		err := f.svc.ReturnItem(ctx, "u1", "ord-1", "it-1", "")
		assert.ErrorIs(t, err, ErrNotDelivered)
	})

	t.Run("rejects after the window", func(t *testing.T) {
		f := newFixture()
		f.svc.now = func() time.Time { return now }
		seedOrder(f, func(o *Order) {
			o.Status = StatusDelivered
			at := now.Add(-8 * 24 * time.Hour)
			o.DeliveredAt = &at
		})

		err := f.svc.ReturnItem(ctx, "u1", "ord-1", "it-1", "")
		assert.ErrorIs(t, err, ErrReturnWindowClosed)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("forward transitions", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, nil)

		require.NoError(t, f.svc.UpdateStatus(ctx, "ord-1", StatusShipped))
		o, _ := f.store.Get(ctx, "ord-1")
		assert.Equal(t, StatusShipped, o.Status)

		require.NoError(t, f.svc.UpdateStatus(ctx, "ord-1", StatusDelivered))
		o, _ = f.store.Get(ctx, "ord-1")
		assert.Equal(t, StatusDelivered, o.Status)
		assert.NotNil(t, o.DeliveredAt)
	})

	t.Run("delivery collects COD payment", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, func(o *Order) {
			o.PaymentMethod = PayCOD
			o.PaymentStatus = PaymentPending
			o.Status = StatusShipped
		})

		require.NoError(t, f.svc.UpdateStatus(ctx, "ord-1", StatusDelivered))
		o, _ := f.store.Get(ctx, "ord-1")
		assert.Equal(t, PaymentSuccess, o.PaymentStatus)
	})

	t.Run("rejects backward transitions", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, func(o *Order) { o.Status = StatusShipped })

		err := f.svc.UpdateStatus(ctx, "ord-1", StatusConfirmed)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("cancelled routes through cancellation", func(t *testing.T) {
		f := newFixture()
		seedOrder(f, nil)

		require.NoError(t, f.svc.UpdateStatus(ctx, "ord-1", StatusCancelled))
		o, _ := f.store.Get(ctx, "ord-1")
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, 10, f.store.stock["v1"])
	})
}

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusConfirmed, StatusShipped, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+" to "+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}
