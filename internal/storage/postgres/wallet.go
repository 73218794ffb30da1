package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/najiyasheri/pawsome/internal/domain/wallet"
)

const (
	getWalletSQL = `INSERT INTO wallets (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, balance, updated_at`

	creditWalletSQL = `INSERT INTO wallets (user_id, balance, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
			SET balance = wallets.balance + EXCLUDED.balance, updated_at = now()
		RETURNING balance`

	debitWalletSQL = `UPDATE wallets SET balance = balance - $2, updated_at = now()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance`

	insertWalletTxSQL = `INSERT INTO wallet_transactions
			(id, user_id, type, direction, amount, balance_after, order_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`

	walletTxPageSQL = `SELECT id, user_id, type, direction, amount, balance_after,
			COALESCE(order_id, ''), description, created_at
		FROM wallet_transactions WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	countWalletTxSQL = `SELECT count(*) FROM wallet_transactions WHERE user_id = $1`
)

var _ wallet.Repository = (*WalletRepository)(nil)

// WalletRepository implements wallet.Repository backed by PostgreSQL.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository returns a WalletRepository that uses the given pool.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Get returns the user's wallet, creating an empty one on first use.
func (r *WalletRepository) Get(ctx context.Context, userID string) (*wallet.Wallet, error) {
	var w wallet.Wallet
	err := r.pool.QueryRow(ctx, getWalletSQL, userID).Scan(&w.UserID, &w.Balance, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting wallet of %q: %w", userID, err)
	}
	return &w, nil
}

// Transactions returns a page of the ledger, newest first.
func (r *WalletRepository) Transactions(ctx context.Context, userID string, page, perPage int) ([]wallet.Transaction, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, countWalletTxSQL, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting wallet transactions: %w", err)
	}

	page, perPage = normalizePage(page, perPage)
	rows, err := r.pool.Query(ctx, walletTxPageSQL, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("listing wallet transactions: %w", err)
	}

	txns, err := pgx.CollectRows(rows, scanWalletTx)
	if err != nil {
		return nil, 0, fmt.Errorf("listing wallet transactions: %w", err)
	}
	return txns, total, nil
}

// Credit atomically increases the balance and appends the ledger entry.
func (r *WalletRepository) Credit(ctx context.Context, txn *wallet.Transaction) error {
	return creditWallet(ctx, r.pool, txn)
}

// Debit atomically decreases the balance and appends the ledger entry.
func (r *WalletRepository) Debit(ctx context.Context, txn *wallet.Transaction) error {
	return debitWallet(ctx, r.pool, txn)
}

// creditWallet runs the credit against any querier so the same mutation works
// standalone and inside an order transaction.
func creditWallet(ctx context.Context, q querier, txn *wallet.Transaction) error {
	var balance decimal.Decimal
	err := q.QueryRow(ctx, creditWalletSQL, txn.UserID, txn.Amount).Scan(&balance)
	if err != nil {
		return fmt.Errorf("crediting wallet of %q: %w", txn.UserID, err)
	}

	txn.Direction = wallet.Credit
	txn.BalanceAfter = balance
	return insertWalletTx(ctx, q, txn)
}

// debitWallet conditionally decreases the balance; a balance short of the
// amount leaves the row untouched and returns wallet.ErrInsufficientBalance.
func debitWallet(ctx context.Context, q querier, txn *wallet.Transaction) error {
	var balance decimal.Decimal
	err := q.QueryRow(ctx, debitWalletSQL, txn.UserID, txn.Amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return wallet.ErrInsufficientBalance
		}
		return fmt.Errorf("debiting wallet of %q: %w", txn.UserID, err)
	}

	txn.Direction = wallet.Debit
	txn.BalanceAfter = balance
	return insertWalletTx(ctx, q, txn)
}

func insertWalletTx(ctx context.Context, q querier, txn *wallet.Transaction) error {
	_, err := q.Exec(ctx, insertWalletTxSQL,
		txn.ID, txn.UserID, txn.Type, txn.Direction, txn.Amount,
		txn.BalanceAfter, txn.OrderID, txn.Description,
	)
	if err != nil {
		return fmt.Errorf("recording wallet transaction %q: %w", txn.ID, err)
	}
	return nil
}

func scanWalletTx(row pgx.CollectableRow) (wallet.Transaction, error) {
	var t wallet.Transaction
	err := row.Scan(
		&t.ID, &t.UserID, &t.Type, &t.Direction, &t.Amount,
		&t.BalanceAfter, &t.OrderID, &t.Description, &t.CreatedAt,
	)
	return t, err
}
