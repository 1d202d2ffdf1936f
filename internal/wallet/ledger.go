package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS wallets (
    id TEXT PRIMARY KEY,
    currency TEXT NOT NULL,
    balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS wallet_entries (
    id TEXT PRIMARY KEY,
    wallet_id TEXT NOT NULL,
    direction TEXT NOT NULL,
    amount INTEGER NOT NULL CHECK (amount > 0),
    idempotency_key TEXT NOT NULL UNIQUE,
    memo TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    FOREIGN KEY (wallet_id) REFERENCES wallets(id)
);

CREATE INDEX IF NOT EXISTS idx_wallet_entries_wallet_id ON wallet_entries(wallet_id);
`

const (
	directionDebit  = "DEBIT"
	directionCredit = "CREDIT"
)

// Ensure Ledger implements Wallet
var _ Wallet = (*Ledger)(nil)

// Ledger is a Wallet backed by two SQL tables: balances and an append-only
// entry log whose unique idempotency key makes replays harmless.
type Ledger struct {
	db *sql.DB
}

// Entry is one movement on a wallet.
type Entry struct {
	ID        string
	WalletID  string
	Direction string
	Amount    int64
	Key       string
	Memo      string
	CreatedAt int64
}

// NewLedger creates the ledger tables on db if needed.
func NewLedger(ctx context.Context, db *sql.DB) (*Ledger, error) {
	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// OpenWallet creates a wallet with an opening balance. Opening an existing
// wallet is a no-op.
func (l *Ledger) OpenWallet(ctx context.Context, walletID, currency string, opening int64) error {
	if opening < 0 {
		return ErrInvalidAmount
	}
	return l.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO wallets (id, currency, balance, created_at) VALUES (?, ?, 0, ?) ON CONFLICT(id) DO NOTHING",
			walletID, currency, time.Now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to open wallet: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 || opening == 0 {
			return nil
		}
		_, err = l.move(ctx, tx, walletID, directionCredit, opening, "open:"+walletID, "opening balance")
		return err
	})
}

// Balance returns the current balance of a wallet.
func (l *Ledger) Balance(ctx context.Context, walletID string) (int64, error) {
	return balance(ctx, l.db, walletID)
}

// Entries returns the movements of a wallet, oldest first.
func (l *Ledger) Entries(ctx context.Context, walletID string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, wallet_id, direction, amount, idempotency_key, memo, created_at
		 FROM wallet_entries WHERE wallet_id = ? ORDER BY created_at, rowid`,
		walletID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.WalletID, &e.Direction, &e.Amount, &e.Key, &e.Memo, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

// Debit removes amount from a wallet.
func (l *Ledger) Debit(ctx context.Context, walletID string, amount int64, key, memo string) (int64, error) {
	var newBalance int64
	err := l.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		newBalance, err = l.move(ctx, tx, walletID, directionDebit, amount, key, memo)
		return err
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Credit adds amount to a wallet.
func (l *Ledger) Credit(ctx context.Context, walletID string, amount int64, key, memo string) error {
	return l.withTx(ctx, func(tx *sql.Tx) error {
		_, err := l.move(ctx, tx, walletID, directionCredit, amount, key, memo)
		return err
	})
}

func (l *Ledger) move(ctx context.Context, tx *sql.Tx, walletID, direction string, amount int64, key, memo string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var prevWallet, prevDirection string
	var prevAmount int64
	err := tx.QueryRowContext(ctx,
		"SELECT wallet_id, direction, amount FROM wallet_entries WHERE idempotency_key = ?",
		key,
	).Scan(&prevWallet, &prevDirection, &prevAmount)
	switch {
	case err == nil:
		if prevWallet != walletID || prevDirection != direction || prevAmount != amount {
			return 0, fmt.Errorf("%s: %w", key, ErrKeyReused)
		}
		return balance(ctx, tx, walletID)
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("failed to look up idempotency key: %w", err)
	}

	current, err := balance(ctx, tx, walletID)
	if err != nil {
		return 0, err
	}

	next := current + amount
	if direction == directionDebit {
		if current < amount {
			return 0, fmt.Errorf("wallet %s has %d, needs %d: %w", walletID, current, amount, ErrInsufficientFunds)
		}
		next = current - amount
	}

	if _, err := tx.ExecContext(ctx, "UPDATE wallets SET balance = ? WHERE id = ?", next, walletID); err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO wallet_entries (id, wallet_id, direction, amount, idempotency_key, memo, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), walletID, direction, amount, key, memo, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}
	return next, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func balance(ctx context.Context, q rowQuerier, walletID string) (int64, error) {
	var b int64
	err := q.QueryRowContext(ctx, "SELECT balance FROM wallets WHERE id = ?", walletID).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", walletID, ErrWalletNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return b, nil
}

func (l *Ledger) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
