// Package wallet defines the mobile-wallet collaborator the engine moves
// money through, and a SQL ledger implementation of it.
package wallet

import (
	"context"
	"errors"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWalletNotFound is returned when the wallet does not exist.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInvalidAmount is returned for non-positive movements.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrKeyReused is returned when an idempotency key is replayed with a
	// different wallet, direction or amount.
	ErrKeyReused = errors.New("idempotency key reused with different parameters")
)

// Wallet moves money in and out of member wallets.
//
// Both methods are idempotent per key: replaying a key that already
// succeeded returns success without moving money again.
type Wallet interface {
	// Debit removes amount from the wallet and returns the new balance.
	Debit(ctx context.Context, walletID string, amount int64, key, memo string) (int64, error)

	// Credit adds amount to the wallet.
	Credit(ctx context.Context, walletID string, amount int64, key, memo string) error
}
