package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/safarni/tourism-booking/internal/model"
)

// WalletStore is the persistence surface the wallet needs. The
// repository's conditional UPDATE keeps the balance non-negative; the
// wallet itself only validates amounts and picks the sign.
type WalletStore interface {
	GetTourist(ctx context.Context, id uint64) (*model.Tourist, error)
	// ApplyWalletDelta atomically adds delta to the balance and returns
	// the result. It fails with repository.ErrInsufficientFunds when the
	// balance would go negative.
	ApplyWalletDelta(ctx context.Context, id uint64, delta decimal.Decimal) (decimal.Decimal, error)
}

// Wallet mutates a tourist's monetary balance. Credit always succeeds
// for an existing tourist; Debit fails rather than overdraw.
type Wallet struct {
	store WalletStore
}

// NewWallet returns a Wallet backed by the given store.
func NewWallet(store WalletStore) *Wallet {
	return &Wallet{store: store}
}

// Credit adds amount to the tourist's balance and returns the new
// balance. There is no upper bound.
func (w *Wallet) Credit(ctx context.Context, touristID uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return w.store.ApplyWalletDelta(ctx, touristID, amount)
}

// Debit subtracts amount from the tourist's balance and returns the new
// balance, or repository.ErrInsufficientFunds when amount exceeds it.
func (w *Wallet) Debit(ctx context.Context, touristID uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return w.store.ApplyWalletDelta(ctx, touristID, amount.Neg())
}

// Balance returns the tourist's current balance.
func (w *Wallet) Balance(ctx context.Context, touristID uint64) (decimal.Decimal, error) {
	t, err := w.store.GetTourist(ctx, touristID)
	if err != nil {
		return decimal.Zero, err
	}
	return t.WalletBalance, nil
}
