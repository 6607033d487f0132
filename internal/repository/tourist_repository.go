package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/safarni/tourism-booking/internal/model"
)

// TouristRepo provides data access to the tourists table. The wallet
// balance and the loyalty tuple (points, tier, badge) are mutated only
// through the conditional statements below so that concurrent payments,
// refunds and redemptions for the same tourist can never interleave
// partial writes or drive a balance negative.
type TouristRepo struct {
	db *sql.DB
}

// NewTouristRepo returns a new TouristRepo bound to the given database.
func NewTouristRepo(db *sql.DB) *TouristRepo { return &TouristRepo{db: db} }

const touristColumns = `id, name, email, wallet_balance, loyalty_points, tier, badge, version, flagged_at, created_at, updated_at`

func scanTourist(row *sql.Row) (*model.Tourist, error) {
	var t model.Tourist
	err := row.Scan(
		&t.ID, &t.Name, &t.Email, &t.WalletBalance, &t.LoyaltyPoints,
		&t.Tier, &t.Badge, &t.Version, &t.FlaggedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTouristNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID loads a tourist by primary key. Returns ErrTouristNotFound
// when no row exists.
func (r *TouristRepo) GetByID(ctx context.Context, id uint64) (*model.Tourist, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+touristColumns+` FROM tourists WHERE id = ?`, id)
	return scanTourist(row)
}

// ApplyWalletDelta adds delta (which may be negative) to the tourist's
// wallet balance and returns the resulting balance. The non-negativity
// invariant is enforced by the WHERE clause of a single UPDATE, so a
// debit that would overdraw the wallet matches no row and returns
// ErrInsufficientFunds. The update and the read-back of the new balance
// run inside one transaction.
func (r *TouristRepo) ApplyWalletDelta(ctx context.Context, id uint64, delta decimal.Decimal) (decimal.Decimal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const upd = `UPDATE tourists
				 SET wallet_balance = wallet_balance + ?, version = version + 1, updated_at = UTC_TIMESTAMP()
				 WHERE id = ? AND wallet_balance + ? >= 0`
	res, err := tx.ExecContext(ctx, upd, delta, id, delta)
	if err != nil {
		return decimal.Zero, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return decimal.Zero, err
	}
	if n == 0 {
		// Distinguish a missing tourist from an overdraw attempt.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM tourists WHERE id = ?)`, id).Scan(&exists); err != nil {
			return decimal.Zero, err
		}
		if !exists {
			return decimal.Zero, ErrTouristNotFound
		}
		return decimal.Zero, ErrInsufficientFunds
	}

	var balance decimal.Decimal
	if err := tx.QueryRowContext(ctx,
		`SELECT wallet_balance FROM tourists WHERE id = ?`, id).Scan(&balance); err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, err
	}
	committed = true
	return balance, nil
}

// SetLoyalty writes a tourist's loyalty tuple (points, tier, badge) and
// optionally moves the wallet in the same statement (point redemption
// credits the wallet while decrementing points). The write is guarded by
// the version read alongside the points, so a concurrent loyalty write
// causes ErrConflict and the caller recomputes from fresh state.
func (r *TouristRepo) SetLoyalty(ctx context.Context, id uint64, points decimal.Decimal, tier int, badge string, walletDelta decimal.Decimal, expectVersion uint64) error {
	const upd = `UPDATE tourists
				 SET loyalty_points = ?, tier = ?, badge = ?,
					 wallet_balance = wallet_balance + ?, version = version + 1,
					 updated_at = UTC_TIMESTAMP()
				 WHERE id = ? AND version = ? AND wallet_balance + ? >= 0`
	res, err := r.db.ExecContext(ctx, upd, points, tier, badge, walletDelta, id, expectVersion, walletDelta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM tourists WHERE id = ?)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrTouristNotFound
		}
		return ErrConflict
	}
	return nil
}
