package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/safarni/tourism-booking/internal/model"
	"github.com/safarni/tourism-booking/internal/repository"
)

// Tier thresholds and earning multipliers. A tourist earns half a point
// per EGP at tier 1, one point at tier 2 and one and a half at tier 3;
// the tier itself is a function of cumulative points.
var (
	tier1Ceiling = decimal.NewFromInt(100000)
	tier2Ceiling = decimal.NewFromInt(500000)

	multipliers = map[int]decimal.Decimal{
		model.TierBronze: decimal.NewFromFloat(0.5),
		model.TierSilver: decimal.NewFromInt(1),
		model.TierGold:   decimal.NewFromFloat(1.5),
	}
)

// Redemption converts points to wallet money in fixed blocks:
// 10000 points are worth 100 EGP.
var (
	redeemUnit    = decimal.NewFromInt(10000)
	redeemDivisor = decimal.NewFromInt(100)
)

// loyaltyWriteAttempts bounds the optimistic retry loop around the
// versioned tourist update.
const loyaltyWriteAttempts = 5

// PointsForPayment maps an amount paid to the points it earns at the
// given tier. Fails with ErrInvalidTier for tiers outside 1..3.
func PointsForPayment(amountPaid decimal.Decimal, tier int) (decimal.Decimal, error) {
	m, ok := multipliers[tier]
	if !ok {
		return decimal.Zero, ErrInvalidTier
	}
	return amountPaid.Mul(m), nil
}

// TierForPoints derives the tier from cumulative points. Total and
// monotonic: <=100000 -> 1, <=500000 -> 2, above -> 3.
func TierForPoints(totalPoints decimal.Decimal) int {
	switch {
	case totalPoints.LessThanOrEqual(tier1Ceiling):
		return model.TierBronze
	case totalPoints.LessThanOrEqual(tier2Ceiling):
		return model.TierSilver
	default:
		return model.TierGold
	}
}

// BadgeForTier maps a tier to its display badge.
func BadgeForTier(tier int) (string, error) {
	switch tier {
	case model.TierBronze:
		return model.BadgeBronze, nil
	case model.TierSilver:
		return model.BadgeSilver, nil
	case model.TierGold:
		return model.BadgeGold, nil
	}
	return "", ErrInvalidTier
}

// LoyaltyStore is the persistence surface of the loyalty engine. The
// versioned SetLoyalty write is the serialization point: points, tier,
// badge and an optional wallet credit land in one statement or not at
// all.
type LoyaltyStore interface {
	GetTourist(ctx context.Context, id uint64) (*model.Tourist, error)
	SetLoyalty(ctx context.Context, id uint64, points decimal.Decimal, tier int, badge string, walletDelta decimal.Decimal, expectVersion uint64) error
}

// Loyalty maintains the points/tier/badge tuple derived from money
// movement. All mutations are read-compute-write loops guarded by the
// tourist's version, retried on conflict.
type Loyalty struct {
	store LoyaltyStore
}

// NewLoyalty returns a Loyalty engine backed by the given store.
func NewLoyalty(store LoyaltyStore) *Loyalty {
	return &Loyalty{store: store}
}

// EarnResult reports what a payment earned, for the booking audit trail.
type EarnResult struct {
	Points decimal.Decimal // points added by this payment
	Tier   int             // tier the points were computed with
}

// Earn awards the points amountPaid yields at the tourist's current
// tier, then recomputes tier and badge from the new total.
func (l *Loyalty) Earn(ctx context.Context, touristID uint64, amountPaid decimal.Decimal) (EarnResult, error) {
	if amountPaid.Sign() <= 0 {
		return EarnResult{}, ErrInvalidAmount
	}
	var res EarnResult
	err := l.update(ctx, touristID, func(t *model.Tourist) (decimal.Decimal, decimal.Decimal, error) {
		pts, err := PointsForPayment(amountPaid, t.Tier)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		res = EarnResult{Points: pts, Tier: t.Tier}
		return t.LoyaltyPoints.Add(pts), decimal.Zero, nil
	})
	return res, err
}

// Reverse subtracts the points amountRefunded would earn at the
// tourist's current tier, floored at zero, and recomputes tier and
// badge. The current tier can differ from the tier in force when the
// points were earned; the booking keeps the earn-time figures for audit.
func (l *Loyalty) Reverse(ctx context.Context, touristID uint64, amountRefunded decimal.Decimal) error {
	if amountRefunded.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return l.update(ctx, touristID, func(t *model.Tourist) (decimal.Decimal, decimal.Decimal, error) {
		pts, err := PointsForPayment(amountRefunded, t.Tier)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		next := t.LoyaltyPoints.Sub(pts)
		if next.Sign() < 0 {
			next = decimal.Zero
		}
		return next, decimal.Zero, nil
	})
}

// ReverseExact subtracts exactly the given number of points, floored at
// zero, and recomputes tier and badge. Used to undo an Earn whose exact
// figure is still in hand: recomputing from the amount would use the
// post-earn tier and can subtract more than was added when the earn
// crossed a ceiling.
func (l *Loyalty) ReverseExact(ctx context.Context, touristID uint64, points decimal.Decimal) error {
	if points.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return l.update(ctx, touristID, func(t *model.Tourist) (decimal.Decimal, decimal.Decimal, error) {
		next := t.LoyaltyPoints.Sub(points)
		if next.Sign() < 0 {
			next = decimal.Zero
		}
		return next, decimal.Zero, nil
	})
}

// RedeemResult is the outcome of a point redemption.
type RedeemResult struct {
	PointsRedeemed  decimal.Decimal
	EGPCredited     decimal.Decimal
	RemainingPoints decimal.Decimal
	WalletBalance   decimal.Decimal
}

// Redeem converts the largest multiple of 10000 points not exceeding
// the tourist's total into wallet money (10000 points = 100 EGP). The
// point decrement and the wallet credit are one atomic write. Fails
// with ErrInsufficientPoints below one redemption unit.
func (l *Loyalty) Redeem(ctx context.Context, touristID uint64) (RedeemResult, error) {
	var res RedeemResult
	err := l.update(ctx, touristID, func(t *model.Tourist) (decimal.Decimal, decimal.Decimal, error) {
		if t.LoyaltyPoints.LessThan(redeemUnit) {
			return decimal.Zero, decimal.Zero, ErrInsufficientPoints
		}
		blocks := t.LoyaltyPoints.Div(redeemUnit).Floor()
		redeemed := blocks.Mul(redeemUnit)
		credited := redeemed.Div(redeemDivisor)
		res = RedeemResult{
			PointsRedeemed:  redeemed,
			EGPCredited:     credited,
			RemainingPoints: t.LoyaltyPoints.Sub(redeemed),
		}
		return res.RemainingPoints, credited, nil
	})
	if err != nil {
		return RedeemResult{}, err
	}
	t, err := l.store.GetTourist(ctx, touristID)
	if err != nil {
		return RedeemResult{}, err
	}
	res.WalletBalance = t.WalletBalance
	return res, nil
}

// update runs one optimistic read-compute-write cycle, retrying when a
// concurrent loyalty write bumped the version first. compute returns
// the new point total and a wallet delta to apply in the same write.
func (l *Loyalty) update(ctx context.Context, touristID uint64, compute func(*model.Tourist) (decimal.Decimal, decimal.Decimal, error)) error {
	for attempt := 0; attempt < loyaltyWriteAttempts; attempt++ {
		t, err := l.store.GetTourist(ctx, touristID)
		if err != nil {
			return err
		}
		newPoints, walletDelta, err := compute(t)
		if err != nil {
			return err
		}
		tier := TierForPoints(newPoints)
		badge, err := BadgeForTier(tier)
		if err != nil {
			return err
		}
		err = l.store.SetLoyalty(ctx, touristID, newPoints, tier, badge, walletDelta, t.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("loyalty update for tourist %d: %w", touristID, repository.ErrConflict)
}
