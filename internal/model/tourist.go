package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loyalty tier bounds.  Tiers are derived from cumulative points and are
// never stored independently of them.
const (
	TierBronze = 1
	TierSilver = 2
	TierGold   = 3
)

// Badge labels shown to tourists.  Each tier maps to exactly one badge.
const (
	BadgeBronze = "Bronze"
	BadgeSilver = "Silver"
	BadgeGold   = "Gold"
)

// Tourist represents a row in the `tourists` table.  The wallet balance
// and the loyalty tuple (points, tier, badge) form a single consistency
// unit: they are only ever mutated together through conditional updates
// in the repository layer, never field by field.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – display name.
//  Email         – unique email address (owned by the external auth service).
//  WalletBalance – EGP balance, never negative.
//  LoyaltyPoints – cumulative points, never negative.
//  Tier          – 1..3, derived from LoyaltyPoints.
//  Badge         – Bronze/Silver/Gold, derived from Tier.
//  Version       – optimistic lock counter bumped on every loyalty write.
//  FlaggedAt     – set by the external admin workflow instead of deletion.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type Tourist struct {
	ID            uint64          // tourists.id
	Name          string          // tourists.name
	Email         string          // tourists.email
	WalletBalance decimal.Decimal // tourists.wallet_balance
	LoyaltyPoints decimal.Decimal // tourists.loyalty_points
	Tier          int             // tourists.tier
	Badge         string          // tourists.badge
	Version       uint64          // tourists.version
	FlaggedAt     *time.Time      // tourists.flagged_at (nullable)
	CreatedAt     time.Time       // tourists.created_at
	UpdatedAt     time.Time       // tourists.updated_at
}
