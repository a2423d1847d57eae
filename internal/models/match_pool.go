package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolStatus is the lifecycle state of a match pool.
// Completed and expired are terminal.
type PoolStatus string

const (
	PoolActive    PoolStatus = "active"
	PoolCompleted PoolStatus = "completed"
	PoolExpired   PoolStatus = "expired"
)

// Terminal reports whether no further deductions can happen in this state.
func (s PoolStatus) Terminal() bool {
	return s == PoolCompleted || s == PoolExpired
}

// MatchPool is a sponsor-funded HoneyMatch challenge. At most one pool per
// campaign is active at a time.
type MatchPool struct {
	// ID is the unique identifier for the pool (UUID format).
	ID string

	// CampaignID is the campaign whose donations this pool matches.
	CampaignID string

	// SponsorID identifies who pledged the pool. May be empty.
	SponsorID string

	// Total is the pledged amount.
	Total decimal.Decimal

	// Remaining starts equal to Total and only decreases while active.
	Remaining decimal.Decimal

	// Deadline after which the pool stops matching.
	Deadline time.Time

	Status PoolStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Matched returns how much of the pledge has been paid out.
func (p *MatchPool) Matched() decimal.Decimal {
	return p.Total.Sub(p.Remaining)
}

// MatchContribution records one deduction from a pool.
type MatchContribution struct {
	ID         string
	PoolID     string
	CampaignID string

	// DonationID is the donation that triggered the match. Empty when the
	// match was applied without a recorded donation.
	DonationID string

	Amount    decimal.Decimal
	CreatedAt time.Time
}
