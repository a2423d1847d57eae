package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaderboardEntry is one ranked row of the donor leaderboard.
// It is derived from donations on every query.
type LeaderboardEntry struct {
	// Rank is the 1-based position in the leaderboard.
	Rank int

	// DonorKey is the grouping key: a donor id, or AnonymousDonor.
	DonorKey string

	// DisplayName is what the leaderboard shows for this row.
	DisplayName string

	Total         decimal.Decimal
	DonationCount int

	// FirstDonationAt is the earliest donation in the group within the window.
	FirstDonationAt time.Time
}
