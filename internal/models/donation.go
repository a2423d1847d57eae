package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnonymousDonor is the display name and grouping bucket for anonymous donations.
const AnonymousDonor = "Anonymous"

// MaxMessageLength is the longest message a donor may attach to a donation.
const MaxMessageLength = 500

// Donation is an append-only ledger entry. Once committed it is never
// updated or deleted.
type Donation struct {
	// ID is the unique identifier for the donation (UUID format).
	ID string

	// Seq is the commit sequence assigned by the store. It increases with
	// every committed donation and breaks ties between equal timestamps.
	Seq int64

	// CampaignID references the campaign that received the donation.
	CampaignID string

	// DonorID is the true donor identity. Empty for donations made without
	// an authenticated donor.
	DonorID string

	// Anonymous hides the donor in rendered views. DonorID is still kept.
	Anonymous bool

	// Amount is the donated amount. Always positive.
	Amount decimal.Decimal

	// Message is an optional note from the donor.
	Message string

	// IdempotencyKey deduplicates client retries. Optional.
	IdempotencyKey string

	// CreatedAt is the commit timestamp.
	CreatedAt time.Time
}

// GroupKey returns the leaderboard grouping key for the donation: the donor
// id for identified donations, AnonymousDonor otherwise.
func (d *Donation) GroupKey() string {
	if d.Anonymous || d.DonorID == "" {
		return AnonymousDonor
	}
	return d.DonorID
}
