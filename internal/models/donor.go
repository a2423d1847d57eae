package models

import "time"

// Donor holds the display information of a donor.
//
// Donor identities are issued by the platform's authentication service. The
// ledger keeps only what it needs to render leaderboards, refreshed from the
// bearer token each time the donor gives.
type Donor struct {
	// ID is the donor identifier from the auth token subject.
	ID string

	// DisplayName is the name shown on leaderboards for non-anonymous gifts.
	DisplayName string

	// UpdatedAt is when the profile was last refreshed.
	UpdatedAt time.Time
}

// Name returns the display name, falling back to the donor id.
func (d *Donor) Name() string {
	if d == nil {
		return ""
	}
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.ID
}
