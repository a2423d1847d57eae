package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignActive, CampaignCompleted, CampaignCancelled:
		return true
	}
	return false
}

// Categories lists the campaign categories offered by the platform.
var Categories = []string{
	"Education",
	"Environment",
	"Health",
	"Medical",
	"Technology",
	"Arts",
	"Community",
	"Business",
	"Wildlife",
	"Emergency",
	"Creative",
	"Nonprofit",
	"Other",
}

// NormalizeCategory returns the canonical spelling of a category,
// matched case-insensitively. ok is false for unknown categories.
func NormalizeCategory(category string) (string, bool) {
	category = strings.TrimSpace(category)
	for _, c := range Categories {
		if strings.EqualFold(c, category) {
			return c, true
		}
	}
	return "", false
}

// Campaign represents a fundraising campaign.
//
// Campaigns are created and closed by the campaign-management side of the
// platform. The ledger gates donations on Status and is the only writer of
// Raised.
type Campaign struct {
	// ID is the unique identifier for the campaign (UUID format).
	ID string

	// Title is the human-readable campaign name.
	Title string

	// Category is one of Categories, in canonical casing.
	Category string

	// Goal is the fundraising target. Always positive.
	Goal decimal.Decimal

	// Raised is the sum of all committed donations for this campaign.
	Raised decimal.Decimal

	// Deadline is when the campaign is scheduled to end.
	Deadline time.Time

	// Status gates whether donations and match pools are accepted.
	Status CampaignStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the campaign accepts donations.
func (c *Campaign) IsActive() bool {
	return c.Status == CampaignActive
}
