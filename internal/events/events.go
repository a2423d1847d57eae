// Package events publishes ledger domain events.
//
// Events are notifications only. They are published after the state change
// they describe has been committed, and a failed publish never undoes it.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Event types.
const (
	DonationRecorded = "donation.recorded"
	MatchApplied     = "match.applied"
	PoolCompleted    = "pool.completed"
	PoolExpired      = "pool.expired"
)

// Event is the payload published for every ledger state change.
type Event struct {
	Type       string           `json:"type"`
	CampaignID string           `json:"campaign_id"`
	DonationID string           `json:"donation_id,omitempty"`
	PoolID     string           `json:"pool_id,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Remaining  *decimal.Decimal `json:"remaining,omitempty"`
	At         time.Time        `json:"at"`
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// Amount returns a pointer to a copy of d, for the optional Event fields.
func Amount(d decimal.Decimal) *decimal.Decimal {
	return &d
}
