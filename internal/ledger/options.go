// Package ledger implements the campaign funding ledger: donation recording,
// HoneyMatch pools and the donor leaderboard.
//
// Campaign raised totals and pool balances are the only shared mutable
// state. Each is guarded per entity: a keyed lock in this process and a
// compare-and-swap predicate in the store, so several processes can share one
// database.
package ledger

import (
	"time"

	"github.com/hivefund/ledger/internal/events"
	"github.com/hivefund/ledger/internal/metrics"
)

const (
	DefaultMatchTimeout     = 2 * time.Second
	DefaultCASRetries       = 5
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 50
	DefaultListLimit        = 50
	MaxListLimit            = 200
)

// Option configures a Recorder, MatchEngine or Leaderboard.
type Option func(*options)

type options struct {
	metrics          *metrics.Metrics
	publisher        events.Publisher
	now              func() time.Time
	casRetries       int
	matchTimeout     time.Duration
	dayLocation      *time.Location
	leaderboardLimit int
}

func buildOptions(opts []Option) options {
	o := options{
		publisher:        events.NopPublisher{},
		now:              time.Now,
		casRetries:       DefaultCASRetries,
		matchTimeout:     DefaultMatchTimeout,
		dayLocation:      time.UTC,
		leaderboardLimit: DefaultLeaderboardLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMetrics records ledger activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithPublisher publishes domain events on p.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithCASRetries bounds how often a lost compare-and-swap is retried.
func WithCASRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.casRetries = n
		}
	}
}

// WithMatchTimeout bounds the match step that follows a donation commit.
func WithMatchTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.matchTimeout = d
		}
	}
}

// WithDayLocation sets the time zone in which the daily leaderboard starts.
func WithDayLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.dayLocation = loc
		}
	}
}

// WithLeaderboardLimit sets the number of entries returned when a query
// asks for no particular limit.
func WithLeaderboardLimit(n int) Option {
	return func(o *options) {
		if n > 0 && n <= MaxLeaderboardLimit {
			o.leaderboardLimit = n
		}
	}
}

// listLimit clamps a history page size.
func listLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
