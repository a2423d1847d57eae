package calculator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hivefund/ledger/internal/models"
)

// Timeframe selects the rolling window of a leaderboard query.
type Timeframe string

const (
	Daily   Timeframe = "daily"
	Weekly  Timeframe = "weekly"
	Monthly Timeframe = "monthly"
	AllTime Timeframe = "all-time"
)

// ParseTimeframe parses a timeframe name. An empty string means all-time.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(s))); tf {
	case "":
		return AllTime, nil
	case Daily, Weekly, Monthly, AllTime:
		return tf, nil
	default:
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
}

// Since returns the inclusive start of the window ending at now.
// bounded is false for all-time, which has no start.
//
// daily starts at midnight of now's day in loc, weekly and monthly are the
// last 7 and 30 days.
func (t Timeframe) Since(now time.Time, loc *time.Location) (since time.Time, bounded bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch t {
	case Daily:
		y, m, d := now.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true
	case Weekly:
		return now.Add(-7 * 24 * time.Hour), true
	case Monthly:
		return now.Add(-30 * 24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

type donorGroup struct {
	key      string
	total    decimal.Decimal
	count    int
	firstAt  time.Time
	firstSeq int64
}

// RankDonors groups donations by donor key, sums and counts them, and orders
// the groups by total descending. Equal totals are ordered by the earliest
// first donation (time, then commit sequence), then by key.
//
// DisplayName is left empty; callers resolve names. limit <= 0 returns all
// groups.
func RankDonors(donations []models.Donation, limit int) []models.LeaderboardEntry {
	groups := make(map[string]*donorGroup)

	for i := range donations {
		d := &donations[i]
		key := d.GroupKey()

		g, exists := groups[key]
		if !exists {
			g = &donorGroup{key: key, total: decimal.Zero, firstAt: d.CreatedAt, firstSeq: d.Seq}
			groups[key] = g
		}

		g.total = g.total.Add(d.Amount)
		g.count++
		if d.CreatedAt.Before(g.firstAt) || (d.CreatedAt.Equal(g.firstAt) && d.Seq < g.firstSeq) {
			g.firstAt = d.CreatedAt
			g.firstSeq = d.Seq
		}
	}

	ordered := make([]*donorGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}

	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if c := a.total.Cmp(b.total); c != 0 {
			return c > 0
		}
		if !a.firstAt.Equal(b.firstAt) {
			return a.firstAt.Before(b.firstAt)
		}
		if a.firstSeq != b.firstSeq {
			return a.firstSeq < b.firstSeq
		}
		return a.key < b.key
	})

	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	entries := make([]models.LeaderboardEntry, len(ordered))
	for i, g := range ordered {
		entries[i] = models.LeaderboardEntry{
			Rank:            i + 1,
			DonorKey:        g.key,
			Total:           g.total,
			DonationCount:   g.count,
			FirstDonationAt: g.firstAt,
		}
	}
	return entries
}
