package ledger

import (
	"context"
	"fmt"

	"github.com/hivefund/ledger/internal/calculator"
	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/internal/storage"
)

// LeaderboardQuery selects a leaderboard.
type LeaderboardQuery struct {
	// Timeframe is daily, weekly, monthly or all-time. Empty means all-time.
	Timeframe string

	// Category restricts donations to campaigns of one category. Optional.
	Category string

	// Limit is the number of entries, 1 to 50. Zero means the default.
	Limit int
}

// Leaderboard ranks donors by how much they gave within a window. It is a
// pure read over the donation log.
type Leaderboard struct {
	store storage.Store
	opts  options
}

func NewLeaderboard(store storage.Store, opts ...Option) *Leaderboard {
	return &Leaderboard{store: store, opts: buildOptions(opts)}
}

// GetLeaderboard returns the ranked donors for the query. Anonymous
// donations of all donors share one entry named "Anonymous".
func (l *Leaderboard) GetLeaderboard(ctx context.Context, q LeaderboardQuery) ([]models.LeaderboardEntry, error) {
	timeframe, err := calculator.ParseTimeframe(q.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	var filter storage.DonationFilter
	if q.Category != "" {
		category, ok := models.NormalizeCategory(q.Category)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidFilter, q.Category)
		}
		filter.Category = category
	}

	limit := q.Limit
	if limit == 0 {
		limit = l.opts.leaderboardLimit
	}
	if limit < 1 || limit > MaxLeaderboardLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidFilter, MaxLeaderboardLimit, q.Limit)
	}

	now := l.opts.now()
	if since, bounded := timeframe.Since(now, l.opts.dayLocation); bounded {
		filter.Since = since
		filter.Until = now
	}

	donations, err := l.store.ScanDonations(ctx, filter)
	if err != nil {
		return nil, storageError("scan donations", err)
	}
	entries := calculator.RankDonors(donations, limit)

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.DonorKey != models.AnonymousDonor {
			ids = append(ids, e.DonorKey)
		}
	}
	donors, err := l.store.GetDonorsByIDs(ctx, ids)
	if err != nil {
		return nil, storageError("get donors", err)
	}
	for i := range entries {
		entries[i].DisplayName = displayName(entries[i].DonorKey, donors)
	}

	l.opts.metrics.ObserveLeaderboard(string(timeframe))
	return entries, nil
}
