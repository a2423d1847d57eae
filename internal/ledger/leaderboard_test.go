package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivefund/ledger/internal/models"
)

func (tl *testLedger) donate(t *testing.T, campaignID, donorID, name string, anonymous bool, amount string) {
	t.Helper()
	_, err := tl.recorder.RecordDonation(context.Background(), DonationRequest{
		CampaignID: campaignID,
		DonorID:    donorID,
		DonorName:  name,
		Anonymous:  anonymous,
		Amount:     dec(amount),
	})
	require.NoError(t, err)
}

type wantEntry struct {
	name  string
	total string
	count int
}

func assertEntries(t *testing.T, want []wantEntry, got []models.LeaderboardEntry) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, i+1, got[i].Rank)
		assert.Equal(t, w.name, got[i].DisplayName, "entry %d", i)
		assert.True(t, got[i].Total.Equal(dec(w.total)), "entry %d: total %s, want %s", i, got[i].Total, w.total)
		assert.Equal(t, w.count, got[i].DonationCount, "entry %d", i)
	}
}

func TestGetLeaderboard_WeeklyExample(t *testing.T) {
	tl := newTestLedger(t)
	campaign := createCampaign(t, tl.store, "Environment")

	tl.donate(t, campaign.ID, "bob", "Bob", false, "50")
	tl.clock.Advance(time.Hour)
	tl.donate(t, campaign.ID, "alice", "Alice", true, "30")
	tl.clock.Advance(time.Hour)
	tl.donate(t, campaign.ID, "x", "", true, "20")
	tl.clock.Advance(time.Hour)

	entries, err := tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{Timeframe: "weekly"})
	require.NoError(t, err)

	assertEntries(t, []wantEntry{
		{"Bob", "50", 1},
		{models.AnonymousDonor, "50", 2},
	}, entries)
	assert.Equal(t, models.AnonymousDonor, entries[1].DonorKey, "true donor ids never leak")

	for i := 0; i < 5; i++ {
		again, err := tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{Timeframe: "weekly"})
		require.NoError(t, err)
		assert.Equal(t, entries, again, "repeated queries must return the same order")
	}
}

func TestGetLeaderboard_TieBreakByFirstDonation(t *testing.T) {
	tl := newTestLedger(t)
	campaign := createCampaign(t, tl.store, "Arts")

	tl.donate(t, campaign.ID, "carol", "Carol", false, "10")
	tl.donate(t, campaign.ID, "dave", "Dave", false, "25")
	tl.donate(t, campaign.ID, "carol", "Carol", false, "15")

	entries, err := tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{})
	require.NoError(t, err)

	// Same clock reading for all three: commit order decides.
	assertEntries(t, []wantEntry{
		{"Carol", "25", 2},
		{"Dave", "25", 1},
	}, entries)
}

func TestGetLeaderboard_Timeframes(t *testing.T) {
	tl := newTestLedger(t)
	campaign := createCampaign(t, tl.store, "Education")

	// The clock starts at 2026-06-15 12:00 UTC.
	start := tl.clock.Now()
	at := func(offset time.Duration, donor, amount string) {
		tl.clock.Set(start.Add(offset))
		tl.donate(t, campaign.ID, donor, "", false, amount)
	}
	at(-40*24*time.Hour, "old", "1000")
	at(-20*24*time.Hour, "month", "300")
	at(-3*24*time.Hour, "week", "200")
	at(-13*time.Hour, "yesterday", "150")
	at(-11*time.Hour, "today", "100")
	tl.clock.Set(start)

	tests := []struct {
		timeframe string
		want      []string
	}{
		{"daily", []string{"today"}},
		{"weekly", []string{"week", "yesterday", "today"}},
		{"monthly", []string{"month", "week", "yesterday", "today"}},
		{"all-time", []string{"old", "month", "week", "yesterday", "today"}},
		{"", []string{"old", "month", "week", "yesterday", "today"}},
		{"WEEKLY", []string{"week", "yesterday", "today"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("timeframe %q", tt.timeframe), func(t *testing.T) {
			entries, err := tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{Timeframe: tt.timeframe})
			require.NoError(t, err)

			var got []string
			for _, e := range entries {
				got = append(got, e.DonorKey)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetLeaderboard_DayLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	tl := newTestLedger(t, WithDayLocation(loc))
	campaign := createCampaign(t, tl.store, "Education")

	// 12:00 UTC is 07:00 at UTC-5, so the local day began at 05:00 UTC.
	start := tl.clock.Now()
	tl.clock.Set(start.Add(-8 * time.Hour))
	tl.donate(t, campaign.ID, "before", "", false, "5")
	tl.clock.Set(start.Add(-6 * time.Hour))
	tl.donate(t, campaign.ID, "after", "", false, "5")
	tl.clock.Set(start)

	entries, err := tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{Timeframe: "daily"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "after", entries[0].DonorKey)
}

func TestGetLeaderboard_Category(t *testing.T) {
	tl := newTestLedger(t)
	health := createCampaign(t, tl.store, "Health")
	arts := createCampaign(t, tl.store, "Arts")

	tl.donate(t, health.ID, "erin", "Erin", false, "40")
	tl.donate(t, arts.ID, "frank", "Frank", false, "90")
	tl.donate(t, arts.ID, "erin", "Erin", false, "5")

	entries, err := tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{Category: "health"})
	require.NoError(t, err)
	assertEntries(t, []wantEntry{{"Erin", "40", 1}}, entries)

	entries, err = tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{Category: "Arts"})
	require.NoError(t, err)
	assertEntries(t, []wantEntry{{"Frank", "90", 1}, {"Erin", "5", 1}}, entries)

	entries, err = tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{Category: "Technology"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetLeaderboard_Limit(t *testing.T) {
	tl := newTestLedger(t)
	campaign := createCampaign(t, tl.store, "Other")

	for i := 1; i <= 12; i++ {
		tl.donate(t, campaign.ID, fmt.Sprintf("donor-%02d", i), "", false, fmt.Sprintf("%d", i))
	}

	entries, err := tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{})
	require.NoError(t, err)
	assert.Len(t, entries, DefaultLeaderboardLimit)
	assert.Equal(t, "donor-12", entries[0].DonorKey)

	entries, err = tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{Limit: 3})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "donor-10", entries[2].DonorKey)

	entries, err = tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, entries, 12)
}

func TestGetLeaderboard_InvalidFilter(t *testing.T) {
	tl := newTestLedger(t)

	tests := []struct {
		name  string
		query LeaderboardQuery
	}{
		{"unknown timeframe", LeaderboardQuery{Timeframe: "yearly"}},
		{"unknown category", LeaderboardQuery{Category: "Gardening"}},
		{"negative limit", LeaderboardQuery{Limit: -1}},
		{"limit too large", LeaderboardQuery{Limit: 51}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tl.leaderboard.GetLeaderboard(context.Background(), tt.query)
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
}

func TestGetLeaderboard_DisplayNames(t *testing.T) {
	tl := newTestLedger(t)
	campaign := createCampaign(t, tl.store, "Community")

	tl.donate(t, campaign.ID, "u-1", "Grace", false, "10")
	tl.donate(t, campaign.ID, "u-2", "", false, "5")

	entries, err := tl.leaderboard.GetLeaderboard(context.Background(), LeaderboardQuery{})
	require.NoError(t, err)
	assertEntries(t, []wantEntry{{"Grace", "10", 1}, {"u-2", "5", 1}}, entries)
}
