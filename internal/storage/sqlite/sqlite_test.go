package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createCampaign(t *testing.T, store *SQLiteStore, category string) *models.Campaign {
	t.Helper()

	campaign := &models.Campaign{
		Title:    "Save the Bees",
		Category: category,
		Goal:     dec("1000"),
		Deadline: time.Now().Add(30 * 24 * time.Hour),
	}
	require.NoError(t, store.CreateCampaign(context.Background(), campaign))
	return campaign
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateCampaign generates ID and starts at zero", func(t *testing.T) {
		campaign := &models.Campaign{
			Title:    "Hive Restoration",
			Category: "Environment",
			Goal:     dec("500"),
			Raised:   dec("99"), // ignored
			Deadline: time.Now().Add(time.Hour),
		}
		require.NoError(t, store.CreateCampaign(ctx, campaign))

		assert.NotEmpty(t, campaign.ID)
		assert.Equal(t, models.CampaignActive, campaign.Status)
		assert.True(t, campaign.Raised.IsZero())

		got, err := store.GetCampaign(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, campaign.Title, got.Title)
		assert.True(t, got.Goal.Equal(dec("500")))
		assert.True(t, got.Raised.IsZero())
		assert.True(t, got.Deadline.Equal(campaign.Deadline.UTC()))
	})

	t.Run("GetCampaign returns ErrNotFound for nonexistent campaign", func(t *testing.T) {
		_, err := store.GetCampaign(ctx, "nonexistent-id")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("CommitDonation inserts and increments raised", func(t *testing.T) {
		campaign := createCampaign(t, store, "Education")

		donation := &models.Donation{
			CampaignID: campaign.ID,
			DonorID:    "alice",
			Amount:     dec("100.25"),
			Message:    "Go bees!",
		}
		updated, err := store.CommitDonation(ctx, donation)
		require.NoError(t, err)

		assert.NotEmpty(t, donation.ID)
		assert.Positive(t, donation.Seq)
		assert.True(t, updated.Raised.Equal(dec("100.25")), "raised = %s", updated.Raised)

		second := &models.Donation{CampaignID: campaign.ID, Anonymous: true, Amount: dec("0.75")}
		updated, err = store.CommitDonation(ctx, second)
		require.NoError(t, err)
		assert.Greater(t, second.Seq, donation.Seq)
		assert.True(t, updated.Raised.Equal(dec("101")))

		sum, err := store.SumDonations(ctx, campaign.ID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(updated.Raised))

		donations, err := store.ListDonationsByCampaign(ctx, campaign.ID, 0)
		require.NoError(t, err)
		require.Len(t, donations, 2)
		assert.Equal(t, second.ID, donations[0].ID, "newest first")
		assert.Equal(t, "Go bees!", donations[1].Message)
		assert.Equal(t, "alice", donations[1].DonorID)
		assert.True(t, donations[0].Anonymous)
		assert.Empty(t, donations[0].DonorID)
	})

	t.Run("CommitDonation rejects inactive campaign without writing", func(t *testing.T) {
		campaign := createCampaign(t, store, "Arts")
		_, err := store.UpdateCampaignStatus(ctx, campaign.ID, models.CampaignCancelled, time.Now())
		require.NoError(t, err)

		_, err = store.CommitDonation(ctx, &models.Donation{CampaignID: campaign.ID, Amount: dec("5")})
		assert.ErrorIs(t, err, storage.ErrCampaignNotActive)

		donations, err := store.ListDonationsByCampaign(ctx, campaign.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, donations)
	})

	t.Run("CommitDonation rejects missing campaign", func(t *testing.T) {
		_, err := store.CommitDonation(ctx, &models.Donation{CampaignID: "missing", Amount: dec("5")})
		assert.ErrorIs(t, err, storage.ErrCampaignNotActive)
	})

	t.Run("Duplicate idempotency key rolls back fully", func(t *testing.T) {
		campaign := createCampaign(t, store, "Health")

		first := &models.Donation{CampaignID: campaign.ID, Amount: dec("10"), IdempotencyKey: "key-1"}
		_, err := store.CommitDonation(ctx, first)
		require.NoError(t, err)

		_, err = store.CommitDonation(ctx, &models.Donation{CampaignID: campaign.ID, Amount: dec("10"), IdempotencyKey: "key-1"})
		assert.ErrorIs(t, err, storage.ErrDuplicateIdempotencyKey)

		got, err := store.GetCampaign(ctx, campaign.ID)
		require.NoError(t, err)
		assert.True(t, got.Raised.Equal(dec("10")), "raised = %s", got.Raised)

		existing, err := store.GetDonationByIdempotencyKey(ctx, "", "key-1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, existing.ID)

		_, err = store.GetDonationByIdempotencyKey(ctx, "", "unknown")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Idempotency keys are scoped per donor", func(t *testing.T) {
		campaign := createCampaign(t, store, "Health")

		alice := &models.Donation{CampaignID: campaign.ID, DonorID: "alice", Amount: dec("30"), IdempotencyKey: "k1"}
		_, err := store.CommitDonation(ctx, alice)
		require.NoError(t, err)

		bob := &models.Donation{CampaignID: campaign.ID, DonorID: "bob", Amount: dec("75"), IdempotencyKey: "k1"}
		_, err = store.CommitDonation(ctx, bob)
		require.NoError(t, err, "another donor may reuse the key")

		_, err = store.CommitDonation(ctx, &models.Donation{CampaignID: campaign.ID, DonorID: "alice", Amount: dec("1"), IdempotencyKey: "k1"})
		assert.ErrorIs(t, err, storage.ErrDuplicateIdempotencyKey)

		got, err := store.GetDonationByIdempotencyKey(ctx, "bob", "k1")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)

		_, err = store.GetDonationByIdempotencyKey(ctx, "carol", "k1")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		raised, err := store.GetCampaign(ctx, campaign.ID)
		require.NoError(t, err)
		assert.True(t, raised.Raised.Equal(dec("105")), "raised = %s", raised.Raised)
	})

	t.Run("UpdateCampaignStatus returns ErrNotFound", func(t *testing.T) {
		_, err := store.UpdateCampaignStatus(ctx, "missing", models.CampaignCompleted, time.Now())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Only one active pool per campaign", func(t *testing.T) {
		campaign := createCampaign(t, store, "Wildlife")

		pool := &models.MatchPool{CampaignID: campaign.ID, Total: dec("60"), Deadline: time.Now().Add(time.Hour)}
		require.NoError(t, store.CreateMatchPool(ctx, pool))
		assert.Equal(t, models.PoolActive, pool.Status)
		assert.True(t, pool.Remaining.Equal(dec("60")))

		err := store.CreateMatchPool(ctx, &models.MatchPool{CampaignID: campaign.ID, Total: dec("10"), Deadline: time.Now().Add(time.Hour)})
		assert.ErrorIs(t, err, storage.ErrConflict)

		active, err := store.GetActiveMatchPool(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, pool.ID, active.ID)
	})

	t.Run("CreateMatchPool for missing campaign", func(t *testing.T) {
		err := store.CreateMatchPool(ctx, &models.MatchPool{CampaignID: "missing", Total: dec("10"), Deadline: time.Now().Add(time.Hour)})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateMatchPool is a compare-and-swap", func(t *testing.T) {
		campaign := createCampaign(t, store, "Community")
		pool := &models.MatchPool{CampaignID: campaign.ID, Total: dec("60"), Deadline: time.Now().Add(time.Hour)}
		require.NoError(t, store.CreateMatchPool(ctx, pool))

		now := time.Now()
		err := store.UpdateMatchPool(ctx, storage.PoolUpdate{
			PoolID:            pool.ID,
			ExpectedRemaining: dec("60"),
			NewRemaining:      dec("10"),
			NewStatus:         models.PoolActive,
			UpdatedAt:         now,
			Contribution:      &models.MatchContribution{CampaignID: campaign.ID, DonationID: "d-1", Amount: dec("50")},
		})
		require.NoError(t, err)

		// Stale expectation loses.
		err = store.UpdateMatchPool(ctx, storage.PoolUpdate{
			PoolID:            pool.ID,
			ExpectedRemaining: dec("60"),
			NewRemaining:      dec("0"),
			NewStatus:         models.PoolCompleted,
			UpdatedAt:         now,
		})
		assert.ErrorIs(t, err, storage.ErrConflict)

		err = store.UpdateMatchPool(ctx, storage.PoolUpdate{
			PoolID:            pool.ID,
			ExpectedRemaining: dec("10"),
			NewRemaining:      dec("0"),
			NewStatus:         models.PoolCompleted,
			UpdatedAt:         now,
			Contribution:      &models.MatchContribution{CampaignID: campaign.ID, Amount: dec("10")},
		})
		require.NoError(t, err)

		// Terminal pools refuse further updates.
		err = store.UpdateMatchPool(ctx, storage.PoolUpdate{
			PoolID:            pool.ID,
			ExpectedRemaining: dec("0"),
			NewRemaining:      dec("0"),
			NewStatus:         models.PoolExpired,
			UpdatedAt:         now,
		})
		assert.ErrorIs(t, err, storage.ErrConflict)

		got, err := store.GetMatchPool(ctx, pool.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PoolCompleted, got.Status)
		assert.True(t, got.Remaining.IsZero())

		contributions, err := store.ListMatchContributions(ctx, pool.ID)
		require.NoError(t, err)
		require.Len(t, contributions, 2)
		assert.Equal(t, "d-1", contributions[0].DonationID)
		assert.Empty(t, contributions[1].DonationID)

		matched, err := store.MatchedForDonation(ctx, "d-1")
		require.NoError(t, err)
		assert.True(t, matched.Equal(dec("50")))

		latest, err := store.GetLatestMatchPool(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, pool.ID, latest.ID)

		_, err = store.GetActiveMatchPool(ctx, campaign.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListDueMatchPools returns only active pools past deadline", func(t *testing.T) {
		now := time.Now()
		due := createCampaign(t, store, "Business")
		notDue := createCampaign(t, store, "Business")

		duePool := &models.MatchPool{CampaignID: due.ID, Total: dec("5"), Deadline: now.Add(-time.Minute)}
		require.NoError(t, store.CreateMatchPool(ctx, duePool))
		require.NoError(t, store.CreateMatchPool(ctx, &models.MatchPool{CampaignID: notDue.ID, Total: dec("5"), Deadline: now.Add(time.Hour)}))

		pools, err := store.ListDueMatchPools(ctx, now)
		require.NoError(t, err)

		var ids []string
		for _, p := range pools {
			ids = append(ids, p.ID)
		}
		assert.Contains(t, ids, duePool.ID)
		for _, p := range pools {
			assert.True(t, p.Deadline.Before(now))
		}
	})

	t.Run("Donor profiles upsert", func(t *testing.T) {
		require.NoError(t, store.UpsertDonor(ctx, &models.Donor{ID: "bob", DisplayName: "Bob"}))
		require.NoError(t, store.UpsertDonor(ctx, &models.Donor{ID: "bob", DisplayName: "Bobby"}))
		require.NoError(t, store.UpsertDonor(ctx, &models.Donor{ID: "carol", DisplayName: "Carol"}))

		donors, err := store.GetDonorsByIDs(ctx, []string{"bob", "carol", "nobody"})
		require.NoError(t, err)
		require.Len(t, donors, 2)
		assert.Equal(t, "Bobby", donors["bob"].DisplayName)

		empty, err := store.GetDonorsByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestListCampaigns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	create := func(title, category string, offset time.Duration) *models.Campaign {
		t.Helper()
		c := &models.Campaign{
			Title:     title,
			Category:  category,
			Goal:      dec("100"),
			Deadline:  base.Add(90 * 24 * time.Hour),
			CreatedAt: base.Add(offset),
		}
		require.NoError(t, store.CreateCampaign(ctx, c))
		return c
	}
	oldest := create("Oldest", "Health", 0)
	middle := create("Middle", "Arts", time.Hour)
	newest := create("Newest", "Health", 2*time.Hour)
	closed := create("Closed", "Health", 3*time.Hour)
	_, err := store.UpdateCampaignStatus(ctx, closed.ID, models.CampaignCompleted, base)
	require.NoError(t, err)

	titles := func(campaigns []*models.Campaign) []string {
		var out []string
		for _, c := range campaigns {
			out = append(out, c.Title)
		}
		return out
	}

	active, err := store.ListCampaigns(ctx, storage.CampaignFilter{Status: models.CampaignActive}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Newest", "Middle", "Oldest"}, titles(active))

	health, err := store.ListCampaigns(ctx, storage.CampaignFilter{Status: models.CampaignActive, Category: "Health"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Newest"}, titles(health))

	completed, err := store.ListCampaigns(ctx, storage.CampaignFilter{Status: models.CampaignCompleted}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Closed"}, titles(completed))

	byID, err := store.GetCampaignsByIDs(ctx, []string{oldest.ID, middle.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, "Middle", byID[middle.ID].Title)
	assert.NotContains(t, byID, newest.ID)

	empty, err := store.GetCampaignsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestScanDonations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	education := createCampaign(t, store, "Education")
	arts := createCampaign(t, store, "Arts")

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	commit := func(campaignID string, amount string, at time.Time) {
		t.Helper()
		_, err := store.CommitDonation(ctx, &models.Donation{CampaignID: campaignID, DonorID: "d", Amount: dec(amount), CreatedAt: at})
		require.NoError(t, err)
	}
	commit(education.ID, "1", base.Add(-48*time.Hour))
	commit(education.ID, "2", base.Add(-time.Hour))
	commit(arts.ID, "3", base.Add(-30*time.Minute))
	commit(arts.ID, "4", base.Add(time.Hour))

	tests := []struct {
		name   string
		filter storage.DonationFilter
		want   []string
	}{
		{"unbounded", storage.DonationFilter{}, []string{"1", "2", "3", "4"}},
		{"since", storage.DonationFilter{Since: base.Add(-2 * time.Hour)}, []string{"2", "3", "4"}},
		{"window", storage.DonationFilter{Since: base.Add(-2 * time.Hour), Until: base}, []string{"2", "3"}},
		{"category", storage.DonationFilter{Category: "Arts"}, []string{"3", "4"}},
		{"category and window", storage.DonationFilter{Category: "Education", Since: base.Add(-24 * time.Hour)}, []string{"2"}},
		{"since is inclusive", storage.DonationFilter{Since: base.Add(time.Hour)}, []string{"4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			donations, err := store.ScanDonations(ctx, tt.filter)
			require.NoError(t, err)

			var got []string
			for _, d := range donations {
				got = append(got, d.Amount.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommitDonation_ConcurrentConservation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	campaign := createCampaign(t, store, "Other")

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed = decimal.Zero
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 20; attempt++ {
				_, err := store.CommitDonation(ctx, &models.Donation{CampaignID: campaign.ID, Amount: dec("1.10")})
				if errors.Is(err, storage.ErrConflict) {
					continue
				}
				if err != nil {
					t.Errorf("CommitDonation failed: %v", err)
					return
				}
				mu.Lock()
				committed = committed.Add(dec("1.10"))
				mu.Unlock()
				return
			}
			t.Error("CommitDonation kept conflicting")
		}()
	}
	wg.Wait()

	got, err := store.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	sum, err := store.SumDonations(ctx, campaign.ID)
	require.NoError(t, err)

	assert.True(t, got.Raised.Equal(sum), "raised %s != sum %s", got.Raised, sum)
	assert.True(t, got.Raised.Equal(committed), "raised %s != committed %s", got.Raised, committed)
}

func TestRepeatPlaceholder(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{-1, ""},
		{1, ", ?"},
		{3, ", ?, ?, ?"},
	}

	for _, tt := range tests {
		if got := repeatPlaceholder(tt.n); got != tt.want {
			t.Errorf("repeatPlaceholder(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
