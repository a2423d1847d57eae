// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hivefund/ledger/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a compare-and-swap predicate no longer
	// holds or a uniqueness constraint rejects a write.
	ErrConflict = errors.New("concurrent modification")

	// ErrCampaignNotActive is returned by CommitDonation when the campaign is
	// not active at commit time.
	ErrCampaignNotActive = errors.New("campaign not active")

	// ErrDuplicateIdempotencyKey is returned by CommitDonation when another
	// donation of the same donor already holds the idempotency key.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// DonationFilter scopes a donation scan for leaderboard aggregation.
type DonationFilter struct {
	// Since is the inclusive lower bound on CreatedAt. Zero means unbounded.
	Since time.Time

	// Until is the inclusive upper bound on CreatedAt. Zero means unbounded.
	Until time.Time

	// Category restricts donations to campaigns of this category. Empty
	// means all categories.
	Category string
}

// CampaignFilter scopes a campaign listing.
type CampaignFilter struct {
	// Status is required.
	Status models.CampaignStatus

	// Category restricts the listing to one category. Empty means all.
	Category string
}

// PoolUpdate is a compare-and-swap on a match pool: it applies only while
// the pool is still active with ExpectedRemaining.
type PoolUpdate struct {
	PoolID            string
	ExpectedRemaining decimal.Decimal
	NewRemaining      decimal.Decimal
	NewStatus         models.PoolStatus
	UpdatedAt         time.Time

	// Contribution is recorded in the same transaction when non-nil.
	Contribution *models.MatchContribution
}

// Store defines the ledger storage contract.
// Implementations must make every method that writes atomic: either all of
// its effects are visible or none are.
type Store interface {
	// CreateCampaign persists a new campaign. ID, CreatedAt and UpdatedAt are
	// populated when empty; Raised starts at zero.
	CreateCampaign(ctx context.Context, campaign *models.Campaign) error

	// GetCampaign retrieves a campaign by ID. Returns ErrNotFound if missing.
	GetCampaign(ctx context.Context, campaignID string) (*models.Campaign, error)

	// ListCampaigns returns campaigns matching the filter, newest first.
	ListCampaigns(ctx context.Context, filter CampaignFilter, limit int) ([]*models.Campaign, error)

	// GetCampaignsByIDs returns the known campaigns among ids, keyed by ID.
	GetCampaignsByIDs(ctx context.Context, ids []string) (map[string]*models.Campaign, error)

	// UpdateCampaignStatus changes a campaign's status. Raised is untouched.
	UpdateCampaignStatus(ctx context.Context, campaignID string, status models.CampaignStatus, at time.Time) (*models.Campaign, error)

	// CommitDonation inserts the donation and adds its amount to the
	// campaign's raised total in one transaction. It fails with
	// ErrCampaignNotActive if the campaign is missing or not active, and
	// with ErrDuplicateIdempotencyKey if the key is already used. The
	// donation's ID and Seq are populated on success, and the updated
	// campaign is returned.
	CommitDonation(ctx context.Context, donation *models.Donation) (*models.Campaign, error)

	// GetDonationByIdempotencyKey returns the donation donorID committed
	// under key. Keys are scoped per donor; an empty donorID is the guest
	// scope. Returns ErrNotFound if none.
	GetDonationByIdempotencyKey(ctx context.Context, donorID, key string) (*models.Donation, error)

	// ListDonationsByCampaign returns a campaign's donations, newest first.
	ListDonationsByCampaign(ctx context.Context, campaignID string, limit int) ([]models.Donation, error)

	// ListDonationsByDonor returns a donor's donations, newest first.
	ListDonationsByDonor(ctx context.Context, donorID string, limit int) ([]models.Donation, error)

	// ScanDonations returns every donation matching the filter in commit order.
	ScanDonations(ctx context.Context, filter DonationFilter) ([]models.Donation, error)

	// SumDonations returns the sum of all donations for a campaign.
	SumDonations(ctx context.Context, campaignID string) (decimal.Decimal, error)

	// CreateMatchPool persists a new active pool. It fails with ErrConflict
	// when the campaign already has an active pool.
	CreateMatchPool(ctx context.Context, pool *models.MatchPool) error

	// GetMatchPool retrieves a pool by ID. Returns ErrNotFound if missing.
	GetMatchPool(ctx context.Context, poolID string) (*models.MatchPool, error)

	// GetActiveMatchPool returns the campaign's active pool, or ErrNotFound.
	GetActiveMatchPool(ctx context.Context, campaignID string) (*models.MatchPool, error)

	// GetLatestMatchPool returns the campaign's most recently created pool in
	// any status, or ErrNotFound.
	GetLatestMatchPool(ctx context.Context, campaignID string) (*models.MatchPool, error)

	// UpdateMatchPool applies a PoolUpdate. Returns ErrConflict when the pool
	// is no longer active or its remaining amount changed.
	UpdateMatchPool(ctx context.Context, update PoolUpdate) error

	// ListDueMatchPools returns active pools whose deadline is before now.
	ListDueMatchPools(ctx context.Context, now time.Time) ([]*models.MatchPool, error)

	// ListMatchContributions returns a pool's contributions in commit order.
	ListMatchContributions(ctx context.Context, poolID string) ([]models.MatchContribution, error)

	// MatchedForDonation returns the total matched against a donation.
	MatchedForDonation(ctx context.Context, donationID string) (decimal.Decimal, error)

	// UpsertDonor creates or refreshes a donor profile.
	UpsertDonor(ctx context.Context, donor *models.Donor) error

	// GetDonorsByIDs returns the known donors among ids, keyed by ID.
	GetDonorsByIDs(ctx context.Context, ids []string) (map[string]*models.Donor, error)

	// Ping checks that the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
