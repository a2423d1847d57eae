package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/internal/storage"
)

// maxTitleLength bounds campaign titles, counted in bytes.
const maxTitleLength = 200

// CampaignRequest describes a new campaign.
type CampaignRequest struct {
	Title    string
	Category string
	Goal     decimal.Decimal
	Deadline time.Time
}

// CampaignQuery selects a campaign listing.
type CampaignQuery struct {
	// Status filters by lifecycle status. Empty means active.
	Status models.CampaignStatus

	// Category restricts the listing to one category. Optional.
	Category string

	// Limit caps the page size. Zero means the default.
	Limit int
}

// Campaigns is the campaign-management surface: it opens and closes
// campaigns. It never touches the raised amount.
type Campaigns struct {
	store storage.Store
	opts  options
}

func NewCampaigns(store storage.Store, opts ...Option) *Campaigns {
	return &Campaigns{store: store, opts: buildOptions(opts)}
}

// CreateCampaign validates and persists an active campaign.
func (c *Campaigns) CreateCampaign(ctx context.Context, req CampaignRequest) (*models.Campaign, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be 1 to %d characters", ErrInvalidCampaign, maxTitleLength)
	}
	category, ok := models.NormalizeCategory(req.Category)
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidCampaign, req.Category)
	}
	if !req.Goal.IsPositive() {
		return nil, fmt.Errorf("%w: goal must be positive, got %s", ErrInvalidCampaign, req.Goal)
	}
	now := c.opts.now().UTC()
	if !req.Deadline.After(now) {
		return nil, fmt.Errorf("%w: %s", ErrDeadlineInPast, req.Deadline.Format(time.RFC3339))
	}

	campaign := &models.Campaign{
		Title:     title,
		Category:  category,
		Goal:      req.Goal,
		Deadline:  req.Deadline.UTC(),
		Status:    models.CampaignActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.store.CreateCampaign(ctx, campaign); err != nil {
		return nil, storageError("create campaign", err)
	}
	return campaign, nil
}

func (c *Campaigns) GetCampaign(ctx context.Context, campaignID string) (*models.Campaign, error) {
	campaign, err := c.store.GetCampaign(ctx, campaignID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: campaign %s", ErrNotFound, campaignID)
	}
	if err != nil {
		return nil, storageError("get campaign", err)
	}
	return campaign, nil
}

// ListCampaigns returns the campaigns matching q, newest first.
func (c *Campaigns) ListCampaigns(ctx context.Context, q CampaignQuery) ([]*models.Campaign, error) {
	filter := storage.CampaignFilter{Status: q.Status}
	if filter.Status == "" {
		filter.Status = models.CampaignActive
	}
	if !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, q.Status)
	}
	if q.Category != "" {
		category, ok := models.NormalizeCategory(q.Category)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidFilter, q.Category)
		}
		filter.Category = category
	}

	campaigns, err := c.store.ListCampaigns(ctx, filter, listLimit(q.Limit))
	if err != nil {
		return nil, storageError("list campaigns", err)
	}
	return campaigns, nil
}

// UpdateCampaignStatus moves a campaign to status. Donations in flight
// that commit before the change are kept.
func (c *Campaigns) UpdateCampaignStatus(ctx context.Context, campaignID string, status models.CampaignStatus) (*models.Campaign, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidCampaign, status)
	}

	campaign, err := c.store.UpdateCampaignStatus(ctx, campaignID, status, c.opts.now().UTC())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: campaign %s", ErrNotFound, campaignID)
	}
	if err != nil {
		return nil, storageError("update campaign status", err)
	}
	return campaign, nil
}
