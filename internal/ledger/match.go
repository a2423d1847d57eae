package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hivefund/ledger/internal/calculator"
	"github.com/hivefund/ledger/internal/events"
	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/internal/storage"
)

// PoolRequest describes a sponsor's HoneyMatch pledge.
type PoolRequest struct {
	CampaignID string
	SponsorID  string
	Pledge     decimal.Decimal
	Deadline   time.Time
}

var _ Matcher = (*MatchEngine)(nil)

// MatchEngine manages match pools and deducts matched amounts from them.
//
// Deductions against one pool are linearized: they run under the pool's
// keyed lock and each one is a compare-and-swap on the remaining balance.
// Pools of different campaigns never contend.
type MatchEngine struct {
	store storage.Store
	locks *keyedLocker
	opts  options
}

// NewMatchEngine creates a MatchEngine backed by store.
func NewMatchEngine(store storage.Store, opts ...Option) *MatchEngine {
	return &MatchEngine{
		store: store,
		locks: newKeyedLocker(),
		opts:  buildOptions(opts),
	}
}

// CreateMatchPool opens a pool for an active campaign. A campaign has at most
// one active pool; a previous pool whose deadline has passed is expired
// first.
func (e *MatchEngine) CreateMatchPool(ctx context.Context, req PoolRequest) (*models.MatchPool, error) {
	now := e.opts.now()

	if !req.Pledge.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidPledge, req.Pledge)
	}
	if !req.Deadline.After(now) {
		return nil, fmt.Errorf("%w: %s", ErrDeadlineInPast, req.Deadline.Format(time.RFC3339))
	}

	unlock, err := e.locks.lock(ctx, campaignKey(req.CampaignID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	campaign, err := e.store.GetCampaign(ctx, req.CampaignID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: campaign %s does not exist", ErrCampaignNotActive, req.CampaignID)
	}
	if err != nil {
		return nil, storageError("get campaign", err)
	}
	if !campaign.IsActive() {
		return nil, fmt.Errorf("%w: campaign %s is %s", ErrCampaignNotActive, campaign.ID, campaign.Status)
	}

	existing, err := e.store.GetActiveMatchPool(ctx, req.CampaignID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, storageError("get active pool", err)
	default:
		status, err := e.expire(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		if status == models.PoolActive {
			return nil, fmt.Errorf("%w: pool %s", ErrPoolAlreadyActive, existing.ID)
		}
	}

	pool := &models.MatchPool{
		CampaignID: req.CampaignID,
		SponsorID:  req.SponsorID,
		Total:      req.Pledge,
		Deadline:   req.Deadline.UTC(),
		CreatedAt:  now.UTC(),
	}
	if err := e.store.CreateMatchPool(ctx, pool); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("%w: campaign %s", ErrPoolAlreadyActive, req.CampaignID)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: campaign %s does not exist", ErrCampaignNotActive, req.CampaignID)
		}
		return nil, storageError("create pool", err)
	}

	slog.Info("Match pool created",
		"pool_id", pool.ID,
		"campaign_id", pool.CampaignID,
		"total", pool.Total.String(),
		"deadline", pool.Deadline,
	)
	return pool, nil
}

// ApplyMatch matches amount against the campaign's active pool and returns
// the matched amount. It returns zero without error when the campaign has
// no active pool or the pool is exhausted or past its deadline.
func (e *MatchEngine) ApplyMatch(ctx context.Context, campaignID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	return e.apply(ctx, campaignID, "", amount)
}

// MatchDonation applies a committed donation to its campaign's pool and
// records the contribution against the donation.
func (e *MatchEngine) MatchDonation(ctx context.Context, donation *models.Donation) (decimal.Decimal, error) {
	return e.apply(ctx, donation.CampaignID, donation.ID, donation.Amount)
}

func (e *MatchEngine) apply(ctx context.Context, campaignID, donationID string, amount decimal.Decimal) (decimal.Decimal, error) {
	pool, err := e.store.GetActiveMatchPool(ctx, campaignID)
	if errors.Is(err, storage.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, storageError("get active pool", err)
	}

	unlock, err := e.locks.lock(ctx, poolKey(pool.ID))
	if err != nil {
		return decimal.Zero, err
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		// Re-read under the lock: the balance seen before may be stale.
		pool, err = e.store.GetMatchPool(ctx, pool.ID)
		if err != nil {
			return decimal.Zero, storageError("get pool", err)
		}

		now := e.opts.now().UTC()
		out := calculator.ComputeMatch(pool, amount, now)
		if !out.Changed(pool) {
			return decimal.Zero, nil
		}

		update := storage.PoolUpdate{
			PoolID:            pool.ID,
			ExpectedRemaining: pool.Remaining,
			NewRemaining:      out.Remaining,
			NewStatus:         out.Status,
			UpdatedAt:         now,
		}
		if out.Matched.IsPositive() {
			update.Contribution = &models.MatchContribution{
				CampaignID: campaignID,
				DonationID: donationID,
				Amount:     out.Matched,
				CreatedAt:  now,
			}
		}

		err = e.store.UpdateMatchPool(ctx, update)
		if err == nil {
			e.afterUpdate(ctx, pool, out, donationID, now)
			return out.Matched, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return decimal.Zero, storageError("update pool", err)
		}
		if attempt >= e.opts.casRetries {
			return decimal.Zero, storageError("update pool", fmt.Errorf("pool %s kept changing after %d attempts", pool.ID, attempt+1))
		}
		e.opts.metrics.ObserveRetry("pool")
		slog.Debug("Match pool changed concurrently, retrying", "pool_id", pool.ID, "attempt", attempt+1)
	}
}

// afterUpdate emits metrics and events for a committed pool update.
func (e *MatchEngine) afterUpdate(ctx context.Context, before *models.MatchPool, out calculator.MatchOutcome, donationID string, now time.Time) {
	if out.Matched.IsPositive() {
		e.opts.metrics.ObserveMatch(out.Matched)
		e.publish(ctx, events.Event{
			Type:       events.MatchApplied,
			CampaignID: before.CampaignID,
			DonationID: donationID,
			PoolID:     before.ID,
			Amount:     events.Amount(out.Matched),
			Remaining:  events.Amount(out.Remaining),
			At:         now,
		})
	}
	if out.Status == before.Status {
		return
	}

	slog.Info("Match pool closed",
		"pool_id", before.ID,
		"campaign_id", before.CampaignID,
		"status", out.Status,
		"remaining", out.Remaining.String(),
	)
	e.opts.metrics.ObservePoolTransition(string(out.Status))

	eventType := events.PoolCompleted
	if out.Status == models.PoolExpired {
		eventType = events.PoolExpired
	}
	e.publish(ctx, events.Event{
		Type:       eventType,
		CampaignID: before.CampaignID,
		PoolID:     before.ID,
		Remaining:  events.Amount(out.Remaining),
		At:         now,
	})
}

// expire marks the pool expired if it is still active and past its
// deadline, and returns the pool's status afterwards.
func (e *MatchEngine) expire(ctx context.Context, poolID string) (models.PoolStatus, error) {
	unlock, err := e.locks.lock(ctx, poolKey(poolID))
	if err != nil {
		return "", err
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		pool, err := e.store.GetMatchPool(ctx, poolID)
		if err != nil {
			return "", storageError("get pool", err)
		}

		now := e.opts.now().UTC()
		if pool.Status.Terminal() || !now.After(pool.Deadline) {
			return pool.Status, nil
		}

		err = e.store.UpdateMatchPool(ctx, storage.PoolUpdate{
			PoolID:            pool.ID,
			ExpectedRemaining: pool.Remaining,
			NewRemaining:      pool.Remaining,
			NewStatus:         models.PoolExpired,
			UpdatedAt:         now,
		})
		if err == nil {
			out := calculator.MatchOutcome{Matched: decimal.Zero, Remaining: pool.Remaining, Status: models.PoolExpired}
			e.afterUpdate(ctx, pool, out, "", now)
			return models.PoolExpired, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return "", storageError("expire pool", err)
		}
		if attempt >= e.opts.casRetries {
			return "", storageError("expire pool", fmt.Errorf("pool %s kept changing after %d attempts", pool.ID, attempt+1))
		}
		e.opts.metrics.ObserveRetry("pool")
	}
}

// GetActivePool returns the campaign's active pool. A pool past its deadline
// is expired on read and ErrNotFound is returned.
func (e *MatchEngine) GetActivePool(ctx context.Context, campaignID string) (*models.MatchPool, error) {
	pool, err := e.store.GetActiveMatchPool(ctx, campaignID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: no active pool for campaign %s", ErrNotFound, campaignID)
	}
	if err != nil {
		return nil, storageError("get active pool", err)
	}

	if e.opts.now().After(pool.Deadline) {
		if _, err := e.expire(ctx, pool.ID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: no active pool for campaign %s", ErrNotFound, campaignID)
	}
	return pool, nil
}

// GetPool returns the campaign's most recent pool in any status, expiring it
// first if its deadline has passed.
func (e *MatchEngine) GetPool(ctx context.Context, campaignID string) (*models.MatchPool, error) {
	pool, err := e.store.GetLatestMatchPool(ctx, campaignID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: no pool for campaign %s", ErrNotFound, campaignID)
	}
	if err != nil {
		return nil, storageError("get pool", err)
	}

	if pool.Status == models.PoolActive && e.opts.now().After(pool.Deadline) {
		if _, err := e.expire(ctx, pool.ID); err != nil {
			return nil, err
		}
		if pool, err = e.store.GetMatchPool(ctx, pool.ID); err != nil {
			return nil, storageError("get pool", err)
		}
	}
	return pool, nil
}

// ExpireDue expires every active pool whose deadline has passed and returns
// the pools it closed. It keeps going past individual failures.
func (e *MatchEngine) ExpireDue(ctx context.Context) ([]*models.MatchPool, error) {
	due, err := e.store.ListDueMatchPools(ctx, e.opts.now().UTC())
	if err != nil {
		return nil, storageError("list due pools", err)
	}

	var (
		expired []*models.MatchPool
		errs    []error
	)
	for _, pool := range due {
		status, err := e.expire(ctx, pool.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("pool %s: %w", pool.ID, err))
			continue
		}
		if status == models.PoolExpired {
			pool.Status = models.PoolExpired
			expired = append(expired, pool)
		}
	}
	return expired, errors.Join(errs...)
}

func (e *MatchEngine) publish(ctx context.Context, event events.Event) {
	if err := e.opts.publisher.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish event", "type", event.Type, "pool_id", event.PoolID, "error", err)
	}
}
