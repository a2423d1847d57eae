package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/hivefund/ledger/internal/events"
	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/internal/storage"
)

// Matcher applies a committed donation to its campaign's match pool.
type Matcher interface {
	MatchDonation(ctx context.Context, donation *models.Donation) (decimal.Decimal, error)
}

// DonationRequest is a donation of an already authorized amount.
type DonationRequest struct {
	CampaignID string
	Amount     decimal.Decimal

	// DonorID is empty for donations without an authenticated donor.
	DonorID string

	// DonorName refreshes the donor's leaderboard name when set.
	DonorName string

	Anonymous      bool
	Message        string
	IdempotencyKey string
}

// Receipt is the result of a recorded donation.
type Receipt struct {
	Donation *models.Donation

	// Raised is the campaign total right after the commit. Zero on replay.
	Raised decimal.Decimal

	// MatchedAmount is what the campaign's pool added for this donation.
	MatchedAmount decimal.Decimal

	// Warning is set when the donation was committed but matching failed.
	Warning string

	// Replayed is true when the idempotency key matched an earlier donation
	// and nothing new was committed.
	Replayed bool
}

// DonationView is a donation as shown to other users: anonymous donations
// carry no donor id.
type DonationView struct {
	models.Donation
	DisplayName string
}

// DonorDonation is a donation in its donor's own history.
type DonorDonation struct {
	models.Donation
	CampaignTitle string
}

// Recorder commits donations and keeps campaign totals consistent with
// them.
type Recorder struct {
	store   storage.Store
	matcher Matcher
	locks   *keyedLocker
	opts    options
}

// NewRecorder creates a Recorder. matcher may be nil, in which case no
// donation is matched.
func NewRecorder(store storage.Store, matcher Matcher, opts ...Option) *Recorder {
	return &Recorder{
		store:   store,
		matcher: matcher,
		locks:   newKeyedLocker(),
		opts:    buildOptions(opts),
	}
}

// RecordDonation validates and commits a donation, then matches it against
// the campaign's active pool.
//
// The donation insert and the raised increment commit together or not at
// all. Matching runs afterwards under its own timeout; if it fails the
// donation stays committed and the receipt carries a warning.
func (r *Recorder) RecordDonation(ctx context.Context, req DonationRequest) (Receipt, error) {
	start := time.Now()

	if err := validateDonation(req); err != nil {
		r.opts.metrics.ObserveDonation("rejected", req.Amount, 0)
		return Receipt{}, err
	}

	if req.IdempotencyKey != "" {
		receipt, found, err := r.replay(ctx, req)
		if err != nil || found {
			return receipt, err
		}
	}

	r.refreshDonor(ctx, req)

	donation := &models.Donation{
		CampaignID:     req.CampaignID,
		DonorID:        req.DonorID,
		Anonymous:      req.Anonymous,
		Amount:         req.Amount,
		Message:        req.Message,
		IdempotencyKey: req.IdempotencyKey,
	}

	campaign, err := r.commit(ctx, donation)
	if errors.Is(err, storage.ErrDuplicateIdempotencyKey) {
		// Lost a race with a concurrent retry of the same request.
		receipt, found, rerr := r.replay(ctx, req)
		if rerr != nil || found {
			return receipt, rerr
		}
		err = storageError("commit donation", err)
	}
	if err != nil {
		outcome := "failed"
		if errors.Is(err, ErrCampaignNotActive) {
			outcome = "rejected"
		}
		r.opts.metrics.ObserveDonation(outcome, req.Amount, 0)
		return Receipt{}, err
	}

	r.opts.metrics.ObserveDonation("committed", donation.Amount, time.Since(start).Seconds())
	slog.Info("Donation recorded",
		"donation_id", donation.ID,
		"campaign_id", donation.CampaignID,
		"amount", donation.Amount.String(),
		"raised", campaign.Raised.String(),
	)
	r.publish(ctx, events.Event{
		Type:       events.DonationRecorded,
		CampaignID: donation.CampaignID,
		DonationID: donation.ID,
		Amount:     events.Amount(donation.Amount),
		At:         donation.CreatedAt,
	})

	receipt := Receipt{Donation: donation, Raised: campaign.Raised, MatchedAmount: decimal.Zero}
	receipt.MatchedAmount, receipt.Warning = r.match(ctx, donation)
	return receipt, nil
}

func validateDonation(req DonationRequest) error {
	if !req.Amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, req.Amount)
	}
	if n := utf8.RuneCountInString(req.Message); n > models.MaxMessageLength {
		return fmt.Errorf("%w: %d characters, at most %d allowed", ErrInvalidMessage, n, models.MaxMessageLength)
	}
	return nil
}

// commit runs the donation transaction under the campaign's lock, retrying
// when the raised compare-and-swap loses to another process.
func (r *Recorder) commit(ctx context.Context, donation *models.Donation) (*models.Campaign, error) {
	unlock, err := r.locks.lock(ctx, campaignKey(donation.CampaignID))
	if err != nil {
		return nil, storageError("wait for campaign", err)
	}
	defer unlock()

	// Stamped under the lock so created_at order follows commit order.
	donation.CreatedAt = r.opts.now().UTC()

	for attempt := 0; ; attempt++ {
		campaign, err := r.store.CommitDonation(ctx, donation)
		switch {
		case err == nil:
			return campaign, nil
		case errors.Is(err, storage.ErrCampaignNotActive):
			return nil, fmt.Errorf("%w: %v", ErrCampaignNotActive, err)
		case errors.Is(err, storage.ErrDuplicateIdempotencyKey):
			return nil, err
		case !errors.Is(err, storage.ErrConflict):
			return nil, storageError("commit donation", err)
		case attempt >= r.opts.casRetries:
			return nil, storageError("commit donation", fmt.Errorf("campaign %s kept changing after %d attempts", donation.CampaignID, attempt+1))
		}
		r.opts.metrics.ObserveRetry("campaign")
		slog.Debug("Campaign changed concurrently, retrying", "campaign_id", donation.CampaignID, "attempt", attempt+1)
	}
}

// match runs the best-effort match step. Failures are logged and returned
// as a warning.
func (r *Recorder) match(ctx context.Context, donation *models.Donation) (decimal.Decimal, string) {
	if r.matcher == nil {
		return decimal.Zero, ""
	}

	mctx, cancel := context.WithTimeout(ctx, r.opts.matchTimeout)
	defer cancel()

	matched, err := r.matcher.MatchDonation(mctx, donation)
	if err != nil {
		r.opts.metrics.ObserveMatchFailure()
		slog.Error("Match step failed; donation kept",
			"donation_id", donation.ID,
			"campaign_id", donation.CampaignID,
			"error", err,
		)
		return decimal.Zero, "donation recorded, but matching could not be applied"
	}
	return matched, ""
}

// replay looks up the donation the same donor committed under the request's
// idempotency key. found is false when the key is unused. A key that was
// used for a different donation is rejected.
func (r *Recorder) replay(ctx context.Context, req DonationRequest) (Receipt, bool, error) {
	existing, err := r.store.GetDonationByIdempotencyKey(ctx, req.DonorID, req.IdempotencyKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Receipt{}, false, nil
	}
	if err != nil {
		return Receipt{}, false, storageError("get donation by idempotency key", err)
	}
	if !samePayload(existing, req) {
		r.opts.metrics.ObserveDonation("rejected", req.Amount, 0)
		return Receipt{}, false, fmt.Errorf("%w: key %q", ErrIdempotencyKeyReused, req.IdempotencyKey)
	}

	matched, err := r.store.MatchedForDonation(ctx, existing.ID)
	if err != nil {
		return Receipt{}, false, storageError("get matched amount", err)
	}

	r.opts.metrics.ObserveDonation("replayed", existing.Amount, 0)
	slog.Info("Donation replayed", "donation_id", existing.ID, "idempotency_key", req.IdempotencyKey)
	return Receipt{Donation: existing, Raised: decimal.Zero, MatchedAmount: matched, Replayed: true}, true, nil
}

func samePayload(d *models.Donation, req DonationRequest) bool {
	return d.DonorID == req.DonorID &&
		d.CampaignID == req.CampaignID &&
		d.Amount.Equal(req.Amount) &&
		d.Anonymous == req.Anonymous &&
		d.Message == req.Message
}

// refreshDonor stores the donor's display name for leaderboard rendering.
// A failure only costs a stale name, so it is logged and ignored.
func (r *Recorder) refreshDonor(ctx context.Context, req DonationRequest) {
	if req.DonorID == "" || req.DonorName == "" {
		return
	}
	donor := &models.Donor{ID: req.DonorID, DisplayName: req.DonorName, UpdatedAt: r.opts.now().UTC()}
	if err := r.store.UpsertDonor(ctx, donor); err != nil {
		slog.Warn("Failed to refresh donor profile", "donor_id", req.DonorID, "error", err)
	}
}

// ListCampaignDonations returns a campaign's donations, newest first, with
// anonymous donors hidden.
func (r *Recorder) ListCampaignDonations(ctx context.Context, campaignID string, limit int) ([]DonationView, error) {
	if _, err := r.store.GetCampaign(ctx, campaignID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: campaign %s", ErrNotFound, campaignID)
		}
		return nil, storageError("get campaign", err)
	}

	donations, err := r.store.ListDonationsByCampaign(ctx, campaignID, listLimit(limit))
	if err != nil {
		return nil, storageError("list donations", err)
	}

	var ids []string
	for _, d := range donations {
		if !d.Anonymous && d.DonorID != "" {
			ids = append(ids, d.DonorID)
		}
	}
	donors, err := r.store.GetDonorsByIDs(ctx, ids)
	if err != nil {
		return nil, storageError("get donors", err)
	}

	views := make([]DonationView, len(donations))
	for i, d := range donations {
		views[i] = DonationView{Donation: d, DisplayName: displayName(d.GroupKey(), donors)}
		if d.GroupKey() == models.AnonymousDonor {
			views[i].DonorID = ""
		}
	}
	return views, nil
}

// ListDonorDonations returns a donor's own donations, newest first,
// including anonymous ones, with the title of each campaign.
func (r *Recorder) ListDonorDonations(ctx context.Context, donorID string, limit int) ([]DonorDonation, error) {
	donations, err := r.store.ListDonationsByDonor(ctx, donorID, listLimit(limit))
	if err != nil {
		return nil, storageError("list donations", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, d := range donations {
		if !seen[d.CampaignID] {
			seen[d.CampaignID] = true
			ids = append(ids, d.CampaignID)
		}
	}
	campaigns, err := r.store.GetCampaignsByIDs(ctx, ids)
	if err != nil {
		return nil, storageError("get campaigns", err)
	}

	out := make([]DonorDonation, len(donations))
	for i, d := range donations {
		out[i] = DonorDonation{Donation: d}
		if c, ok := campaigns[d.CampaignID]; ok {
			out[i].CampaignTitle = c.Title
		}
	}
	return out, nil
}

func (r *Recorder) publish(ctx context.Context, event events.Event) {
	if err := r.opts.publisher.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish event", "type", event.Type, "donation_id", event.DonationID, "error", err)
	}
}

// displayName renders a grouping key for display.
func displayName(key string, donors map[string]*models.Donor) string {
	if key == models.AnonymousDonor {
		return models.AnonymousDonor
	}
	if d, ok := donors[key]; ok {
		return d.Name()
	}
	return key
}
