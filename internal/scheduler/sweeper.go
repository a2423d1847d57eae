// Package scheduler runs the ledger's periodic jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/hivefund/ledger/internal/models"
)

const expiryJobName = "match_pool_expiry"

// Expirer closes match pools whose deadline has passed.
type Expirer interface {
	ExpireDue(ctx context.Context) ([]*models.MatchPool, error)
}

// Sweeper periodically expires match pools past their deadline, so pools
// that receive no more donations still reach their terminal state.
type Sweeper struct {
	scheduler gocron.Scheduler
	expirer   Expirer
	interval  time.Duration
}

// NewSweeper creates a sweeper that runs every interval.
func NewSweeper(expirer Expirer, interval time.Duration) (*Sweeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Sweeper{scheduler: s, expirer: expirer, interval: interval}, nil
}

// RunOnce runs a single sweep and returns how many pools it expired.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	expired, err := s.expirer.ExpireDue(ctx)
	for _, pool := range expired {
		slog.Info("Match pool expired by sweeper", "pool_id", pool.ID, "campaign_id", pool.CampaignID)
	}
	if err != nil {
		return len(expired), fmt.Errorf("expiry sweep: %w", err)
	}
	return len(expired), nil
}

// Run schedules the sweep, starting immediately, and blocks until ctx is
// done. It then waits for a running sweep to finish.
func (s *Sweeper) Run(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.sweep, ctx),
		gocron.WithName(expiryJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to register %s job: %w", expiryJobName, err)
	}

	s.scheduler.Start()
	slog.Info("Sweeper started", "job", expiryJobName, "interval", s.interval)

	<-ctx.Done()

	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	slog.Info("Sweeper stopped")
	return nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	n, err := s.RunOnce(ctx)
	if err != nil {
		slog.Error("Expiry sweep failed", "expired", n, "error", err)
		return
	}
	slog.Debug("Expiry sweep done", "expired", n)
}
