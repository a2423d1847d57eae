package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hivefund/ledger/internal/events"
	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/internal/storage/sqlite"
)

// fakeClock is a settable clock shared by the components under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func createCampaign(t *testing.T, store *sqlite.SQLiteStore, category string) *models.Campaign {
	t.Helper()

	campaign := &models.Campaign{
		Title:    "Pollinator Garden",
		Category: category,
		Goal:     dec("5000"),
		Deadline: time.Now().Add(90 * 24 * time.Hour),
	}
	require.NoError(t, store.CreateCampaign(context.Background(), campaign))
	return campaign
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testLedger wires the three components over one store and clock.
type testLedger struct {
	store       *sqlite.SQLiteStore
	clock       *fakeClock
	publisher   *recordingPublisher
	engine      *MatchEngine
	recorder    *Recorder
	leaderboard *Leaderboard
}

func newTestLedger(t *testing.T, opts ...Option) *testLedger {
	t.Helper()

	tl := &testLedger{
		store:     newTestStore(t),
		clock:     newFakeClock(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)),
		publisher: &recordingPublisher{},
	}
	all := append([]Option{WithClock(tl.clock.Now), WithPublisher(tl.publisher)}, opts...)
	tl.engine = NewMatchEngine(tl.store, all...)
	tl.recorder = NewRecorder(tl.store, tl.engine, all...)
	tl.leaderboard = NewLeaderboard(tl.store, all...)
	return tl
}
