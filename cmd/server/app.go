package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hivefund/ledger/internal/config"
	"github.com/hivefund/ledger/internal/events"
	"github.com/hivefund/ledger/internal/ledger"
	"github.com/hivefund/ledger/internal/metrics"
	"github.com/hivefund/ledger/internal/storage/sqlite"
)

// app holds the ledger components built from one configuration.
type app struct {
	cfg       *config.Config
	store     *sqlite.SQLiteStore
	publisher events.Publisher
	registry  *prometheus.Registry

	engine      *ledger.MatchEngine
	recorder    *ledger.Recorder
	leaderboard *ledger.Leaderboard
	campaigns   *ledger.Campaigns
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := sqlite.New(cfg.Database.Path, sqlite.WithBusyTimeout(cfg.Database.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	publisher, err := newPublisher(cfg.NATS)
	if err != nil {
		store.Close()
		return nil, err
	}

	loc, err := cfg.Ledger.Location()
	if err != nil {
		store.Close()
		publisher.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []ledger.Option{
		ledger.WithMetrics(metrics.New(registry)),
		ledger.WithPublisher(publisher),
		ledger.WithCASRetries(cfg.Ledger.CASRetries),
		ledger.WithMatchTimeout(cfg.Ledger.MatchTimeout),
		ledger.WithDayLocation(loc),
		ledger.WithLeaderboardLimit(cfg.Ledger.LeaderboardLimit),
	}
	engine := ledger.NewMatchEngine(store, opts...)

	return &app{
		cfg:         cfg,
		store:       store,
		publisher:   publisher,
		registry:    registry,
		engine:      engine,
		recorder:    ledger.NewRecorder(store, engine, opts...),
		leaderboard: ledger.NewLeaderboard(store, opts...),
		campaigns:   ledger.NewCampaigns(store, opts...),
	}, nil
}

// newPublisher connects to NATS when a URL is configured. Without one,
// events are dropped.
func newPublisher(cfg config.NATSConfig) (events.Publisher, error) {
	if cfg.URL == "" {
		slog.Info("Event publishing disabled")
		return events.NopPublisher{}, nil
	}

	publisher, err := events.NewNATSPublisher(events.NATSConfig{
		URL:           cfg.URL,
		SubjectPrefix: cfg.SubjectPrefix,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Publishing events to NATS", "url", cfg.URL, "subject_prefix", cfg.SubjectPrefix)
	return publisher, nil
}

func (a *app) Close() error {
	return errors.Join(a.publisher.Close(), a.store.Close())
}
