// Package metrics defines the Prometheus collectors of the ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "hivefund_ledger"

// Metrics holds the ledger's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	DonationsTotal     *prometheus.CounterVec
	DonatedAmount      prometheus.Counter
	MatchedAmount      prometheus.Counter
	MatchFailures      prometheus.Counter
	CASRetries         *prometheus.CounterVec
	PoolTransitions    *prometheus.CounterVec
	LeaderboardQueries *prometheus.CounterVec
	CommitDuration     prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DonationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donations_total",
			Help:      "Donation requests by outcome.",
		}, []string{"outcome"}),
		DonatedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donated_amount_total",
			Help:      "Sum of committed donation amounts.",
		}),
		MatchedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matched_amount_total",
			Help:      "Sum of amounts matched from pools.",
		}),
		MatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_failures_total",
			Help:      "Match steps that failed after a donation was committed.",
		}),
		CASRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cas_retries_total",
			Help:      "Compare-and-swap retries by entity.",
		}, []string{"entity"}),
		PoolTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_transitions_total",
			Help:      "Match pool status transitions by target status.",
		}, []string{"status"}),
		LeaderboardQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaderboard_queries_total",
			Help:      "Leaderboard queries by timeframe.",
		}, []string{"timeframe"}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "donation_commit_seconds",
			Help:      "Time spent committing a donation, including lock wait.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.DonationsTotal,
			m.DonatedAmount,
			m.MatchedAmount,
			m.MatchFailures,
			m.CASRetries,
			m.PoolTransitions,
			m.LeaderboardQueries,
			m.CommitDuration,
		)
	}
	return m
}

// ObserveDonation records a donation request outcome ("committed",
// "replayed", "rejected" or "failed").
func (m *Metrics) ObserveDonation(outcome string, amount decimal.Decimal, seconds float64) {
	if m == nil {
		return
	}
	m.DonationsTotal.WithLabelValues(outcome).Inc()
	if outcome == "committed" {
		m.DonatedAmount.Add(amount.InexactFloat64())
		m.CommitDuration.Observe(seconds)
	}
}

// ObserveMatch records a matched amount. Zero amounts are ignored.
func (m *Metrics) ObserveMatch(amount decimal.Decimal) {
	if m == nil || !amount.IsPositive() {
		return
	}
	m.MatchedAmount.Add(amount.InexactFloat64())
}

func (m *Metrics) ObserveMatchFailure() {
	if m == nil {
		return
	}
	m.MatchFailures.Inc()
}

func (m *Metrics) ObserveRetry(entity string) {
	if m == nil {
		return
	}
	m.CASRetries.WithLabelValues(entity).Inc()
}

func (m *Metrics) ObservePoolTransition(status string) {
	if m == nil {
		return
	}
	m.PoolTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveLeaderboard(timeframe string) {
	if m == nil {
		return
	}
	m.LeaderboardQueries.WithLabelValues(timeframe).Inc()
}
