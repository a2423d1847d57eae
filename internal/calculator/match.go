package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hivefund/ledger/internal/models"
)

// MatchOutcome is the effect of matching one donation against a pool.
type MatchOutcome struct {
	// Matched is the amount the pool contributes. Zero when nothing matches.
	Matched decimal.Decimal

	// Remaining is the pool balance after the match.
	Remaining decimal.Decimal

	// Status is the pool status after the match.
	Status models.PoolStatus
}

// Changed reports whether the outcome differs from the pool's stored state.
func (o MatchOutcome) Changed(pool *models.MatchPool) bool {
	return o.Status != pool.Status || !o.Remaining.Equal(pool.Remaining)
}

// ComputeMatch decides how much of a donation the pool matches at time now.
//
// Rules:
//   - terminal pools match nothing and keep their state
//   - a pool past its deadline becomes expired and matches nothing
//   - otherwise matched = min(amount, remaining); a pool left at exactly zero
//     becomes completed
func ComputeMatch(pool *models.MatchPool, amount decimal.Decimal, now time.Time) MatchOutcome {
	out := MatchOutcome{
		Matched:   decimal.Zero,
		Remaining: pool.Remaining,
		Status:    pool.Status,
	}

	if pool.Status.Terminal() {
		return out
	}
	if now.After(pool.Deadline) {
		out.Status = models.PoolExpired
		return out
	}
	if !pool.Remaining.IsPositive() {
		out.Remaining = decimal.Zero
		out.Status = models.PoolCompleted
		return out
	}
	if !amount.IsPositive() {
		return out
	}

	out.Matched = decimal.Min(amount, pool.Remaining)
	out.Remaining = pool.Remaining.Sub(out.Matched)
	if out.Remaining.IsZero() {
		out.Status = models.PoolCompleted
	}
	return out
}
