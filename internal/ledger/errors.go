package ledger

import (
	"errors"
	"fmt"
)

// Validation errors. Rejected immediately; retrying the same request fails
// the same way.
var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidMessage  = errors.New("message too long")
	ErrInvalidPledge   = errors.New("pledge amount must be positive")
	ErrDeadlineInPast  = errors.New("deadline must be in the future")
	ErrInvalidFilter   = errors.New("invalid leaderboard filter")
	ErrInvalidCampaign = errors.New("invalid campaign")

	// ErrIdempotencyKeyReused rejects a donation whose idempotency key the
	// donor already used for a different donation.
	ErrIdempotencyKeyReused = errors.New("idempotency key already used for a different donation")
)

// State-conflict errors. The caller must re-fetch state before retrying.
var (
	ErrCampaignNotActive = errors.New("campaign not active")
	ErrPoolAlreadyActive = errors.New("campaign already has an active match pool")
)

var (
	// ErrNotFound is returned when a requested campaign or pool does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage is a transient storage failure. Nothing was committed and
	// the request is safe to retry.
	ErrStorage = errors.New("storage error")
)

// storageError wraps a store failure as ErrStorage, keeping the cause in the
// message.
func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
