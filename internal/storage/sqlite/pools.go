package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/internal/storage"
)

const poolColumns = `id, campaign_id, sponsor_id, total, remaining, deadline, status, created_at, updated_at`

// CreateMatchPool persists a new active match pool.
// The partial unique index on active pools rejects a second active pool for
// the same campaign with storage.ErrConflict.
func (s *SQLiteStore) CreateMatchPool(ctx context.Context, pool *models.MatchPool) error {
	if pool.ID == "" {
		pool.ID = uuid.New().String()
	}
	if pool.CreatedAt.IsZero() {
		pool.CreatedAt = time.Now().UTC()
	}
	if pool.UpdatedAt.IsZero() {
		pool.UpdatedAt = pool.CreatedAt
	}
	pool.Status = models.PoolActive
	pool.Remaining = pool.Total

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO match_pools (`+poolColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pool.ID, pool.CampaignID, nullString(pool.SponsorID),
		pool.Total.String(), pool.Remaining.String(), toUnix(pool.Deadline),
		string(pool.Status), toUnix(pool.CreatedAt), toUnix(pool.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("campaign %s already has an active pool: %w", pool.CampaignID, storage.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("campaign %s: %w", pool.CampaignID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to insert match pool: %w", err)
	}

	return nil
}

// GetMatchPool retrieves a match pool by ID.
func (s *SQLiteStore) GetMatchPool(ctx context.Context, poolID string) (*models.MatchPool, error) {
	return s.getPool(ctx, "SELECT "+poolColumns+" FROM match_pools WHERE id = ?", poolID)
}

// GetActiveMatchPool retrieves the active pool of a campaign.
func (s *SQLiteStore) GetActiveMatchPool(ctx context.Context, campaignID string) (*models.MatchPool, error) {
	return s.getPool(ctx,
		"SELECT "+poolColumns+" FROM match_pools WHERE campaign_id = ? AND status = 'active'",
		campaignID,
	)
}

// GetLatestMatchPool retrieves the most recently created pool of a campaign.
func (s *SQLiteStore) GetLatestMatchPool(ctx context.Context, campaignID string) (*models.MatchPool, error) {
	return s.getPool(ctx,
		"SELECT "+poolColumns+" FROM match_pools WHERE campaign_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1",
		campaignID,
	)
}

// UpdateMatchPool applies a compare-and-swap update to an active pool and
// records the contribution, if any, in the same transaction.
func (s *SQLiteStore) UpdateMatchPool(ctx context.Context, update storage.PoolUpdate) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE match_pools SET remaining = ?, status = ?, updated_at = ?
			 WHERE id = ? AND status = 'active' AND remaining = ?`,
			update.NewRemaining.String(), string(update.NewStatus), toUnix(update.UpdatedAt),
			update.PoolID, update.ExpectedRemaining.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to update match pool: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("match pool %s: %w", update.PoolID, storage.ErrConflict)
		}

		c := update.Contribution
		if c == nil || !c.Amount.IsPositive() {
			return nil
		}
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = update.UpdatedAt
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO match_contributions (id, pool_id, campaign_id, donation_id, amount, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, update.PoolID, c.CampaignID, nullString(c.DonationID), c.Amount.String(), toUnix(c.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert match contribution: %w", err)
		}
		return nil
	})
}

// ListDueMatchPools returns active pools whose deadline has passed.
func (s *SQLiteStore) ListDueMatchPools(ctx context.Context, now time.Time) ([]*models.MatchPool, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+poolColumns+" FROM match_pools WHERE status = 'active' AND deadline < ? ORDER BY deadline",
		toUnix(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due match pools: %w", err)
	}
	defer rows.Close()

	var pools []*models.MatchPool
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match pool: %w", err)
		}
		pools = append(pools, pool)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match pools: %w", err)
	}
	return pools, nil
}

// ListMatchContributions returns a pool's contributions in commit order.
func (s *SQLiteStore) ListMatchContributions(ctx context.Context, poolID string) ([]models.MatchContribution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pool_id, campaign_id, donation_id, amount, created_at
		 FROM match_contributions WHERE pool_id = ? ORDER BY seq`,
		poolID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list match contributions: %w", err)
	}
	defer rows.Close()

	var contributions []models.MatchContribution
	for rows.Next() {
		var (
			c          models.MatchContribution
			donationID sql.NullString
			createdAt  int64
		)
		if err := rows.Scan(&c.ID, &c.PoolID, &c.CampaignID, &donationID, &c.Amount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan match contribution: %w", err)
		}
		c.DonationID = donationID.String
		c.CreatedAt = fromUnix(createdAt)
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match contributions: %w", err)
	}
	return contributions, nil
}

// MatchedForDonation returns the total matched against one donation.
func (s *SQLiteStore) MatchedForDonation(ctx context.Context, donationID string) (decimal.Decimal, error) {
	return sumAmounts(ctx, s.db, "SELECT amount FROM match_contributions WHERE donation_id = ?", donationID)
}

func (s *SQLiteStore) getPool(ctx context.Context, query string, arg string) (*models.MatchPool, error) {
	pool, err := scanPool(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match pool for %s: %w", arg, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match pool: %w", err)
	}
	return pool, nil
}

func scanPool(row interface{ Scan(...any) error }) (*models.MatchPool, error) {
	var (
		p                              models.MatchPool
		sponsorID                      sql.NullString
		status                         string
		deadline, createdAt, updatedAt int64
	)
	if err := row.Scan(&p.ID, &p.CampaignID, &sponsorID, &p.Total, &p.Remaining,
		&deadline, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.SponsorID = sponsorID.String
	p.Status = models.PoolStatus(status)
	p.Deadline = fromUnix(deadline)
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	return &p, nil
}
