package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/internal/storage"
)

const donationColumns = `d.seq, d.id, d.campaign_id, d.donor_id, d.anonymous, d.amount, d.message, d.idempotency_key, d.created_at`

// CommitDonation inserts a donation and increments the campaign's raised
// amount in a single transaction.
func (s *SQLiteStore) CommitDonation(ctx context.Context, donation *models.Donation) (*models.Campaign, error) {
	// Generate ID if not set
	if donation.ID == "" {
		donation.ID = uuid.New().String()
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = time.Now().UTC()
	}

	var campaign *models.Campaign
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getCampaign(ctx, tx, donation.CampaignID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("campaign %s not found: %w", donation.CampaignID, storage.ErrCampaignNotActive)
		}
		if err != nil {
			return err
		}
		if !current.IsActive() {
			return fmt.Errorf("campaign %s is %s: %w", current.ID, current.Status, storage.ErrCampaignNotActive)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO donations (id, campaign_id, donor_id, anonymous, amount, message, idempotency_key, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			donation.ID, donation.CampaignID, nullString(donation.DonorID), donation.Anonymous,
			donation.Amount.String(), nullString(donation.Message), nullString(donation.IdempotencyKey),
			toUnix(donation.CreatedAt),
		)
		if err != nil {
			if donation.IdempotencyKey != "" && isUniqueViolation(err) {
				return fmt.Errorf("idempotency key %q: %w", donation.IdempotencyKey, storage.ErrDuplicateIdempotencyKey)
			}
			return fmt.Errorf("failed to insert donation: %w", err)
		}
		seq, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read donation sequence: %w", err)
		}

		raised := current.Raised.Add(donation.Amount)
		result, err = tx.ExecContext(ctx,
			`UPDATE campaigns SET raised = ?, updated_at = ?
			 WHERE id = ? AND raised = ? AND status = 'active'`,
			raised.String(), toUnix(donation.CreatedAt), current.ID, current.Raised.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to update raised amount: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("campaign %s raised amount: %w", current.ID, storage.ErrConflict)
		}

		donation.Seq = seq
		current.Raised = raised
		current.UpdatedAt = donation.CreatedAt
		campaign = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return campaign, nil
}

// GetDonationByIdempotencyKey retrieves the donation the donor committed
// under key. An empty donorID selects guest donations.
func (s *SQLiteStore) GetDonationByIdempotencyKey(ctx context.Context, donorID, key string) (*models.Donation, error) {
	donation, err := scanDonation(s.db.QueryRowContext(ctx,
		"SELECT "+donationColumns+" FROM donations d WHERE COALESCE(d.donor_id, '') = ? AND d.idempotency_key = ?",
		donorID, key,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("donation with idempotency key %q: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}
	return donation, nil
}

// ListDonationsByCampaign retrieves a campaign's donations, newest first.
func (s *SQLiteStore) ListDonationsByCampaign(ctx context.Context, campaignID string, limit int) ([]models.Donation, error) {
	return s.queryDonations(ctx,
		"SELECT "+donationColumns+" FROM donations d WHERE d.campaign_id = ? ORDER BY d.seq DESC LIMIT ?",
		campaignID, sqlLimit(limit),
	)
}

// ListDonationsByDonor retrieves a donor's donations, newest first.
func (s *SQLiteStore) ListDonationsByDonor(ctx context.Context, donorID string, limit int) ([]models.Donation, error) {
	return s.queryDonations(ctx,
		"SELECT "+donationColumns+" FROM donations d WHERE d.donor_id = ? ORDER BY d.seq DESC LIMIT ?",
		donorID, sqlLimit(limit),
	)
}

// ScanDonations retrieves donations in a time window, optionally restricted
// to one campaign category, in commit order.
func (s *SQLiteStore) ScanDonations(ctx context.Context, filter storage.DonationFilter) ([]models.Donation, error) {
	var (
		where []string
		args  []any
	)
	if !filter.Since.IsZero() {
		where = append(where, "d.created_at >= ?")
		args = append(args, toUnix(filter.Since))
	}
	if !filter.Until.IsZero() {
		where = append(where, "d.created_at <= ?")
		args = append(args, toUnix(filter.Until))
	}
	if filter.Category != "" {
		where = append(where, "c.category = ?")
		args = append(args, filter.Category)
	}

	query := "SELECT " + donationColumns + " FROM donations d JOIN campaigns c ON c.id = d.campaign_id"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY d.seq"

	return s.queryDonations(ctx, query, args...)
}

// SumDonations adds up every donation committed for a campaign.
func (s *SQLiteStore) SumDonations(ctx context.Context, campaignID string) (decimal.Decimal, error) {
	return sumAmounts(ctx, s.db, "SELECT amount FROM donations WHERE campaign_id = ?", campaignID)
}

func (s *SQLiteStore) queryDonations(ctx context.Context, query string, args ...any) ([]models.Donation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	defer rows.Close()

	var donations []models.Donation
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		donations = append(donations, *donation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate donations: %w", err)
	}

	return donations, nil
}

func scanDonation(row interface{ Scan(...any) error }) (*models.Donation, error) {
	var (
		d                         models.Donation
		donorID, message, idemKey sql.NullString
		createdAt                 int64
	)
	if err := row.Scan(&d.Seq, &d.ID, &d.CampaignID, &donorID, &d.Anonymous, &d.Amount,
		&message, &idemKey, &createdAt); err != nil {
		return nil, err
	}
	d.DonorID = donorID.String
	d.Message = message.String
	d.IdempotencyKey = idemKey.String
	d.CreatedAt = fromUnix(createdAt)
	return &d, nil
}

// sumAmounts adds the decimal amounts in the first column of a query.
func sumAmounts(ctx context.Context, q querier, query string, args ...any) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate amounts: %w", err)
	}
	return total, nil
}

// sqlLimit maps non-positive limits to SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
