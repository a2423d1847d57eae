package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hivefund/ledger/internal/models"
)

// UpsertDonor inserts a donor profile or refreshes its display name.
func (s *SQLiteStore) UpsertDonor(ctx context.Context, donor *models.Donor) error {
	if donor.UpdatedAt.IsZero() {
		donor.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO donors (id, display_name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		donor.ID,
		donor.DisplayName,
		toUnix(donor.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert donor: %w", err)
	}

	return nil
}

// GetDonorsByIDs retrieves multiple donors by their IDs.
// Returns a map of donor ID to Donor.
// Donors that don't exist are omitted from the result.
func (s *SQLiteStore) GetDonorsByIDs(ctx context.Context, ids []string) (map[string]*models.Donor, error) {
	if len(ids) == 0 {
		return make(map[string]*models.Donor), nil
	}

	// Build the IN clause with placeholders
	query := `
		SELECT id, display_name, updated_at
		FROM donors
		WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get donors by IDs: %w", err)
	}
	defer rows.Close()

	donors := make(map[string]*models.Donor)
	for rows.Next() {
		donor := &models.Donor{}
		var updatedAt int64
		if err := rows.Scan(&donor.ID, &donor.DisplayName, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan donor: %w", err)
		}
		donor.UpdatedAt = fromUnix(updatedAt)
		donors[donor.ID] = donor
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating donors: %w", err)
	}

	return donors, nil
}

// repeatPlaceholder returns a string of ", ?" repeated n times.
// Used for building IN clauses with multiple placeholders.
func repeatPlaceholder(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(", ?", n)
}
