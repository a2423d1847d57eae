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

const campaignColumns = `id, title, category, goal, raised, deadline, status, created_at, updated_at`

// CreateCampaign persists a new campaign to the database.
func (s *SQLiteStore) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	// Generate IDs if not set
	if campaign.ID == "" {
		campaign.ID = uuid.New().String()
	}
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = time.Now().UTC()
	}
	if campaign.UpdatedAt.IsZero() {
		campaign.UpdatedAt = campaign.CreatedAt
	}
	if campaign.Status == "" {
		campaign.Status = models.CampaignActive
	}
	campaign.Raised = decimal.Zero

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		campaign.ID, campaign.Title, campaign.Category,
		campaign.Goal.String(), campaign.Raised.String(),
		toUnix(campaign.Deadline), string(campaign.Status),
		toUnix(campaign.CreatedAt), toUnix(campaign.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}

	return nil
}

// GetCampaign retrieves a campaign by ID.
func (s *SQLiteStore) GetCampaign(ctx context.Context, campaignID string) (*models.Campaign, error) {
	return getCampaign(ctx, s.db, campaignID)
}

// ListCampaigns retrieves campaigns with the filter's status, newest first.
func (s *SQLiteStore) ListCampaigns(ctx context.Context, filter storage.CampaignFilter, limit int) ([]*models.Campaign, error) {
	query := "SELECT " + campaignColumns + " FROM campaigns WHERE status = ?"
	args := []any{string(filter.Status)}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, sqlLimit(limit))

	return s.queryCampaigns(ctx, query, args...)
}

// GetCampaignsByIDs retrieves multiple campaigns by their IDs.
func (s *SQLiteStore) GetCampaignsByIDs(ctx context.Context, ids []string) (map[string]*models.Campaign, error) {
	campaigns := make(map[string]*models.Campaign)
	if len(ids) == 0 {
		return campaigns, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	list, err := s.queryCampaigns(ctx,
		"SELECT "+campaignColumns+" FROM campaigns WHERE id IN (?"+repeatPlaceholder(len(ids)-1)+")",
		args...,
	)
	if err != nil {
		return nil, err
	}
	for _, c := range list {
		campaigns[c.ID] = c
	}
	return campaigns, nil
}

func (s *SQLiteStore) queryCampaigns(ctx context.Context, query string, args ...any) ([]*models.Campaign, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}
	return campaigns, nil
}

// UpdateCampaignStatus sets the status of a campaign and returns it.
func (s *SQLiteStore) UpdateCampaignStatus(ctx context.Context, campaignID string, status models.CampaignStatus, at time.Time) (*models.Campaign, error) {
	var campaign *models.Campaign
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ?",
			string(status), toUnix(at), campaignID,
		)
		if err != nil {
			return fmt.Errorf("failed to update campaign status: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("campaign %s: %w", campaignID, storage.ErrNotFound)
		}

		campaign, err = getCampaign(ctx, tx, campaignID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

func getCampaign(ctx context.Context, q querier, campaignID string) (*models.Campaign, error) {
	campaign, err := scanCampaign(q.QueryRowContext(ctx,
		"SELECT "+campaignColumns+" FROM campaigns WHERE id = ?",
		campaignID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	var (
		c                              models.Campaign
		status                         string
		deadline, createdAt, updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.Title, &c.Category, &c.Goal, &c.Raised,
		&deadline, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.Status = models.CampaignStatus(status)
	c.Deadline = fromUnix(deadline)
	c.CreatedAt = fromUnix(createdAt)
	c.UpdatedAt = fromUnix(updatedAt)
	return &c, nil
}
