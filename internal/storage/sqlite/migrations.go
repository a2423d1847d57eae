package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// Money columns are TEXT holding canonical decimal strings; timestamps are
// Unix nanoseconds.
const schema = `
CREATE TABLE IF NOT EXISTS campaigns (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    category TEXT NOT NULL,
    goal TEXT NOT NULL,
    raised TEXT NOT NULL DEFAULT '0',
    deadline INTEGER NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('active', 'completed', 'cancelled')),
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS donations (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    campaign_id TEXT NOT NULL,
    donor_id TEXT,
    anonymous INTEGER NOT NULL DEFAULT 0,
    amount TEXT NOT NULL,
    message TEXT,
    idempotency_key TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (campaign_id) REFERENCES campaigns(id)
);

CREATE TABLE IF NOT EXISTS match_pools (
    id TEXT PRIMARY KEY,
    campaign_id TEXT NOT NULL,
    sponsor_id TEXT,
    total TEXT NOT NULL,
    remaining TEXT NOT NULL,
    deadline INTEGER NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('active', 'completed', 'expired')),
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (campaign_id) REFERENCES campaigns(id)
);

CREATE TABLE IF NOT EXISTS match_contributions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    pool_id TEXT NOT NULL,
    campaign_id TEXT NOT NULL,
    donation_id TEXT,
    amount TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (pool_id) REFERENCES match_pools(id)
);

CREATE TABLE IF NOT EXISTS donors (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_donations_campaign_id ON donations(campaign_id);
CREATE INDEX IF NOT EXISTS idx_donations_donor_id ON donations(donor_id);
CREATE INDEX IF NOT EXISTS idx_donations_created_at ON donations(created_at);
CREATE INDEX IF NOT EXISTS idx_campaigns_category ON campaigns(category);
CREATE INDEX IF NOT EXISTS idx_campaigns_status_created_at ON campaigns(status, created_at);
CREATE INDEX IF NOT EXISTS idx_match_pools_campaign_id ON match_pools(campaign_id);
CREATE INDEX IF NOT EXISTS idx_match_pools_deadline ON match_pools(status, deadline);
CREATE INDEX IF NOT EXISTS idx_match_contributions_pool_id ON match_contributions(pool_id);
CREATE INDEX IF NOT EXISTS idx_match_contributions_donation_id ON match_contributions(donation_id);

-- Idempotency keys are scoped to the donor; guests share one scope.
CREATE UNIQUE INDEX IF NOT EXISTS idx_donations_idempotency
    ON donations(COALESCE(donor_id, ''), idempotency_key) WHERE idempotency_key IS NOT NULL;

-- At most one active pool per campaign.
CREATE UNIQUE INDEX IF NOT EXISTS idx_match_pools_one_active
    ON match_pools(campaign_id) WHERE status = 'active';
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
