package sqlite

import (
	"context"
	"database/sql"
)

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Groups must be created before every table that references them.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    amount INTEGER NOT NULL CHECK (amount > 0),
    currency TEXT NOT NULL,
    cadence TEXT NOT NULL,
    ordering_mode TEXT NOT NULL DEFAULT '',
    order_seed INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    escrow_balance INTEGER NOT NULL DEFAULT 0 CHECK (escrow_balance >= 0),
    current_round INTEGER NOT NULL DEFAULT 0,
    invitation_code_hash TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    wallet_id TEXT NOT NULL,
    role TEXT NOT NULL,
    status TEXT NOT NULL,
    invited_at INTEGER NOT NULL,
    joined_at INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (group_id) REFERENCES groups(id)
);

CREATE TABLE IF NOT EXISTS rotation_slots (
    group_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    member_id TEXT NOT NULL,
    PRIMARY KEY (group_id, position),
    UNIQUE (group_id, member_id),
    FOREIGN KEY (group_id) REFERENCES groups(id),
    FOREIGN KEY (member_id) REFERENCES members(id)
);

CREATE TABLE IF NOT EXISTS contributions (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    sequence INTEGER NOT NULL,
    amount INTEGER NOT NULL,
    fee_amount INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    due_at INTEGER NOT NULL,
    paid_at INTEGER NOT NULL DEFAULT 0,
    UNIQUE (group_id, sequence, member_id),
    FOREIGN KEY (group_id) REFERENCES groups(id),
    FOREIGN KEY (member_id) REFERENCES members(id)
);

CREATE TABLE IF NOT EXISTS penalties (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    round_sequence INTEGER NOT NULL DEFAULT 0,
    amount INTEGER NOT NULL CHECK (amount > 0),
    reason TEXT NOT NULL,
    note TEXT,
    status TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    paid_at INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (group_id) REFERENCES groups(id),
    FOREIGN KEY (member_id) REFERENCES members(id)
);

CREATE TABLE IF NOT EXISTS distributions (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    sequence INTEGER NOT NULL,
    beneficiary_id TEXT NOT NULL,
    gross INTEGER NOT NULL,
    fee INTEGER NOT NULL,
    net INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (group_id, sequence),
    CHECK (net + fee = gross),
    FOREIGN KEY (group_id) REFERENCES groups(id),
    FOREIGN KEY (beneficiary_id) REFERENCES members(id)
);

CREATE TABLE IF NOT EXISTS fee_quotes (
    idempotency_key TEXT PRIMARY KEY,
    fee INTEGER NOT NULL CHECK (fee >= 0),
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_members_group_user_live
    ON members(group_id, user_id) WHERE status != 'REJECTED';
CREATE INDEX IF NOT EXISTS idx_members_group_id ON members(group_id);
CREATE INDEX IF NOT EXISTS idx_contributions_group_seq ON contributions(group_id, sequence);
CREATE INDEX IF NOT EXISTS idx_penalties_group_id ON penalties(group_id);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
