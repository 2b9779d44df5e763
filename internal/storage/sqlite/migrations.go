package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// The partial unique index on verified settlements' slip_trans_ref is
// what makes the duplicate-slip check a single conditional write: two
// concurrent inserts of the same reference cannot both commit.
const schema = `
CREATE TABLE IF NOT EXISTS members (
    key TEXT PRIMARY KEY,
    real_name TEXT NOT NULL DEFAULT '',
    line_user_id TEXT NOT NULL DEFAULT '',
    pin_hash TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    date TEXT NOT NULL,
    description TEXT NOT NULL,
    amount REAL NOT NULL,
    payer TEXT NOT NULL,
    payment_type TEXT NOT NULL DEFAULT 'normal',
    group_id TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS expense_splits (
    expense_id TEXT NOT NULL,
    member_key TEXT NOT NULL,
    share REAL NOT NULL,
    PRIMARY KEY (expense_id, member_key),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    month TEXT NOT NULL,
    from_key TEXT NOT NULL,
    to_key TEXT NOT NULL,
    amount REAL NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    slip_trans_ref TEXT,
    slip_trans_date TEXT,
    slip_trans_time TEXT,
    slip_amount REAL,
    slip_sender_display TEXT,
    slip_sender_name TEXT,
    slip_receiver_display TEXT,
    slip_receiver_name TEXT,
    slip_sending_bank TEXT,
    slip_receiving_bank TEXT,
    slip_uploaded_by TEXT,
    slip_matched_field TEXT,
    slip_match_confidence REAL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    user_id TEXT PRIMARY KEY,
    step TEXT NOT NULL,
    draft TEXT NOT NULL DEFAULT '{}',
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS recurring_templates (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    amount REAL NOT NULL,
    payer TEXT NOT NULL,
    splits TEXT NOT NULL DEFAULT '{}',
    active INTEGER NOT NULL DEFAULT 1,
    last_generated_month TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date);
CREATE INDEX IF NOT EXISTS idx_expense_splits_expense_id ON expense_splits(expense_id);
CREATE INDEX IF NOT EXISTS idx_settlements_month ON settlements(month);
CREATE INDEX IF NOT EXISTS idx_members_line_user_id ON members(line_user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_settlements_verified_trans_ref
    ON settlements(slip_trans_ref) WHERE status = 'verified';
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
