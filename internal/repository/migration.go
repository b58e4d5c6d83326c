package repository

import (
	"database/sql"
	"fmt"
)

// InitSchema handles the database schema migration.
// It creates necessary extensions, tables and indexes. All statements are
// idempotent so the migrate command can be re-run safely.
func InitSchema(db *sql.DB) error {
	// 1. Extensions
	// Note: Creating extensions usually requires superuser privileges.
	// If this fails, ensure the extensions are pre-installed or the user has permissions.
	extensions := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	}

	for _, ext := range extensions {
		if _, err := db.Exec(ext); err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	// 2. Tables
	tables := []string{
		`CREATE TABLE IF NOT EXISTS fixtures (
			id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
			home_name text NOT NULL,
			away_name text NOT NULL,
			category text NOT NULL,
			kickoff_utc timestamptz NOT NULL,
			status text NOT NULL DEFAULT 'SCHEDULED',
			home_score int,
			away_score int,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS push_ledger (
			id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
			fixture_id uuid NOT NULL,
			remote_schedule_id text NOT NULL,
			dispatch_id text,
			confirmation_id text,
			status text NOT NULL CHECK (status IN ('pending','sent','cancelled','failed')),
			send_at_utc timestamptz NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS job_locks (
			name text PRIMARY KEY,
			locked_by text NOT NULL,
			locked_at timestamptz NOT NULL,
			expires_at timestamptz NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS delivery_confirmations (
			id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
			fixture_id uuid,
			home_name text NOT NULL DEFAULT '',
			away_name text NOT NULL DEFAULT '',
			category text NOT NULL DEFAULT '',
			external_recipient_id text NOT NULL,
			confirmation_type text NOT NULL,
			platform_timestamp timestamptz NOT NULL,
			match_method text NOT NULL,
			match_confidence text NOT NULL,
			received_at timestamptz NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id uuid PRIMARY KEY DEFAULT uuid_generate_v4(),
			function_name text NOT NULL,
			fixture_id uuid,
			action text NOT NULL,
			reason text NOT NULL DEFAULT '',
			details jsonb NOT NULL DEFAULT '{}',
			created_at timestamptz NOT NULL DEFAULT now()
		);`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// 3. Indexes
	// push_ledger_active_fixture is the arbiter of the at-most-one-active
	// invariant: application checks are advisory, this index is not.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS push_ledger_active_fixture
			ON push_ledger (fixture_id)
			WHERE status IN ('pending','sent');`,
		`CREATE INDEX IF NOT EXISTS push_ledger_send_at ON push_ledger (send_at_utc);`,
		`CREATE INDEX IF NOT EXISTS push_ledger_remote_schedule ON push_ledger (remote_schedule_id);`,
		`CREATE INDEX IF NOT EXISTS fixtures_kickoff ON fixtures (kickoff_utc);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS delivery_confirmations_natural_key
			ON delivery_confirmations (external_recipient_id, confirmation_type, platform_timestamp);`,
		`CREATE INDEX IF NOT EXISTS audit_log_created_at ON audit_log (created_at);`,
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
