package db

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. Statements are idempotent so the full
// list re-runs on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		id    TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS leave_requests (
		id          TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		start_date  TEXT NOT NULL,
		end_date    TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'approved'
		            CHECK(status IN ('approved','pending','declined','cancelled'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_leave_employee_dates
		ON leave_requests(employee_id, start_date, end_date)`,

	`CREATE TABLE IF NOT EXISTS office_closures (
		id            TEXT PRIMARY KEY,
		start_date    TEXT NOT NULL,
		end_date      TEXT NOT NULL,
		description   TEXT NOT NULL,
		tags          TEXT NOT NULL DEFAULT '',
		scope         TEXT NOT NULL DEFAULT 'global'
		              CHECK(scope IN ('global','adviser')),
		adviser_email TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_closures_dates ON office_closures(start_date, end_date)`,
	`CREATE INDEX IF NOT EXISTS idx_closures_adviser ON office_closures(adviser_email)`,

	`CREATE TABLE IF NOT EXISTS capacity_overrides (
		id                   TEXT PRIMARY KEY,
		adviser_email        TEXT NOT NULL,
		effective_date       TEXT NOT NULL,
		client_limit_monthly INTEGER NOT NULL CHECK(client_limit_monthly >= 0),
		pod_type             TEXT,
		notes                TEXT NOT NULL DEFAULT '',
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_overrides_adviser_effective
		ON capacity_overrides(adviser_email, effective_date)`,

	`CREATE TABLE IF NOT EXISTS allocation_records (
		id                   TEXT PRIMARY KEY,
		deal_id              TEXT NOT NULL UNIQUE,
		adviser_id           TEXT NOT NULL,
		adviser_email        TEXT NOT NULL,
		service_package      TEXT NOT NULL,
		household_type       TEXT NOT NULL DEFAULT '',
		earliest_week_anchor TEXT NOT NULL,
		decided_at           TEXT NOT NULL,
		requester_ip         TEXT NOT NULL DEFAULT '',
		requester_user_agent TEXT NOT NULL DEFAULT '',
		extra                TEXT NOT NULL DEFAULT '{}'
	)`,

	`CREATE INDEX IF NOT EXISTS idx_allocations_adviser ON allocation_records(adviser_id)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}
