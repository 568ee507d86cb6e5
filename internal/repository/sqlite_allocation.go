package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clearbrook/advisory/internal/db"
	"github.com/clearbrook/advisory/internal/domain"
)

// SQLiteAllocationRepo implements AllocationRepo over a SQLite database.
type SQLiteAllocationRepo struct {
	db db.DBTX
}

func NewSQLiteAllocationRepo(conn db.DBTX) *SQLiteAllocationRepo {
	return &SQLiteAllocationRepo{db: conn}
}

const allocationColumns = `id, deal_id, adviser_id, adviser_email, service_package,
	household_type, earliest_week_anchor, decided_at, requester_ip, requester_user_agent, extra`

func (r *SQLiteAllocationRepo) Upsert(ctx context.Context, rec *domain.AllocationRecord) (string, error) {
	// The deal_id uniqueness constraint makes re-allocation an in-place
	// update: the original record ID is kept and the newer decision wins.
	query := `INSERT INTO allocation_records (` + allocationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(deal_id) DO UPDATE SET
			adviser_id = excluded.adviser_id,
			adviser_email = excluded.adviser_email,
			service_package = excluded.service_package,
			household_type = excluded.household_type,
			earliest_week_anchor = excluded.earliest_week_anchor,
			decided_at = excluded.decided_at,
			requester_ip = excluded.requester_ip,
			requester_user_agent = excluded.requester_user_agent,
			extra = excluded.extra
		WHERE excluded.decided_at >= allocation_records.decided_at`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.DealID,
		rec.AdviserID,
		rec.AdviserEmail,
		rec.ServicePackage,
		rec.HouseholdType,
		rec.EarliestWeekAnchor.Format(dateLayout),
		rec.DecidedAt.UTC().Format(time.RFC3339),
		rec.RequesterIP,
		rec.RequesterUserAgent,
		encodeStringMap(rec.Extra),
	)
	if err != nil {
		return "", fmt.Errorf("upserting allocation record: %w", err)
	}

	var id string
	row := r.db.QueryRowContext(ctx, `SELECT id FROM allocation_records WHERE deal_id = ?`, rec.DealID)
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("reading allocation record id: %w", err)
	}
	return id, nil
}

func (r *SQLiteAllocationRepo) GetByDealID(ctx context.Context, dealID string) (*domain.AllocationRecord, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocation_records WHERE deal_id = ?`
	rec, err := scanAllocation(r.db.QueryRowContext(ctx, query, dealID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("allocation for deal %s: %w", dealID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading allocation record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteAllocationRepo) ListRecent(ctx context.Context, limit int) ([]*domain.AllocationRecord, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocation_records
		ORDER BY decided_at DESC, id LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing allocation records: %w", err)
	}
	defer rows.Close()

	var records []*domain.AllocationRecord
	for rows.Next() {
		rec, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning allocation record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating allocation records: %w", err)
	}
	return records, nil
}

func scanAllocation(row rowScanner) (*domain.AllocationRecord, error) {
	var rec domain.AllocationRecord
	var anchor, decidedAt, extra string
	if err := row.Scan(&rec.ID, &rec.DealID, &rec.AdviserID, &rec.AdviserEmail, &rec.ServicePackage,
		&rec.HouseholdType, &anchor, &decidedAt, &rec.RequesterIP, &rec.RequesterUserAgent, &extra); err != nil {
		return nil, err
	}
	var err error
	if rec.EarliestWeekAnchor, err = parseDate(anchor); err != nil {
		return nil, fmt.Errorf("earliest_week_anchor: %w", err)
	}
	if rec.DecidedAt, err = parseTimestamp(decidedAt); err != nil {
		return nil, fmt.Errorf("decided_at: %w", err)
	}
	rec.Extra = decodeStringMap(extra)
	return &rec, nil
}
