package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clearbrook/advisory/internal/db"
	"github.com/clearbrook/advisory/internal/domain"
)

// SQLiteOverrideRepo implements OverrideRepo over a SQLite database.
type SQLiteOverrideRepo struct {
	db db.DBTX
}

func NewSQLiteOverrideRepo(conn db.DBTX) *SQLiteOverrideRepo {
	return &SQLiteOverrideRepo{db: conn}
}

const overrideColumns = `id, adviser_email, effective_date, client_limit_monthly, pod_type, notes, created_at, updated_at`

func (r *SQLiteOverrideRepo) Create(ctx context.Context, o *domain.CapacityOverride) error {
	query := `INSERT INTO capacity_overrides (` + overrideColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := nowUTC()
	_, err := r.db.ExecContext(ctx, query,
		o.ID,
		o.AdviserEmail,
		o.EffectiveDate.Format(dateLayout),
		o.ClientLimitMonthly,
		podTypeToValue(o.PodType),
		o.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting capacity override: %w", err)
	}
	return nil
}

func (r *SQLiteOverrideRepo) GetByID(ctx context.Context, id string) (*domain.CapacityOverride, error) {
	query := `SELECT ` + overrideColumns + ` FROM capacity_overrides WHERE id = ?`
	o, err := scanOverride(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("capacity override %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("loading capacity override: %w", err)
	}
	return o, nil
}

func (r *SQLiteOverrideRepo) List(ctx context.Context) ([]*domain.CapacityOverride, error) {
	query := `SELECT ` + overrideColumns + ` FROM capacity_overrides
		ORDER BY adviser_email, effective_date, id`
	return r.queryOverrides(ctx, query)
}

func (r *SQLiteOverrideRepo) ListForAdviser(ctx context.Context, adviserEmail string) ([]*domain.CapacityOverride, error) {
	query := `SELECT ` + overrideColumns + ` FROM capacity_overrides
		WHERE adviser_email = ? ORDER BY effective_date, id`
	return r.queryOverrides(ctx, query, adviserEmail)
}

func (r *SQLiteOverrideRepo) ActiveAsOf(ctx context.Context, adviserEmail string, asOf time.Time) (*domain.CapacityOverride, error) {
	query := `SELECT ` + overrideColumns + ` FROM capacity_overrides
		WHERE adviser_email = ? AND effective_date <= ?
		ORDER BY effective_date DESC, updated_at DESC LIMIT 1`
	o, err := scanOverride(r.db.QueryRowContext(ctx, query, adviserEmail, asOf.Format(dateLayout)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("active override for %s: %w", adviserEmail, ErrNotFound)
		}
		return nil, fmt.Errorf("loading active override: %w", err)
	}
	return o, nil
}

func (r *SQLiteOverrideRepo) Update(ctx context.Context, o *domain.CapacityOverride) error {
	query := `UPDATE capacity_overrides SET adviser_email = ?, effective_date = ?,
		client_limit_monthly = ?, pod_type = ?, notes = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		o.AdviserEmail,
		o.EffectiveDate.Format(dateLayout),
		o.ClientLimitMonthly,
		podTypeToValue(o.PodType),
		o.Notes,
		nowUTC(),
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("updating capacity override: %w", err)
	}
	return requireRowAffected(res, o.ID)
}

func (r *SQLiteOverrideRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM capacity_overrides WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting capacity override: %w", err)
	}
	return requireRowAffected(res, id)
}

func (r *SQLiteOverrideRepo) queryOverrides(ctx context.Context, query string, args ...any) ([]*domain.CapacityOverride, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing capacity overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*domain.CapacityOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning capacity override: %w", err)
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating capacity overrides: %w", err)
	}
	return overrides, nil
}

func scanOverride(row rowScanner) (*domain.CapacityOverride, error) {
	var o domain.CapacityOverride
	var effectiveDate, createdAt, updatedAt string
	var podType sql.NullString
	if err := row.Scan(&o.ID, &o.AdviserEmail, &effectiveDate, &o.ClientLimitMonthly, &podType, &o.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.EffectiveDate, err = parseDate(effectiveDate); err != nil {
		return nil, fmt.Errorf("effective_date: %w", err)
	}
	if o.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if o.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	if podType.Valid && podType.String != "" {
		pt := domain.PodType(podType.String)
		o.PodType = &pt
	}
	return &o, nil
}

func podTypeToValue(pt *domain.PodType) any {
	if pt == nil {
		return nil
	}
	return string(*pt)
}
