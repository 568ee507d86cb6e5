package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clearbrook/advisory/internal/db"
	"github.com/clearbrook/advisory/internal/domain"
)

// SQLiteClosureRepo implements ClosureRepo over a SQLite database.
type SQLiteClosureRepo struct {
	db db.DBTX
}

func NewSQLiteClosureRepo(conn db.DBTX) *SQLiteClosureRepo {
	return &SQLiteClosureRepo{db: conn}
}

const closureColumns = `id, start_date, end_date, description, tags, scope, adviser_email, created_at, updated_at`

func (r *SQLiteClosureRepo) Create(ctx context.Context, c *domain.OfficeClosure) error {
	query := `INSERT INTO office_closures (` + closureColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := nowUTC()
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.StartDate.Format(dateLayout),
		c.EndDate.Format(dateLayout),
		c.Description,
		encodeStrings(c.Tags),
		string(c.Scope),
		c.AdviserEmail,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting closure: %w", err)
	}
	return nil
}

func (r *SQLiteClosureRepo) GetByID(ctx context.Context, id string) (*domain.OfficeClosure, error) {
	query := `SELECT ` + closureColumns + ` FROM office_closures WHERE id = ?`
	c, err := scanClosure(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("closure %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("loading closure: %w", err)
	}
	return c, nil
}

func (r *SQLiteClosureRepo) List(ctx context.Context) ([]*domain.OfficeClosure, error) {
	query := `SELECT ` + closureColumns + ` FROM office_closures ORDER BY start_date, id`
	return r.queryClosures(ctx, query)
}

func (r *SQLiteClosureRepo) ListGlobalInRange(ctx context.Context, from, to time.Time) ([]*domain.OfficeClosure, error) {
	query := `SELECT ` + closureColumns + ` FROM office_closures
		WHERE scope = 'global' AND start_date <= ? AND end_date >= ?
		ORDER BY start_date, id`
	return r.queryClosures(ctx, query, to.Format(dateLayout), from.Format(dateLayout))
}

func (r *SQLiteClosureRepo) ListForAdviserInRange(ctx context.Context, adviserEmail string, from, to time.Time) ([]*domain.OfficeClosure, error) {
	query := `SELECT ` + closureColumns + ` FROM office_closures
		WHERE scope = 'adviser' AND adviser_email = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date, id`
	return r.queryClosures(ctx, query, adviserEmail, to.Format(dateLayout), from.Format(dateLayout))
}

func (r *SQLiteClosureRepo) Update(ctx context.Context, c *domain.OfficeClosure) error {
	query := `UPDATE office_closures SET start_date = ?, end_date = ?, description = ?,
		tags = ?, scope = ?, adviser_email = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		c.StartDate.Format(dateLayout),
		c.EndDate.Format(dateLayout),
		c.Description,
		encodeStrings(c.Tags),
		string(c.Scope),
		c.AdviserEmail,
		nowUTC(),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating closure: %w", err)
	}
	return requireRowAffected(res, c.ID)
}

func (r *SQLiteClosureRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM office_closures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting closure: %w", err)
	}
	return requireRowAffected(res, id)
}

func (r *SQLiteClosureRepo) queryClosures(ctx context.Context, query string, args ...any) ([]*domain.OfficeClosure, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing closures: %w", err)
	}
	defer rows.Close()

	var closures []*domain.OfficeClosure
	for rows.Next() {
		c, err := scanClosure(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning closure: %w", err)
		}
		closures = append(closures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating closures: %w", err)
	}
	return closures, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan code.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanClosure(row rowScanner) (*domain.OfficeClosure, error) {
	var c domain.OfficeClosure
	var startDate, endDate, tags, scope, createdAt, updatedAt string
	if err := row.Scan(&c.ID, &startDate, &endDate, &c.Description, &tags, &scope, &c.AdviserEmail, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if c.StartDate, err = parseDate(startDate); err != nil {
		return nil, fmt.Errorf("start_date: %w", err)
	}
	if c.EndDate, err = parseDate(endDate); err != nil {
		return nil, fmt.Errorf("end_date: %w", err)
	}
	if c.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if c.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	c.Tags = decodeStrings(tags)
	c.Scope = domain.ClosureScope(scope)
	return &c, nil
}

func requireRowAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
