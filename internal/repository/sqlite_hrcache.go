package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clearbrook/advisory/internal/db"
	"github.com/clearbrook/advisory/internal/domain"
)

// SQLiteEmployeeRepo caches the HR employee directory.
type SQLiteEmployeeRepo struct {
	db db.DBTX
}

func NewSQLiteEmployeeRepo(conn db.DBTX) *SQLiteEmployeeRepo {
	return &SQLiteEmployeeRepo{db: conn}
}

func (r *SQLiteEmployeeRepo) ReplaceAll(ctx context.Context, employees []domain.Employee) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM employees`); err != nil {
		return fmt.Errorf("clearing employees: %w", err)
	}
	for _, e := range employees {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO employees (id, email) VALUES (?, ?)`, e.ID, e.Email); err != nil {
			return fmt.Errorf("inserting employee %s: %w", e.ID, err)
		}
	}
	return nil
}

func (r *SQLiteEmployeeRepo) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	var e domain.Employee
	row := r.db.QueryRowContext(ctx, `SELECT id, email FROM employees WHERE email = ?`, email)
	if err := row.Scan(&e.ID, &e.Email); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("employee %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("loading employee: %w", err)
	}
	return &e, nil
}

func (r *SQLiteEmployeeRepo) List(ctx context.Context) ([]*domain.Employee, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, email FROM employees ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	var employees []*domain.Employee
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.Email); err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}
		employees = append(employees, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating employees: %w", err)
	}
	return employees, nil
}

// SQLiteLeaveRepo caches approved leave synced from HR.
type SQLiteLeaveRepo struct {
	db db.DBTX
}

func NewSQLiteLeaveRepo(conn db.DBTX) *SQLiteLeaveRepo {
	return &SQLiteLeaveRepo{db: conn}
}

func (r *SQLiteLeaveRepo) ReplaceForEmployee(ctx context.Context, employeeID string, requests []domain.LeaveRequest) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM leave_requests WHERE employee_id = ?`, employeeID); err != nil {
		return fmt.Errorf("clearing leave for %s: %w", employeeID, err)
	}
	for _, lr := range requests {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO leave_requests (id, employee_id, start_date, end_date, status)
				VALUES (?, ?, ?, ?, ?)`,
			lr.ID,
			employeeID,
			lr.StartDate.Format(dateLayout),
			lr.EndDate.Format(dateLayout),
			string(lr.Status),
		); err != nil {
			return fmt.Errorf("inserting leave %s: %w", lr.ID, err)
		}
	}
	return nil
}

func (r *SQLiteLeaveRepo) ListApprovedInRange(ctx context.Context, employeeID string, from, to time.Time) ([]*domain.LeaveRequest, error) {
	query := `SELECT id, employee_id, start_date, end_date, status FROM leave_requests
		WHERE employee_id = ? AND status = 'approved' AND start_date <= ? AND end_date >= ?
		ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, query, employeeID, to.Format(dateLayout), from.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("listing leave: %w", err)
	}
	defer rows.Close()

	var requests []*domain.LeaveRequest
	for rows.Next() {
		var lr domain.LeaveRequest
		var startDate, endDate, status string
		if err := rows.Scan(&lr.ID, &lr.EmployeeID, &startDate, &endDate, &status); err != nil {
			return nil, fmt.Errorf("scanning leave: %w", err)
		}
		if lr.StartDate, err = parseDate(startDate); err != nil {
			return nil, fmt.Errorf("start_date: %w", err)
		}
		if lr.EndDate, err = parseDate(endDate); err != nil {
			return nil, fmt.Errorf("end_date: %w", err)
		}
		lr.Status = domain.LeaveStatus(status)
		requests = append(requests, &lr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating leave: %w", err)
	}
	return requests, nil
}
