package repository

import (
	"context"
	"time"

	"github.com/clearbrook/advisory/internal/domain"
)

type ClosureRepo interface {
	Create(ctx context.Context, c *domain.OfficeClosure) error
	GetByID(ctx context.Context, id string) (*domain.OfficeClosure, error)
	List(ctx context.Context) ([]*domain.OfficeClosure, error)
	// ListGlobalInRange returns global closures overlapping [from, to].
	ListGlobalInRange(ctx context.Context, from, to time.Time) ([]*domain.OfficeClosure, error)
	// ListForAdviserInRange returns adviser-scoped closures for the given
	// email overlapping [from, to].
	ListForAdviserInRange(ctx context.Context, adviserEmail string, from, to time.Time) ([]*domain.OfficeClosure, error)
	Update(ctx context.Context, c *domain.OfficeClosure) error
	Delete(ctx context.Context, id string) error
}

type OverrideRepo interface {
	Create(ctx context.Context, o *domain.CapacityOverride) error
	GetByID(ctx context.Context, id string) (*domain.CapacityOverride, error)
	List(ctx context.Context) ([]*domain.CapacityOverride, error)
	ListForAdviser(ctx context.Context, adviserEmail string) ([]*domain.CapacityOverride, error)
	// ActiveAsOf returns the override with the greatest effective date not
	// after asOf, or ErrNotFound when none applies.
	ActiveAsOf(ctx context.Context, adviserEmail string, asOf time.Time) (*domain.CapacityOverride, error)
	Update(ctx context.Context, o *domain.CapacityOverride) error
	Delete(ctx context.Context, id string) error
}

type AllocationRepo interface {
	// Upsert writes the record, keyed by deal ID. A repeated deal keeps the
	// original record ID; fields are replaced only when the incoming
	// DecidedAt is not older than the stored one. Returns the canonical
	// record ID for the deal.
	Upsert(ctx context.Context, rec *domain.AllocationRecord) (string, error)
	GetByDealID(ctx context.Context, dealID string) (*domain.AllocationRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.AllocationRecord, error)
}

type EmployeeRepo interface {
	// ReplaceAll swaps the cached HR directory for the given snapshot.
	ReplaceAll(ctx context.Context, employees []domain.Employee) error
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	List(ctx context.Context) ([]*domain.Employee, error)
}

type LeaveRepo interface {
	// ReplaceForEmployee swaps the cached leave for one employee.
	ReplaceForEmployee(ctx context.Context, employeeID string, requests []domain.LeaveRequest) error
	// ListApprovedInRange returns approved leave overlapping [from, to].
	ListApprovedInRange(ctx context.Context, employeeID string, from, to time.Time) ([]*domain.LeaveRequest, error)
}

type SettingsRepo interface {
	Get(ctx context.Context, key string) (string, error)
	// GetInt reads an integer setting, returning fallback when the key is
	// absent or not an integer.
	GetInt(ctx context.Context, key string, fallback int) (int, error)
	Set(ctx context.Context, key, value string) error
}

// Setting keys read by the core.
const (
	SettingPrestartWeeks = "prestart_weeks"
)
