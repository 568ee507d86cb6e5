package service

import (
	"context"

	"github.com/clearbrook/advisory/internal/contract"
	"github.com/clearbrook/advisory/internal/domain"
)

type AllocationService interface {
	Allocate(ctx context.Context, req contract.AllocateRequest) (*contract.AllocateResponse, error)
}

type AvailabilityService interface {
	// Earliest computes one overview row per matching adviser.
	Earliest(ctx context.Context, req contract.EarliestRequest) ([]contract.EarliestRow, error)
	// Schedule returns one adviser's full capacity projection.
	Schedule(ctx context.Context, req contract.ScheduleRequest) (*contract.ScheduleResponse, error)
}

type AdminService interface {
	CreateClosure(ctx context.Context, input contract.ClosureInput) (*domain.OfficeClosure, error)
	UpdateClosure(ctx context.Context, id string, input contract.ClosureInput) (*domain.OfficeClosure, error)
	DeleteClosure(ctx context.Context, id string) error
	ListClosures(ctx context.Context) ([]*domain.OfficeClosure, error)

	CreateOverride(ctx context.Context, input contract.OverrideInput) (*domain.CapacityOverride, error)
	UpdateOverride(ctx context.Context, id string, input contract.OverrideInput) (*domain.CapacityOverride, error)
	DeleteOverride(ctx context.Context, id string) error
	ListOverrides(ctx context.Context) ([]*domain.CapacityOverride, error)
}

// SyncResult summarises one HR refresh.
type SyncResult struct {
	Employees    int
	LeaveRecords int
}

type SyncService interface {
	// SyncHR refreshes the cached employee directory and approved leave.
	SyncHR(ctx context.Context) (*SyncResult, error)
}
