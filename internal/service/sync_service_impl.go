package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/capacity"
	"github.com/clearbrook/advisory/internal/db"
	"github.com/clearbrook/advisory/internal/hr"
	"github.com/clearbrook/advisory/internal/repository"
)

// leaveLookbackWeeks of history kept so recently-ended leave still renders
// in operator views.
const leaveLookbackWeeks = 8

type syncService struct {
	hr       hr.Client
	uow      db.UnitOfWork
	observer UseCaseObserver
	loc      *time.Location
}

// NewSyncService refreshes the cached HR directory and approved leave in a
// single transaction, so engine reads never observe a half-synced state.
func NewSyncService(client hr.Client, uow db.UnitOfWork, observer UseCaseObserver, loc *time.Location) SyncService {
	if loc == nil {
		loc = time.UTC
	}
	return &syncService{
		hr:       client,
		uow:      uow,
		observer: observerOrNoop(observer),
		loc:      loc,
	}
}

func (s *syncService) SyncHR(ctx context.Context) (*SyncResult, error) {
	start := time.Now()
	result, err := s.sync(ctx)
	fields := map[string]any{}
	if result != nil {
		fields["employees"] = result.Employees
		fields["leave_records"] = result.LeaveRecords
	}
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      "sync_hr",
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: start,
	})
	return result, err
}

func (s *syncService) sync(ctx context.Context) (*SyncResult, error) {
	employees, err := s.hr.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}

	today := calendar.CivilDate(time.Now(), s.loc)
	from := calendar.AddWeeks(calendar.MondayOf(today), -leaveLookbackWeeks)
	to := calendar.AddWeeks(calendar.MondayOf(today), capacity.DefaultHorizonWeeks)

	result := &SyncResult{Employees: len(employees)}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		employeeRepo := repository.NewSQLiteEmployeeRepo(tx)
		leaveRepo := repository.NewSQLiteLeaveRepo(tx)

		if err := employeeRepo.ReplaceAll(ctx, employees); err != nil {
			return err
		}
		for _, employee := range employees {
			leave, err := s.hr.ListApprovedLeave(ctx, employee.ID, from, to)
			if err != nil {
				return fmt.Errorf("listing leave for %s: %w", employee.ID, err)
			}
			if err := leaveRepo.ReplaceForEmployee(ctx, employee.ID, leave); err != nil {
				return err
			}
			result.LeaveRecords += len(leave)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
