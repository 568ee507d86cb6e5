package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/domain"
	"github.com/clearbrook/advisory/internal/repository"
	"github.com/clearbrook/advisory/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHR serves a canned directory and per-employee leave.
type fakeHR struct {
	employees []domain.Employee
	leave     map[string][]domain.LeaveRequest
	leaveErr  error
}

func (f *fakeHR) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return f.employees, nil
}

func (f *fakeHR) ListApprovedLeave(ctx context.Context, employeeID string, from, to time.Time) ([]domain.LeaveRequest, error) {
	if f.leaveErr != nil {
		return nil, f.leaveErr
	}
	return f.leave[employeeID], nil
}

func TestSyncHR_RefreshesDirectoryAndLeave(t *testing.T) {
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	hrClient := &fakeHR{
		employees: []domain.Employee{
			{ID: "e1", Email: "a@clearbrook.example"},
			{ID: "e2", Email: "b@clearbrook.example"},
		},
		leave: map[string][]domain.LeaveRequest{
			"e1": {testutil.NewTestLeave("e1",
				calendar.Date(2026, time.March, 2), calendar.Date(2026, time.March, 6),
				domain.LeaveApproved)},
		},
	}
	svc := NewSyncService(hrClient, uow, nil, time.UTC)

	result, err := svc.SyncHR(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Employees)
	assert.Equal(t, 1, result.LeaveRecords)

	employees := repository.NewSQLiteEmployeeRepo(database)
	got, err := employees.GetByEmail(context.Background(), "a@clearbrook.example")
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)

	leaveRepo := repository.NewSQLiteLeaveRepo(database)
	leave, err := leaveRepo.ListApprovedInRange(context.Background(), "e1",
		calendar.Date(2026, time.March, 1), calendar.Date(2026, time.March, 31))
	require.NoError(t, err)
	assert.Len(t, leave, 1)
}

func TestSyncHR_LeaveFailureRollsBackDirectory(t *testing.T) {
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	// Seed an existing directory entry.
	employees := repository.NewSQLiteEmployeeRepo(database)
	require.NoError(t, employees.ReplaceAll(context.Background(),
		[]domain.Employee{{ID: "old", Email: "old@clearbrook.example"}}))

	hrClient := &fakeHR{
		employees: []domain.Employee{{ID: "e1", Email: "a@clearbrook.example"}},
		leaveErr:  errors.New("hr exploded mid-sync"),
	}
	svc := NewSyncService(hrClient, uow, nil, time.UTC)

	_, err := svc.SyncHR(context.Background())
	require.Error(t, err)

	// The old snapshot survives intact.
	got, err := employees.GetByEmail(context.Background(), "old@clearbrook.example")
	require.NoError(t, err)
	assert.Equal(t, "old", got.ID)
}
