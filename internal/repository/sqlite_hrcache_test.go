package repository

import (
	"context"
	"testing"
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/domain"
	"github.com/clearbrook/advisory/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeRepo_ReplaceAllAndGetByEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteEmployeeRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []domain.Employee{
		{ID: "e1", Email: "a@clearbrook.example"},
		{ID: "e2", Email: "b@clearbrook.example"},
	}))

	got, err := repo.GetByEmail(ctx, "a@clearbrook.example")
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)

	// A later snapshot fully replaces the directory.
	require.NoError(t, repo.ReplaceAll(ctx, []domain.Employee{
		{ID: "e3", Email: "c@clearbrook.example"},
	}))
	_, err = repo.GetByEmail(ctx, "a@clearbrook.example")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "e3", all[0].ID)
}

func TestLeaveRepo_ListApprovedInRange_FiltersStatusAndOverlap(t *testing.T) {
	db := testutil.NewTestDB(t)
	employees := NewSQLiteEmployeeRepo(db)
	leave := NewSQLiteLeaveRepo(db)
	ctx := context.Background()

	require.NoError(t, employees.ReplaceAll(ctx, []domain.Employee{{ID: "e1", Email: "a@clearbrook.example"}}))

	approved := testutil.NewTestLeave("e1", calendar.Date(2026, time.January, 28), calendar.Date(2026, time.January, 29), domain.LeaveApproved)
	pending := testutil.NewTestLeave("e1", calendar.Date(2026, time.January, 28), calendar.Date(2026, time.January, 29), domain.LeavePending)
	outside := testutil.NewTestLeave("e1", calendar.Date(2026, time.June, 1), calendar.Date(2026, time.June, 5), domain.LeaveApproved)
	require.NoError(t, leave.ReplaceForEmployee(ctx, "e1", []domain.LeaveRequest{approved, pending, outside}))

	got, err := leave.ListApprovedInRange(ctx, "e1",
		calendar.Date(2026, time.January, 1), calendar.Date(2026, time.February, 28))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, approved.ID, got[0].ID)
	assert.Equal(t, domain.LeaveApproved, got[0].Status)
}

func TestLeaveRepo_ReplaceForEmployee_SwapsSnapshot(t *testing.T) {
	db := testutil.NewTestDB(t)
	employees := NewSQLiteEmployeeRepo(db)
	leave := NewSQLiteLeaveRepo(db)
	ctx := context.Background()

	require.NoError(t, employees.ReplaceAll(ctx, []domain.Employee{{ID: "e1", Email: "a@clearbrook.example"}}))

	old := testutil.NewTestLeave("e1", calendar.Date(2026, time.March, 2), calendar.Date(2026, time.March, 6), domain.LeaveApproved)
	require.NoError(t, leave.ReplaceForEmployee(ctx, "e1", []domain.LeaveRequest{old}))

	replacement := testutil.NewTestLeave("e1", calendar.Date(2026, time.March, 9), calendar.Date(2026, time.March, 13), domain.LeaveApproved)
	require.NoError(t, leave.ReplaceForEmployee(ctx, "e1", []domain.LeaveRequest{replacement}))

	got, err := leave.ListApprovedInRange(ctx, "e1",
		calendar.Date(2026, time.March, 1), calendar.Date(2026, time.March, 31))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, replacement.ID, got[0].ID)
}

func TestSettingsRepo_GetInt_FallbackWhenAbsent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteSettingsRepo(db)
	ctx := context.Background()

	n, err := repo.GetInt(ctx, SettingPrestartWeeks, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, repo.Set(ctx, SettingPrestartWeeks, "5"))
	n, err = repo.GetInt(ctx, SettingPrestartWeeks, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// Non-numeric values fall back rather than erroring.
	require.NoError(t, repo.Set(ctx, SettingPrestartWeeks, "soon"))
	n, err = repo.GetInt(ctx, SettingPrestartWeeks, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
