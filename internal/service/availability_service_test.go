package service

import (
	"context"
	"testing"
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/contract"
	"github.com/clearbrook/advisory/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEarliest_RowsSortedByEmail(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("zoe@clearbrook.example"))
	f.addAdviser(testutil.NewTestAdviser("amy@clearbrook.example"))

	rows, err := f.availability.Earliest(context.Background(), contract.EarliestRequest{Now: &testNow})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "amy@clearbrook.example", rows[0].Email)
	assert.Equal(t, "zoe@clearbrook.example", rows[1].Email)

	for _, row := range rows {
		assert.True(t, row.Available)
		assert.Equal(t, calendar.Date(2026, time.January, 26), row.EarliestWeekMonday)
		assert.Equal(t, "2026-W05", row.EarliestWeekLabel)
	}
}

func TestEarliest_PackageFilterApplied(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example", testutil.WithPackages("Series A")))
	f.addAdviser(testutil.NewTestAdviser("b@clearbrook.example", testutil.WithPackages("Series B")))

	rows, err := f.availability.Earliest(context.Background(),
		contract.EarliestRequest{ServicePackage: "Series B", Now: &testNow})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b@clearbrook.example", rows[0].Email)
}

func TestEarliest_UnavailableAdviserFlagged(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example", testutil.WithClientLimit(0)))

	rows, err := f.availability.Earliest(context.Background(), contract.EarliestRequest{Now: &testNow})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Available)
	assert.Empty(t, rows[0].EarliestWeekLabel)
}

func TestSchedule_FullProjectionWithEarliestFlag(t *testing.T) {
	f := newFixture(t)
	adviser := testutil.NewTestAdviser("a@clearbrook.example", testutil.WithClientLimit(8))
	f.addAdviser(adviser)
	f.addClarify(adviser.ID, calendar.Date(2026, time.January, 19))

	resp, err := f.availability.Schedule(context.Background(), contract.ScheduleRequest{
		AdviserEmail: "a@clearbrook.example",
		Now:          &testNow,
	})
	require.NoError(t, err)

	assert.Equal(t, adviser.ID, resp.Adviser.ID)
	require.Len(t, resp.Rows, 52)
	assert.Equal(t, mondayOfTestNow(), resp.Rows[0].Anchor)
	assert.Equal(t, 1, resp.Rows[1].ClarifyCount)
	assert.True(t, resp.Available)
	assert.Equal(t, calendar.Date(2026, time.January, 26), resp.EarliestWeek)
}

func TestSchedule_AdviserNotFound(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example"))

	_, err := f.availability.Schedule(context.Background(), contract.ScheduleRequest{
		AdviserEmail: "ghost@clearbrook.example",
		Now:          &testNow,
	})
	var viewErr *contract.ViewError
	require.ErrorAs(t, err, &viewErr)
	assert.Equal(t, contract.ViewErrAdviserNotFound, viewErr.Code)
}

func TestSchedule_EmailRequired(t *testing.T) {
	f := newFixture(t)

	_, err := f.availability.Schedule(context.Background(), contract.ScheduleRequest{Now: &testNow})
	var viewErr *contract.ViewError
	require.ErrorAs(t, err, &viewErr)
	assert.Equal(t, contract.ViewErrInvalidInput, viewErr.Code)
}

func TestSchedule_IncludesAdvisersNotTakingOnClients(t *testing.T) {
	// Operators inspect paused advisers too.
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("paused@clearbrook.example", testutil.WithNotTakingOnClients()))

	resp, err := f.availability.Schedule(context.Background(), contract.ScheduleRequest{
		AdviserEmail: "paused@clearbrook.example",
		Now:          &testNow,
	})
	require.NoError(t, err)
	assert.False(t, resp.Adviser.TakingOnClients)
}
