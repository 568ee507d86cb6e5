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

func TestClosureRepo_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteClosureRepo(db)
	ctx := context.Background()

	c := testutil.NewTestClosure(
		calendar.Date(2026, time.January, 26),
		calendar.Date(2026, time.January, 30),
		testutil.WithTags("public-holiday", "annual"),
	)
	require.NoError(t, repo.Create(ctx, c))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.StartDate, got.StartDate)
	assert.Equal(t, c.EndDate, got.EndDate)
	assert.Equal(t, "office closed", got.Description)
	assert.Equal(t, []string{"public-holiday", "annual"}, got.Tags)
	assert.Equal(t, domain.ScopeGlobal, got.Scope)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestClosureRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteClosureRepo(db)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClosureRepo_ListGlobalInRange_OverlapSemantics(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteClosureRepo(db)
	ctx := context.Background()

	inside := testutil.NewTestClosure(calendar.Date(2026, time.February, 2), calendar.Date(2026, time.February, 3))
	straddling := testutil.NewTestClosure(calendar.Date(2026, time.January, 28), calendar.Date(2026, time.February, 2))
	before := testutil.NewTestClosure(calendar.Date(2026, time.January, 5), calendar.Date(2026, time.January, 9))
	adviserScoped := testutil.NewTestClosure(
		calendar.Date(2026, time.February, 2), calendar.Date(2026, time.February, 6),
		testutil.WithClosureScope("a@clearbrook.example"))
	for _, c := range []*domain.OfficeClosure{inside, straddling, before, adviserScoped} {
		require.NoError(t, repo.Create(ctx, c))
	}

	got, err := repo.ListGlobalInRange(ctx, calendar.Date(2026, time.February, 1), calendar.Date(2026, time.February, 28))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, straddling.ID, got[0].ID)
	assert.Equal(t, inside.ID, got[1].ID)
}

func TestClosureRepo_ListForAdviserInRange(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteClosureRepo(db)
	ctx := context.Background()

	mine := testutil.NewTestClosure(
		calendar.Date(2026, time.March, 2), calendar.Date(2026, time.March, 6),
		testutil.WithClosureScope("a@clearbrook.example"))
	other := testutil.NewTestClosure(
		calendar.Date(2026, time.March, 2), calendar.Date(2026, time.March, 6),
		testutil.WithClosureScope("b@clearbrook.example"))
	global := testutil.NewTestClosure(calendar.Date(2026, time.March, 2), calendar.Date(2026, time.March, 6))
	for _, c := range []*domain.OfficeClosure{mine, other, global} {
		require.NoError(t, repo.Create(ctx, c))
	}

	got, err := repo.ListForAdviserInRange(ctx, "a@clearbrook.example",
		calendar.Date(2026, time.March, 1), calendar.Date(2026, time.March, 31))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)
}

func TestClosureRepo_UpdateAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteClosureRepo(db)
	ctx := context.Background()

	c := testutil.NewTestClosure(calendar.Date(2026, time.April, 6), calendar.Date(2026, time.April, 10))
	require.NoError(t, repo.Create(ctx, c))

	c.Description = "easter shutdown"
	c.EndDate = calendar.Date(2026, time.April, 13)
	require.NoError(t, repo.Update(ctx, c))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "easter shutdown", got.Description)
	assert.Equal(t, calendar.Date(2026, time.April, 13), got.EndDate)

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err = repo.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClosureRepo_UpdateMissing_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteClosureRepo(db)

	c := testutil.NewTestClosure(calendar.Date(2026, time.April, 6), calendar.Date(2026, time.April, 10))
	err := repo.Update(context.Background(), c)
	assert.ErrorIs(t, err, ErrNotFound)
}
