package repository

import (
	"context"
	"testing"
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationRepo_Upsert_NewRecord(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteAllocationRepo(db)
	ctx := context.Background()

	rec := testutil.NewTestAllocationRecord("deal-1", "adv-1", calendar.Date(2026, time.January, 26))
	rec.Extra = map[string]string{"source": "webhook"}

	id, err := repo.Upsert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, id)

	got, err := repo.GetByDealID(ctx, "deal-1")
	require.NoError(t, err)
	assert.Equal(t, "adv-1", got.AdviserID)
	assert.Equal(t, calendar.Date(2026, time.January, 26), got.EarliestWeekAnchor)
	assert.Equal(t, map[string]string{"source": "webhook"}, got.Extra)
}

func TestAllocationRepo_Upsert_SameDealKeepsRecordID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteAllocationRepo(db)
	ctx := context.Background()

	first := testutil.NewTestAllocationRecord("deal-1", "adv-1", calendar.Date(2026, time.January, 26))
	firstID, err := repo.Upsert(ctx, first)
	require.NoError(t, err)

	second := testutil.NewTestAllocationRecord("deal-1", "adv-2", calendar.Date(2026, time.February, 2))
	second.DecidedAt = first.DecidedAt.Add(time.Minute)
	secondID, err := repo.Upsert(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, firstID, secondID)

	got, err := repo.GetByDealID(ctx, "deal-1")
	require.NoError(t, err)
	assert.Equal(t, firstID, got.ID)
	assert.Equal(t, "adv-2", got.AdviserID)
}

func TestAllocationRepo_Upsert_StaleWriteIgnored(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteAllocationRepo(db)
	ctx := context.Background()

	current := testutil.NewTestAllocationRecord("deal-1", "adv-1", calendar.Date(2026, time.February, 2))
	_, err := repo.Upsert(ctx, current)
	require.NoError(t, err)

	stale := testutil.NewTestAllocationRecord("deal-1", "adv-2", calendar.Date(2026, time.January, 26))
	stale.DecidedAt = current.DecidedAt.Add(-time.Hour)
	_, err = repo.Upsert(ctx, stale)
	require.NoError(t, err)

	got, err := repo.GetByDealID(ctx, "deal-1")
	require.NoError(t, err)
	assert.Equal(t, "adv-1", got.AdviserID, "older decision must not overwrite newer")
}

func TestAllocationRepo_GetByDealID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteAllocationRepo(db)

	_, err := repo.GetByDealID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAllocationRepo_ListRecent_NewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteAllocationRepo(db)
	ctx := context.Background()

	older := testutil.NewTestAllocationRecord("deal-1", "adv-1", calendar.Date(2026, time.January, 26))
	older.DecidedAt = time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC)
	newer := testutil.NewTestAllocationRecord("deal-2", "adv-2", calendar.Date(2026, time.February, 2))
	newer.DecidedAt = time.Date(2026, time.January, 12, 10, 0, 0, 0, time.UTC)
	_, err := repo.Upsert(ctx, older)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, newer)
	require.NoError(t, err)

	got, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "deal-2", got[0].DealID)
	assert.Equal(t, "deal-1", got[1].DealID)
}
