package store

import (
	"context"
	"testing"
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/crm"
	"github.com/clearbrook/advisory/internal/domain"
	"github.com/clearbrook/advisory/internal/repository"
	"github.com/clearbrook/advisory/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCRM serves canned data and counts calls.
type fakeCRM struct {
	advisers     []domain.Adviser
	adviserCalls int
	dealErr      error
	deal         *domain.Deal
}

func (f *fakeCRM) GetDeal(ctx context.Context, dealID string) (*domain.Deal, error) {
	if f.dealErr != nil {
		return nil, f.dealErr
	}
	return f.deal, nil
}

func (f *fakeCRM) ListAdvisers(ctx context.Context) ([]domain.Adviser, error) {
	f.adviserCalls++
	return f.advisers, nil
}

func (f *fakeCRM) ListMeetings(ctx context.Context, adviserID string, from, to time.Time) ([]domain.Meeting, error) {
	return nil, nil
}

func (f *fakeCRM) ListDealsWithoutFirstMeeting(ctx context.Context, adviserID string, before time.Time) ([]domain.Deal, error) {
	return nil, nil
}

func (f *fakeCRM) SetDealOwner(ctx context.Context, dealID, adviserID string) error {
	return nil
}

func newTestStore(t *testing.T, crmClient crm.Client) *Store {
	t.Helper()
	db := testutil.NewTestDB(t)
	return New(
		crmClient,
		repository.NewSQLiteClosureRepo(db),
		repository.NewSQLiteOverrideRepo(db),
		repository.NewSQLiteAllocationRepo(db),
		repository.NewSQLiteEmployeeRepo(db),
		repository.NewSQLiteLeaveRepo(db),
		repository.NewSQLiteSettingsRepo(db),
	)
}

func TestListAdvisers_FiltersAndCaches(t *testing.T) {
	fake := &fakeCRM{advisers: []domain.Adviser{
		testutil.NewTestAdviser("a@clearbrook.example", testutil.WithPackages("Series A")),
		testutil.NewTestAdviser("b@clearbrook.example", testutil.WithPackages("Series B")),
		testutil.NewTestAdviser("c@clearbrook.example", testutil.WithPackages("Series A"), testutil.WithNotTakingOnClients()),
	}}
	s := newTestStore(t, fake)
	ctx := context.Background()

	got, err := s.ListAdvisers(ctx, AdviserFilter{ServicePackage: "Series A"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a@clearbrook.example", got[0].Email)

	// Second read with a different filter hits the cache.
	got, err = s.ListAdvisers(ctx, AdviserFilter{ServicePackage: "Series A", IncludeNotTaking: true})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, fake.adviserCalls)

	s.InvalidateAdvisers()
	_, err = s.ListAdvisers(ctx, AdviserFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.adviserCalls)
}

func TestListAdvisers_HouseholdFilter(t *testing.T) {
	fake := &fakeCRM{advisers: []domain.Adviser{
		testutil.NewTestAdviser("a@clearbrook.example", testutil.WithHouseholds("single")),
		testutil.NewTestAdviser("b@clearbrook.example", testutil.WithHouseholds("couple")),
	}}
	s := newTestStore(t, fake)

	got, err := s.ListAdvisers(context.Background(), AdviserFilter{HouseholdType: "couple"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b@clearbrook.example", got[0].Email)
}

func TestGetDeal_MapsCRMNotFound(t *testing.T) {
	fake := &fakeCRM{dealErr: crm.ErrNotFound}
	s := newTestStore(t, fake)

	_, err := s.GetDeal(context.Background(), "missing")
	f := AsFailure(err)
	assert.Equal(t, KindNotFound, f.Kind)
	assert.False(t, f.Retryable())
}

func TestGetDeal_MapsTransientToUnavailable(t *testing.T) {
	fake := &fakeCRM{dealErr: crm.ErrTransient}
	s := newTestStore(t, fake)

	_, err := s.GetDeal(context.Background(), "deal-1")
	f := AsFailure(err)
	assert.Equal(t, KindUnavailable, f.Kind)
	assert.True(t, f.Retryable())
}

func TestGetActiveCapacityOverride_NoneIsNilNotFailure(t *testing.T) {
	s := newTestStore(t, &fakeCRM{})

	override, err := s.GetActiveCapacityOverride(context.Background(),
		"a@clearbrook.example", calendar.Date(2026, time.January, 12))
	require.NoError(t, err)
	assert.Nil(t, override)
}

func TestGetLeaveForAdviser_UnknownAdviserIsEmpty(t *testing.T) {
	s := newTestStore(t, &fakeCRM{})

	leave, err := s.GetLeaveForAdviser(context.Background(), "ghost@clearbrook.example",
		calendar.Date(2026, time.January, 12), calendar.Date(2027, time.January, 11))
	require.NoError(t, err)
	assert.Empty(t, leave)
}

func TestGlobalClosures_CachedUntilInvalidated(t *testing.T) {
	db := testutil.NewTestDB(t)
	closureRepo := repository.NewSQLiteClosureRepo(db)
	s := New(&fakeCRM{}, closureRepo,
		repository.NewSQLiteOverrideRepo(db),
		repository.NewSQLiteAllocationRepo(db),
		repository.NewSQLiteEmployeeRepo(db),
		repository.NewSQLiteLeaveRepo(db),
		repository.NewSQLiteSettingsRepo(db),
	)
	ctx := context.Background()
	from := calendar.Date(2026, time.January, 12)
	to := calendar.Date(2026, time.December, 28)

	got, err := s.GetGlobalClosures(ctx, from, to)
	require.NoError(t, err)
	assert.Empty(t, got)

	// A write behind the cache is invisible until invalidation.
	c := testutil.NewTestClosure(calendar.Date(2026, time.January, 26), calendar.Date(2026, time.January, 30))
	require.NoError(t, closureRepo.Create(ctx, c))

	got, err = s.GetGlobalClosures(ctx, from, to)
	require.NoError(t, err)
	assert.Empty(t, got)

	s.InvalidateClosures()
	got, err = s.GetGlobalClosures(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, c.ID, got[0].ID)
}

func TestPrestartWeeks_Default(t *testing.T) {
	s := newTestStore(t, &fakeCRM{})
	n, err := s.PrestartWeeks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
