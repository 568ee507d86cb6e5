package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/capacity"
	"github.com/clearbrook/advisory/internal/crm"
	"github.com/clearbrook/advisory/internal/domain"
	"github.com/clearbrook/advisory/internal/notify"
	"github.com/clearbrook/advisory/internal/repository"
	"github.com/clearbrook/advisory/internal/store"
	"github.com/clearbrook/advisory/internal/testutil"
)

// testNow is the fixed decision instant used across scenarios: Monday
// 2026-01-12, week 2026-W03.
var testNow = time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC)

// fakeCRM is an in-memory CRM with injectable failures.
type fakeCRM struct {
	mu        sync.Mutex
	advisers  []domain.Adviser
	meetings  map[string][]domain.Meeting
	openDeals map[string][]domain.Deal
	deals     map[string]domain.Deal

	setOwnerErr error
	ownerByDeal map[string]string
	ownerCalls  int
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		meetings:    map[string][]domain.Meeting{},
		openDeals:   map[string][]domain.Deal{},
		deals:       map[string]domain.Deal{},
		ownerByDeal: map[string]string{},
	}
}

func (f *fakeCRM) GetDeal(ctx context.Context, dealID string) (*domain.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deal, ok := f.deals[dealID]
	if !ok {
		return nil, crmNotFound()
	}
	return &deal, nil
}

func (f *fakeCRM) ListAdvisers(ctx context.Context) ([]domain.Adviser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Adviser(nil), f.advisers...), nil
}

func (f *fakeCRM) ListMeetings(ctx context.Context, adviserID string, from, to time.Time) ([]domain.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Meeting(nil), f.meetings[adviserID]...), nil
}

func (f *fakeCRM) ListDealsWithoutFirstMeeting(ctx context.Context, adviserID string, before time.Time) ([]domain.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Deal(nil), f.openDeals[adviserID]...), nil
}

func (f *fakeCRM) SetDealOwner(ctx context.Context, dealID, adviserID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ownerCalls++
	if f.setOwnerErr != nil {
		return f.setOwnerErr
	}
	f.ownerByDeal[dealID] = adviserID
	return nil
}

// recordingNotifier captures payloads and can fail on demand.
type recordingNotifier struct {
	mu       sync.Mutex
	payloads []notify.Allocation
	err      error
}

func (n *recordingNotifier) NotifyAllocation(ctx context.Context, a notify.Allocation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.payloads = append(n.payloads, a)
	return nil
}

// fixture wires a full service stack over an in-memory store.
type fixture struct {
	crm      *fakeCRM
	store    *store.Store
	engine   *capacity.Engine
	notifier *recordingNotifier

	closures  repository.ClosureRepo
	overrides repository.OverrideRepo
	records   repository.AllocationRepo

	allocation   AllocationService
	availability AvailabilityService
	admin        AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	crmClient := newFakeCRM()

	closures := repository.NewSQLiteClosureRepo(database)
	overrides := repository.NewSQLiteOverrideRepo(database)
	records := repository.NewSQLiteAllocationRepo(database)

	s := store.New(
		crmClient,
		closures,
		overrides,
		records,
		repository.NewSQLiteEmployeeRepo(database),
		repository.NewSQLiteLeaveRepo(database),
		repository.NewSQLiteSettingsRepo(database),
	)
	engine := capacity.NewEngine(s)
	notifier := &recordingNotifier{}

	return &fixture{
		crm:          crmClient,
		store:        s,
		engine:       engine,
		notifier:     notifier,
		closures:     closures,
		overrides:    overrides,
		records:      records,
		allocation:   NewAllocationService(s, engine, notifier, nil, nil, time.UTC),
		availability: NewAvailabilityService(s, engine, nil, time.UTC),
		admin:        NewAdminService(closures, overrides, s, nil),
	}
}

func (f *fixture) addAdviser(a domain.Adviser) {
	f.crm.advisers = append(f.crm.advisers, a)
}

func (f *fixture) addDeal(d domain.Deal) {
	f.crm.deals[d.ID] = d
}

func (f *fixture) addClarify(adviserID string, day time.Time) {
	f.crm.meetings[adviserID] = append(f.crm.meetings[adviserID],
		testutil.NewTestMeeting(adviserID, domain.MeetingClarify, day))
}

func crmNotFound() error {
	return crm.ErrNotFound
}

func mondayOfTestNow() time.Time {
	return calendar.MondayOf(calendar.CivilDate(testNow, time.UTC))
}
