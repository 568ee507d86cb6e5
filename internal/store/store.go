// Package store is the typed gateway the engine reads through. It folds the
// CRM client, the SQLite repositories, and short-lived caches into the one
// contract the capacity engine and allocator consume, and normalises every
// failure into a Failure kind.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/clearbrook/advisory/internal/crm"
	"github.com/clearbrook/advisory/internal/domain"
	"github.com/clearbrook/advisory/internal/repository"
)

// AdviserFilter narrows ListAdvisers. Zero values mean "no constraint";
// advisers not taking on clients are excluded unless IncludeNotTaking.
type AdviserFilter struct {
	ServicePackage   string
	HouseholdType    string
	IncludeNotTaking bool
}

// Store is the engine's read/write gateway.
type Store struct {
	crm       crm.Client
	closures  repository.ClosureRepo
	overrides repository.OverrideRepo
	records   repository.AllocationRepo
	employees repository.EmployeeRepo
	leave     repository.LeaveRepo
	settings  repository.SettingsRepo

	// cache holds CRM adviser lists and closure range reads. Entries
	// expire within five minutes; admin writes purge them eagerly.
	cache *gocache.Cache
}

const (
	cacheTTL         = 5 * time.Minute
	cacheKeyAdvisers = "advisers"
	defaultPrestart  = 3
)

func New(
	crmClient crm.Client,
	closures repository.ClosureRepo,
	overrides repository.OverrideRepo,
	records repository.AllocationRepo,
	employees repository.EmployeeRepo,
	leave repository.LeaveRepo,
	settings repository.SettingsRepo,
) *Store {
	return &Store{
		crm:       crmClient,
		closures:  closures,
		overrides: overrides,
		records:   records,
		employees: employees,
		leave:     leave,
		settings:  settings,
		cache:     gocache.New(cacheTTL, 10*time.Minute),
	}
}

// ListAdvisers returns CRM advisers matching the filter. The unfiltered CRM
// snapshot is cached; filtering happens per call.
func (s *Store) ListAdvisers(ctx context.Context, filter AdviserFilter) ([]domain.Adviser, error) {
	var all []domain.Adviser
	if cached, ok := s.cache.Get(cacheKeyAdvisers); ok {
		all = cached.([]domain.Adviser)
	} else {
		fetched, err := s.crm.ListAdvisers(ctx)
		if err != nil {
			return nil, s.crmFailure("list_advisers", err)
		}
		s.cache.Set(cacheKeyAdvisers, fetched, cacheTTL)
		all = fetched
	}

	matched := make([]domain.Adviser, 0, len(all))
	for _, a := range all {
		if !filter.IncludeNotTaking && !a.TakingOnClients {
			continue
		}
		if filter.ServicePackage != "" && !a.SupportsPackage(filter.ServicePackage) {
			continue
		}
		if !a.SupportsHousehold(filter.HouseholdType) {
			continue
		}
		matched = append(matched, a)
	}
	return matched, nil
}

// GetMeetings returns the adviser's meetings in [fromMonday, toMonday).
func (s *Store) GetMeetings(ctx context.Context, adviserID string, fromMonday, toMonday time.Time) ([]domain.Meeting, error) {
	meetings, err := s.crm.ListMeetings(ctx, adviserID, fromMonday, toMonday)
	if err != nil {
		return nil, s.crmFailure("get_meetings", err)
	}
	return meetings, nil
}

// GetDealsWithoutClarify returns the adviser's open deals awaiting their
// first Clarify meeting.
func (s *Store) GetDealsWithoutClarify(ctx context.Context, adviserID string, beforeMonday time.Time) ([]domain.Deal, error) {
	deals, err := s.crm.ListDealsWithoutFirstMeeting(ctx, adviserID, beforeMonday)
	if err != nil {
		return nil, s.crmFailure("get_deals_without_clarify", err)
	}
	return deals, nil
}

// GetDeal fetches one deal; a missing deal is a NotFound failure.
func (s *Store) GetDeal(ctx context.Context, dealID string) (*domain.Deal, error) {
	deal, err := s.crm.GetDeal(ctx, dealID)
	if err != nil {
		return nil, s.crmFailure("get_deal", err)
	}
	return deal, nil
}

// SetDealOwner writes the deal's new owner through to the CRM.
func (s *Store) SetDealOwner(ctx context.Context, dealID, adviserID string) error {
	if err := s.crm.SetDealOwner(ctx, dealID, adviserID); err != nil {
		return s.crmFailure("set_deal_owner", err)
	}
	return nil
}

// GetLeaveRequests returns cached approved leave for one employee
// overlapping [from, to].
func (s *Store) GetLeaveRequests(ctx context.Context, employeeID string, from, to time.Time) ([]domain.LeaveRequest, error) {
	requests, err := s.leave.ListApprovedInRange(ctx, employeeID, from, to)
	if err != nil {
		return nil, newFailure(KindUnavailable, "get_leave_requests", err)
	}
	return derefLeave(requests), nil
}

// GetLeaveForAdviser resolves the adviser's email to an employee and
// returns their approved leave. An adviser absent from the HR directory
// simply has no leave.
func (s *Store) GetLeaveForAdviser(ctx context.Context, adviserEmail string, from, to time.Time) ([]domain.LeaveRequest, error) {
	employee, err := s.employees.GetByEmail(ctx, adviserEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, newFailure(KindUnavailable, "get_leave_for_adviser", err)
	}
	return s.GetLeaveRequests(ctx, employee.ID, from, to)
}

// GetGlobalClosures returns office-wide closures overlapping [from, to].
func (s *Store) GetGlobalClosures(ctx context.Context, from, to time.Time) ([]domain.OfficeClosure, error) {
	key := closureCacheKey("global", "", from, to)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.OfficeClosure), nil
	}
	closures, err := s.closures.ListGlobalInRange(ctx, from, to)
	if err != nil {
		return nil, newFailure(KindUnavailable, "get_global_closures", err)
	}
	result := derefClosures(closures)
	s.cache.Set(key, result, cacheTTL)
	return result, nil
}

// GetAdviserClosures returns adviser-scoped closures overlapping [from, to].
func (s *Store) GetAdviserClosures(ctx context.Context, adviserEmail string, from, to time.Time) ([]domain.OfficeClosure, error) {
	key := closureCacheKey("adviser", adviserEmail, from, to)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.OfficeClosure), nil
	}
	closures, err := s.closures.ListForAdviserInRange(ctx, adviserEmail, from, to)
	if err != nil {
		return nil, newFailure(KindUnavailable, "get_adviser_closures", err)
	}
	result := derefClosures(closures)
	s.cache.Set(key, result, cacheTTL)
	return result, nil
}

// GetActiveCapacityOverride returns the override in force for the adviser
// as of the given date, or nil when none applies.
func (s *Store) GetActiveCapacityOverride(ctx context.Context, adviserEmail string, asOf time.Time) (*domain.CapacityOverride, error) {
	override, err := s.overrides.ActiveAsOf(ctx, adviserEmail, asOf)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, newFailure(KindUnavailable, "get_active_capacity_override", err)
	}
	return override, nil
}

// ListCapacityOverrides returns all of an adviser's overrides, ordered by
// effective date. The capacity engine resolves the per-week winner itself.
func (s *Store) ListCapacityOverrides(ctx context.Context, adviserEmail string) ([]domain.CapacityOverride, error) {
	overrides, err := s.overrides.ListForAdviser(ctx, adviserEmail)
	if err != nil {
		return nil, newFailure(KindUnavailable, "list_capacity_overrides", err)
	}
	out := make([]domain.CapacityOverride, 0, len(overrides))
	for _, o := range overrides {
		out = append(out, *o)
	}
	return out, nil
}

// PutAllocationRecord writes the allocation record, idempotent per deal.
func (s *Store) PutAllocationRecord(ctx context.Context, rec *domain.AllocationRecord) (string, error) {
	id, err := s.records.Upsert(ctx, rec)
	if err != nil {
		return "", newFailure(KindUnavailable, "put_allocation_record", err)
	}
	return id, nil
}

// GetAllocationRecord returns the record for a deal, or nil when none exists.
func (s *Store) GetAllocationRecord(ctx context.Context, dealID string) (*domain.AllocationRecord, error) {
	rec, err := s.records.GetByDealID(ctx, dealID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, newFailure(KindUnavailable, "get_allocation_record", err)
	}
	return rec, nil
}

// PrestartWeeks reads the prestart window setting (default 3).
func (s *Store) PrestartWeeks(ctx context.Context) (int, error) {
	n, err := s.settings.GetInt(ctx, repository.SettingPrestartWeeks, defaultPrestart)
	if err != nil {
		return 0, newFailure(KindUnavailable, "prestart_weeks", err)
	}
	if n < 0 {
		n = defaultPrestart
	}
	return n, nil
}

// InvalidateClosures drops cached closure reads. Called by the admin
// service after any closure write so engine reads see it immediately.
func (s *Store) InvalidateClosures() {
	for key := range s.cache.Items() {
		if len(key) > 8 && key[:8] == "closure|" {
			s.cache.Delete(key)
		}
	}
}

// InvalidateAdvisers drops the cached CRM adviser snapshot.
func (s *Store) InvalidateAdvisers() {
	s.cache.Delete(cacheKeyAdvisers)
}

func (s *Store) crmFailure(op string, err error) *Failure {
	switch {
	case errors.Is(err, crm.ErrNotFound):
		return newFailure(KindNotFound, op, err)
	case errors.Is(err, crm.ErrPermanent):
		return newFailure(KindPermissionDenied, op, err)
	default:
		return newFailure(KindUnavailable, op, err)
	}
}

func closureCacheKey(scope, email string, from, to time.Time) string {
	return fmt.Sprintf("closure|%s|%s|%s|%s", scope, email,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func derefClosures(in []*domain.OfficeClosure) []domain.OfficeClosure {
	out := make([]domain.OfficeClosure, 0, len(in))
	for _, c := range in {
		out = append(out, *c)
	}
	return out
}

func derefLeave(in []*domain.LeaveRequest) []domain.LeaveRequest {
	out := make([]domain.LeaveRequest, 0, len(in))
	for _, l := range in {
		out = append(out, *l)
	}
	return out
}
