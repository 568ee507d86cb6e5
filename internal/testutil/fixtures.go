package testutil

import (
	"time"

	"github.com/clearbrook/advisory/internal/domain"
	"github.com/google/uuid"
)

// Adviser options

type AdviserOption func(*domain.Adviser)

func WithClientLimit(limit int) AdviserOption {
	return func(a *domain.Adviser) {
		a.ClientLimitMonthly = limit
	}
}

func WithPackages(pkgs ...string) AdviserOption {
	return func(a *domain.Adviser) {
		a.ServicePackages = pkgs
	}
}

func WithHouseholds(hts ...string) AdviserOption {
	return func(a *domain.Adviser) {
		a.HouseholdTypes = hts
	}
}

func WithStartDate(d time.Time) AdviserOption {
	return func(a *domain.Adviser) {
		a.StartDate = &d
	}
}

func WithNotTakingOnClients() AdviserOption {
	return func(a *domain.Adviser) {
		a.TakingOnClients = false
	}
}

func NewTestAdviser(email string, opts ...AdviserOption) domain.Adviser {
	a := domain.Adviser{
		ID:                 uuid.New().String(),
		Email:              email,
		ServicePackages:    []string{"Series A"},
		HouseholdTypes:     []string{"single", "couple"},
		PodType:            domain.PodSolo,
		ClientLimitMonthly: 8,
		TakingOnClients:    true,
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Meeting / deal fixtures

func NewTestMeeting(adviserID string, kind domain.MeetingKind, start time.Time) domain.Meeting {
	return domain.Meeting{
		AdviserID: adviserID,
		Kind:      kind,
		StartDate: start,
		DealID:    uuid.New().String(),
	}
}

type DealOption func(*domain.Deal)

func WithAgreementStart(d time.Time) DealOption {
	return func(deal *domain.Deal) {
		deal.AgreementStartDate = &d
	}
}

func WithHouseholdType(ht string) DealOption {
	return func(deal *domain.Deal) {
		deal.HouseholdType = ht
	}
}

func NewTestDeal(pkg string, opts ...DealOption) domain.Deal {
	d := domain.Deal{
		ID:             uuid.New().String(),
		ServicePackage: pkg,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Closure options

type ClosureOption func(*domain.OfficeClosure)

func WithClosureScope(email string) ClosureOption {
	return func(c *domain.OfficeClosure) {
		c.Scope = domain.ScopeAdviser
		c.AdviserEmail = email
	}
}

func WithTags(tags ...string) ClosureOption {
	return func(c *domain.OfficeClosure) {
		c.Tags = tags
	}
}

func NewTestClosure(start, end time.Time, opts ...ClosureOption) *domain.OfficeClosure {
	c := &domain.OfficeClosure{
		ID:          uuid.New().String(),
		StartDate:   start,
		EndDate:     end,
		Description: "office closed",
		Scope:       domain.ScopeGlobal,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Override fixture

func NewTestOverride(email string, effective time.Time, limit int) *domain.CapacityOverride {
	return &domain.CapacityOverride{
		ID:                 uuid.New().String(),
		AdviserEmail:       email,
		EffectiveDate:      effective,
		ClientLimitMonthly: limit,
	}
}

// Leave fixture

func NewTestLeave(employeeID string, start, end time.Time, status domain.LeaveStatus) domain.LeaveRequest {
	return domain.LeaveRequest{
		ID:         uuid.New().String(),
		EmployeeID: employeeID,
		StartDate:  start,
		EndDate:    end,
		Status:     status,
	}
}

// Allocation record fixture

func NewTestAllocationRecord(dealID, adviserID string, week time.Time) *domain.AllocationRecord {
	return &domain.AllocationRecord{
		ID:                 uuid.New().String(),
		DealID:             dealID,
		AdviserID:          adviserID,
		AdviserEmail:       "adviser@example.com",
		ServicePackage:     "Series A",
		EarliestWeekAnchor: week,
		DecidedAt:          time.Now().UTC(),
	}
}
