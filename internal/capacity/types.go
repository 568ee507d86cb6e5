package capacity

import (
	"time"

	"github.com/clearbrook/advisory/internal/domain"
)

// OOOState is a week's out-of-office coverage: the union of approved leave,
// global closures, and adviser-scoped closures, clipped to the week's five
// business days.
type OOOState struct {
	Kind domain.OOOKind
	// Days is the count of covered business days (1-4 for partial, 5 for
	// full, 0 for none).
	Days int
}

// Row is one week of an adviser's projected capacity.
type Row struct {
	Anchor time.Time
	Label  string

	ClarifyCount       int
	KickoffCount       int
	DealNoClarifyCount int

	OOO        OOOState
	Target     int
	Actual     int
	Difference int

	// BacklogAfter is the backlog remaining once the fortnight block
	// containing this week has consumed its spare capacity. Both weeks of
	// a block report the same value.
	BacklogAfter int
}

// Params fixes the projection geometry.
type Params struct {
	// Baseline is the Monday the projection starts at.
	Baseline time.Time
	// HorizonWeeks is the projection length; Build rounds an odd count up
	// to the next even count so fortnight blocks tile it exactly.
	HorizonWeeks int
	// PrestartWeeks is how many weeks before their start date a future
	// starter becomes selectable.
	PrestartWeeks int
}

// DefaultHorizonWeeks is the standard projection length.
const DefaultHorizonWeeks = 52

// lookbackWeeks of meetings fetched before the baseline for display parity.
const lookbackWeeks = 8

// Inputs is everything the engine consumes for one adviser, already
// fetched. The engine itself performs no I/O.
type Inputs struct {
	Adviser   domain.Adviser
	Meetings  []domain.Meeting
	OpenDeals []domain.Deal
	Leave     []domain.LeaveRequest
	Closures  []domain.OfficeClosure
	// Overrides are all of the adviser's capacity overrides, any order.
	Overrides []domain.CapacityOverride
}
