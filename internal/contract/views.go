package contract

import (
	"fmt"
	"time"

	"github.com/clearbrook/advisory/internal/capacity"
	"github.com/clearbrook/advisory/internal/domain"
)

// EarliestRow is one adviser's line in the availability overview.
type EarliestRow struct {
	AdviserID          string
	Email              string
	ServicePackages    []string
	HouseholdTypes     []string
	PodType            domain.PodType
	ClientLimitMonthly int
	// Available is false when no week inside the horizon qualifies; the
	// week fields are zero then.
	Available          bool
	EarliestWeekMonday time.Time
	EarliestWeekLabel  string
}

// EarliestRequest filters the availability overview.
type EarliestRequest struct {
	ServicePackage string
	HouseholdType  string
	Now            *time.Time
	HorizonWeeks   int
}

// ScheduleRequest asks for one adviser's full capacity projection.
type ScheduleRequest struct {
	AdviserEmail string
	Now          *time.Time
	HorizonWeeks int
}

// ScheduleResponse is the ordered projection with the earliest selectable
// week flagged.
type ScheduleResponse struct {
	Adviser      domain.Adviser
	Rows         []capacity.Row
	Available    bool
	EarliestWeek time.Time
}

type ViewErrorCode string

const (
	ViewErrAdviserNotFound ViewErrorCode = "ADVISER_NOT_FOUND"
	ViewErrInvalidInput    ViewErrorCode = "INVALID_INPUT"
	ViewErrUnavailable     ViewErrorCode = "UNAVAILABLE"
)

// ViewError is the typed failure of a read view.
type ViewError struct {
	Code    ViewErrorCode
	Message string
}

func (e *ViewError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
