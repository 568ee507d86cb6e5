// Package selector searches an adviser's capacity rows for the earliest
// future week with room for a new client: past the lead-time buffer, past a
// future starter's prestart window, inside the horizon, and only once the
// fortnight-paced backlog has fully drained.
package selector

import (
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/capacity"
	"github.com/clearbrook/advisory/internal/domain"
)

// BufferWeeks is the minimum lead time between now and any selectable week.
const BufferWeeks = 2

// Input carries one adviser's projection and the selection context.
type Input struct {
	// Rows must start at the projection baseline and be week-ascending;
	// fortnight blocks are aligned to the first row.
	Rows []capacity.Row
	// Now is the current civil date.
	Now time.Time
	// AdviserStart is the adviser's start date, when they have one.
	AdviserStart  *time.Time
	PrestartWeeks int
	HorizonWeeks  int
}

// EarliestWeek returns the Monday of the first selectable week, or false
// when nothing inside the horizon qualifies. Within a block the lower
// Monday ordinal wins.
func EarliestWeek(in Input) (time.Time, bool) {
	horizonWeeks := in.HorizonWeeks
	if horizonWeeks <= 0 {
		horizonWeeks = capacity.DefaultHorizonWeeks
	}

	nowMonday := calendar.MondayOf(in.Now)
	firstCandidate := calendar.AddWeeks(nowMonday, BufferWeeks)
	if in.AdviserStart != nil {
		eligibleFrom := calendar.AddWeeks(calendar.MondayOf(*in.AdviserStart), -in.PrestartWeeks)
		if eligibleFrom.After(firstCandidate) {
			firstCandidate = eligibleFrom
		}
	}
	horizonEnd := calendar.AddWeeks(nowMonday, horizonWeeks)

	for i := 0; i+1 < len(in.Rows); i += 2 {
		block := [2]capacity.Row{in.Rows[i], in.Rows[i+1]}
		for _, row := range block {
			if row.Anchor.Before(firstCandidate) {
				continue
			}
			if row.Anchor.After(horizonEnd) {
				return time.Time{}, false
			}
			if row.OOO.Kind == domain.OOOFull {
				continue
			}
			if row.BacklogAfter != 0 {
				continue
			}
			if row.Actual < row.Target {
				return row.Anchor, true
			}
		}
	}
	return time.Time{}, false
}
