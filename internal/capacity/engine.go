// Package capacity projects an adviser's weekly occupancy and target over a
// horizon. Meetings, leave, closures, and capacity overrides fold into one
// row per week; a fortnight-paced pass then drains the backlog of deals
// still waiting for their first Clarify meeting.
package capacity

import (
	"sort"
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/domain"
)

// Build computes the ordered week rows for one adviser starting at
// params.Baseline. Rows are emitted in strict week-ascending order.
func Build(inputs Inputs, params Params) []Row {
	weeks := params.HorizonWeeks
	if weeks <= 0 {
		weeks = DefaultHorizonWeeks
	}
	if weeks%2 != 0 {
		weeks++
	}

	rows := make([]Row, weeks)
	for i := range rows {
		anchor := calendar.AddWeeks(params.Baseline, i)
		ooo := oooForWeek(anchor, inputs.Leave, inputs.Closures, inputs.Adviser.Email)
		rows[i] = Row{
			Anchor:             anchor,
			Label:              calendar.ISOWeekLabel(anchor),
			ClarifyCount:       countMeetings(inputs.Meetings, domain.MeetingClarify, anchor),
			KickoffCount:       countMeetings(inputs.Meetings, domain.MeetingKickOff, anchor),
			DealNoClarifyCount: countDealsStarting(inputs.OpenDeals, anchor),
			OOO:                ooo,
			Target:             weekTarget(inputs, params, anchor, ooo),
		}
	}

	drainBacklog(rows, initialBacklog(inputs.OpenDeals, params.Baseline))

	for i := range rows {
		rows[i].Actual += rows[i].ClarifyCount
		rows[i].Difference = rows[i].Actual - rows[i].Target
	}
	return rows
}

// initialBacklog counts open deals already queued before the baseline.
// Deals with no agreement start date have been waiting indefinitely and
// count as pre-existing queue.
func initialBacklog(deals []domain.Deal, baseline time.Time) int {
	count := 0
	for _, d := range deals {
		if d.AgreementStartDate == nil || d.AgreementStartDate.Before(baseline) {
			count++
		}
	}
	return count
}

// drainBacklog walks fortnight blocks in order, adds each block's new deal
// arrivals, and consumes backlog against the block's spare capacity. The
// drained amount lands in Actual: first up to the first week's target, the
// remainder in the second week. Backlog is never double-counted across
// blocks.
func drainBacklog(rows []Row, backlog int) {
	for i := 0; i+1 < len(rows); i += 2 {
		w0, w1 := &rows[i], &rows[i+1]

		backlog += w0.DealNoClarifyCount + w1.DealNoClarifyCount

		fortnightTarget := w0.Target + w1.Target
		fortnightClarifies := w0.ClarifyCount + w1.ClarifyCount
		spare := fortnightTarget - fortnightClarifies
		if spare < 0 {
			spare = 0
		}

		drained := min(backlog, spare)
		backlog -= drained

		carry0 := min(drained, w0.Target)
		w0.Actual = carry0
		w1.Actual = drained - carry0

		w0.BacklogAfter = backlog
		w1.BacklogAfter = backlog
	}
}

// weekTarget computes the weekly capacity target for anchor. The monthly
// client limit halves into a fortnight target and halves again into the
// weekly base; OOO and the prestart window then reduce it.
func weekTarget(inputs Inputs, params Params, anchor time.Time, ooo OOOState) int {
	limit := effectiveLimit(inputs, anchor)
	perFortnight := ceilDiv(limit, 2)
	base := ceilDiv(perFortnight, 2)

	if start := inputs.Adviser.StartDate; start != nil {
		eligibleFrom := calendar.AddWeeks(calendar.MondayOf(*start), -params.PrestartWeeks)
		if anchor.Before(eligibleFrom) {
			return 0
		}
	}

	switch ooo.Kind {
	case domain.OOOFull:
		return 0
	case domain.OOOPartial:
		return ceilDiv(base*(5-ooo.Days), 5)
	default:
		return base
	}
}

// effectiveLimit resolves the monthly client limit for a week: the override
// with the greatest effective date not after the week anchor wins, falling
// back to the profile limit.
func effectiveLimit(inputs Inputs, anchor time.Time) int {
	limit := inputs.Adviser.ClientLimitMonthly
	if limit < 0 {
		limit = 0
	}
	overrides := append([]domain.CapacityOverride(nil), inputs.Overrides...)
	sort.Slice(overrides, func(i, j int) bool {
		return overrides[i].EffectiveDate.Before(overrides[j].EffectiveDate)
	})
	for _, o := range overrides {
		if !o.EffectiveDate.After(anchor) {
			limit = o.ClientLimitMonthly
		}
	}
	return limit
}

// oooForWeek unions leave and closures over the week's business days.
func oooForWeek(anchor time.Time, leave []domain.LeaveRequest, closures []domain.OfficeClosure, adviserEmail string) OOOState {
	days := 0
	for offset := 0; offset < 5; offset++ {
		day := anchor.AddDate(0, 0, offset)
		if dayCovered(day, leave, closures, adviserEmail) {
			days++
		}
	}
	switch {
	case days == 0:
		return OOOState{Kind: domain.OOONone}
	case days >= 5:
		return OOOState{Kind: domain.OOOFull, Days: 5}
	default:
		return OOOState{Kind: domain.OOOPartial, Days: days}
	}
}

func dayCovered(day time.Time, leave []domain.LeaveRequest, closures []domain.OfficeClosure, adviserEmail string) bool {
	for _, l := range leave {
		if l.Approved() && inRange(day, l.StartDate, l.EndDate) {
			return true
		}
	}
	for _, c := range closures {
		if c.AppliesTo(adviserEmail) && inRange(day, c.StartDate, c.EndDate) {
			return true
		}
	}
	return false
}

func inRange(day, start, end time.Time) bool {
	return !day.Before(start) && !day.After(end)
}

func countMeetings(meetings []domain.Meeting, kind domain.MeetingKind, anchor time.Time) int {
	count := 0
	for _, m := range meetings {
		if m.Kind == kind && calendar.MondayOf(m.StartDate).Equal(anchor) {
			count++
		}
	}
	return count
}

func countDealsStarting(deals []domain.Deal, anchor time.Time) int {
	count := 0
	for _, d := range deals {
		if d.AgreementStartDate != nil && calendar.MondayOf(*d.AgreementStartDate).Equal(anchor) {
			count++
		}
	}
	return count
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
