package capacity

import (
	"context"
	"fmt"
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/domain"
	"github.com/clearbrook/advisory/internal/store"
)

// Engine fetches one adviser's load and unavailability through the store
// and projects it into week rows. Each Project call takes its own read
// view; Engine itself holds no mutable state and is safe for concurrent
// use.
type Engine struct {
	store *store.Store
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Project builds the adviser's capacity rows starting at baseline (a
// Monday) over horizonWeeks.
func (e *Engine) Project(ctx context.Context, adviser domain.Adviser, baseline time.Time, horizonWeeks, prestartWeeks int) ([]Row, error) {
	if horizonWeeks <= 0 {
		horizonWeeks = DefaultHorizonWeeks
	}
	horizonEnd := calendar.AddWeeks(baseline, horizonWeeks)
	meetingsFrom := calendar.AddWeeks(baseline, -lookbackWeeks)

	meetings, err := e.store.GetMeetings(ctx, adviser.ID, meetingsFrom, horizonEnd)
	if err != nil {
		return nil, fmt.Errorf("loading meetings for %s: %w", adviser.Email, err)
	}

	openDeals, err := e.store.GetDealsWithoutClarify(ctx, adviser.ID, horizonEnd)
	if err != nil {
		return nil, fmt.Errorf("loading open deals for %s: %w", adviser.Email, err)
	}

	leave, err := e.store.GetLeaveForAdviser(ctx, adviser.Email, baseline, horizonEnd)
	if err != nil {
		return nil, fmt.Errorf("loading leave for %s: %w", adviser.Email, err)
	}

	global, err := e.store.GetGlobalClosures(ctx, baseline, horizonEnd)
	if err != nil {
		return nil, fmt.Errorf("loading global closures: %w", err)
	}
	scoped, err := e.store.GetAdviserClosures(ctx, adviser.Email, baseline, horizonEnd)
	if err != nil {
		return nil, fmt.Errorf("loading adviser closures for %s: %w", adviser.Email, err)
	}

	overrides, err := e.store.ListCapacityOverrides(ctx, adviser.Email)
	if err != nil {
		return nil, fmt.Errorf("loading overrides for %s: %w", adviser.Email, err)
	}

	inputs := Inputs{
		Adviser:   adviser,
		Meetings:  meetings,
		OpenDeals: openDeals,
		Leave:     leave,
		Closures:  append(global, scoped...),
		Overrides: overrides,
	}
	params := Params{
		Baseline:      baseline,
		HorizonWeeks:  horizonWeeks,
		PrestartWeeks: prestartWeeks,
	}
	return Build(inputs, params), nil
}
