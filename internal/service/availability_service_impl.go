package service

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/capacity"
	"github.com/clearbrook/advisory/internal/contract"
	"github.com/clearbrook/advisory/internal/domain"
	"github.com/clearbrook/advisory/internal/selector"
	"github.com/clearbrook/advisory/internal/store"
)

type availabilityService struct {
	store    *store.Store
	engine   *capacity.Engine
	observer UseCaseObserver
	loc      *time.Location
}

func NewAvailabilityService(s *store.Store, engine *capacity.Engine, observer UseCaseObserver, loc *time.Location) AvailabilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &availabilityService{
		store:    s,
		engine:   engine,
		observer: observerOrNoop(observer),
		loc:      loc,
	}
}

func (s *availabilityService) Earliest(ctx context.Context, req contract.EarliestRequest) ([]contract.EarliestRow, error) {
	start := time.Now()
	rows, err := s.earliest(ctx, req)
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      "availability_earliest",
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    map[string]any{"service_package": req.ServicePackage},
		StartedAt: start,
	})
	return rows, err
}

func (s *availabilityService) earliest(ctx context.Context, req contract.EarliestRequest) ([]contract.EarliestRow, error) {
	advisers, err := s.store.ListAdvisers(ctx, store.AdviserFilter{
		ServicePackage: req.ServicePackage,
		HouseholdType:  req.HouseholdType,
	})
	if err != nil {
		return nil, &contract.ViewError{Code: contract.ViewErrUnavailable, Message: "adviser listing unavailable"}
	}

	today, baseline := s.anchors(req.Now)
	horizon := req.HorizonWeeks
	if horizon <= 0 {
		horizon = capacity.DefaultHorizonWeeks
	}
	prestart, err := s.store.PrestartWeeks(ctx)
	if err != nil {
		return nil, &contract.ViewError{Code: contract.ViewErrUnavailable, Message: "settings unavailable"}
	}

	out := make([]contract.EarliestRow, len(advisers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(max(len(advisers), 1), maxFanOut))
	for i, adviser := range advisers {
		g.Go(func() error {
			rows, err := s.engine.Project(gctx, adviser, baseline, horizon, prestart)
			if err != nil {
				return err
			}
			week, ok := selector.EarliestWeek(selector.Input{
				Rows:          rows,
				Now:           today,
				AdviserStart:  adviser.StartDate,
				PrestartWeeks: prestart,
				HorizonWeeks:  horizon,
			})
			row := contract.EarliestRow{
				AdviserID:          adviser.ID,
				Email:              adviser.Email,
				ServicePackages:    adviser.ServicePackages,
				HouseholdTypes:     adviser.HouseholdTypes,
				PodType:            adviser.PodType,
				ClientLimitMonthly: adviser.ClientLimitMonthly,
				Available:          ok,
			}
			if ok {
				row.EarliestWeekMonday = week
				row.EarliestWeekLabel = calendar.ISOWeekLabel(week)
			}
			out[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &contract.ViewError{Code: contract.ViewErrUnavailable, Message: "capacity projection failed"}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *availabilityService) Schedule(ctx context.Context, req contract.ScheduleRequest) (*contract.ScheduleResponse, error) {
	start := time.Now()
	resp, err := s.schedule(ctx, req)
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      "availability_schedule",
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    map[string]any{"adviser_email": req.AdviserEmail},
		StartedAt: start,
	})
	return resp, err
}

func (s *availabilityService) schedule(ctx context.Context, req contract.ScheduleRequest) (*contract.ScheduleResponse, error) {
	if req.AdviserEmail == "" {
		return nil, &contract.ViewError{Code: contract.ViewErrInvalidInput, Message: "email is required"}
	}

	adviser, err := s.findAdviser(ctx, req.AdviserEmail)
	if err != nil {
		return nil, err
	}

	today, baseline := s.anchors(req.Now)
	horizon := req.HorizonWeeks
	if horizon <= 0 {
		horizon = capacity.DefaultHorizonWeeks
	}
	prestart, err := s.store.PrestartWeeks(ctx)
	if err != nil {
		return nil, &contract.ViewError{Code: contract.ViewErrUnavailable, Message: "settings unavailable"}
	}

	rows, err := s.engine.Project(ctx, *adviser, baseline, horizon, prestart)
	if err != nil {
		return nil, &contract.ViewError{Code: contract.ViewErrUnavailable, Message: "capacity projection failed"}
	}
	week, ok := selector.EarliestWeek(selector.Input{
		Rows:          rows,
		Now:           today,
		AdviserStart:  adviser.StartDate,
		PrestartWeeks: prestart,
		HorizonWeeks:  horizon,
	})

	resp := &contract.ScheduleResponse{
		Adviser:   *adviser,
		Rows:      rows,
		Available: ok,
	}
	if ok {
		resp.EarliestWeek = week
	}
	return resp, nil
}

func (s *availabilityService) findAdviser(ctx context.Context, email string) (*domain.Adviser, error) {
	advisers, err := s.store.ListAdvisers(ctx, store.AdviserFilter{IncludeNotTaking: true})
	if err != nil {
		return nil, &contract.ViewError{Code: contract.ViewErrUnavailable, Message: "adviser listing unavailable"}
	}
	for _, a := range advisers {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, &contract.ViewError{Code: contract.ViewErrAdviserNotFound, Message: "no adviser with email " + email}
}

func (s *availabilityService) anchors(now *time.Time) (today, baseline time.Time) {
	n := time.Now().UTC()
	if now != nil {
		n = *now
	}
	today = calendar.CivilDate(n, s.loc)
	return today, calendar.MondayOf(today)
}
