package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/capacity"
	"github.com/clearbrook/advisory/internal/contract"
	"github.com/clearbrook/advisory/internal/crm"
	"github.com/clearbrook/advisory/internal/domain"
	"github.com/clearbrook/advisory/internal/notify"
	"github.com/clearbrook/advisory/internal/selector"
	"github.com/clearbrook/advisory/internal/store"
)

// maxFanOut caps the per-adviser projection concurrency.
const maxFanOut = 16

type allocationService struct {
	store    *store.Store
	engine   *capacity.Engine
	notifier notify.Notifier
	observer UseCaseObserver
	logger   *slog.Logger
	loc      *time.Location
}

func NewAllocationService(
	s *store.Store,
	engine *capacity.Engine,
	notifier notify.Notifier,
	observer UseCaseObserver,
	logger *slog.Logger,
	loc *time.Location,
) AllocationService {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &allocationService{
		store:    s,
		engine:   engine,
		notifier: notifier,
		observer: observerOrNoop(observer),
		logger:   logger,
		loc:      loc,
	}
}

// candidate pairs an adviser with their selector outcome.
type candidate struct {
	adviser   domain.Adviser
	week      time.Time
	available bool
	// ratio is the chosen week's occupancy pressure, the first tie-break.
	ratio float64
}

func (s *allocationService) Allocate(ctx context.Context, req contract.AllocateRequest) (*contract.AllocateResponse, error) {
	start := time.Now()
	resp, err := s.allocate(ctx, req)
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      "allocate",
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    map[string]any{"deal_id": req.DealID},
		StartedAt: start,
	})
	return resp, err
}

func (s *allocationService) allocate(ctx context.Context, req contract.AllocateRequest) (*contract.AllocateResponse, error) {
	if req.DealID == "" {
		return nil, &contract.AllocateError{Code: contract.ErrInvalidInput, Message: "deal_id is required"}
	}

	now := time.Now().UTC()
	if req.Now != nil {
		now = *req.Now
	}
	today := calendar.CivilDate(now, s.loc)
	baseline := calendar.MondayOf(today)

	deal, err := s.store.GetDeal(ctx, req.DealID)
	if err != nil {
		return nil, s.mapStoreFailure(err, contract.ErrCrmUnavailable)
	}

	pkg := deal.ServicePackage
	if req.ServicePackage != "" {
		pkg = req.ServicePackage
	}
	if pkg == "" {
		return nil, &contract.AllocateError{Code: contract.ErrInvalidInput, Message: "service package missing from request and deal"}
	}
	household := req.HouseholdType
	if household == "" {
		household = deal.HouseholdType
	}

	advisers, err := s.store.ListAdvisers(ctx, store.AdviserFilter{
		ServicePackage: pkg,
		HouseholdType:  household,
	})
	if err != nil {
		return nil, s.mapStoreFailure(err, contract.ErrCrmUnavailable)
	}
	if len(advisers) == 0 {
		return nil, &contract.AllocateError{
			Code:    contract.ErrNoEligibleAdvisers,
			Message: fmt.Sprintf("no adviser takes %q deals", pkg),
		}
	}

	prestart, err := s.store.PrestartWeeks(ctx)
	if err != nil {
		return nil, s.mapStoreFailure(err, contract.ErrStoreUnavailable)
	}

	horizon := req.HorizonWeeks
	if horizon <= 0 {
		horizon = capacity.DefaultHorizonWeeks
	}

	candidates, err := s.projectAll(ctx, advisers, today, baseline, horizon, prestart)
	if err != nil {
		return nil, s.mapStoreFailure(err, contract.ErrStoreUnavailable)
	}

	chosen, ok := pickCandidate(candidates)
	if !ok {
		return nil, &contract.AllocateError{
			Code:    contract.ErrNoAvailability,
			Message: "every eligible adviser is beyond the projection horizon",
			Diagnostics: lo.Map(candidates, func(c candidate, _ int) contract.AdviserDiagnostic {
				return contract.AdviserDiagnostic{Email: c.adviser.Email, Reason: "no selectable week within horizon"}
			}),
		}
	}

	if err := s.store.SetDealOwner(ctx, deal.ID, chosen.adviser.ID); err != nil {
		f := store.AsFailure(err)
		if errors.Is(err, crm.ErrPermanent) || f.Kind == store.KindPermissionDenied {
			return nil, &contract.AllocateError{Code: contract.ErrCrmUpdateFailed, Message: "crm rejected the owner update"}
		}
		return nil, &contract.AllocateError{Code: contract.ErrCrmUnavailable, Message: "crm owner update failed after retries"}
	}

	rec := &domain.AllocationRecord{
		ID:                 uuid.New().String(),
		DealID:             deal.ID,
		AdviserID:          chosen.adviser.ID,
		AdviserEmail:       chosen.adviser.Email,
		ServicePackage:     pkg,
		HouseholdType:      household,
		EarliestWeekAnchor: chosen.week,
		DecidedAt:          now,
		RequesterIP:        req.Requester.IP,
		RequesterUserAgent: req.Requester.UserAgent,
	}
	recordID, err := s.store.PutAllocationRecord(ctx, rec)
	if err != nil {
		// The CRM owner update already landed; flag the gap so a
		// reconciliation can write the missing record later.
		s.logger.WarnContext(ctx, "allocation_record_write_failed_after_crm_update",
			"deal_id", deal.ID, "adviser_id", chosen.adviser.ID, "error", err)
		return nil, &contract.AllocateError{Code: contract.ErrStoreUnavailable, Message: "allocation record write failed; safe to retry"}
	}

	if err := s.notifier.NotifyAllocation(ctx, notify.Allocation{
		DealID:         deal.ID,
		AdviserID:      chosen.adviser.ID,
		AdviserEmail:   chosen.adviser.Email,
		ServicePackage: pkg,
		EarliestWeek:   chosen.week,
		DecidedAt:      now,
	}); err != nil {
		s.logger.WarnContext(ctx, "allocation_notification_failed", "deal_id", deal.ID, "error", err)
	}

	diagnostics := make([]contract.AdviserDiagnostic, 0, len(candidates)-1)
	for _, c := range candidates {
		if c.adviser.ID == chosen.adviser.ID {
			continue
		}
		reason := "no selectable week within horizon"
		if c.available {
			reason = fmt.Sprintf("earliest week %s", calendar.ISOWeekLabel(c.week))
		}
		diagnostics = append(diagnostics, contract.AdviserDiagnostic{Email: c.adviser.Email, Reason: reason})
	}

	return &contract.AllocateResponse{
		RecordID:          recordID,
		DealID:            deal.ID,
		AdviserID:         chosen.adviser.ID,
		AdviserEmail:      chosen.adviser.Email,
		ServicePackage:    pkg,
		HouseholdType:     household,
		EarliestWeek:      chosen.week,
		EarliestWeekLabel: calendar.ISOWeekLabel(chosen.week),
		DecidedAt:         now,
		Diagnostics:       diagnostics,
	}, nil
}

// projectAll runs the capacity engine for every adviser concurrently with
// bounded parallelism. Each task holds its own read view; results land in a
// preallocated slot so no ordering is lost.
func (s *allocationService) projectAll(ctx context.Context, advisers []domain.Adviser, today, baseline time.Time, horizon, prestart int) ([]candidate, error) {
	candidates := make([]candidate, len(advisers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(len(advisers), maxFanOut))
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
			c := candidate{adviser: adviser, week: week, available: ok}
			if ok {
				c.ratio = weekRatio(rows, week)
			}
			candidates[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// pickCandidate applies the deterministic selection order: earliest week,
// then lowest occupancy ratio in that week, then lexicographic email.
func pickCandidate(candidates []candidate) (candidate, bool) {
	available := lo.Filter(candidates, func(c candidate, _ int) bool { return c.available })
	if len(available) == 0 {
		return candidate{}, false
	}
	sort.SliceStable(available, func(i, j int) bool {
		a, b := available[i], available[j]
		if !a.week.Equal(b.week) {
			return a.week.Before(b.week)
		}
		if a.ratio != b.ratio {
			return a.ratio < b.ratio
		}
		return a.adviser.Email < b.adviser.Email
	})
	return available[0], true
}

// weekRatio is occupancy pressure at the selected week.
func weekRatio(rows []capacity.Row, week time.Time) float64 {
	for _, r := range rows {
		if r.Anchor.Equal(week) {
			target := r.Target
			if target < 1 {
				target = 1
			}
			return float64(r.Actual) / float64(target)
		}
	}
	return 0
}

// mapStoreFailure converts a store failure into the allocation error
// taxonomy, using fallback for retryable unavailability.
func (s *allocationService) mapStoreFailure(err error, fallback contract.AllocateErrorCode) error {
	f := store.AsFailure(err)
	switch f.Kind {
	case store.KindNotFound:
		return &contract.AllocateError{Code: contract.ErrDealNotFound, Message: "deal not found in crm"}
	case store.KindInvalidArgument:
		return &contract.AllocateError{Code: contract.ErrInvalidInput, Message: f.Error()}
	case store.KindPermissionDenied:
		return &contract.AllocateError{Code: contract.ErrCrmUpdateFailed, Message: "crm rejected the request"}
	default:
		return &contract.AllocateError{Code: fallback, Message: "backend unavailable, retry later"}
	}
}
