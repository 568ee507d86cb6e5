package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/contract"
	"github.com/clearbrook/advisory/internal/domain"
	"github.com/clearbrook/advisory/internal/repository"
	"github.com/clearbrook/advisory/internal/store"
)

const maxTagLength = 32

type adminService struct {
	closures  repository.ClosureRepo
	overrides repository.OverrideRepo
	store     *store.Store
	observer  UseCaseObserver
}

// NewAdminService validates and writes closures and capacity overrides.
// Writes invalidate the store's caches so engine reads see them
// immediately.
func NewAdminService(
	closures repository.ClosureRepo,
	overrides repository.OverrideRepo,
	s *store.Store,
	observer UseCaseObserver,
) AdminService {
	return &adminService{
		closures:  closures,
		overrides: overrides,
		store:     s,
		observer:  observerOrNoop(observer),
	}
}

func (s *adminService) CreateClosure(ctx context.Context, input contract.ClosureInput) (*domain.OfficeClosure, error) {
	return s.writeClosure(ctx, "create_closure", uuid.New().String(), input, s.closures.Create)
}

func (s *adminService) UpdateClosure(ctx context.Context, id string, input contract.ClosureInput) (*domain.OfficeClosure, error) {
	return s.writeClosure(ctx, "update_closure", id, input, s.closures.Update)
}

func (s *adminService) writeClosure(ctx context.Context, op, id string, input contract.ClosureInput, write func(context.Context, *domain.OfficeClosure) error) (*domain.OfficeClosure, error) {
	start := time.Now()
	closure, err := s.validateClosure(id, input)
	if err == nil {
		err = write(ctx, closure)
	}
	if err == nil {
		s.store.InvalidateClosures()
		closure, err = s.closures.GetByID(ctx, id)
	}
	s.observe(ctx, op, start, err, map[string]any{"closure_id": id})
	if err != nil {
		return nil, err
	}
	return closure, nil
}

func (s *adminService) DeleteClosure(ctx context.Context, id string) error {
	start := time.Now()
	err := s.closures.Delete(ctx, id)
	if err == nil {
		s.store.InvalidateClosures()
	}
	s.observe(ctx, "delete_closure", start, err, map[string]any{"closure_id": id})
	return err
}

func (s *adminService) ListClosures(ctx context.Context) ([]*domain.OfficeClosure, error) {
	return s.closures.List(ctx)
}

func (s *adminService) validateClosure(id string, input contract.ClosureInput) (*domain.OfficeClosure, error) {
	fields := map[string]string{}

	startDate, err := calendar.ParseDate(input.StartDate)
	if err != nil {
		fields["start_date"] = "must be a YYYY-MM-DD date"
	}
	endDate, err := calendar.ParseDate(input.EndDate)
	if err != nil {
		fields["end_date"] = "must be a YYYY-MM-DD date"
	} else if _, ok := fields["start_date"]; !ok && endDate.Before(startDate) {
		fields["end_date"] = "must not precede start_date"
	}
	if input.Description == "" {
		fields["description"] = "must not be empty"
	}

	seen := map[string]bool{}
	for _, tag := range input.Tags {
		if len(tag) > maxTagLength {
			fields["tags"] = fmt.Sprintf("tag %q exceeds %d characters", tag, maxTagLength)
			break
		}
		if seen[tag] {
			fields["tags"] = fmt.Sprintf("duplicate tag %q", tag)
			break
		}
		seen[tag] = true
	}

	scope := domain.ScopeGlobal
	switch input.Scope {
	case "", string(domain.ScopeGlobal):
	case string(domain.ScopeAdviser):
		scope = domain.ScopeAdviser
		if input.AdviserEmail == "" {
			fields["adviser_email"] = "required for adviser-scoped closures"
		}
	default:
		fields["scope"] = "must be global or adviser"
	}

	if len(fields) > 0 {
		return nil, &contract.ValidationError{Fields: fields}
	}
	return &domain.OfficeClosure{
		ID:           id,
		StartDate:    startDate,
		EndDate:      endDate,
		Description:  input.Description,
		Tags:         input.Tags,
		Scope:        scope,
		AdviserEmail: input.AdviserEmail,
	}, nil
}

func (s *adminService) CreateOverride(ctx context.Context, input contract.OverrideInput) (*domain.CapacityOverride, error) {
	return s.writeOverride(ctx, "create_override", uuid.New().String(), input, s.overrides.Create)
}

func (s *adminService) UpdateOverride(ctx context.Context, id string, input contract.OverrideInput) (*domain.CapacityOverride, error) {
	return s.writeOverride(ctx, "update_override", id, input, s.overrides.Update)
}

func (s *adminService) writeOverride(ctx context.Context, op, id string, input contract.OverrideInput, write func(context.Context, *domain.CapacityOverride) error) (*domain.CapacityOverride, error) {
	start := time.Now()
	override, err := s.validateOverride(ctx, id, input)
	if err == nil {
		err = write(ctx, override)
	}
	if err == nil {
		override, err = s.overrides.GetByID(ctx, id)
	}
	s.observe(ctx, op, start, err, map[string]any{"override_id": id})
	if err != nil {
		return nil, err
	}
	return override, nil
}

func (s *adminService) DeleteOverride(ctx context.Context, id string) error {
	start := time.Now()
	err := s.overrides.Delete(ctx, id)
	s.observe(ctx, "delete_override", start, err, map[string]any{"override_id": id})
	return err
}

func (s *adminService) ListOverrides(ctx context.Context) ([]*domain.CapacityOverride, error) {
	return s.overrides.List(ctx)
}

func (s *adminService) validateOverride(ctx context.Context, id string, input contract.OverrideInput) (*domain.CapacityOverride, error) {
	fields := map[string]string{}

	if input.AdviserEmail == "" {
		fields["adviser_email"] = "must not be empty"
	} else if known, err := s.adviserKnown(ctx, input.AdviserEmail); err == nil && !known {
		fields["adviser_email"] = "unknown adviser"
	}

	effective, err := calendar.ParseDate(input.EffectiveDate)
	if err != nil {
		fields["effective_date"] = "must be a YYYY-MM-DD date"
	}
	if input.ClientLimitMonthly < 0 {
		fields["client_limit_monthly"] = "must be zero or positive"
	}

	var podType *domain.PodType
	switch input.PodType {
	case "":
	case string(domain.PodSolo), string(domain.PodTeam):
		pt := domain.PodType(input.PodType)
		podType = &pt
	default:
		fields["pod_type"] = "must be solo or team"
	}

	if len(fields) > 0 {
		return nil, &contract.ValidationError{Fields: fields}
	}
	return &domain.CapacityOverride{
		ID:                 id,
		AdviserEmail:       input.AdviserEmail,
		EffectiveDate:      effective,
		ClientLimitMonthly: input.ClientLimitMonthly,
		PodType:            podType,
		Notes:              input.Notes,
	}, nil
}

// adviserKnown checks the CRM snapshot; when the CRM is unreachable the
// write proceeds rather than blocking admin work on an outage.
func (s *adminService) adviserKnown(ctx context.Context, email string) (bool, error) {
	advisers, err := s.store.ListAdvisers(ctx, store.AdviserFilter{IncludeNotTaking: true})
	if err != nil {
		return true, err
	}
	for _, a := range advisers {
		if a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *adminService) observe(ctx context.Context, name string, start time.Time, err error, fields map[string]any) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: start,
	})
}
