package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/contract"
	"github.com/clearbrook/advisory/internal/domain"
	"github.com/clearbrook/advisory/internal/repository"
)

// closureBody is the admin wire shape for closures, both directions.
type closureBody struct {
	ID           string   `json:"id,omitempty"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags,omitempty"`
	Scope        string   `json:"scope,omitempty"`
	AdviserEmail string   `json:"adviser_email,omitempty"`
}

func closureToBody(c *domain.OfficeClosure) closureBody {
	return closureBody{
		ID:           c.ID,
		StartDate:    c.StartDate.Format(calendar.DateLayout),
		EndDate:      c.EndDate.Format(calendar.DateLayout),
		Description:  c.Description,
		Tags:         c.Tags,
		Scope:        string(c.Scope),
		AdviserEmail: c.AdviserEmail,
	}
}

func closureInputFromBody(b closureBody) contract.ClosureInput {
	return contract.ClosureInput{
		StartDate:    b.StartDate,
		EndDate:      b.EndDate,
		Description:  b.Description,
		Tags:         b.Tags,
		Scope:        b.Scope,
		AdviserEmail: b.AdviserEmail,
	}
}

func (s *Server) handleListClosures(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	closures, err := s.admin.ListClosures(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "closure listing failed")
		return
	}
	out := make([]closureBody, 0, len(closures))
	for _, c := range closures {
		out = append(out, closureToBody(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateClosure(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	var body closureBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed JSON body")
		return
	}
	closure, err := s.admin.CreateClosure(ctx, closureInputFromBody(body))
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, closureToBody(closure))
}

func (s *Server) handleUpdateClosure(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	var body closureBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed JSON body")
		return
	}
	closure, err := s.admin.UpdateClosure(ctx, mux.Vars(r)["id"], closureInputFromBody(body))
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, closureToBody(closure))
}

func (s *Server) handleDeleteClosure(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	if err := s.admin.DeleteClosure(ctx, mux.Vars(r)["id"]); err != nil {
		s.writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// overrideBody is the admin wire shape for capacity overrides.
type overrideBody struct {
	ID                 string `json:"id,omitempty"`
	AdviserEmail       string `json:"adviser_email"`
	EffectiveDate      string `json:"effective_date"`
	ClientLimitMonthly int    `json:"client_limit_monthly"`
	PodType            string `json:"pod_type,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

func overrideToBody(o *domain.CapacityOverride) overrideBody {
	body := overrideBody{
		ID:                 o.ID,
		AdviserEmail:       o.AdviserEmail,
		EffectiveDate:      o.EffectiveDate.Format(calendar.DateLayout),
		ClientLimitMonthly: o.ClientLimitMonthly,
		Notes:              o.Notes,
	}
	if o.PodType != nil {
		body.PodType = string(*o.PodType)
	}
	return body
}

func overrideInputFromBody(b overrideBody) contract.OverrideInput {
	return contract.OverrideInput{
		AdviserEmail:       b.AdviserEmail,
		EffectiveDate:      b.EffectiveDate,
		ClientLimitMonthly: b.ClientLimitMonthly,
		PodType:            b.PodType,
		Notes:              b.Notes,
	}
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	overrides, err := s.admin.ListOverrides(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "override listing failed")
		return
	}
	out := make([]overrideBody, 0, len(overrides))
	for _, o := range overrides {
		out = append(out, overrideToBody(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateOverride(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	var body overrideBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed JSON body")
		return
	}
	override, err := s.admin.CreateOverride(ctx, overrideInputFromBody(body))
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, overrideToBody(override))
}

func (s *Server) handleUpdateOverride(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	var body overrideBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed JSON body")
		return
	}
	override, err := s.admin.UpdateOverride(ctx, mux.Vars(r)["id"], overrideInputFromBody(body))
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overrideToBody(override))
}

func (s *Server) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	if err := s.admin.DeleteOverride(ctx, mux.Vars(r)["id"]); err != nil {
		s.writeAdminError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeAdminError(w http.ResponseWriter, err error) {
	var vErr *contract.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  "INVALID_INPUT",
			Detail: "validation failed",
			Fields: vErr.Fields,
		})
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such record")
		return
	}
	if strings.Contains(err.Error(), "UNIQUE constraint") {
		writeError(w, http.StatusConflict, "CONFLICT", "record already exists")
		return
	}
	writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "write failed, retry later")
}
