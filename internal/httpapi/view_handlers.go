package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/lo"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/capacity"
	"github.com/clearbrook/advisory/internal/contract"
	"github.com/clearbrook/advisory/internal/domain"
)

type earliestRowBody struct {
	Email              string   `json:"email"`
	ServicePackages    []string `json:"service_packages"`
	HouseholdTypes     []string `json:"household_types"`
	PodType            string   `json:"pod_type"`
	ClientLimitMonthly int      `json:"client_limit_monthly"`
	EarliestWeekLabel  string   `json:"earliest_week_label,omitempty"`
	EarliestWeekMonday string   `json:"earliest_week_monday,omitempty"`
	Available          bool     `json:"available"`
}

func (s *Server) handleEarliest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	req := contract.EarliestRequest{
		ServicePackage: r.URL.Query().Get("service_package"),
		HouseholdType:  r.URL.Query().Get("household_type"),
	}
	rows, err := s.availability.Earliest(ctx, req)
	if err != nil {
		s.writeViewError(w, err)
		return
	}

	out := lo.Map(rows, func(row contract.EarliestRow, _ int) earliestRowBody {
		body := earliestRowBody{
			Email:              row.Email,
			ServicePackages:    row.ServicePackages,
			HouseholdTypes:     row.HouseholdTypes,
			PodType:            string(row.PodType),
			ClientLimitMonthly: row.ClientLimitMonthly,
			Available:          row.Available,
		}
		if row.Available {
			body.EarliestWeekLabel = row.EarliestWeekLabel
			body.EarliestWeekMonday = row.EarliestWeekMonday.Format(calendar.DateLayout)
		}
		return body
	})
	writeJSON(w, http.StatusOK, out)
}

type scheduleRowBody struct {
	Anchor             string `json:"anchor"`
	Label              string `json:"label"`
	ClarifyCount       int    `json:"clarify_count"`
	KickoffCount       int    `json:"kickoff_count"`
	DealNoClarifyCount int    `json:"deal_no_clarify_count"`
	OOOState           string `json:"ooo_state"`
	OOODays            int    `json:"ooo_days,omitempty"`
	Target             int    `json:"target"`
	Actual             int    `json:"actual"`
	Difference         int    `json:"difference"`
	EarliestAvailable  bool   `json:"earliest_available,omitempty"`
}

type scheduleBody struct {
	Email             string            `json:"email"`
	PodType           string            `json:"pod_type"`
	Available         bool              `json:"available"`
	EarliestWeekLabel string            `json:"earliest_week_label,omitempty"`
	Rows              []scheduleRowBody `json:"rows"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), viewTimeout)
	defer cancel()

	req := contract.ScheduleRequest{AdviserEmail: r.URL.Query().Get("email")}
	resp, err := s.availability.Schedule(ctx, req)
	if err != nil {
		s.writeViewError(w, err)
		return
	}

	body := scheduleBody{
		Email:     resp.Adviser.Email,
		PodType:   string(resp.Adviser.PodType),
		Available: resp.Available,
	}
	if resp.Available {
		body.EarliestWeekLabel = calendar.ISOWeekLabel(resp.EarliestWeek)
	}
	body.Rows = lo.Map(resp.Rows, func(row capacity.Row, _ int) scheduleRowBody {
		out := scheduleRowBody{
			Anchor:             row.Anchor.Format(calendar.DateLayout),
			Label:              row.Label,
			ClarifyCount:       row.ClarifyCount,
			KickoffCount:       row.KickoffCount,
			DealNoClarifyCount: row.DealNoClarifyCount,
			OOOState:           string(row.OOO.Kind),
			Target:             row.Target,
			Actual:             row.Actual,
			Difference:         row.Difference,
		}
		if row.OOO.Kind == domain.OOOPartial {
			out.OOODays = row.OOO.Days
		}
		if resp.Available && row.Anchor.Equal(resp.EarliestWeek) {
			out.EarliestAvailable = true
		}
		return out
	})
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) writeViewError(w http.ResponseWriter, err error) {
	var viewErr *contract.ViewError
	if !errors.As(err, &viewErr) {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "unexpected failure")
		return
	}
	switch viewErr.Code {
	case contract.ViewErrInvalidInput:
		writeError(w, http.StatusBadRequest, string(viewErr.Code), viewErr.Message)
	case contract.ViewErrAdviserNotFound:
		writeError(w, http.StatusNotFound, string(viewErr.Code), viewErr.Message)
	default:
		writeError(w, http.StatusServiceUnavailable, string(viewErr.Code), viewErr.Message)
	}
}
