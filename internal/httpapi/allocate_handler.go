package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/contract"
)

// allocateBody is the webhook payload shape.
type allocateBody struct {
	Fields struct {
		ServicePackage     string `json:"service_package"`
		DealRecordID       string `json:"hs_deal_record_id"`
		HouseholdType      string `json:"household_type"`
		AgreementStartDate string `json:"agreement_start_date"`
	} `json:"fields"`
	Requester struct {
		IP        string `json:"ip"`
		UserAgent string `json:"user_agent"`
	} `json:"requester"`
}

type allocateResponseBody struct {
	Status     string `json:"status"`
	Allocation struct {
		DealID                string `json:"deal_id"`
		AdviserEmail          string `json:"adviser_email"`
		EarliestAvailableWeek string `json:"earliest_available_week"`
	} `json:"allocation"`
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), allocateTimeout)
	defer cancel()

	var body allocateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, string(contract.ErrInvalidInput), "malformed JSON body")
		return
	}
	if body.Fields.DealRecordID == "" {
		writeError(w, http.StatusBadRequest, string(contract.ErrInvalidInput), "fields.hs_deal_record_id is required")
		return
	}
	if body.Fields.AgreementStartDate != "" {
		if _, err := calendar.ParseDate(body.Fields.AgreementStartDate); err != nil {
			writeError(w, http.StatusBadRequest, string(contract.ErrInvalidInput), "fields.agreement_start_date must be YYYY-MM-DD")
			return
		}
	}

	req := contract.NewAllocateRequest(body.Fields.DealRecordID)
	req.ServicePackage = body.Fields.ServicePackage
	req.HouseholdType = body.Fields.HouseholdType
	req.Requester = contract.RequesterMeta{
		IP:        requesterIP(r, body.Requester.IP),
		UserAgent: firstNonEmpty(body.Requester.UserAgent, r.UserAgent()),
	}

	resp, err := s.allocation.Allocate(ctx, req)
	if err != nil {
		s.writeAllocateError(w, err)
		return
	}

	out := allocateResponseBody{Status: "success"}
	out.Allocation.DealID = resp.DealID
	out.Allocation.AdviserEmail = resp.AdviserEmail
	out.Allocation.EarliestAvailableWeek = resp.EarliestWeek.Format(calendar.DateLayout)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeAllocateError(w http.ResponseWriter, err error) {
	var allocErr *contract.AllocateError
	if !errors.As(err, &allocErr) {
		writeError(w, http.StatusInternalServerError, string(contract.ErrInternal), "unexpected failure")
		return
	}
	writeError(w, allocateStatus(allocErr.Code), string(allocErr.Code), allocErr.Message)
}

// allocateStatus maps the allocation error taxonomy onto HTTP statuses.
func allocateStatus(code contract.AllocateErrorCode) int {
	switch code {
	case contract.ErrInvalidInput:
		return http.StatusBadRequest
	case contract.ErrDealNotFound:
		return http.StatusNotFound
	case contract.ErrNoEligibleAdvisers, contract.ErrNoAvailability:
		return http.StatusUnprocessableEntity
	case contract.ErrStoreUnavailable, contract.ErrCrmUnavailable:
		return http.StatusServiceUnavailable
	case contract.ErrCrmUpdateFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// requesterIP prefers the payload's own claim, then the connection peer.
func requesterIP(r *http.Request, claimed string) string {
	if claimed != "" {
		return claimed
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
