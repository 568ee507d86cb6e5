// Package crm is the HTTP client for the CRM system of record. Advisers,
// meetings, and deals are read through it; the only write is the deal-owner
// update issued after an allocation decision.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go"
	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/domain"
)

// Client is the read/write contract against the CRM.
type Client interface {
	GetDeal(ctx context.Context, dealID string) (*domain.Deal, error)
	ListAdvisers(ctx context.Context) ([]domain.Adviser, error)
	ListMeetings(ctx context.Context, adviserID string, from, to time.Time) ([]domain.Meeting, error)
	// ListDealsWithoutFirstMeeting returns the adviser's open deals that
	// have no Clarify meeting yet, limited to agreement starts before the
	// given date (deals without an agreement start are always included).
	ListDealsWithoutFirstMeeting(ctx context.Context, adviserID string, before time.Time) ([]domain.Deal, error)
	SetDealOwner(ctx context.Context, dealID, adviserID string) error
}

type httpClient struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewClient creates a CRM client. Transient failures (timeouts, 5xx) are
// retried internally with exponential backoff; permanent rejections
// surface immediately.
func NewClient(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &httpClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// Wire DTOs.

type dealDTO struct {
	ID                 string `json:"id"`
	ServicePackage     string `json:"service_package"`
	HouseholdType      string `json:"household_type,omitempty"`
	AgreementStartDate string `json:"agreement_start_date,omitempty"`
	OwnerID            string `json:"owner_id,omitempty"`
	HasClarify         bool   `json:"has_clarify"`
}

type adviserDTO struct {
	ID                 string   `json:"id"`
	Email              string   `json:"email"`
	ServicePackages    []string `json:"service_packages"`
	HouseholdTypes     []string `json:"household_types"`
	PodType            string   `json:"pod_type"`
	ClientLimitMonthly int      `json:"client_limit_monthly"`
	StartDate          string   `json:"adviser_start_date,omitempty"`
	TakingOnClients    bool     `json:"taking_on_clients"`
}

type meetingDTO struct {
	AdviserID string `json:"adviser_id"`
	Kind      string `json:"kind"`
	StartDate string `json:"start_date"`
	DealID    string `json:"deal_id,omitempty"`
}

func (c *httpClient) GetDeal(ctx context.Context, dealID string) (*domain.Deal, error) {
	var dto dealDTO
	err := c.call(ctx, "get_deal", c.cfg.CallTimeout, http.MethodGet,
		"/deals/"+url.PathEscape(dealID), nil, &dto)
	if err != nil {
		return nil, err
	}
	deal, err := dealFromDTO(dto)
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (c *httpClient) ListAdvisers(ctx context.Context) ([]domain.Adviser, error) {
	var dtos []adviserDTO
	err := c.call(ctx, "list_advisers", c.cfg.ListTimeout, http.MethodGet, "/advisers", nil, &dtos)
	if err != nil {
		return nil, err
	}
	advisers := make([]domain.Adviser, 0, len(dtos))
	for _, dto := range dtos {
		a := domain.Adviser{
			ID:                 dto.ID,
			Email:              dto.Email,
			ServicePackages:    dto.ServicePackages,
			HouseholdTypes:     dto.HouseholdTypes,
			PodType:            domain.PodType(dto.PodType),
			ClientLimitMonthly: dto.ClientLimitMonthly,
			TakingOnClients:    dto.TakingOnClients,
		}
		if dto.StartDate != "" {
			d, err := calendar.ParseDate(dto.StartDate)
			if err != nil {
				return nil, fmt.Errorf("adviser %s: %w", dto.ID, err)
			}
			a.StartDate = &d
		}
		advisers = append(advisers, a)
	}
	return advisers, nil
}

func (c *httpClient) ListMeetings(ctx context.Context, adviserID string, from, to time.Time) ([]domain.Meeting, error) {
	path := fmt.Sprintf("/advisers/%s/meetings?from=%s&to=%s",
		url.PathEscape(adviserID),
		from.Format(calendar.DateLayout),
		to.Format(calendar.DateLayout))
	var dtos []meetingDTO
	err := c.call(ctx, "list_meetings", c.cfg.ListTimeout, http.MethodGet, path, nil, &dtos)
	if err != nil {
		return nil, err
	}
	meetings := make([]domain.Meeting, 0, len(dtos))
	for _, dto := range dtos {
		start, err := calendar.ParseDate(dto.StartDate)
		if err != nil {
			return nil, fmt.Errorf("meeting for adviser %s: %w", adviserID, err)
		}
		meetings = append(meetings, domain.Meeting{
			AdviserID: dto.AdviserID,
			Kind:      domain.MeetingKind(dto.Kind),
			StartDate: start,
			DealID:    dto.DealID,
		})
	}
	return meetings, nil
}

func (c *httpClient) ListDealsWithoutFirstMeeting(ctx context.Context, adviserID string, before time.Time) ([]domain.Deal, error) {
	path := fmt.Sprintf("/advisers/%s/deals/unclarified?before=%s",
		url.PathEscape(adviserID), before.Format(calendar.DateLayout))
	var dtos []dealDTO
	err := c.call(ctx, "list_deals_without_first_meeting", c.cfg.ListTimeout, http.MethodGet, path, nil, &dtos)
	if err != nil {
		return nil, err
	}
	deals := make([]domain.Deal, 0, len(dtos))
	for _, dto := range dtos {
		deal, err := dealFromDTO(dto)
		if err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	return deals, nil
}

func (c *httpClient) SetDealOwner(ctx context.Context, dealID, adviserID string) error {
	body := map[string]string{"adviser_id": adviserID}
	return c.call(ctx, "set_deal_owner", c.cfg.CallTimeout, http.MethodPut,
		"/deals/"+url.PathEscape(dealID)+"/owner", body, nil)
}

// call performs one CRM operation with timeout, classification, and
// transient-error retries.
func (c *httpClient) call(ctx context.Context, op string, timeout time.Duration, method, path string, body, out any) error {
	start := time.Now()
	err := retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return c.doRequest(callCtx, method, path, body, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.RetryAttempt),
		retry.Delay(c.cfg.RetryBase),
		retry.MaxDelay(c.cfg.RetryCap),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrTransient)
		}),
	)

	latency := time.Since(start).Milliseconds()
	if err != nil {
		c.observer.OnCallComplete(CallEvent{Op: op, LatencyMs: latency, Success: false, ErrorCode: errorCode(err)})
		if errors.Is(err, ErrTransient) {
			return fmt.Errorf("%s: %w", op, errors.Join(ErrRetryExhausted, err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	c.observer.OnCallComplete(CallEvent{Op: op, LatencyMs: latency, Success: true})
	return nil
}

func (c *httpClient) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrTransient, ctx.Err())
		}
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d: %s", ErrPermanent, resp.StatusCode, truncate(respBody, 200))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func dealFromDTO(dto dealDTO) (domain.Deal, error) {
	deal := domain.Deal{
		ID:             dto.ID,
		ServicePackage: dto.ServicePackage,
		HouseholdType:  dto.HouseholdType,
		OwnerID:        dto.OwnerID,
		HasClarify:     dto.HasClarify,
	}
	if dto.AgreementStartDate != "" {
		d, err := calendar.ParseDate(dto.AgreementStartDate)
		if err != nil {
			return domain.Deal{}, fmt.Errorf("deal %s: %w", dto.ID, err)
		}
		deal.AgreementStartDate = &d
	}
	return deal, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrTransient):
		return "TRANSIENT"
	case errors.Is(err, ErrPermanent):
		return "PERMANENT"
	default:
		return "UNKNOWN"
	}
}
