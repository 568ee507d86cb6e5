// Package hr is the read-only HTTP client for the HR system: the employee
// directory and approved leave. The OAuth handshake lives elsewhere; this
// client only consumes a TokenSource and refreshes once on 401.
package hr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/domain"
)

var (
	// ErrUnavailable indicates the HR system could not be reached, a token
	// could not be fetched or refreshed, or a non-200 status other than a
	// repeated 401 came back.
	ErrUnavailable = errors.New("hr system unavailable")

	// ErrUnauthorized indicates the HR system rejected the token even
	// after one refresh.
	ErrUnauthorized = errors.New("hr token rejected")
)

// TokenSource supplies HR access tokens. Refresh is invoked at most once
// per call when the current token is rejected.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token; Refresh re-reads nothing and
// hands back the same value. Used when the token is provisioned externally.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error)   { return string(s), nil }
func (s StaticTokenSource) Refresh(context.Context) (string, error) { return string(s), nil }

// Client reads the HR directory and approved leave.
type Client interface {
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	ListApprovedLeave(ctx context.Context, employeeID string, from, to time.Time) ([]domain.LeaveRequest, error)
}

// Config holds connection settings for the HR HTTP API.
type Config struct {
	Endpoint    string
	CallTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Endpoint:    "http://localhost:8800",
		CallTimeout: 10 * time.Second,
	}
}

// LoadConfig reads HR configuration from environment variables.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("ADVISORY_HR_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	return cfg
}

type httpClient struct {
	cfg    Config
	http   *http.Client
	tokens TokenSource
}

func NewClient(cfg Config, tokens TokenSource) Client {
	return &httpClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		tokens: tokens,
	}
}

type employeeDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type leaveDTO struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

func (c *httpClient) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	var dtos []employeeDTO
	if err := c.get(ctx, "/employees", &dtos); err != nil {
		return nil, err
	}
	employees := make([]domain.Employee, 0, len(dtos))
	for _, dto := range dtos {
		employees = append(employees, domain.Employee{ID: dto.ID, Email: dto.Email})
	}
	return employees, nil
}

func (c *httpClient) ListApprovedLeave(ctx context.Context, employeeID string, from, to time.Time) ([]domain.LeaveRequest, error) {
	path := fmt.Sprintf("/employees/%s/leave?status=approved&from=%s&to=%s",
		url.PathEscape(employeeID),
		from.Format(calendar.DateLayout),
		to.Format(calendar.DateLayout))
	var dtos []leaveDTO
	if err := c.get(ctx, path, &dtos); err != nil {
		return nil, err
	}
	requests := make([]domain.LeaveRequest, 0, len(dtos))
	for _, dto := range dtos {
		start, err := calendar.ParseDate(dto.StartDate)
		if err != nil {
			return nil, fmt.Errorf("leave %s: %w", dto.ID, err)
		}
		end, err := calendar.ParseDate(dto.EndDate)
		if err != nil {
			return nil, fmt.Errorf("leave %s: %w", dto.ID, err)
		}
		requests = append(requests, domain.LeaveRequest{
			ID:         dto.ID,
			EmployeeID: employeeID,
			StartDate:  start,
			EndDate:    end,
			Status:     domain.LeaveStatus(dto.Status),
		})
	}
	return requests, nil
}

// get performs an authenticated GET, refreshing the token once on 401.
func (c *httpClient) get(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: fetching token: %v", ErrUnavailable, err)
	}

	status, body, err := c.doRequest(ctx, path, token)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		token, err = c.tokens.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("%w: refreshing token: %v", ErrUnavailable, err)
		}
		status, body, err = c.doRequest(ctx, path, token)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return ErrUnauthorized
		}
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding hr response: %w", err)
	}
	return nil
}

func (c *httpClient) doRequest(ctx context.Context, path, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, body, nil
}
