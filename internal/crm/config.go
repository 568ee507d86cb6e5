package crm

import (
	"os"
	"strconv"
	"time"
)

// Config holds connection settings for the CRM HTTP API.
type Config struct {
	Endpoint     string
	Token        string
	CallTimeout  time.Duration
	ListTimeout  time.Duration
	RetryAttempt uint
	RetryBase    time.Duration
	RetryCap     time.Duration
}

// DefaultConfig returns CRM settings matching the documented call-site
// contract: 10 s per call, 30 s for bulk lists, three attempts with
// exponential backoff from 0.5 s capped at 4 s.
func DefaultConfig() Config {
	return Config{
		Endpoint:     "http://localhost:8700",
		CallTimeout:  10 * time.Second,
		ListTimeout:  30 * time.Second,
		RetryAttempt: 3,
		RetryBase:    500 * time.Millisecond,
		RetryCap:     4 * time.Second,
	}
}

// LoadConfig reads CRM configuration from environment variables, falling
// back to defaults for unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("ADVISORY_CRM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("ADVISORY_CRM_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("ADVISORY_CRM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CallTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("ADVISORY_CRM_LIST_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ListTimeout = time.Duration(n) * time.Millisecond
		}
	}
	return cfg
}
