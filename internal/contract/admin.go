package contract

import (
	"fmt"
	"sort"
	"strings"
)

// ClosureInput is the unvalidated admin payload for creating or updating an
// office closure. Dates are civil-date strings; validation parses them.
type ClosureInput struct {
	StartDate    string
	EndDate      string
	Description  string
	Tags         []string
	Scope        string
	AdviserEmail string
}

// OverrideInput is the unvalidated admin payload for a capacity override.
type OverrideInput struct {
	AdviserEmail       string
	EffectiveDate      string
	ClientLimitMonthly int
	PodType            string
	Notes              string
}

// ValidationError maps field names to human-readable reasons.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
