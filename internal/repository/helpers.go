package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a queried entity does not exist.
var ErrNotFound = errors.New("not found")

// dateLayout is the civil-date format for closure/override/leave dates.
const dateLayout = "2006-01-02"

// parseDate parses a stored civil date. Invalid values surface as errors at
// scan time rather than silently becoming zero dates.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// parseNullableDate parses a nullable civil-date column.
func parseNullableDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// encodeStrings JSON-encodes a string slice for storage. nil encodes as [].
func encodeStrings(vals []string) string {
	if vals == nil {
		vals = []string{}
	}
	b, _ := json.Marshal(vals)
	return string(b)
}

// decodeStrings decodes a JSON string-array column; malformed or empty
// values decode to nil.
func decodeStrings(s string) []string {
	if s == "" {
		return nil
	}
	var vals []string
	if err := json.Unmarshal([]byte(s), &vals); err != nil {
		return nil
	}
	if len(vals) == 0 {
		return nil
	}
	return vals
}

// encodeStringMap JSON-encodes a string map for storage. nil encodes as {}.
func encodeStringMap(m map[string]string) string {
	if m == nil {
		m = map[string]string{}
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// decodeStringMap decodes a JSON object column; malformed values decode to nil.
func decodeStringMap(s string) map[string]string {
	if s == "" || s == "{}" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// parseTimestamp parses a stored RFC3339 timestamp.
func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
