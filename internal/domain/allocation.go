package domain

import "time"

// AllocationRecord is the append-only audit entry written once per
// successful allocation. At most one active record exists per deal;
// re-allocating a deal overwrites its record (last writer wins by
// DecidedAt).
type AllocationRecord struct {
	ID                 string
	DealID             string
	AdviserID          string
	AdviserEmail       string
	ServicePackage     string
	HouseholdType      string
	EarliestWeekAnchor time.Time
	DecidedAt          time.Time
	RequesterIP        string
	RequesterUserAgent string
	Extra              map[string]string
}
