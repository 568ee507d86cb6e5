package domain

import "time"

// OfficeClosure is an admin-owned full or partial unavailability period,
// either office-wide or scoped to one adviser's email.
type OfficeClosure struct {
	ID           string
	StartDate    time.Time
	EndDate      time.Time
	Description  string
	Tags         []string
	Scope        ClosureScope
	AdviserEmail string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AppliesTo reports whether the closure covers the given adviser.
func (c OfficeClosure) AppliesTo(email string) bool {
	return c.Scope == ScopeGlobal || c.AdviserEmail == email
}

// CapacityOverride replaces an adviser's profile client limit from
// EffectiveDate forward. The override with the greatest effective date not
// after the week in question wins.
type CapacityOverride struct {
	ID                 string
	AdviserEmail       string
	EffectiveDate      time.Time
	ClientLimitMonthly int
	PodType            *PodType
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
