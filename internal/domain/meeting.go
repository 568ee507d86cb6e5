package domain

import "time"

// Meeting is a CRM-sourced onboarding meeting. Only Clarify and KickOff
// meetings participate in the capacity model.
type Meeting struct {
	AdviserID string
	Kind      MeetingKind
	StartDate time.Time
	DealID    string
}

// CountsTowardOccupancy reports whether the meeting's kind is tracked in
// weekly capacity rows. Clarify drives occupancy; KickOff is reported only.
func (m Meeting) CountsTowardOccupancy() bool {
	return m.Kind == MeetingClarify || m.Kind == MeetingKickOff
}

// Deal is a CRM-sourced inbound client deal. HasClarify is derived from the
// deal's meetings.
type Deal struct {
	ID                 string
	ServicePackage     string
	HouseholdType      string
	AgreementStartDate *time.Time
	OwnerID            string
	HasClarify         bool
}
