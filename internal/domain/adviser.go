package domain

import "time"

// Adviser is the CRM-sourced profile of a financial adviser. Immutable
// within a single allocation run.
type Adviser struct {
	ID                 string
	Email              string
	ServicePackages    []string
	HouseholdTypes     []string
	PodType            PodType
	ClientLimitMonthly int
	StartDate          *time.Time
	TakingOnClients    bool
}

// SupportsPackage reports whether the adviser services the given package.
func (a Adviser) SupportsPackage(pkg string) bool {
	for _, p := range a.ServicePackages {
		if p == pkg {
			return true
		}
	}
	return false
}

// SupportsHousehold reports whether the adviser services the household type.
// An empty household type matches every adviser.
func (a Adviser) SupportsHousehold(ht string) bool {
	if ht == "" {
		return true
	}
	for _, h := range a.HouseholdTypes {
		if h == ht {
			return true
		}
	}
	return false
}
