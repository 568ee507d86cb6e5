package domain

import "time"

// Employee is a HR-directory entry, cached in the store by the sync use case.
type Employee struct {
	ID    string
	Email string
}

// LeaveRequest is a HR-sourced leave period. Only approved requests apply
// to the capacity model; the store filters on status at read time.
type LeaveRequest struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Status     LeaveStatus
}

// Approved reports whether the request counts as out-of-office.
func (l LeaveRequest) Approved() bool {
	return l.Status == LeaveApproved
}
