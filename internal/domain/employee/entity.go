package employee

import (
	"time"
)

type Employee struct {
	ID                string
	UserID            *string
	CompanyID         string
	WorkScheduleID    *string
	EmployeeCode      string
	FullName          string
	HireDate          time.Time
	ResignationDate   *time.Time
	EmploymentStatus  EmploymentStatus
	BankName          string
	BankAccountNumber string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Joined from users
	Email *string
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// EmployedDuring reports whether the employee was on the payroll for any day
// of [start, end].
func (e Employee) EmployedDuring(start, end time.Time) bool {
	if e.HireDate.After(end) {
		return false
	}
	if e.ResignationDate != nil && e.ResignationDate.Before(start) {
		return false
	}
	return true
}
