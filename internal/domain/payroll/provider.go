package payroll

import (
	"context"
	"time"
)

// External collaborators consumed by the payroll engine. Implementations live
// in the repository layer; the engine only depends on these contracts.

// DateOf truncates t to its calendar date in UTC so it can key day maps.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayPart of a leave record
type DayPart string

const (
	DayPartFull DayPart = "full"
	DayPartAM   DayPart = "am"
	DayPartPM   DayPart = "pm"
)

// Shift - an employee's working pattern
type Shift struct {
	WorkingDays           map[time.Weekday]bool
	StartTime             time.Duration // offset from midnight
	EndTime               time.Duration // offset from midnight; may exceed 24h for overnight shifts
	LateToleranceMin      int
	EarlyExitToleranceMin int
}

// ScheduledMinutes returns the length of the shift in minutes.
func (s Shift) ScheduledMinutes() int {
	if s.EndTime <= s.StartTime {
		return 0
	}
	return int((s.EndTime - s.StartTime) / time.Minute)
}

// AttendanceStatus of a clock record
type AttendanceStatus string

const (
	AttendancePresent    AttendanceStatus = "present"
	AttendanceLate       AttendanceStatus = "late"
	AttendanceEarlyLeave AttendanceStatus = "early_leave"
	AttendanceAbsent     AttendanceStatus = "absent"
)

// CountsAsPresence reports whether the record means the employee worked that day.
func (s AttendanceStatus) CountsAsPresence() bool {
	return s != AttendanceAbsent && s != ""
}

// AttendanceRecord - one day of clock-in/out data. Minute fields are nil when
// the capture layer did not compute them.
type AttendanceRecord struct {
	Date              time.Time
	Status            AttendanceStatus
	ClockIn           *time.Time
	ClockOut          *time.Time
	DurationMinutes   *int
	LateMinutes       *int
	EarlyLeaveMinutes *int
	OvertimeMinutes   *int
}

// LeaveDay - approved leave covering one calendar day
type LeaveDay struct {
	Date    time.Time
	DayPart DayPart
	IsPaid  bool
}

type ShiftProvider interface {
	GetShift(ctx context.Context, companyID, employeeID string) (Shift, error)
}

type AttendanceProvider interface {
	GetAttendance(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]AttendanceRecord, error)
}

type LeaveProvider interface {
	GetLeaves(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]LeaveDay, error)
}

// HolidayProvider returns tenant holidays keyed by DateOf.
type HolidayProvider interface {
	GetHolidays(ctx context.Context, companyID string, from, to time.Time) (map[time.Time]bool, error)
}

// Notifier delivers a rendered payslip to an employee.
type Notifier interface {
	SendPayslip(ctx context.Context, employeeEmail string, payslip Payslip, cycle PayrollCycle) error
}
