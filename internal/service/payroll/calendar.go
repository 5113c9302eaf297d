package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var (
	one  = decimal.NewFromInt(1)
	half = decimal.NewFromFloat(0.5)
)

// CalendarInput is everything the classifier needs for one employee and range.
// Map keys are dates produced by payroll.DateOf.
type CalendarInput struct {
	WorkingDays map[time.Weekday]bool
	Holidays    map[time.Time]bool
	Leaves      map[time.Time][]payroll.LeaveDay
	Attendance  map[time.Time]payroll.AttendanceRecord
	Start       time.Time
	End         time.Time
}

// dayCategory is how a single calendar day was classified
type dayCategory int

const (
	dayWorking dayCategory = iota
	dayHoliday
	dayWeeklyOff
	dayLeaveMixed
)

// dayBreakdown holds the fractions one calendar day contributes
type dayBreakdown struct {
	category    dayCategory
	scheduled   decimal.Decimal
	present     decimal.Decimal
	paidLeave   decimal.Decimal
	unpaidLeave decimal.Decimal
	absent      decimal.Decimal
}

// Summarize classifies every day in [Start, End] and aggregates the counts.
func Summarize(in CalendarInput) payroll.DaySummary {
	summary := payroll.DaySummary{
		WorkingDays:     decimal.Zero,
		PresentDays:     decimal.Zero,
		PaidLeaveDays:   decimal.Zero,
		UnpaidLeaveDays: decimal.Zero,
		AbsentDays:      decimal.Zero,
		PayableDays:     decimal.Zero,
	}

	start := payroll.DateOf(in.Start)
	end := payroll.DateOf(in.End)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := classifyDay(in, d)

		summary.TotalDays++
		summary.WorkingDays = summary.WorkingDays.Add(day.scheduled)
		summary.PresentDays = summary.PresentDays.Add(day.present)
		summary.PaidLeaveDays = summary.PaidLeaveDays.Add(day.paidLeave)
		summary.UnpaidLeaveDays = summary.UnpaidLeaveDays.Add(day.unpaidLeave)
		summary.AbsentDays = summary.AbsentDays.Add(day.absent)

		switch day.category {
		case dayHoliday:
			summary.Holidays++
		case dayWeeklyOff:
			summary.WeeklyOffDays++
		}
	}

	summary.PayableDays = summary.PresentDays.Add(summary.PaidLeaveDays)
	return summary
}

func classifyDay(in CalendarInput, d time.Time) dayBreakdown {
	scheduled := decimal.Zero
	if in.WorkingDays[d.Weekday()] {
		scheduled = one
	}

	// A holiday never counts as a working day, scheduled or not.
	if in.Holidays[d] {
		return dayBreakdown{category: dayHoliday, scheduled: decimal.Zero}
	}
	if scheduled.IsZero() {
		return dayBreakdown{category: dayWeeklyOff, scheduled: decimal.Zero}
	}

	day := dayBreakdown{
		category:    dayWorking,
		scheduled:   scheduled,
		paidLeave:   decimal.Zero,
		unpaidLeave: decimal.Zero,
		present:     decimal.Zero,
		absent:      decimal.Zero,
	}

	for _, leave := range in.Leaves[d] {
		fraction := one
		if leave.DayPart == payroll.DayPartAM || leave.DayPart == payroll.DayPartPM {
			fraction = half
		}
		available := scheduled.Sub(day.paidLeave).Sub(day.unpaidLeave)
		if !available.IsPositive() {
			break
		}
		fraction = decimal.Min(fraction, available)
		if leave.IsPaid {
			day.paidLeave = day.paidLeave.Add(fraction)
		} else {
			day.unpaidLeave = day.unpaidLeave.Add(fraction)
		}
	}
	if day.paidLeave.IsPositive() && day.unpaidLeave.IsPositive() {
		day.category = dayLeaveMixed
	}

	remaining := scheduled.Sub(day.paidLeave).Sub(day.unpaidLeave)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	if record, ok := in.Attendance[d]; ok && record.Status.CountsAsPresence() {
		day.present = decimal.Min(remaining, scheduled)
	}

	day.absent = remaining.Sub(day.present)
	if day.absent.IsNegative() {
		day.absent = decimal.Zero
	}

	return day
}

// IndexLeaves groups leave days by date.
func IndexLeaves(leaves []payroll.LeaveDay) map[time.Time][]payroll.LeaveDay {
	byDate := make(map[time.Time][]payroll.LeaveDay, len(leaves))
	for _, l := range leaves {
		d := payroll.DateOf(l.Date)
		byDate[d] = append(byDate[d], l)
	}
	return byDate
}

// IndexAttendance keys attendance records by date. When a date has several
// records, one that counts as presence wins.
func IndexAttendance(records []payroll.AttendanceRecord) map[time.Time]payroll.AttendanceRecord {
	byDate := make(map[time.Time]payroll.AttendanceRecord, len(records))
	for _, r := range records {
		d := payroll.DateOf(r.Date)
		if existing, ok := byDate[d]; ok && existing.Status.CountsAsPresence() {
			continue
		}
		byDate[d] = r
	}
	return byDate
}
