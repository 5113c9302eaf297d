package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
)

// AttendanceMinutes totals the timing figures of a cycle
type AttendanceMinutes struct {
	Overtime   int
	Late       int
	EarlyLeave int
}

// DeriveMinutes sums overtime, late and early-leave minutes over the records.
// Figures already stored on a record are used as-is; missing ones are derived
// from the shift and its tolerances. Holidays and full-leave days contribute
// nothing, and a half-day leave shortens that day's scheduled window.
func DeriveMinutes(
	shift payroll.Shift,
	records []payroll.AttendanceRecord,
	leaves map[time.Time][]payroll.LeaveDay,
	holidays map[time.Time]bool,
) AttendanceMinutes {
	var total AttendanceMinutes
	for _, r := range records {
		if !r.Status.CountsAsPresence() {
			continue
		}
		day := payroll.DateOf(r.Date)
		if holidays[day] {
			continue
		}
		scheduledIn, scheduledOut, ok := scheduledWindow(shift, day, leaves[day])
		if !ok {
			continue
		}

		if r.LateMinutes != nil {
			total.Late += nonNegative(*r.LateMinutes)
		} else if r.ClockIn != nil {
			graceLimit := scheduledIn.Add(time.Duration(shift.LateToleranceMin) * time.Minute)
			// Lateness counts from the scheduled start, not from the end of the grace period.
			if r.ClockIn.After(graceLimit) {
				total.Late += minutesBetween(scheduledIn, *r.ClockIn)
			}
		}

		if r.EarlyLeaveMinutes != nil {
			total.EarlyLeave += nonNegative(*r.EarlyLeaveMinutes)
		} else if r.ClockOut != nil {
			earlyLimit := scheduledOut.Add(-time.Duration(shift.EarlyExitToleranceMin) * time.Minute)
			if r.ClockOut.Before(earlyLimit) {
				total.EarlyLeave += minutesBetween(*r.ClockOut, scheduledOut)
			}
		}

		if r.OvertimeMinutes != nil {
			total.Overtime += nonNegative(*r.OvertimeMinutes)
		} else if worked, ok := workedMinutes(r); ok {
			total.Overtime += nonNegative(worked - minutesBetween(scheduledIn, scheduledOut))
		}
	}
	return total
}

// scheduledWindow returns the part of the shift the employee was expected to
// work on day. am leave moves the start forward by half the shift, pm leave
// moves the end back. ok is false when leave covers the whole day.
func scheduledWindow(shift payroll.Shift, day time.Time, leaves []payroll.LeaveDay) (in, out time.Time, ok bool) {
	in = day.Add(shift.StartTime)
	out = day.Add(shift.EndTime)

	var am, pm bool
	for _, l := range leaves {
		switch l.DayPart {
		case payroll.DayPartAM:
			am = true
		case payroll.DayPartPM:
			pm = true
		default:
			return in, out, false
		}
	}
	if am && pm {
		return in, out, false
	}

	half := time.Duration(shift.ScheduledMinutes()) * time.Minute / 2
	if am {
		in = in.Add(half)
	}
	if pm {
		out = out.Add(-half)
	}
	return in, out, true
}

func workedMinutes(r payroll.AttendanceRecord) (int, bool) {
	if r.DurationMinutes != nil {
		return *r.DurationMinutes, true
	}
	if r.ClockIn != nil && r.ClockOut != nil {
		return minutesBetween(*r.ClockIn, *r.ClockOut), true
	}
	return 0, false
}

func minutesBetween(from, to time.Time) int {
	return nonNegative(int(to.Sub(from) / time.Minute))
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
