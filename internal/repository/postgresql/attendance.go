package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type attendanceProvider struct {
	db *database.DB
}

func NewAttendanceProvider(db *database.DB) payroll.AttendanceProvider {
	return &attendanceProvider{db: db}
}

// attendanceStatus maps the clock-in module's statuses onto payroll statuses.
// Leave-type statuses carry no clock data and are reported through leave requests.
func attendanceStatus(raw string, clockedIn bool) (payroll.AttendanceStatus, bool) {
	switch raw {
	case "on_time":
		return payroll.AttendancePresent, true
	case "late":
		return payroll.AttendanceLate, true
	case "early_leave":
		return payroll.AttendanceEarlyLeave, true
	case "absent":
		return payroll.AttendanceAbsent, true
	}
	if clockedIn {
		return payroll.AttendancePresent, true
	}
	return "", false
}

// GetAttendance implements payroll.AttendanceProvider.
func (a *attendanceProvider) GetAttendance(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]payroll.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	// Clock times are converted to the branch's wall clock so they line up
	// with the shift's start and end offsets.
	query := `
		SELECT a.date, a.status,
			   a.clock_in AT TIME ZONE COALESCE(b.timezone, 'UTC'),
			   a.clock_out AT TIME ZONE COALESCE(b.timezone, 'UTC'),
			   a.work_hours_in_minutes, a.late_minutes, a.early_leave_minutes, a.overtime_minutes
		FROM attendances a
		JOIN employees e ON e.id = a.employee_id
		LEFT JOIN branches b ON b.id = e.branch_id
		WHERE a.company_id = $1 AND a.employee_id = $2
			AND a.date BETWEEN $3 AND $4
			AND a.status NOT IN ('rejected', 'waiting_approval')
		ORDER BY a.date
	`

	rows, err := q.Query(ctx, query, companyID, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendances: %w", err)
	}
	defer rows.Close()

	var records []payroll.AttendanceRecord
	for rows.Next() {
		var (
			rec    payroll.AttendanceRecord
			status string
		)
		if err := rows.Scan(
			&rec.Date, &status, &rec.ClockIn, &rec.ClockOut, &rec.DurationMinutes,
			&rec.LateMinutes, &rec.EarlyLeaveMinutes, &rec.OvertimeMinutes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}

		mapped, ok := attendanceStatus(status, rec.ClockIn != nil)
		if !ok {
			continue
		}
		rec.Status = mapped
		rec.Date = payroll.DateOf(rec.Date)
		records = append(records, rec)
	}

	return records, rows.Err()
}
