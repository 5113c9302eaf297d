package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5/pgtype"
)

type shiftProvider struct {
	db *database.DB
}

// NewShiftProvider resolves an employee's shift from their default work schedule.
func NewShiftProvider(db *database.DB) payroll.ShiftProvider {
	return &shiftProvider{db: db}
}

// GetShift implements payroll.ShiftProvider. Every day_of_week row of the
// schedule is a working day; the times of the earliest weekday define the shift.
func (s *shiftProvider) GetShift(ctx context.Context, companyID, employeeID string) (payroll.Shift, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT wst.day_of_week, wst.clock_in_time, wst.clock_out_time, wst.is_next_day_checkout,
			   ws.grace_period_minutes, ws.early_exit_tolerance_minutes
		FROM employees e
		JOIN work_schedules ws ON ws.id = e.work_schedule_id AND ws.deleted_at IS NULL
		JOIN work_schedule_times wst ON wst.work_schedule_id = ws.id
		WHERE e.id = $1 AND e.company_id = $2
		ORDER BY wst.day_of_week
	`

	rows, err := q.Query(ctx, query, employeeID, companyID)
	if err != nil {
		return payroll.Shift{}, fmt.Errorf("failed to get work schedule: %w", err)
	}
	defer rows.Close()

	shift := payroll.Shift{WorkingDays: make(map[time.Weekday]bool)}
	found := false
	for rows.Next() {
		var (
			isoDay            int
			clockIn, clockOut pgtype.Time
			nextDay           bool
			grace, earlyExit  int
		)
		if err := rows.Scan(&isoDay, &clockIn, &clockOut, &nextDay, &grace, &earlyExit); err != nil {
			return payroll.Shift{}, fmt.Errorf("failed to scan work schedule time: %w", err)
		}

		// ISODOW: 1 = Monday ... 7 = Sunday
		shift.WorkingDays[time.Weekday(isoDay%7)] = true
		if found {
			continue
		}
		found = true
		shift.StartTime = time.Duration(clockIn.Microseconds) * time.Microsecond
		shift.EndTime = time.Duration(clockOut.Microseconds) * time.Microsecond
		if nextDay || shift.EndTime <= shift.StartTime {
			shift.EndTime += 24 * time.Hour
		}
		shift.LateToleranceMin = grace
		shift.EarlyExitToleranceMin = earlyExit
	}
	if err := rows.Err(); err != nil {
		return payroll.Shift{}, err
	}

	if !found {
		return payroll.Shift{}, payroll.ErrNoShift
	}
	return shift, nil
}
