package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type leaveProvider struct {
	db *database.DB
}

func NewLeaveProvider(db *database.DB) payroll.LeaveProvider {
	return &leaveProvider{db: db}
}

func dayPartOf(durationType string) payroll.DayPart {
	switch durationType {
	case "half_day_morning":
		return payroll.DayPartAM
	case "half_day_afternoon":
		return payroll.DayPartPM
	default:
		return payroll.DayPartFull
	}
}

// GetLeaves implements payroll.LeaveProvider. Approved requests overlapping
// [from, to] are expanded into one LeaveDay per calendar day inside the range.
func (l *leaveProvider) GetLeaves(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]payroll.LeaveDay, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT lr.start_date, lr.end_date, lr.duration_type, lt.is_paid
		FROM leave_requests lr
		INNER JOIN employees e ON lr.employee_id = e.id
		INNER JOIN leave_types lt ON lt.id = lr.leave_type_id
		WHERE e.id = $1 AND e.company_id = $2
			AND lr.status = 'approved'
			AND lr.start_date <= $4 AND lr.end_date >= $3
		ORDER BY lr.start_date
	`

	rows, err := q.Query(ctx, query, employeeID, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave requests: %w", err)
	}
	defer rows.Close()

	from, to = payroll.DateOf(from), payroll.DateOf(to)

	var days []payroll.LeaveDay
	for rows.Next() {
		var (
			start, end   time.Time
			durationType string
			isPaid       bool
		)
		if err := rows.Scan(&start, &end, &durationType, &isPaid); err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}

		start, end = payroll.DateOf(start), payroll.DateOf(end)
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		part := dayPartOf(durationType)
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			days = append(days, payroll.LeaveDay{Date: d, DayPart: part, IsPaid: isPaid})
		}
	}

	return days, rows.Err()
}
