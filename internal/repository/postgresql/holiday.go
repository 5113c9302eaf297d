package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type holidayProvider struct {
	db *database.DB
}

func NewHolidayProvider(db *database.DB) payroll.HolidayProvider {
	return &holidayProvider{db: db}
}

// GetHolidays implements payroll.HolidayProvider.
func (h *holidayProvider) GetHolidays(ctx context.Context, companyID string, from, to time.Time) (map[time.Time]bool, error) {
	q := GetQuerier(ctx, h.db)

	rows, err := q.Query(ctx,
		`SELECT date FROM company_holidays WHERE company_id = $1 AND date BETWEEN $2 AND $3`,
		companyID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays: %w", err)
	}
	defer rows.Close()

	holidays := make(map[time.Time]bool)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays[payroll.DateOf(d)] = true
	}

	return holidays, rows.Err()
}
