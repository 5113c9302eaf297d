package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/jackc/pgx/v5"
)

const cycleColumns = `
	id, company_id, name, start_date, end_date, status, created_by,
	approved_at, locked_at, paid_at, created_at, updated_at
`

func scanCycle(row pgx.Row) (payroll.PayrollCycle, error) {
	var c payroll.PayrollCycle
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.StartDate, &c.EndDate, &c.Status, &c.CreatedBy,
		&c.ApprovedAt, &c.LockedAt, &c.PaidAt, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *payrollRepository) getCycle(ctx context.Context, query string, args ...interface{}) (payroll.PayrollCycle, error) {
	q := GetQuerier(ctx, r.db)

	c, err := scanCycle(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollCycle{}, payroll.ErrCycleNotFound
		}
		return payroll.PayrollCycle{}, fmt.Errorf("failed to get payroll cycle: %w", err)
	}

	return c, nil
}

func (r *payrollRepository) CreateCycle(ctx context.Context, cycle payroll.PayrollCycle) (payroll.PayrollCycle, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_cycles (company_id, name, start_date, end_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + cycleColumns

	c, err := scanCycle(q.QueryRow(ctx, query,
		cycle.CompanyID, cycle.Name, cycle.StartDate, cycle.EndDate, cycle.Status, cycle.CreatedBy,
	))
	if err != nil {
		if isUniqueViolation(err, "uk_payroll_cycle_period") {
			return payroll.PayrollCycle{}, payroll.ErrCycleAlreadyExists
		}
		return payroll.PayrollCycle{}, fmt.Errorf("failed to create payroll cycle: %w", err)
	}

	return c, nil
}

func (r *payrollRepository) GetCycleByID(ctx context.Context, id string, companyID string) (payroll.PayrollCycle, error) {
	return r.getCycle(ctx, `SELECT `+cycleColumns+` FROM payroll_cycles WHERE id = $1 AND company_id = $2`, id, companyID)
}

// GetCycleForUpdate locks the cycle row until the surrounding transaction ends.
func (r *payrollRepository) GetCycleForUpdate(ctx context.Context, id string, companyID string) (payroll.PayrollCycle, error) {
	return r.getCycle(ctx, `SELECT `+cycleColumns+` FROM payroll_cycles WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
}

func (r *payrollRepository) GetCycleByPeriod(ctx context.Context, companyID string, start, end time.Time) (payroll.PayrollCycle, error) {
	return r.getCycle(ctx,
		`SELECT `+cycleColumns+` FROM payroll_cycles WHERE company_id = $1 AND start_date = $2 AND end_date = $3`,
		companyID, start, end,
	)
}

func (r *payrollRepository) ListCycles(ctx context.Context, companyID string, filter payroll.CycleFilter) ([]payroll.PayrollCycle, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + cycleColumns + ` FROM payroll_cycles WHERE company_id = $1`
	args := []interface{}{companyID}
	if filter.Status != nil {
		query += " AND status = $2"
		args = append(args, *filter.Status)
	}
	query += " ORDER BY start_date DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll cycles: %w", err)
	}
	defer rows.Close()

	var cycles []payroll.PayrollCycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll cycle: %w", err)
		}
		cycles = append(cycles, c)
	}

	return cycles, rows.Err()
}

// TransitionCycle is a compare-and-set on status, so concurrent transitions
// of the same cycle cannot both succeed.
func (r *payrollRepository) TransitionCycle(ctx context.Context, id string, companyID string, from, to payroll.CycleStatus) (payroll.PayrollCycle, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_cycles
		SET status = $4,
			approved_at = CASE WHEN $4 = 'approved' THEN NOW() ELSE approved_at END,
			locked_at = CASE WHEN $4 = 'locked' THEN NOW() ELSE locked_at END,
			paid_at = CASE WHEN $4 = 'paid' THEN NOW() ELSE paid_at END,
			updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status = $3
		RETURNING ` + cycleColumns

	c, err := scanCycle(q.QueryRow(ctx, query, id, companyID, from, to))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return payroll.PayrollCycle{}, fmt.Errorf("failed to transition payroll cycle: %w", err)
	}

	// Distinguish a missing cycle from one in another status
	if _, err := r.GetCycleByID(ctx, id, companyID); err != nil {
		return payroll.PayrollCycle{}, err
	}
	return payroll.PayrollCycle{}, fmt.Errorf("%s -> %s: %w", from, to, payroll.ErrInvalidTransition)
}

// ========== ADJUSTMENTS ==========

func (r *payrollRepository) CreateAdjustment(ctx context.Context, adjustment payroll.PayrollAdjustment) (payroll.PayrollAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_adjustments (company_id, cycle_id, employee_id, name, type, amount, is_taxable)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, company_id, cycle_id, employee_id, name, type, amount, is_taxable, created_at
	`

	var a payroll.PayrollAdjustment
	err := q.QueryRow(ctx, query,
		adjustment.CompanyID, adjustment.CycleID, adjustment.EmployeeID, adjustment.Name,
		adjustment.Type, adjustment.Amount, adjustment.IsTaxable,
	).Scan(&a.ID, &a.CompanyID, &a.CycleID, &a.EmployeeID, &a.Name, &a.Type, &a.Amount, &a.IsTaxable, &a.CreatedAt)
	if err != nil {
		return payroll.PayrollAdjustment{}, fmt.Errorf("failed to create payroll adjustment: %w", err)
	}

	return a, nil
}

func (r *payrollRepository) ListAdjustments(ctx context.Context, companyID, cycleID, employeeID string) ([]payroll.PayrollAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, cycle_id, employee_id, name, type, amount, is_taxable, created_at
		FROM payroll_adjustments
		WHERE company_id = $1 AND cycle_id = $2 AND employee_id = $3
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, query, companyID, cycleID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []payroll.PayrollAdjustment
	for rows.Next() {
		var a payroll.PayrollAdjustment
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.CycleID, &a.EmployeeID, &a.Name, &a.Type, &a.Amount, &a.IsTaxable, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payroll adjustment: %w", err)
		}
		adjustments = append(adjustments, a)
	}

	return adjustments, rows.Err()
}
