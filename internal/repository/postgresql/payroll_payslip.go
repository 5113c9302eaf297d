package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/jackc/pgx/v5"
)

const payslipSelect = `
	SELECT p.id, p.company_id, p.cycle_id, p.employee_id, p.salary_structure_id,
		   p.base_salary, p.gross_salary, p.total_deductions, p.tax_deducted, p.net_salary,
		   p.total_days, p.working_days, p.present_days, p.paid_leave_days, p.unpaid_leave_days,
		   p.absent_days, p.weekly_off_days, p.holidays, p.payable_days,
		   p.overtime_minutes, p.late_minutes, p.early_leave_minutes, p.created_at,
		   e.full_name AS employee_name, e.employee_code, u.email
	FROM payslips p
	JOIN employees e ON e.id = p.employee_id
	LEFT JOIN users u ON u.id = e.user_id
`

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var p payroll.Payslip
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.CycleID, &p.EmployeeID, &p.SalaryStructureID,
		&p.BaseSalary, &p.GrossSalary, &p.TotalDeductions, &p.TaxDeducted, &p.NetSalary,
		&p.Days.TotalDays, &p.Days.WorkingDays, &p.Days.PresentDays, &p.Days.PaidLeaveDays, &p.Days.UnpaidLeaveDays,
		&p.Days.AbsentDays, &p.Days.WeeklyOffDays, &p.Days.Holidays, &p.Days.PayableDays,
		&p.OvertimeMinutes, &p.LateMinutes, &p.EarlyLeaveMinutes, &p.CreatedAt,
		&p.EmployeeName, &p.EmployeeCode, &p.EmployeeEmail,
	)
	return p, err
}

// CreatePayslip inserts the payslip and its items in one batch.
func (r *payrollRepository) CreatePayslip(ctx context.Context, payslip payroll.Payslip) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payslips (
			company_id, cycle_id, employee_id, salary_structure_id,
			base_salary, gross_salary, total_deductions, tax_deducted, net_salary,
			total_days, working_days, present_days, paid_leave_days, unpaid_leave_days,
			absent_days, weekly_off_days, holidays, payable_days,
			overtime_minutes, late_minutes, early_leave_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id
	`

	d := payslip.Days
	var id string
	err := q.QueryRow(ctx, query,
		payslip.CompanyID, payslip.CycleID, payslip.EmployeeID, payslip.SalaryStructureID,
		payslip.BaseSalary, payslip.GrossSalary, payslip.TotalDeductions, payslip.TaxDeducted, payslip.NetSalary,
		d.TotalDays, d.WorkingDays, d.PresentDays, d.PaidLeaveDays, d.UnpaidLeaveDays,
		d.AbsentDays, d.WeeklyOffDays, d.Holidays, d.PayableDays,
		payslip.OvertimeMinutes, payslip.LateMinutes, payslip.EarlyLeaveMinutes,
	).Scan(&id)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to create payslip: %w", err)
	}

	batch := &pgx.Batch{}
	for _, item := range payslip.Items {
		batch.Queue(`
			INSERT INTO payslip_items (payslip_id, name, type, category, amount, taxable, loan_id, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, item.Name, item.Type, item.Category, item.Amount, item.Taxable, item.LoanID, item.Position)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to create payslip items: %w", err)
	}

	return r.GetPayslipByID(ctx, id, payslip.CompanyID)
}

func (r *payrollRepository) DeletePayslip(ctx context.Context, companyID, cycleID, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	// payslip_items cascade
	_, err := q.Exec(ctx,
		`DELETE FROM payslips WHERE company_id = $1 AND cycle_id = $2 AND employee_id = $3`,
		companyID, cycleID, employeeID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete payslip: %w", err)
	}

	return nil
}

func (r *payrollRepository) GetPayslipByID(ctx context.Context, id string, companyID string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPayslip(q.QueryRow(ctx, payslipSelect+` WHERE p.id = $1 AND p.company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	payslips := []payroll.Payslip{p}
	if err := r.attachItems(ctx, payslips); err != nil {
		return payroll.Payslip{}, err
	}

	return payslips[0], nil
}

func (r *payrollRepository) ListPayslipsByCycle(ctx context.Context, companyID, cycleID string) ([]payroll.Payslip, error) {
	return r.listPayslips(ctx,
		payslipSelect+` WHERE p.company_id = $1 AND p.cycle_id = $2 ORDER BY e.employee_code`,
		companyID, cycleID,
	)
}

func (r *payrollRepository) ListPayslipsByEmployee(ctx context.Context, companyID, employeeID string) ([]payroll.Payslip, error) {
	return r.listPayslips(ctx, payslipSelect+`
		JOIN payroll_cycles c ON c.id = p.cycle_id
		WHERE p.company_id = $1 AND p.employee_id = $2
		ORDER BY c.start_date DESC
	`, companyID, employeeID)
}

func (r *payrollRepository) listPayslips(ctx context.Context, query string, args ...interface{}) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var payslips []payroll.Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		payslips = append(payslips, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, payslips); err != nil {
		return nil, err
	}

	return payslips, nil
}

// attachItems loads the items of every payslip with a single query.
func (r *payrollRepository) attachItems(ctx context.Context, payslips []payroll.Payslip) error {
	if len(payslips) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	ids := make([]string, len(payslips))
	index := make(map[string]int, len(payslips))
	for i, p := range payslips {
		ids[i] = p.ID
		index[p.ID] = i
	}

	query := `
		SELECT id, payslip_id, name, type, category, amount, taxable, loan_id, position
		FROM payslip_items
		WHERE payslip_id = ANY($1)
		ORDER BY payslip_id, position
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to get payslip items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it payroll.PayslipItem
		if err := rows.Scan(&it.ID, &it.PayslipID, &it.Name, &it.Type, &it.Category, &it.Amount, &it.Taxable, &it.LoanID, &it.Position); err != nil {
			return fmt.Errorf("failed to scan payslip item: %w", err)
		}
		i := index[it.PayslipID]
		payslips[i].Items = append(payslips[i].Items, it)
	}

	return rows.Err()
}
