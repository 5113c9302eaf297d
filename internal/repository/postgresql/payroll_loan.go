package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/jackc/pgx/v5"
)

// loanSelect computes the repaid amount from posted repayments so the
// balance is never stored twice.
const loanSelect = `
	SELECT l.id, l.company_id, l.employee_id, l.type, l.principal, l.monthly_installment,
		   l.interest_rate, l.start_date, l.status, l.created_at, l.updated_at,
		   COALESCE((SELECT SUM(lr.amount) FROM loan_repayments lr WHERE lr.loan_id = l.id), 0) AS repaid_amount
	FROM employee_loans l
`

func scanLoan(row pgx.Row) (payroll.Loan, error) {
	var l payroll.Loan
	err := row.Scan(
		&l.ID, &l.CompanyID, &l.EmployeeID, &l.Type, &l.Principal, &l.MonthlyInstallment,
		&l.InterestRate, &l.StartDate, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		&l.RepaidAmount,
	)
	return l, err
}

func (r *payrollRepository) queryLoans(ctx context.Context, query string, args ...interface{}) ([]payroll.Loan, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []payroll.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, l)
	}

	return loans, rows.Err()
}

func (r *payrollRepository) CreateLoan(ctx context.Context, loan payroll.Loan) (payroll.Loan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employee_loans (company_id, employee_id, type, principal, monthly_installment, interest_rate, start_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		loan.CompanyID, loan.EmployeeID, loan.Type, loan.Principal, loan.MonthlyInstallment,
		loan.InterestRate, loan.StartDate, loan.Status,
	).Scan(&id)
	if err != nil {
		return payroll.Loan{}, fmt.Errorf("failed to create loan: %w", err)
	}

	return r.GetLoanByID(ctx, id, loan.CompanyID)
}

func (r *payrollRepository) GetLoanByID(ctx context.Context, id string, companyID string) (payroll.Loan, error) {
	q := GetQuerier(ctx, r.db)

	l, err := scanLoan(q.QueryRow(ctx, loanSelect+` WHERE l.id = $1 AND l.company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Loan{}, payroll.ErrLoanNotFound
		}
		return payroll.Loan{}, fmt.Errorf("failed to get loan: %w", err)
	}

	return l, nil
}

func (r *payrollRepository) ListLoans(ctx context.Context, companyID string, filter payroll.LoanFilter) ([]payroll.Loan, error) {
	query := loanSelect + ` WHERE l.company_id = $1`
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil {
		query += fmt.Sprintf(" AND l.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND l.status = $%d", argIdx)
		args = append(args, *filter.Status)
	}
	query += " ORDER BY l.start_date DESC, l.created_at DESC"

	return r.queryLoans(ctx, query, args...)
}

// ListActiveLoansByEmployee returns the loans eligible for deduction, oldest first.
func (r *payrollRepository) ListActiveLoansByEmployee(ctx context.Context, companyID, employeeID string, asOf time.Time) ([]payroll.Loan, error) {
	query := loanSelect + `
		WHERE l.company_id = $1 AND l.employee_id = $2 AND l.status = 'active' AND l.start_date <= $3
		ORDER BY l.start_date, l.created_at
	`
	return r.queryLoans(ctx, query, companyID, employeeID, asOf)
}

func (r *payrollRepository) CreateLoanRepayment(ctx context.Context, repayment payroll.LoanRepayment) (payroll.LoanRepayment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO loan_repayments (company_id, loan_id, cycle_id, amount, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, company_id, loan_id, cycle_id, amount, date, created_at
	`

	var lr payroll.LoanRepayment
	err := q.QueryRow(ctx, query,
		repayment.CompanyID, repayment.LoanID, repayment.CycleID, repayment.Amount, repayment.Date,
	).Scan(&lr.ID, &lr.CompanyID, &lr.LoanID, &lr.CycleID, &lr.Amount, &lr.Date, &lr.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "uk_loan_repayment_cycle") {
			return payroll.LoanRepayment{}, payroll.ErrDuplicateRepayment
		}
		return payroll.LoanRepayment{}, fmt.Errorf("failed to create loan repayment: %w", err)
	}

	return lr, nil
}

func (r *payrollRepository) UpdateLoanStatus(ctx context.Context, id string, companyID string, status payroll.LoanStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employee_loans
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, status, id, companyID).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.ErrLoanNotFound
		}
		return fmt.Errorf("failed to update loan status: %w", err)
	}

	return nil
}
