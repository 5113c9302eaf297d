package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// PreviewInstallment is the amount due from a loan this cycle: the monthly
// installment capped at the outstanding balance.
func PreviewInstallment(loan payroll.Loan) decimal.Decimal {
	if loan.Status != payroll.LoanStatusActive {
		return decimal.Zero
	}
	return decimal.Min(loan.MonthlyInstallment, loan.Balance())
}

// LoanItems turns the active loans of an employee into payslip deductions.
// The combined repayment never exceeds available, so net pay stays >= 0.
func LoanItems(loans []payroll.Loan, available decimal.Decimal, periodEnd time.Time) []payroll.PayslipItem {
	var items []payroll.PayslipItem
	for _, loan := range loans {
		if loan.StartDate.After(periodEnd) {
			continue
		}
		amount := decimal.Min(PreviewInstallment(loan), available)
		if !amount.IsPositive() {
			continue
		}
		available = available.Sub(amount)

		loanID := loan.ID
		name := "Loan Repayment"
		if loan.Type == payroll.LoanTypeAdvance {
			name = "Advance Repayment"
		}
		items = append(items, payroll.PayslipItem{
			Name:     name,
			Type:     payroll.ItemTypeDeduction,
			Category: payroll.CategoryLoan,
			Amount:   round2(amount),
			LoanID:   &loanID,
		})
	}
	return items
}

// ApplyRepayment returns the loan after posting amount against it. The loan
// closes when its balance reaches zero.
func ApplyRepayment(loan payroll.Loan, amount decimal.Decimal) (payroll.Loan, error) {
	if !amount.IsPositive() {
		return loan, fmt.Errorf("repayment amount must be positive, got %s", amount)
	}
	if amount.GreaterThan(loan.Balance()) {
		return loan, fmt.Errorf("loan %s: repay %s, balance %s: %w", loan.ID, amount, loan.Balance(), payroll.ErrRepaymentExceedsBalance)
	}
	loan.RepaidAmount = loan.RepaidAmount.Add(amount)
	if loan.Balance().IsZero() {
		loan.Status = payroll.LoanStatusClosed
	}
	return loan, nil
}
