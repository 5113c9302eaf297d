package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Ledger accounts used by payroll postings
const (
	AccountSalaryExpense         = "Salary Expense"
	AccountSalaryExpenseRecovery = "Salary Expense Recovery"
	AccountTaxPayable            = "Tax Payable"
	AccountLoansReceivable       = "Employee Loans Receivable"
	AccountDeductionsPayable     = "Payroll Deductions Payable"
	AccountSalaryPayable         = "Salary Payable"
	AccountBank                  = "Bank Account"
)

// PayslipTotals aggregates a cycle's payslips by ledger bucket
type PayslipTotals struct {
	Gross      decimal.Decimal
	Net        decimal.Decimal
	Tax        decimal.Decimal
	Loans      decimal.Decimal
	Deductions decimal.Decimal
	Attendance decimal.Decimal
}

// TotalPayslips sums payslip items per category.
func TotalPayslips(payslips []payroll.Payslip) PayslipTotals {
	t := PayslipTotals{
		Gross:      decimal.Zero,
		Net:        decimal.Zero,
		Tax:        decimal.Zero,
		Loans:      decimal.Zero,
		Deductions: decimal.Zero,
		Attendance: decimal.Zero,
	}
	for _, p := range payslips {
		t.Gross = t.Gross.Add(p.GrossSalary)
		t.Net = t.Net.Add(p.NetSalary)
		for _, item := range p.Items {
			if item.Type != payroll.ItemTypeDeduction {
				continue
			}
			switch item.Category {
			case payroll.CategoryTax:
				t.Tax = t.Tax.Add(item.Amount)
			case payroll.CategoryLoan:
				t.Loans = t.Loans.Add(item.Amount)
			case payroll.CategoryAttendance:
				t.Attendance = t.Attendance.Add(item.Amount)
			default:
				t.Deductions = t.Deductions.Add(item.Amount)
			}
		}
	}
	return t
}

// BuildAccrualEntry recognizes salary expense and the liabilities it creates.
// Salary Payable takes the residual, which equals total net pay.
func BuildAccrualEntry(cycle payroll.PayrollCycle, payslips []payroll.Payslip, entryDate time.Time) (payroll.JournalEntry, error) {
	t := TotalPayslips(payslips)
	residual := t.Gross.Sub(t.Tax).Sub(t.Loans).Sub(t.Deductions).Sub(t.Attendance)

	entry := payroll.JournalEntry{
		CompanyID:     cycle.CompanyID,
		ReferenceType: payroll.ReferencePayrollCycle,
		ReferenceID:   cycle.ID,
		EntryDate:     entryDate,
		Description:   fmt.Sprintf("Salary accrual for %s", cycle.Name),
	}
	entry.Items = appendLine(entry.Items, AccountSalaryExpense, t.Gross, decimal.Zero)
	entry.Items = appendLine(entry.Items, AccountTaxPayable, decimal.Zero, t.Tax)
	entry.Items = appendLine(entry.Items, AccountLoansReceivable, decimal.Zero, t.Loans)
	entry.Items = appendLine(entry.Items, AccountDeductionsPayable, decimal.Zero, t.Deductions)
	entry.Items = appendLine(entry.Items, AccountSalaryExpenseRecovery, decimal.Zero, t.Attendance)
	entry.Items = appendLine(entry.Items, AccountSalaryPayable, decimal.Zero, residual)

	if !residual.Equal(t.Net) {
		return payroll.JournalEntry{}, fmt.Errorf("salary payable %s differs from total net %s: %w", residual, t.Net, payroll.ErrUnbalancedJournal)
	}
	if err := ValidateEntry(entry); err != nil {
		return payroll.JournalEntry{}, err
	}
	return entry, nil
}

// BuildPaymentEntry settles salary payable from the bank.
func BuildPaymentEntry(cycle payroll.PayrollCycle, payslips []payroll.Payslip, entryDate time.Time) (payroll.JournalEntry, error) {
	t := TotalPayslips(payslips)

	entry := payroll.JournalEntry{
		CompanyID:     cycle.CompanyID,
		ReferenceType: payroll.ReferencePayrollPayment,
		ReferenceID:   cycle.ID,
		EntryDate:     entryDate,
		Description:   fmt.Sprintf("Salary payment for %s", cycle.Name),
	}
	entry.Items = appendLine(entry.Items, AccountSalaryPayable, t.Net, decimal.Zero)
	entry.Items = appendLine(entry.Items, AccountBank, decimal.Zero, t.Net)

	if err := ValidateEntry(entry); err != nil {
		return payroll.JournalEntry{}, err
	}
	return entry, nil
}

// appendLine skips zero lines.
func appendLine(items []payroll.JournalItem, account string, debit, credit decimal.Decimal) []payroll.JournalItem {
	if debit.IsZero() && credit.IsZero() {
		return items
	}
	return append(items, payroll.JournalItem{Account: account, Debit: debit, Credit: credit})
}

// ValidateEntry checks each line has exactly one positive side and that
// debits equal credits. An entry with no lines is balanced.
func ValidateEntry(entry payroll.JournalEntry) error {
	debits, credits := decimal.Zero, decimal.Zero
	for _, item := range entry.Items {
		if item.Debit.IsNegative() || item.Credit.IsNegative() {
			return fmt.Errorf("account %s: %w", item.Account, payroll.ErrInvalidJournalLine)
		}
		if item.Debit.IsPositive() == item.Credit.IsPositive() {
			return fmt.Errorf("account %s: %w", item.Account, payroll.ErrInvalidJournalLine)
		}
		debits = debits.Add(item.Debit)
		credits = credits.Add(item.Credit)
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("debits %s, credits %s: %w", debits, credits, payroll.ErrUnbalancedJournal)
	}
	return nil
}
