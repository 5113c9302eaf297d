package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// PayslipInput gathers every fact needed to price one employee for one cycle
type PayslipInput struct {
	Cycle       payroll.PayrollCycle
	EmployeeID  string
	Structure   payroll.SalaryStructure
	Days        payroll.DaySummary
	Minutes     AttendanceMinutes
	Adjustments []payroll.PayrollAdjustment
	Settings    payroll.PayrollSettings
	Slabs       []payroll.TaxSlab
	Loans       []payroll.Loan
}

// BuildPayslip assembles earnings, loan repayments and tax into a payslip.
// Items come out in a fixed order with Position set.
func BuildPayslip(in PayslipInput) (payroll.Payslip, error) {
	earnings := ComputeEarnings(EarningsInput{
		Structure:   in.Structure,
		Days:        in.Days,
		Minutes:     in.Minutes,
		Adjustments: in.Adjustments,
		Settings:    in.Settings,
	})

	tax := ComputeTax(earnings.TaxableGross, in.Slabs)

	available := earnings.Gross.Sub(earnings.Deductions).Sub(tax)
	if available.IsNegative() {
		available = decimal.Zero
	}
	loanItems := LoanItems(in.Loans, available, in.Cycle.EndDate)

	items := make([]payroll.PayslipItem, 0, len(earnings.Items)+len(loanItems)+1)
	items = append(items, earnings.Items...)
	items = append(items, loanItems...)
	if tax.IsPositive() {
		items = append(items, payroll.PayslipItem{
			Name:     "Tax",
			Type:     payroll.ItemTypeDeduction,
			Category: payroll.CategoryTax,
			Amount:   tax,
		})
	}

	gross, deductions := decimal.Zero, decimal.Zero
	for i := range items {
		items[i].Position = i + 1
		if items[i].Type == payroll.ItemTypeEarning {
			gross = gross.Add(items[i].Amount)
		} else {
			deductions = deductions.Add(items[i].Amount)
		}
	}

	net := gross.Sub(deductions)
	if net.IsNegative() {
		return payroll.Payslip{}, fmt.Errorf("gross %s, deductions %s: %w", gross, deductions, payroll.ErrNegativeNetSalary)
	}

	return payroll.Payslip{
		CompanyID:         in.Cycle.CompanyID,
		CycleID:           in.Cycle.ID,
		EmployeeID:        in.EmployeeID,
		SalaryStructureID: in.Structure.ID,
		BaseSalary:        in.Structure.BaseSalary,
		GrossSalary:       gross,
		TotalDeductions:   deductions,
		TaxDeducted:       tax,
		NetSalary:         net,
		Days:              in.Days,
		OvertimeMinutes:   in.Minutes.Overtime,
		LateMinutes:       in.Minutes.Late,
		EarlyLeaveMinutes: in.Minutes.EarlyLeave,
		Items:             items,
	}, nil
}
