package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var (
	hundred       = decimal.NewFromInt(100)
	minutesInHour = decimal.NewFromInt(60)
)

// EarningsInput is what the earnings engine needs for one payslip
type EarningsInput struct {
	Structure   payroll.SalaryStructure
	Days        payroll.DaySummary
	Minutes     AttendanceMinutes
	Adjustments []payroll.PayrollAdjustment
	Settings    payroll.PayrollSettings
}

// Earnings is the payslip before loans and tax
type Earnings struct {
	Items        []payroll.PayslipItem
	Gross        decimal.Decimal
	Deductions   decimal.Decimal
	TaxableGross decimal.Decimal
}

// round2 rounds half away from zero to two decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// PayDivisor returns the denominator of the per-day rate for a cycle.
// working_days falls back to days_per_month when the cycle has no working days.
func PayDivisor(settings payroll.PayrollSettings, days payroll.DaySummary) decimal.Decimal {
	if settings.PayDivisor == payroll.PayDivisorWorkingDays && days.WorkingDays.IsPositive() {
		return days.WorkingDays
	}
	return settings.DaysPerMonth
}

// ComputeEarnings expands the structure into payslip items and applies
// attendance-based pay and deductions. Every amount is rounded to 2 places.
func ComputeEarnings(in EarningsInput) Earnings {
	base := in.Structure.BaseSalary
	divisor := PayDivisor(in.Settings, in.Days)
	hasRate := divisor.IsPositive()
	hasHourlyRate := hasRate && in.Settings.WorkHoursPerDay.IsPositive()

	var earnings, deductions []payroll.PayslipItem
	taxable := decimal.Zero
	attendanceDeductions := decimal.Zero

	addEarning := func(item payroll.PayslipItem) {
		if !item.Amount.IsPositive() {
			return
		}
		item.Type = payroll.ItemTypeEarning
		earnings = append(earnings, item)
		if item.Taxable {
			taxable = taxable.Add(item.Amount)
		}
	}
	addDeduction := func(item payroll.PayslipItem) {
		if !item.Amount.IsPositive() {
			return
		}
		item.Type = payroll.ItemTypeDeduction
		deductions = append(deductions, item)
		if item.Category == payroll.CategoryAttendance {
			attendanceDeductions = attendanceDeductions.Add(item.Amount)
		}
	}

	// ========== EARNINGS ==========

	addEarning(payroll.PayslipItem{
		Name:     "Base Salary",
		Category: payroll.CategoryBase,
		Amount:   round2(base),
		Taxable:  true,
	})

	for _, item := range in.Structure.Items {
		if item.ComponentType != payroll.ComponentTypeEarning {
			continue
		}
		addEarning(payroll.PayslipItem{
			Name:     item.ComponentName,
			Category: payroll.CategoryAllowance,
			Amount:   salaryItemAmount(item, base),
			Taxable:  item.IsTaxable,
		})
	}

	if in.Settings.OvertimeEnabled && hasHourlyRate && in.Minutes.Overtime > 0 {
		hours := decimal.NewFromInt(int64(in.Minutes.Overtime)).Div(minutesInHour)
		// base * hours * multiplier / (divisor * hoursPerDay), multiplied first to keep precision
		amount := base.Mul(hours).Mul(in.Settings.OvertimeMultiplier).
			Div(divisor.Mul(in.Settings.WorkHoursPerDay))
		addEarning(payroll.PayslipItem{
			Name:     fmt.Sprintf("Overtime (%s hrs)", hours.Round(2).String()),
			Category: payroll.CategoryOvertime,
			Amount:   round2(amount),
			Taxable:  true,
		})
	}

	for _, adj := range in.Adjustments {
		if adj.Type != payroll.ComponentTypeEarning {
			continue
		}
		addEarning(payroll.PayslipItem{
			Name:     "Bonus: " + adj.Name,
			Category: payroll.CategoryBonus,
			Amount:   round2(adj.Amount),
			Taxable:  adj.IsTaxable,
		})
	}

	// ========== DEDUCTIONS ==========

	for _, item := range in.Structure.Items {
		if item.ComponentType != payroll.ComponentTypeDeduction {
			continue
		}
		addDeduction(payroll.PayslipItem{
			Name:     item.ComponentName,
			Category: payroll.CategoryDeduction,
			Amount:   salaryItemAmount(item, base),
		})
	}

	penaltyMinutes := in.Minutes.Late + in.Minutes.EarlyLeave
	if in.Settings.LatePenaltyEnabled && hasHourlyRate && penaltyMinutes > 0 {
		minutes := decimal.NewFromInt(int64(penaltyMinutes))
		amount := base.Mul(minutes).
			Div(divisor.Mul(in.Settings.WorkHoursPerDay).Mul(minutesInHour))
		addDeduction(payroll.PayslipItem{
			Name:     "Late Penalty",
			Category: payroll.CategoryAttendance,
			Amount:   round2(amount),
		})
	}

	if hasRate && in.Days.UnpaidLeaveDays.IsPositive() {
		addDeduction(payroll.PayslipItem{
			Name:     fmt.Sprintf("Unpaid Leave (%s days)", in.Days.UnpaidLeaveDays.String()),
			Category: payroll.CategoryAttendance,
			Amount:   round2(base.Mul(in.Days.UnpaidLeaveDays).Div(divisor)),
		})
	}

	if hasRate && in.Days.AbsentDays.IsPositive() {
		addDeduction(payroll.PayslipItem{
			Name:     fmt.Sprintf("Absence (%s days)", in.Days.AbsentDays.String()),
			Category: payroll.CategoryAttendance,
			Amount:   round2(base.Mul(in.Days.AbsentDays).Div(divisor)),
		})
	}

	for _, adj := range in.Adjustments {
		if adj.Type != payroll.ComponentTypeDeduction {
			continue
		}
		addDeduction(payroll.PayslipItem{
			Name:     adj.Name,
			Category: payroll.CategoryDeduction,
			Amount:   round2(adj.Amount),
		})
	}

	result := Earnings{
		Items:      append(earnings, deductions...),
		Gross:      sumItems(earnings),
		Deductions: sumItems(deductions),
	}
	result.TaxableGross = taxable.Sub(attendanceDeductions)
	if result.TaxableGross.IsNegative() {
		result.TaxableGross = decimal.Zero
	}
	return result
}

func salaryItemAmount(item payroll.SalaryItem, base decimal.Decimal) decimal.Decimal {
	if item.IsPercentage {
		return round2(item.Percentage.Div(hundred).Mul(base))
	}
	return round2(item.Amount)
}

func sumItems(items []payroll.PayslipItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}
