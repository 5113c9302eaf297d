package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== SETTINGS DTOs ==========

type PayrollSettingsResponse struct {
	ID                 string          `json:"id,omitempty"`
	CompanyID          string          `json:"company_id"`
	DaysPerMonth       decimal.Decimal `json:"days_per_month"`
	PayDivisor         string          `json:"pay_divisor"`
	WorkHoursPerDay    decimal.Decimal `json:"work_hours_per_day"`
	OvertimeEnabled    bool            `json:"overtime_enabled"`
	OvertimeMultiplier decimal.Decimal `json:"overtime_multiplier"`
	LatePenaltyEnabled bool            `json:"late_penalty_enabled"`
	AutoRunEnabled     bool            `json:"auto_run_enabled"`
	AutoRunDay         int             `json:"auto_run_day"`
}

type UpdatePayrollSettingsRequest struct {
	DaysPerMonth       *decimal.Decimal `json:"days_per_month,omitempty"`
	PayDivisor         *string          `json:"pay_divisor,omitempty"`
	WorkHoursPerDay    *decimal.Decimal `json:"work_hours_per_day,omitempty"`
	OvertimeEnabled    *bool            `json:"overtime_enabled,omitempty"`
	OvertimeMultiplier *decimal.Decimal `json:"overtime_multiplier,omitempty"`
	LatePenaltyEnabled *bool            `json:"late_penalty_enabled,omitempty"`
	AutoRunEnabled     *bool            `json:"auto_run_enabled,omitempty"`
	AutoRunDay         *int             `json:"auto_run_day,omitempty"`
}

func (r *UpdatePayrollSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.DaysPerMonth != nil && !r.DaysPerMonth.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "days_per_month", Message: "must be positive"})
	}
	if r.PayDivisor != nil && *r.PayDivisor != string(PayDivisorDaysPerMonth) && *r.PayDivisor != string(PayDivisorWorkingDays) {
		errs = append(errs, validator.ValidationError{Field: "pay_divisor", Message: "must be 'days_per_month' or 'working_days'"})
	}
	if r.WorkHoursPerDay != nil && !r.WorkHoursPerDay.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "work_hours_per_day", Message: "must be positive"})
	}
	if r.OvertimeMultiplier != nil && r.OvertimeMultiplier.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "overtime_multiplier", Message: "must be non-negative"})
	}
	if r.AutoRunDay != nil && (*r.AutoRunDay < 1 || *r.AutoRunDay > 31) {
		errs = append(errs, validator.ValidationError{Field: "auto_run_day", Message: "must be between 1 and 31"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== COMPONENT DTOs ==========

type CreateSalaryComponentRequest struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"` // "earning" or "deduction"
	Description *string `json:"description,omitempty"`
	IsTaxable   *bool   `json:"is_taxable,omitempty"`
}

func (r *CreateSalaryComponentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	if r.Type != string(ComponentTypeEarning) && r.Type != string(ComponentTypeDeduction) {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be 'earning' or 'deduction'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SalaryComponentResponse struct {
	ID          string  `json:"id"`
	CompanyID   string  `json:"company_id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description *string `json:"description,omitempty"`
	IsTaxable   bool    `json:"is_taxable"`
	IsActive    bool    `json:"is_active"`
}

// ========== SALARY STRUCTURE DTOs ==========

type SalaryItemRequest struct {
	ComponentID  string          `json:"component_id"`
	Amount       decimal.Decimal `json:"amount"`
	IsPercentage bool            `json:"is_percentage"`
	Percentage   decimal.Decimal `json:"percentage"`
}

type SaveSalaryStructureRequest struct {
	EmployeeID    string              `json:"-"`
	EffectiveFrom string              `json:"effective_from"`
	BaseSalary    decimal.Decimal     `json:"base_salary"`
	PaymentMethod string              `json:"payment_method"`
	Items         []SalaryItemRequest `json:"items"`
}

func (r *SaveSalaryStructureRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if _, ok := validator.IsValidDate(r.EffectiveFrom); !ok {
		errs = append(errs, validator.ValidationError{Field: "effective_from", Message: "must be a date in YYYY-MM-DD format"})
	}
	if r.BaseSalary.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "base_salary", Message: "must be non-negative"})
	}
	if r.PaymentMethod != "" && !validator.IsInSlice(r.PaymentMethod, PaymentMethodValues) {
		errs = append(errs, validator.ValidationError{Field: "payment_method", Message: "must be 'bank_transfer', 'cash' or 'cheque'"})
	}
	for i, item := range r.Items {
		field := "items[" + validator.Itoa(i) + "]"
		if validator.IsEmpty(item.ComponentID) {
			errs = append(errs, validator.ValidationError{Field: field + ".component_id", Message: "is required"})
		}
		if item.IsPercentage {
			if item.Percentage.IsNegative() || item.Percentage.GreaterThan(decimal.NewFromInt(100)) {
				errs = append(errs, validator.ValidationError{Field: field + ".percentage", Message: "must be between 0 and 100"})
			}
		} else if item.Amount.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: field + ".amount", Message: "must be non-negative"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PaymentMethodValues lists the accepted salary payment methods
var PaymentMethodValues = []string{"bank_transfer", "cash", "cheque"}

type SalaryItemResponse struct {
	ComponentID   string          `json:"component_id"`
	ComponentName string          `json:"component_name"`
	ComponentType string          `json:"component_type"`
	Amount        decimal.Decimal `json:"amount"`
	IsPercentage  bool            `json:"is_percentage"`
	Percentage    decimal.Decimal `json:"percentage"`
	IsTaxable     bool            `json:"is_taxable"`
}

type SalaryStructureResponse struct {
	ID            string               `json:"id"`
	EmployeeID    string               `json:"employee_id"`
	EffectiveFrom string               `json:"effective_from"`
	BaseSalary    decimal.Decimal      `json:"base_salary"`
	PaymentMethod string               `json:"payment_method"`
	Items         []SalaryItemResponse `json:"items"`
}

// ========== TAX SLAB DTOs ==========

type SaveTaxSlabRequest struct {
	MinSalary  decimal.Decimal  `json:"min_salary"`
	MaxSalary  *decimal.Decimal `json:"max_salary,omitempty"` // nil = open-ended
	TaxPercent decimal.Decimal  `json:"tax_percent"`
}

func (r *SaveTaxSlabRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.MinSalary.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "min_salary", Message: "must be non-negative"})
	}
	if r.MaxSalary != nil && !r.MaxSalary.GreaterThan(r.MinSalary) {
		errs = append(errs, validator.ValidationError{Field: "max_salary", Message: "must be greater than min_salary"})
	}
	if r.TaxPercent.IsNegative() || r.TaxPercent.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, validator.ValidationError{Field: "tax_percent", Message: "must be between 0 and 100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TaxSlabResponse struct {
	ID         string           `json:"id"`
	MinSalary  decimal.Decimal  `json:"min_salary"`
	MaxSalary  *decimal.Decimal `json:"max_salary"`
	TaxPercent decimal.Decimal  `json:"tax_percent"`
}

// ========== LOAN DTOs ==========

type CreateLoanRequest struct {
	EmployeeID         string          `json:"employee_id"`
	Principal          decimal.Decimal `json:"principal"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	StartDate          string          `json:"start_date"`
}

func (r *CreateLoanRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if !r.Principal.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "principal", Message: "must be positive"})
	}
	if !r.MonthlyInstallment.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "monthly_installment", Message: "must be positive"})
	}
	if r.InterestRate.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "interest_rate", Message: "must be non-negative"})
	}
	if _, ok := validator.IsValidDate(r.StartDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be a date in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type LoanFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
}

type LoanResponse struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employee_id"`
	Type               string          `json:"type"`
	Principal          decimal.Decimal `json:"principal"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	StartDate          string          `json:"start_date"`
	Status             string          `json:"status"`
	RepaidAmount       decimal.Decimal `json:"repaid_amount"`
	Balance            decimal.Decimal `json:"balance"`
}

// ========== CYCLE DTOs ==========

type CreateCycleRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r *CreateCycleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be a date in YYYY-MM-DD format"})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be a date in YYYY-MM-DD format"})
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must not be before start_date"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CycleFilter struct {
	Status *string `json:"status,omitempty"`
}

type CycleResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Status     string  `json:"status"`
	ApprovedAt *string `json:"approved_at,omitempty"`
	LockedAt   *string `json:"locked_at,omitempty"`
	PaidAt     *string `json:"paid_at,omitempty"`
}

// ========== ADJUSTMENT DTOs ==========

type CreateAdjustmentRequest struct {
	CycleID    string          `json:"-"`
	EmployeeID string          `json:"employee_id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"` // "earning" or "deduction"
	Amount     decimal.Decimal `json:"amount"`
	IsTaxable  *bool           `json:"is_taxable,omitempty"`
}

func (r *CreateAdjustmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	if r.Type != string(ComponentTypeEarning) && r.Type != string(ComponentTypeDeduction) {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be 'earning' or 'deduction'"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AdjustmentResponse struct {
	ID         string          `json:"id"`
	CycleID    string          `json:"cycle_id"`
	EmployeeID string          `json:"employee_id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	IsTaxable  bool            `json:"is_taxable"`
}

// ========== PAYSLIP DTOs ==========

type PayslipItemResponse struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type DaySummaryResponse struct {
	TotalDays       int             `json:"total_days"`
	WorkingDays     decimal.Decimal `json:"working_days"`
	PresentDays     decimal.Decimal `json:"present_days"`
	PaidLeaveDays   decimal.Decimal `json:"paid_leave_days"`
	UnpaidLeaveDays decimal.Decimal `json:"unpaid_leave_days"`
	AbsentDays      decimal.Decimal `json:"absent_days"`
	WeeklyOffDays   int             `json:"weekly_off_days"`
	Holidays        int             `json:"holidays"`
	PayableDays     decimal.Decimal `json:"payable_days"`
}

type PayslipResponse struct {
	ID              string                `json:"id"`
	CycleID         string                `json:"cycle_id"`
	EmployeeID      string                `json:"employee_id"`
	EmployeeName    string                `json:"employee_name"`
	EmployeeCode    string                `json:"employee_code"`
	BaseSalary      decimal.Decimal       `json:"base_salary"`
	GrossSalary     decimal.Decimal       `json:"gross_salary"`
	TotalDeductions decimal.Decimal       `json:"total_deductions"`
	TaxDeducted     decimal.Decimal       `json:"tax_deducted"`
	NetSalary       decimal.Decimal       `json:"net_salary"`
	Days            DaySummaryResponse    `json:"days"`
	OvertimeMinutes int                   `json:"overtime_minutes"`
	LateMinutes     int                   `json:"late_minutes"`
	Items           []PayslipItemResponse `json:"items"`
}

// ========== RUN RESULT ==========

// EmployeeRunStatus is the per-employee outcome inside a batch run
type EmployeeRunStatus string

const (
	EmployeeRunOK     EmployeeRunStatus = "ok"
	EmployeeRunFailed EmployeeRunStatus = "error"
)

type EmployeeRunResult struct {
	EmployeeID string            `json:"employee_id"`
	Status     EmployeeRunStatus `json:"status"`
	PayslipID  string            `json:"payslip_id,omitempty"`
	Error      string            `json:"error,omitempty"`
	Err        error             `json:"-"`
}

type RunResult struct {
	CycleID   string              `json:"cycle_id"`
	Processed int                 `json:"processed"`
	Failed    int                 `json:"failed"`
	Removed   int                 `json:"removed"`
	Employees []EmployeeRunResult `json:"employees"`
}
