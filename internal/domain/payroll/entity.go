package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PayDivisor selects the denominator used to derive the per-day salary rate
type PayDivisor string

const (
	PayDivisorDaysPerMonth PayDivisor = "days_per_month"
	PayDivisorWorkingDays  PayDivisor = "working_days"
)

// PayrollSettings - Tenant payroll configuration
type PayrollSettings struct {
	ID                 string
	CompanyID          string
	DaysPerMonth       decimal.Decimal
	PayDivisor         PayDivisor
	WorkHoursPerDay    decimal.Decimal
	OvertimeEnabled    bool
	OvertimeMultiplier decimal.Decimal
	LatePenaltyEnabled bool
	AutoRunEnabled     bool
	AutoRunDay         int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ComponentType enum
type ComponentType string

const (
	ComponentTypeEarning   ComponentType = "earning"
	ComponentTypeDeduction ComponentType = "deduction"
)

// ParseComponentType returns ErrInvalidComponentType for anything but earning or deduction.
func ParseComponentType(s string) (ComponentType, error) {
	switch t := ComponentType(s); t {
	case ComponentTypeEarning, ComponentTypeDeduction:
		return t, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidComponentType)
}

// SalaryComponent - Master salary component
type SalaryComponent struct {
	ID          string
	CompanyID   string
	Name        string
	Type        ComponentType
	Description *string
	IsTaxable   bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SalaryStructure - one version of an employee's pay; the latest
// effective_from on or before the cycle start is the active one.
type SalaryStructure struct {
	ID            string
	CompanyID     string
	EmployeeID    string
	EffectiveFrom time.Time
	BaseSalary    decimal.Decimal
	PaymentMethod string
	Items         []SalaryItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SalaryItem - component line inside a structure. Amount is used when
// IsPercentage is false, otherwise Percentage of the base salary.
type SalaryItem struct {
	ID                string
	SalaryStructureID string
	ComponentID       string
	Amount            decimal.Decimal
	IsPercentage      bool
	Percentage        decimal.Decimal
	Position          int

	// Joined fields
	ComponentName string
	ComponentType ComponentType
	IsTaxable     bool
}

// TaxSlab - one bracket of a progressive tax table. MaxSalary nil means open-ended.
type TaxSlab struct {
	ID         string
	CompanyID  string
	MinSalary  decimal.Decimal
	MaxSalary  *decimal.Decimal
	TaxPercent decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LoanType enum
type LoanType string

const (
	LoanTypeLoan    LoanType = "loan"
	LoanTypeAdvance LoanType = "advance"
)

// LoanStatus enum
type LoanStatus string

const (
	LoanStatusActive LoanStatus = "active"
	LoanStatusClosed LoanStatus = "closed"
)

// Loan - employee loan or salary advance
type Loan struct {
	ID                 string
	CompanyID          string
	EmployeeID         string
	Type               LoanType
	Principal          decimal.Decimal
	MonthlyInstallment decimal.Decimal
	InterestRate       decimal.Decimal
	StartDate          time.Time
	Status             LoanStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Computed: principal minus posted repayments
	RepaidAmount decimal.Decimal
}

// Balance returns the outstanding principal, never below zero.
func (l Loan) Balance() decimal.Decimal {
	b := l.Principal.Sub(l.RepaidAmount)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

// LoanRepayment - one posted installment; unique per (loan, cycle)
type LoanRepayment struct {
	ID        string
	CompanyID string
	LoanID    string
	CycleID   string
	Amount    decimal.Decimal
	Date      time.Time
	CreatedAt time.Time
}

// CycleStatus enum. Transitions only move forward.
type CycleStatus string

const (
	CycleStatusDraft    CycleStatus = "draft"
	CycleStatusApproved CycleStatus = "approved"
	CycleStatusLocked   CycleStatus = "locked"
	CycleStatusPaid     CycleStatus = "paid"
)

// CanRecompute reports whether payslips of a cycle in this status may be regenerated.
func (s CycleStatus) CanRecompute() bool {
	return s == CycleStatusDraft || s == CycleStatusApproved
}

// PayrollCycle - a pay period and its lifecycle
type PayrollCycle struct {
	ID         string
	CompanyID  string
	Name       string
	StartDate  time.Time
	EndDate    time.Time
	Status     CycleStatus
	CreatedBy  *string
	ApprovedAt *time.Time
	LockedAt   *time.Time
	PaidAt     *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PayrollAdjustment - one-off bonus or deduction for an employee in a cycle
type PayrollAdjustment struct {
	ID         string
	CompanyID  string
	CycleID    string
	EmployeeID string
	Name       string
	Type       ComponentType
	Amount     decimal.Decimal
	IsTaxable  bool
	CreatedAt  time.Time
}

// ItemType enum
type ItemType string

const (
	ItemTypeEarning   ItemType = "earning"
	ItemTypeDeduction ItemType = "deduction"
)

// ItemCategory groups payslip items for journal posting
type ItemCategory string

const (
	CategoryBase       ItemCategory = "base"
	CategoryAllowance  ItemCategory = "allowance"
	CategoryOvertime   ItemCategory = "overtime"
	CategoryBonus      ItemCategory = "bonus"
	CategoryDeduction  ItemCategory = "deduction"
	CategoryAttendance ItemCategory = "attendance"
	CategoryLoan       ItemCategory = "loan"
	CategoryTax        ItemCategory = "tax"
)

// PayslipItem - itemized payslip line
type PayslipItem struct {
	ID        string
	PayslipID string
	Name      string
	Type      ItemType
	Category  ItemCategory
	Amount    decimal.Decimal
	Taxable   bool
	LoanID    *string
	Position  int
}

// DaySummary - day-count totals for an employee over a date range
type DaySummary struct {
	TotalDays       int
	WorkingDays     decimal.Decimal
	PresentDays     decimal.Decimal
	PaidLeaveDays   decimal.Decimal
	UnpaidLeaveDays decimal.Decimal
	AbsentDays      decimal.Decimal
	WeeklyOffDays   int
	Holidays        int
	PayableDays     decimal.Decimal
}

// Payslip - computed pay for one employee in one cycle
type Payslip struct {
	ID                string
	CompanyID         string
	CycleID           string
	EmployeeID        string
	SalaryStructureID string
	BaseSalary        decimal.Decimal
	GrossSalary       decimal.Decimal
	TotalDeductions   decimal.Decimal
	TaxDeducted       decimal.Decimal
	NetSalary         decimal.Decimal
	Days              DaySummary
	OvertimeMinutes   int
	LateMinutes       int
	EarlyLeaveMinutes int
	Items             []PayslipItem
	CreatedAt         time.Time

	// Joined fields
	EmployeeName  *string
	EmployeeCode  *string
	EmployeeEmail *string
}

// ReferenceType identifies what a journal entry was posted for
type ReferenceType string

const (
	ReferencePayrollCycle   ReferenceType = "payroll_cycle"
	ReferencePayrollPayment ReferenceType = "payroll_payment"
)

// JournalEntry - balanced double-entry posting
type JournalEntry struct {
	ID            string
	CompanyID     string
	ReferenceType ReferenceType
	ReferenceID   string
	EntryDate     time.Time
	Description   string
	Items         []JournalItem
	CreatedAt     time.Time
}

// JournalItem - one debit or credit line. Exactly one of Debit/Credit is non-zero.
type JournalItem struct {
	ID             string
	JournalEntryID string
	Account        string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
}
