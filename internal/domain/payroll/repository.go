package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll.
// All methods include companyID parameter to prevent cross-company data access attacks.
type PayrollRepository interface {
	// Settings
	GetSettings(ctx context.Context, companyID string) (PayrollSettings, error)
	UpsertSettings(ctx context.Context, settings PayrollSettings) (PayrollSettings, error)
	ListAutoRunSettings(ctx context.Context) ([]PayrollSettings, error)

	// Components
	CreateComponent(ctx context.Context, component SalaryComponent) (SalaryComponent, error)
	GetComponentByID(ctx context.Context, id string, companyID string) (SalaryComponent, error)
	ListComponents(ctx context.Context, companyID string, activeOnly bool) ([]SalaryComponent, error)

	// Salary Structures
	SaveSalaryStructure(ctx context.Context, structure SalaryStructure) (SalaryStructure, error)
	GetSalaryStructureByEffectiveDate(ctx context.Context, companyID, employeeID string, effectiveFrom time.Time) (SalaryStructure, error)
	GetActiveSalaryStructure(ctx context.Context, companyID, employeeID string, asOf time.Time) (SalaryStructure, error)
	IsSalaryStructureFrozen(ctx context.Context, companyID, structureID string) (bool, error)

	// Tax Slabs
	CreateTaxSlab(ctx context.Context, slab TaxSlab) (TaxSlab, error)
	ListTaxSlabs(ctx context.Context, companyID string) ([]TaxSlab, error)

	// Loans
	CreateLoan(ctx context.Context, loan Loan) (Loan, error)
	GetLoanByID(ctx context.Context, id string, companyID string) (Loan, error)
	ListLoans(ctx context.Context, companyID string, filter LoanFilter) ([]Loan, error)
	ListActiveLoansByEmployee(ctx context.Context, companyID, employeeID string, asOf time.Time) ([]Loan, error)
	CreateLoanRepayment(ctx context.Context, repayment LoanRepayment) (LoanRepayment, error)
	UpdateLoanStatus(ctx context.Context, id string, companyID string, status LoanStatus) error

	// Cycles
	CreateCycle(ctx context.Context, cycle PayrollCycle) (PayrollCycle, error)
	GetCycleByID(ctx context.Context, id string, companyID string) (PayrollCycle, error)
	GetCycleForUpdate(ctx context.Context, id string, companyID string) (PayrollCycle, error)
	GetCycleByPeriod(ctx context.Context, companyID string, start, end time.Time) (PayrollCycle, error)
	ListCycles(ctx context.Context, companyID string, filter CycleFilter) ([]PayrollCycle, error)
	// TransitionCycle moves the cycle from -> to only if its current status is
	// from; otherwise it returns ErrInvalidTransition and changes nothing.
	TransitionCycle(ctx context.Context, id string, companyID string, from, to CycleStatus) (PayrollCycle, error)

	// Adjustments
	CreateAdjustment(ctx context.Context, adjustment PayrollAdjustment) (PayrollAdjustment, error)
	ListAdjustments(ctx context.Context, companyID, cycleID, employeeID string) ([]PayrollAdjustment, error)

	// Payslips
	CreatePayslip(ctx context.Context, payslip Payslip) (Payslip, error)
	DeletePayslip(ctx context.Context, companyID, cycleID, employeeID string) error
	GetPayslipByID(ctx context.Context, id string, companyID string) (Payslip, error)
	ListPayslipsByCycle(ctx context.Context, companyID, cycleID string) ([]Payslip, error)
	ListPayslipsByEmployee(ctx context.Context, companyID, employeeID string) ([]Payslip, error)

	// Journal
	CreateJournalEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	GetJournalEntry(ctx context.Context, companyID string, refType ReferenceType, refID string) (JournalEntry, error)
}

// RunMarkerStore records the last day the scheduler ran payroll for a tenant.
// It is advisory only.
type RunMarkerStore interface {
	LastRunOn(ctx context.Context, companyID string) (time.Time, bool, error)
	SetLastRunOn(ctx context.Context, companyID string, day time.Time) error
}

// Transactor runs fn inside one database transaction. Repositories called with
// the ctx handed to fn participate in that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
