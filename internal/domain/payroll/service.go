package payroll

import (
	"context"
)

type PayrollService interface {
	// Settings
	GetSettings(ctx context.Context) (PayrollSettingsResponse, error)
	UpdateSettings(ctx context.Context, req UpdatePayrollSettingsRequest) (PayrollSettingsResponse, error)
	// Components
	CreateComponent(ctx context.Context, req CreateSalaryComponentRequest) (SalaryComponentResponse, error)
	ListComponents(ctx context.Context, activeOnly bool) ([]SalaryComponentResponse, error)
	// Salary structures
	SaveSalaryStructure(ctx context.Context, req SaveSalaryStructureRequest) (SalaryStructureResponse, error)
	GetSalaryStructure(ctx context.Context, employeeID string) (SalaryStructureResponse, error)
	// Tax slabs
	SaveTaxSlab(ctx context.Context, req SaveTaxSlabRequest) (TaxSlabResponse, error)
	ListTaxSlabs(ctx context.Context) ([]TaxSlabResponse, error)
	// Loans
	AddLoan(ctx context.Context, req CreateLoanRequest) (LoanResponse, error)
	AddAdvance(ctx context.Context, req CreateLoanRequest) (LoanResponse, error)
	ListLoans(ctx context.Context, filter LoanFilter) ([]LoanResponse, error)
	// Cycles
	CreateCycle(ctx context.Context, req CreateCycleRequest) (CycleResponse, error)
	GetCycle(ctx context.Context, cycleID string) (CycleResponse, error)
	ListCycles(ctx context.Context, filter CycleFilter) ([]CycleResponse, error)
	AddAdjustment(ctx context.Context, req CreateAdjustmentRequest) (AdjustmentResponse, error)
	RunPayroll(ctx context.Context, cycleID string) (RunResult, error)
	ApproveCycle(ctx context.Context, cycleID string) (CycleResponse, error)
	LockCycle(ctx context.Context, cycleID string) (CycleResponse, error)
	MarkCyclePaid(ctx context.Context, cycleID string) (CycleResponse, error)
	// Payslips
	GetPayslip(ctx context.Context, payslipID string) (PayslipResponse, error)
	ListPayslips(ctx context.Context, cycleID string) ([]PayslipResponse, error)
	ListMyPayslips(ctx context.Context) ([]PayslipResponse, error)
}
