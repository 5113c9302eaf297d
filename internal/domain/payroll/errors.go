package payroll

import "errors"

var (
	ErrPayrollSettingsNotFound   = errors.New("payroll settings not found")
	ErrSalaryComponentNotFound   = errors.New("salary component not found")
	ErrSalaryComponentNameExists = errors.New("salary component name already exists")
	ErrSalaryComponentInactive   = errors.New("salary component is inactive")
	ErrSalaryStructureNotFound   = errors.New("salary structure not found")
	ErrSalaryStructureFrozen     = errors.New("salary structure is referenced by a locked cycle")
	ErrNoSalaryStructure         = errors.New("employee has no active salary structure")
	ErrNoShift                   = errors.New("employee has no work schedule")
	ErrCycleNotFound             = errors.New("payroll cycle not found")
	ErrCycleAlreadyExists        = errors.New("payroll cycle already exists for this period")
	ErrInvalidTransition         = errors.New("invalid payroll cycle transition")
	ErrCycleLocked               = errors.New("payroll cycle is locked")
	ErrInvalidPeriod             = errors.New("invalid payroll period")
	ErrPayslipNotFound           = errors.New("payslip not found")
	ErrNegativeNetSalary         = errors.New("net salary would be negative")
	ErrLoanNotFound              = errors.New("loan not found")
	ErrDuplicateRepayment        = errors.New("loan repayment already posted for this cycle")
	ErrRepaymentExceedsBalance   = errors.New("loan repayment exceeds outstanding balance")
	ErrUnbalancedJournal         = errors.New("journal entry debits do not equal credits")
	ErrJournalAlreadyPosted      = errors.New("journal entry already posted for this reference")
	ErrJournalEntryNotFound      = errors.New("journal entry not found")
	ErrInvalidJournalLine        = errors.New("journal line must carry exactly one positive side")
	ErrInvalidComponentType      = errors.New("invalid component type")
)
