package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, user.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, user.ErrCompanyIDRequired):
		Forbidden(w, "Company is required")
	case errors.Is(err, user.ErrEmployeeIDRequired):
		Forbidden(w, "Employee profile is required")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Payroll not-found errors
	case errors.Is(err, payroll.ErrSalaryComponentNotFound):
		NotFound(w, "Salary component not found")
	case errors.Is(err, payroll.ErrSalaryStructureNotFound), errors.Is(err, payroll.ErrNoSalaryStructure):
		NotFound(w, "Salary structure not found")
	case errors.Is(err, payroll.ErrCycleNotFound):
		NotFound(w, "Payroll cycle not found")
	case errors.Is(err, payroll.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, payroll.ErrLoanNotFound):
		NotFound(w, "Loan not found")
	case errors.Is(err, payroll.ErrJournalEntryNotFound):
		NotFound(w, "Journal entry not found")

	// Payroll state conflicts. ErrCycleLocked comes before ErrInvalidTransition
	// because a run on a locked cycle carries both.
	case errors.Is(err, payroll.ErrCycleLocked):
		Conflict(w, "Payroll cycle is locked")
	case errors.Is(err, payroll.ErrInvalidTransition):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrCycleAlreadyExists):
		Conflict(w, "A payroll cycle already exists for this period")
	case errors.Is(err, payroll.ErrDuplicateRepayment):
		Conflict(w, "Loan repayment already posted for this cycle")
	case errors.Is(err, payroll.ErrRepaymentExceedsBalance):
		Conflict(w, "Loan balance changed since the last run; run payroll again")
	case errors.Is(err, payroll.ErrJournalAlreadyPosted):
		Conflict(w, "Journal entry already posted")
	case errors.Is(err, payroll.ErrSalaryComponentNameExists):
		Conflict(w, "Salary component name already exists")
	case errors.Is(err, payroll.ErrSalaryStructureFrozen):
		Conflict(w, "Salary structure is used by a locked cycle; save a new effective date instead")

	// Payroll input errors
	case errors.Is(err, payroll.ErrSalaryComponentInactive),
		errors.Is(err, payroll.ErrInvalidPeriod),
		errors.Is(err, payroll.ErrInvalidComponentType):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
