package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	// GetActiveByCompanyID lists employees whose status is active, ordered by employee code.
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
}
