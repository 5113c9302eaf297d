package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Runs payroll, cannot lock or pay
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
)

// Claims is the identity carried by an access token
type Claims struct {
	UserID     string
	CompanyID  string
	EmployeeID *string
	Role       Role
}
