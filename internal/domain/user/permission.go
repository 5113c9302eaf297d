package user

type Permission string

const (
	// Payroll
	PermissionPayrollViewOwn Permission = "payroll.view_own"
	PermissionPayrollView    Permission = "payroll.view"
	PermissionPayrollManage  Permission = "payroll.manage"
	PermissionPayrollApprove Permission = "payroll.approve"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		// Owner has all permissions
		PermissionPayrollViewOwn,
		PermissionPayrollView,
		PermissionPayrollManage,
		PermissionPayrollApprove,
	},
	RoleManager: {
		// Manager prepares cycles; approving, locking and paying stay with the owner
		PermissionPayrollViewOwn,
		PermissionPayrollView,
		PermissionPayrollManage,
	},
	RoleEmployee: {
		PermissionPayrollViewOwn,
	},
	RolePending: {
		// Pending role has no permissions
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
