package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can view team and company attendance
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
)

func (r Role) IsValid() bool {
	_, ok := RolePermissions[r]
	return ok
}

// IsManager checks if role is manager or owner
func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleOwner
}
