package employee

import "context"

// EmployeeRepository is a read-only view of the employee directory.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)

	// ListByManagerID returns active employees reporting to managerID, optionally excluding one id.
	ListByManagerID(ctx context.Context, managerID string, excludeID *string) ([]Employee, error)
}
