package employee

import (
	"context"
)

// Resolver maps the authenticated caller to an employee record.
type Resolver interface {
	// ResolveEmployee returns ErrEmployeeNotFound when the caller has no employee record.
	ResolveEmployee(ctx context.Context) (Employee, error)
}
