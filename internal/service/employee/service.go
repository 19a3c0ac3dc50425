package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type ResolverImpl struct {
	employeeRepo employee.EmployeeRepository
}

func NewResolver(employeeRepo employee.EmployeeRepository) employee.Resolver {
	return &ResolverImpl{employeeRepo: employeeRepo}
}

// ResolveEmployee implements employee.Resolver.
// The employee_id claim wins; tokens issued before onboarding only carry user_id.
func (r *ResolverImpl) ResolveEmployee(ctx context.Context) (employee.Employee, error) {
	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		if errors.Is(err, jwtauth.ErrNoTokenFound) || errors.Is(err, jwt.ErrMissingClaim) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	var emp employee.Employee
	if caller.EmployeeID != nil {
		emp, err = r.employeeRepo.GetByID(ctx, *caller.EmployeeID)
	} else {
		emp, err = r.employeeRepo.GetByUserID(ctx, caller.UserID)
	}
	if err != nil {
		return employee.Employee{}, err
	}

	if caller.CompanyID != nil && *caller.CompanyID != emp.CompanyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}

	return emp, nil
}
