package employee

import (
	"time"
)

// Employee is the directory view this service reads; it never writes employees.
type Employee struct {
	ID               string
	UserID           *string
	CompanyID        string
	ManagerID        *string
	EmployeeCode     string
	FullName         string
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// TeamMember is a lightweight projection used by team reports.
type TeamMember struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeCode string `json:"employee_code"`
	FullName     string `json:"full_name"`
}
