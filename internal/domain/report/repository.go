package report

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

// ReportRepository runs the range scans behind the historical reports.
type ReportRepository interface {
	// ListEmployeeDays returns every day of one employee in period, oldest first.
	ListEmployeeDays(ctx context.Context, employeeID string, period Period) ([]attendance.AttendanceDay, error)

	// ListCompanyDays returns one page of a company's days in period.
	ListCompanyDays(ctx context.Context, companyID string, period Period, limit, offset int) ([]attendance.AttendanceDay, error)
	CountCompanyDays(ctx context.Context, companyID string, period Period) (int64, error)
	SummarizeCompanyDays(ctx context.Context, companyID string, period Period) (SummaryTotals, error)
}
