package report

import "context"

// ReportService is the read side over attendance days and the punch ledger.
type ReportService interface {
	// BulkStatus returns one entry per requested id, in request order
	BulkStatus(ctx context.Context, req BulkStatusRequest) (BulkStatusResponse, error)

	MyReport(ctx context.Context, filter ReportFilter) (AttendanceReport, error)
	EmployeeReport(ctx context.Context, employeeID string, filter ReportFilter) (AttendanceReport, error)

	// TeamReport uses direct reports, falling back to the caller's co-team
	TeamReport(ctx context.Context, req TeamReportRequest) (TeamReport, error)

	OrganizationReport(ctx context.Context, filter ReportFilter) (OrganizationReport, error)

	// GetDetails returns the caller's punches and punch pairs for one date
	GetDetails(ctx context.Context, date string) (DetailsResponse, error)
}
