package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type reportRepositoryImpl struct {
	db *database.DB
}

func NewReportRepository(db *database.DB) report.ReportRepository {
	return &reportRepositoryImpl{db: db}
}

// ListEmployeeDays implements report.ReportRepository.
func (r *reportRepositoryImpl) ListEmployeeDays(ctx context.Context, employeeID string, period report.Period) ([]attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceDayColumns + `,
			e.full_name, e.employee_code,
			(SELECT COUNT(*) FROM punch_events p WHERE p.attendance_day_id = a.id) AS punch_count
		FROM attendance_days a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = $1
			AND a.date >= $2 AND a.date <= $3
		ORDER BY a.date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, dateParam(period.Start), dateParam(period.End))
	if err != nil {
		return nil, fmt.Errorf("failed to query employee attendance report: %w", err)
	}
	defer rows.Close()

	return collectAttendanceDays(rows)
}

// ListCompanyDays implements report.ReportRepository.
func (r *reportRepositoryImpl) ListCompanyDays(ctx context.Context, companyID string, period report.Period, limit, offset int) ([]attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceDayColumns + `,
			e.full_name, e.employee_code,
			(SELECT COUNT(*) FROM punch_events p WHERE p.attendance_day_id = a.id) AS punch_count
		FROM attendance_days a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.company_id = $1
			AND a.date >= $2 AND a.date <= $3
		ORDER BY a.date DESC, e.full_name ASC, a.id ASC
		LIMIT $4 OFFSET $5
	`

	rows, err := q.Query(ctx, query, companyID, dateParam(period.Start), dateParam(period.End), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query organization attendance report: %w", err)
	}
	defer rows.Close()

	return collectAttendanceDays(rows)
}

// CountCompanyDays implements report.ReportRepository.
func (r *reportRepositoryImpl) CountCompanyDays(ctx context.Context, companyID string, period report.Period) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*)
		FROM attendance_days
		WHERE company_id = $1 AND date >= $2 AND date <= $3
	`

	var total int64
	if err := q.QueryRow(ctx, query, companyID, dateParam(period.Start), dateParam(period.End)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count organization attendance: %w", err)
	}
	return total, nil
}

// SummarizeCompanyDays implements report.ReportRepository.
func (r *reportRepositoryImpl) SummarizeCompanyDays(ctx context.Context, companyID string, period report.Period) (report.SummaryTotals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'present'),
			COUNT(*) FILTER (WHERE status = 'absent'),
			COUNT(*) FILTER (WHERE status = 'half_day'),
			COALESCE(SUM(total_work_hours), 0)
		FROM attendance_days
		WHERE company_id = $1 AND date >= $2 AND date <= $3
	`

	var (
		totals    report.SummaryTotals
		workHours decimal.Decimal
	)
	err := q.QueryRow(ctx, query, companyID, dateParam(period.Start), dateParam(period.End)).Scan(
		&totals.TotalDays,
		&totals.PresentDays,
		&totals.AbsentDays,
		&totals.HalfDays,
		&workHours,
	)
	if err != nil {
		return report.SummaryTotals{}, fmt.Errorf("failed to summarize organization attendance: %w", err)
	}
	totals.TotalWorkHours = workHours

	return totals, nil
}
