package report

import (
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxRangeDays bounds a start_date/end_date filter.
	MaxRangeDays = 366
)

// Period is an inclusive range of calendar dates.
type Period struct {
	Start time.Time
	End   time.Time
}

// ========================================
// REPORT FILTER
// ========================================

// ReportFilter selects a period either by start_date/end_date or by month/year.
// With neither, the current month is used.
type ReportFilter struct {
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Month     int    `json:"month" validate:"omitempty,min=1,max=12"`
	Year      int    `json:"year" validate:"omitempty,min=2000,max=9999"`

	// Pagination, organization report only
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Validate checks the filter and resolves its period relative to today.
func (f *ReportFilter) Validate(today time.Time) (Period, error) {
	if err := validator.Struct(f); err != nil {
		return Period{}, err
	}

	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("limit must not exceed %d", MaxLimit),
		})
	}

	var period Period
	hasRange := f.StartDate != "" || f.EndDate != ""
	hasMonth := f.Month != 0 || f.Year != 0

	switch {
	case hasRange && hasMonth:
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "use either start_date/end_date or month/year, not both",
		})
	case hasRange:
		if f.StartDate == "" || f.EndDate == "" {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "start_date and end_date must be provided together",
			})
			break
		}
		period.Start, _ = attendance.ParseDate(f.StartDate)
		period.End, _ = attendance.ParseDate(f.EndDate)
		if period.End.Before(period.Start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: ErrInvalidDateRange.Error(),
			})
		} else if period.End.Sub(period.Start) >= MaxRangeDays*24*time.Hour {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: fmt.Sprintf("date range must not exceed %d days", MaxRangeDays),
			})
		}
	default:
		month, year := f.Month, f.Year
		if month == 0 {
			month = int(today.Month())
		}
		if year == 0 {
			year = today.Year()
		}
		period.Start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		period.End = period.Start.AddDate(0, 1, -1)
	}

	if len(errs) > 0 {
		return Period{}, errs
	}
	return period, nil
}

func (f *ReportFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ========================================
// SUMMARY
// ========================================

// SummaryTotals are the raw counts a summary is derived from.
type SummaryTotals struct {
	TotalDays      int
	PresentDays    int
	AbsentDays     int
	HalfDays       int
	TotalWorkHours decimal.Decimal
}

// Add accumulates one attendance day.
func (t *SummaryTotals) Add(day attendance.AttendanceDay) {
	t.TotalDays++
	switch day.Status {
	case attendance.StatusPresent:
		t.PresentDays++
	case attendance.StatusAbsent:
		t.AbsentDays++
	case attendance.StatusHalfDay:
		t.HalfDays++
	}
	t.TotalWorkHours = t.TotalWorkHours.Add(day.TotalWorkHours)
}

type Summary struct {
	TotalDays      int     `json:"total_days"`
	PresentDays    int     `json:"present_days"`
	AbsentDays     int     `json:"absent_days"`
	HalfDays       int     `json:"half_days"`
	TotalWorkHours float64 `json:"total_work_hours"`
	AvgWorkHours   float64 `json:"avg_work_hours"`
}

// NewSummary averages work hours over days actually worked (present or half day).
func NewSummary(t SummaryTotals) Summary {
	avg := decimal.Zero
	if worked := t.PresentDays + t.HalfDays; worked > 0 {
		avg = t.TotalWorkHours.Div(decimal.NewFromInt(int64(worked)))
	}
	return Summary{
		TotalDays:      t.TotalDays,
		PresentDays:    t.PresentDays,
		AbsentDays:     t.AbsentDays,
		HalfDays:       t.HalfDays,
		TotalWorkHours: t.TotalWorkHours.Round(2).InexactFloat64(),
		AvgWorkHours:   avg.Round(2).InexactFloat64(),
	}
}

// SummarizeDays builds a summary from already loaded days.
func SummarizeDays(days []attendance.AttendanceDay) Summary {
	var totals SummaryTotals
	for _, d := range days {
		totals.Add(d)
	}
	return NewSummary(totals)
}

// ========================================
// PERSONAL / EMPLOYEE REPORT
// ========================================

type ReportEmployee struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeCode string `json:"employee_code"`
	FullName     string `json:"full_name"`
}

func NewReportEmployee(emp employee.Employee) ReportEmployee {
	return ReportEmployee{
		EmployeeID:   emp.ID,
		EmployeeCode: emp.EmployeeCode,
		FullName:     emp.FullName,
	}
}

type AttendanceReport struct {
	Employee   ReportEmployee                     `json:"employee"`
	StartDate  string                             `json:"start_date"`
	EndDate    string                             `json:"end_date"`
	Summary    Summary                            `json:"summary"`
	Attendance []attendance.AttendanceDayResponse `json:"attendance"`
}

// ========================================
// TEAM REPORT
// ========================================

type TeamReportRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (r *TeamReportRequest) Validate() error {
	return validator.Struct(r)
}

// TeamScope tells which tier of team resolution produced the members.
type TeamScope string

const (
	TeamScopeDirectReports TeamScope = "direct_reports"
	TeamScopeCoTeam        TeamScope = "co_team"
	TeamScopeNone          TeamScope = "none"
)

type TeamReport struct {
	Date        string                             `json:"date"`
	Scope       TeamScope                          `json:"scope"`
	TeamMembers []employee.TeamMember              `json:"team_members"`
	Attendance  []attendance.AttendanceDayResponse `json:"attendance"`
	Summary     Summary                            `json:"summary"`
}

// ========================================
// ORGANIZATION REPORT
// ========================================

type OrganizationReport struct {
	StartDate  string                             `json:"start_date"`
	EndDate    string                             `json:"end_date"`
	Summary    Summary                            `json:"summary"`
	TotalCount int64                              `json:"total_count"`
	Page       int                                `json:"page"`
	Limit      int                                `json:"limit"`
	TotalPages int                                `json:"total_pages"`
	Showing    string                             `json:"showing"`
	Attendance []attendance.AttendanceDayResponse `json:"attendance"`
}

// Paginate fills the pagination block, e.g. Showing "21-40 of 150 results".
func (r *OrganizationReport) Paginate(totalCount int64, page, limit, shown int) {
	r.TotalCount = totalCount
	r.Page = page
	r.Limit = limit
	r.TotalPages = int(math.Ceil(float64(totalCount) / float64(limit)))
	if shown == 0 {
		r.Showing = fmt.Sprintf("0 of %d results", totalCount)
		return
	}
	from := (page-1)*limit + 1
	r.Showing = fmt.Sprintf("%d-%d of %d results", from, from+shown-1, totalCount)
}

// ========================================
// BULK STATUS
// ========================================

type BulkStatusRequest struct {
	EmployeeIDs []string `json:"employee_ids" validate:"required,min=1,dive,uuid"`
}

func (r *BulkStatusRequest) Validate(maxIDs int) error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if maxIDs > 0 && len(r.EmployeeIDs) > maxIDs {
		return validator.ValidationErrors{{
			Field:   "employee_ids",
			Message: fmt.Sprintf("employee_ids must not contain more than %d items", maxIDs),
		}}
	}
	return nil
}

const (
	PresenceIn  = "in"
	PresenceOut = "out"
)

type EmployeeStatus struct {
	EmployeeID     string  `json:"employee_id"`
	Status         string  `json:"status"`
	HasAttendance  bool    `json:"has_attendance"`
	AttendanceID   *string `json:"attendance_id,omitempty"`
	LastPunchType  *string `json:"last_punch_type,omitempty"`
	LastPunchTime  *string `json:"last_punch_time,omitempty"`
	FirstCheckIn   *string `json:"first_check_in,omitempty"`
	TotalWorkHours float64 `json:"total_work_hours"`
}

type BulkStatusResponse struct {
	Date     string           `json:"date"`
	Statuses []EmployeeStatus `json:"statuses"`
}

// ========================================
// PUNCH-PAIR DETAILS
// ========================================

type DetailsResponse struct {
	Date       string                           `json:"date"`
	Attendance attendance.AttendanceDayResponse `json:"attendance"`
	Punches    []attendance.PunchEventResponse  `json:"punches"`
	PunchPairs []attendance.PunchPairResponse   `json:"punch_pairs"`
	InProgress bool                             `json:"in_progress"`
}
