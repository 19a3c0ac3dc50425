package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"golang.org/x/sync/errgroup"
)

type ReportServiceImpl struct {
	reportRepo   report.ReportRepository
	dayRepo      attendance.AttendanceDayRepository
	eventRepo    attendance.PunchEventRepository
	employeeRepo employee.EmployeeRepository
	resolver     employee.Resolver
	loc          *time.Location
	bulkMaxIDs   int
	now          func() time.Time
}

type Option func(*ReportServiceImpl)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *ReportServiceImpl) {
		s.now = now
	}
}

// WithBulkMaxIDs caps the number of ids accepted by BulkStatus.
func WithBulkMaxIDs(n int) Option {
	return func(s *ReportServiceImpl) {
		s.bulkMaxIDs = n
	}
}

func NewReportService(
	reportRepo report.ReportRepository,
	dayRepo attendance.AttendanceDayRepository,
	eventRepo attendance.PunchEventRepository,
	employeeRepo employee.EmployeeRepository,
	resolver employee.Resolver,
	loc *time.Location,
	opts ...Option,
) report.ReportService {
	if loc == nil {
		loc = time.UTC
	}
	s := &ReportServiceImpl{
		reportRepo:   reportRepo,
		dayRepo:      dayRepo,
		eventRepo:    eventRepo,
		employeeRepo: employeeRepo,
		resolver:     resolver,
		loc:          loc,
		bulkMaxIDs:   100,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReportServiceImpl) today() time.Time {
	return attendance.CalendarDate(s.now(), s.loc)
}

// companyFromContext prefers the company_id claim; callers without one are
// scoped to the company of their employee record.
func (s *ReportServiceImpl) companyFromContext(ctx context.Context) (string, error) {
	caller, err := jwt.CallerFromContext(ctx)
	if err == nil && caller.CompanyID != nil {
		return *caller.CompanyID, nil
	}
	if err != nil && !errors.Is(err, jwt.ErrMissingClaim) {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	emp, err := s.resolver.ResolveEmployee(ctx)
	if err != nil {
		return "", err
	}
	return emp.CompanyID, nil
}

func (s *ReportServiceImpl) dayResponses(days []attendance.AttendanceDay) []attendance.AttendanceDayResponse {
	out := make([]attendance.AttendanceDayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, attendance.NewAttendanceDayResponse(d, s.loc))
	}
	return out
}

// BulkStatus implements report.ReportService.
func (s *ReportServiceImpl) BulkStatus(ctx context.Context, req report.BulkStatusRequest) (report.BulkStatusResponse, error) {
	if err := req.Validate(s.bulkMaxIDs); err != nil {
		return report.BulkStatusResponse{}, err
	}

	companyID, err := s.companyFromContext(ctx)
	if err != nil {
		return report.BulkStatusResponse{}, err
	}

	date := s.today()

	days, err := s.dayRepo.ListByEmployeesAndDate(ctx, req.EmployeeIDs, date)
	if err != nil {
		return report.BulkStatusResponse{}, err
	}

	byEmployee := make(map[string]attendance.AttendanceDay, len(days))
	dayIDs := make([]string, 0, len(days))
	for _, d := range days {
		if d.CompanyID != companyID {
			continue
		}
		byEmployee[d.EmployeeID] = d
		dayIDs = append(dayIDs, d.ID)
	}

	lastPunches, err := s.eventRepo.LastByAttendanceDays(ctx, dayIDs)
	if err != nil {
		return report.BulkStatusResponse{}, err
	}

	statuses := make([]report.EmployeeStatus, 0, len(req.EmployeeIDs))
	for _, id := range req.EmployeeIDs {
		status := report.EmployeeStatus{
			EmployeeID: id,
			Status:     report.PresenceOut,
		}

		day, ok := byEmployee[id]
		if ok {
			dayID := day.ID
			status.HasAttendance = true
			status.AttendanceID = &dayID
			status.FirstCheckIn = timeString(day.FirstCheckIn, s.loc)
			status.TotalWorkHours = day.TotalWorkHours.Round(2).InexactFloat64()

			if last, found := lastPunches[day.ID]; found {
				punchType := string(last.PunchType)
				status.LastPunchType = &punchType
				status.LastPunchTime = timeString(&last.PunchTime, s.loc)
				if attendance.StateOf(last.PunchType) == attendance.StateOpen {
					status.Status = report.PresenceIn
				}
			}
		}

		statuses = append(statuses, status)
	}

	return report.BulkStatusResponse{
		Date:     date.Format(attendance.DateLayout),
		Statuses: statuses,
	}, nil
}

func timeString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(attendance.TimestampLayout)
	return &s
}

// MyReport implements report.ReportService.
func (s *ReportServiceImpl) MyReport(ctx context.Context, filter report.ReportFilter) (report.AttendanceReport, error) {
	period, err := filter.Validate(s.today())
	if err != nil {
		return report.AttendanceReport{}, err
	}

	emp, err := s.resolver.ResolveEmployee(ctx)
	if err != nil {
		return report.AttendanceReport{}, err
	}

	return s.employeeReport(ctx, emp, period)
}

// EmployeeReport implements report.ReportService.
func (s *ReportServiceImpl) EmployeeReport(ctx context.Context, employeeID string, filter report.ReportFilter) (report.AttendanceReport, error) {
	if !validator.IsValidUUID(employeeID) {
		return report.AttendanceReport{}, validator.ValidationErrors{{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		}}
	}
	period, err := filter.Validate(s.today())
	if err != nil {
		return report.AttendanceReport{}, err
	}

	companyID, err := s.companyFromContext(ctx)
	if err != nil {
		return report.AttendanceReport{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return report.AttendanceReport{}, err
	}
	if emp.CompanyID != companyID {
		return report.AttendanceReport{}, employee.ErrEmployeeNotFound
	}

	return s.employeeReport(ctx, emp, period)
}

func (s *ReportServiceImpl) employeeReport(ctx context.Context, emp employee.Employee, period report.Period) (report.AttendanceReport, error) {
	days, err := s.reportRepo.ListEmployeeDays(ctx, emp.ID, period)
	if err != nil {
		return report.AttendanceReport{}, err
	}

	return report.AttendanceReport{
		Employee:   report.NewReportEmployee(emp),
		StartDate:  period.Start.Format(attendance.DateLayout),
		EndDate:    period.End.Format(attendance.DateLayout),
		Summary:    report.SummarizeDays(days),
		Attendance: s.dayResponses(days),
	}, nil
}

// TeamReport implements report.ReportService.
func (s *ReportServiceImpl) TeamReport(ctx context.Context, req report.TeamReportRequest) (report.TeamReport, error) {
	if err := req.Validate(); err != nil {
		return report.TeamReport{}, err
	}

	date := s.today()
	if req.Date != "" {
		date, _ = attendance.ParseDate(req.Date)
	}

	emp, err := s.resolver.ResolveEmployee(ctx)
	if err != nil {
		return report.TeamReport{}, err
	}

	members, scope, err := s.resolveTeam(ctx, emp)
	if err != nil {
		return report.TeamReport{}, err
	}

	result := report.TeamReport{
		Date:        date.Format(attendance.DateLayout),
		Scope:       scope,
		TeamMembers: make([]employee.TeamMember, 0, len(members)),
		Attendance:  []attendance.AttendanceDayResponse{},
	}
	if len(members) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
		result.TeamMembers = append(result.TeamMembers, employee.TeamMember{
			EmployeeID:   m.ID,
			EmployeeCode: m.EmployeeCode,
			FullName:     m.FullName,
		})
	}

	days, err := s.dayRepo.ListByEmployeesAndDate(ctx, ids, date)
	if err != nil {
		return report.TeamReport{}, err
	}

	result.Attendance = s.dayResponses(days)
	result.Summary = report.SummarizeDays(days)
	return result, nil
}

// resolveTeam returns direct reports, else co-team members under the same
// manager excluding emp, else nothing.
func (s *ReportServiceImpl) resolveTeam(ctx context.Context, emp employee.Employee) ([]employee.Employee, report.TeamScope, error) {
	reports, err := s.employeeRepo.ListByManagerID(ctx, emp.ID, nil)
	if err != nil {
		return nil, report.TeamScopeNone, err
	}
	if len(reports) > 0 {
		return reports, report.TeamScopeDirectReports, nil
	}

	if emp.ManagerID == nil {
		return nil, report.TeamScopeNone, nil
	}

	coTeam, err := s.employeeRepo.ListByManagerID(ctx, *emp.ManagerID, &emp.ID)
	if err != nil {
		return nil, report.TeamScopeNone, err
	}
	if len(coTeam) == 0 {
		return nil, report.TeamScopeNone, nil
	}
	return coTeam, report.TeamScopeCoTeam, nil
}

// OrganizationReport implements report.ReportService.
func (s *ReportServiceImpl) OrganizationReport(ctx context.Context, filter report.ReportFilter) (report.OrganizationReport, error) {
	period, err := filter.Validate(s.today())
	if err != nil {
		return report.OrganizationReport{}, err
	}

	companyID, err := s.companyFromContext(ctx)
	if err != nil {
		return report.OrganizationReport{}, err
	}

	var (
		days   []attendance.AttendanceDay
		total  int64
		totals report.SummaryTotals
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		days, err = s.reportRepo.ListCompanyDays(gctx, companyID, period, filter.Limit, filter.Offset())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.reportRepo.CountCompanyDays(gctx, companyID, period)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = s.reportRepo.SummarizeCompanyDays(gctx, companyID, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return report.OrganizationReport{}, err
	}

	result := report.OrganizationReport{
		StartDate:  period.Start.Format(attendance.DateLayout),
		EndDate:    period.End.Format(attendance.DateLayout),
		Summary:    report.NewSummary(totals),
		Attendance: s.dayResponses(days),
	}
	result.Paginate(total, filter.Page, filter.Limit, len(days))
	return result, nil
}

// GetDetails implements report.ReportService.
func (s *ReportServiceImpl) GetDetails(ctx context.Context, date string) (report.DetailsResponse, error) {
	day, err := attendance.ParseDate(date)
	if err != nil {
		return report.DetailsResponse{}, validator.ValidationErrors{{
			Field:   "date",
			Message: report.ErrInvalidDate.Error(),
		}}
	}

	emp, err := s.resolver.ResolveEmployee(ctx)
	if err != nil {
		return report.DetailsResponse{}, err
	}

	found, err := s.dayRepo.GetByEmployeeAndDate(ctx, emp.ID, day)
	if err != nil {
		return report.DetailsResponse{}, err
	}
	if found == nil {
		return report.DetailsResponse{}, attendance.ErrAttendanceNotFound
	}

	events, err := s.eventRepo.ListByAttendanceDay(ctx, found.ID)
	if err != nil {
		return report.DetailsResponse{}, err
	}

	return report.DetailsResponse{
		Date:       day.Format(attendance.DateLayout),
		Attendance: attendance.NewAttendanceDayResponse(*found, s.loc),
		Punches:    attendance.NewPunchEventResponses(events, s.loc),
		PunchPairs: attendance.NewPunchPairResponses(attendance.BuildPunchPairs(events), s.loc),
		InProgress: attendance.StateOf(attendance.LastEventType(events)) == attendance.StateOpen,
	}, nil
}
