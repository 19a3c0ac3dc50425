package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	transactor   database.Transactor
	dayRepo      attendance.AttendanceDayRepository
	eventRepo    attendance.PunchEventRepository
	employeeRepo employee.EmployeeRepository
	resolver     employee.Resolver
	loc          *time.Location
	now          func() time.Time
}

type Option func(*AttendanceServiceImpl)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *AttendanceServiceImpl) {
		s.now = now
	}
}

func NewAttendanceService(
	transactor database.Transactor,
	dayRepo attendance.AttendanceDayRepository,
	eventRepo attendance.PunchEventRepository,
	employeeRepo employee.EmployeeRepository,
	resolver employee.Resolver,
	loc *time.Location,
	opts ...Option,
) *AttendanceServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	s := &AttendanceServiceImpl{
		transactor:   transactor,
		dayRepo:      dayRepo,
		eventRepo:    eventRepo,
		employeeRepo: employeeRepo,
		resolver:     resolver,
		loc:          loc,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// punchTime returns now at database precision. It never falls behind the
// day's last event so (punch_time, seq) order matches append order.
func punchTime(now time.Time, events []attendance.PunchEvent) time.Time {
	t := now.UTC().Truncate(time.Microsecond)
	if n := len(events); n > 0 {
		last := attendance.SortEvents(events)[n-1].PunchTime
		if t.Before(last) {
			t = last.UTC()
		}
	}
	return t
}

// callerAttr identifies the token holder when no employee could be resolved.
func callerAttr(ctx context.Context) slog.Attr {
	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		return slog.String("user_id", "")
	}
	return slog.String("user_id", caller.UserID)
}

func isRejection(err error) bool {
	var validationErrs validator.ValidationErrors
	return attendance.IsStateConflict(err) ||
		errors.Is(err, attendance.ErrNoAttendanceToday) ||
		errors.Is(err, employee.ErrEmployeeNotFound) ||
		errors.As(err, &validationErrs)
}

func (s *AttendanceServiceImpl) logRejected(ctx context.Context, who slog.Attr, date time.Time, transition attendance.PunchType, err error) {
	level, msg := slog.LevelError, "punch failed"
	if isRejection(err) {
		level, msg = slog.LevelWarn, "punch rejected"
	}
	slog.Log(ctx, level, msg,
		who,
		"date", date.Format(attendance.DateLayout),
		"transition", string(transition),
		"error", err,
	)
}

// PunchIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) PunchIn(ctx context.Context, req attendance.PunchInRequest) (attendance.PunchInResponse, error) {
	now := s.now()
	date := attendance.CalendarDate(now, s.loc)

	emp, err := s.resolver.ResolveEmployee(ctx)
	if err != nil {
		s.logRejected(ctx, callerAttr(ctx), date, attendance.PunchIn, err)
		return attendance.PunchInResponse{}, err
	}

	if err := req.Validate(); err != nil {
		s.logRejected(ctx, slog.String("employee_id", emp.ID), date, attendance.PunchIn, err)
		return attendance.PunchInResponse{}, err
	}

	var resp attendance.PunchInResponse
	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		day, created, err := s.dayRepo.GetOrCreateForUpdate(txCtx, attendance.AttendanceDay{
			EmployeeID: emp.ID,
			CompanyID:  emp.CompanyID,
			Date:       date,
			WorkMode:   attendance.WorkMode(req.WorkMode),
			Location:   req.Location,
			Status:     attendance.StatusPresent,
		})
		if err != nil {
			return err
		}

		events, err := s.eventRepo.ListByAttendanceDay(txCtx, day.ID)
		if err != nil {
			return err
		}

		if err := attendance.ValidateTransition(attendance.LastEventType(events), attendance.PunchIn); err != nil {
			return err
		}

		meta := req.Meta()
		event, err := s.eventRepo.Append(txCtx, attendance.PunchEvent{
			EmployeeID:      emp.ID,
			AttendanceDayID: day.ID,
			PunchType:       attendance.PunchIn,
			PunchTime:       punchTime(now, events),
			Location:        meta.Location,
			DeviceInfo:      meta.DeviceInfo,
			IPAddress:       meta.IPAddress,
			Notes:           meta.Notes,
		})
		if err != nil {
			return err
		}

		if created || day.FirstCheckIn == nil {
			if err := s.dayRepo.SetFirstCheckIn(txCtx, day.ID, event.PunchTime); err != nil {
				return err
			}
		}

		resp = attendance.PunchInResponse{
			AttendanceID: day.ID,
			PunchTime:    event.PunchTime.In(s.loc).Format(attendance.TimestampLayout),
			WorkMode:     req.WorkMode,
		}
		return nil
	})
	if err != nil {
		s.logRejected(ctx, slog.String("employee_id", emp.ID), date, attendance.PunchIn, err)
		return attendance.PunchInResponse{}, err
	}

	slog.InfoContext(ctx, "punched in",
		"employee_id", emp.ID,
		"attendance_id", resp.AttendanceID,
		"date", date.Format(attendance.DateLayout),
	)
	return resp, nil
}

// PunchOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) PunchOut(ctx context.Context, req attendance.PunchOutRequest) (attendance.PunchOutResponse, error) {
	now := s.now()
	date := attendance.CalendarDate(now, s.loc)

	emp, err := s.resolver.ResolveEmployee(ctx)
	if err != nil {
		s.logRejected(ctx, callerAttr(ctx), date, attendance.PunchOut, err)
		return attendance.PunchOutResponse{}, err
	}

	if err := req.Validate(); err != nil {
		s.logRejected(ctx, slog.String("employee_id", emp.ID), date, attendance.PunchOut, err)
		return attendance.PunchOutResponse{}, err
	}

	var resp attendance.PunchOutResponse
	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		day, err := s.dayRepo.GetForUpdate(txCtx, emp.ID, date)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return attendance.ErrNoAttendanceToday
			}
			return err
		}

		events, err := s.eventRepo.ListByAttendanceDay(txCtx, day.ID)
		if err != nil {
			return err
		}

		if err := attendance.ValidateTransition(attendance.LastEventType(events), attendance.PunchOut); err != nil {
			return err
		}

		meta := req.Meta()
		event, err := s.eventRepo.Append(txCtx, attendance.PunchEvent{
			EmployeeID:      emp.ID,
			AttendanceDayID: day.ID,
			PunchType:       attendance.PunchOut,
			PunchTime:       punchTime(now, events),
			Location:        meta.Location,
			DeviceInfo:      meta.DeviceInfo,
			IPAddress:       meta.IPAddress,
			Notes:           meta.Notes,
		})
		if err != nil {
			return err
		}

		totals := attendance.ComputeHours(append(events, event))
		if err := s.dayRepo.UpdateTotals(txCtx, day.ID, totals); err != nil {
			return err
		}

		resp = attendance.PunchOutResponse{
			AttendanceID:    day.ID,
			PunchTime:       event.PunchTime.In(s.loc).Format(attendance.TimestampLayout),
			TotalWorkHours:  totals.WorkHours.InexactFloat64(),
			TotalBreakHours: totals.BreakHours.InexactFloat64(),
			GrossHours:      totals.GrossHours.InexactFloat64(),
		}
		return nil
	})
	if err != nil {
		s.logRejected(ctx, slog.String("employee_id", emp.ID), date, attendance.PunchOut, err)
		return attendance.PunchOutResponse{}, err
	}

	slog.InfoContext(ctx, "punched out",
		"employee_id", emp.ID,
		"attendance_id", resp.AttendanceID,
		"date", date.Format(attendance.DateLayout),
		"total_work_hours", resp.TotalWorkHours,
	)
	return resp, nil
}

// GetToday implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetToday(ctx context.Context) (attendance.TodayStatusResponse, error) {
	emp, err := s.resolver.ResolveEmployee(ctx)
	if err != nil {
		return attendance.TodayStatusResponse{}, err
	}

	date := attendance.CalendarDate(s.now(), s.loc)
	resp := attendance.TodayStatusResponse{
		Date:    date.Format(attendance.DateLayout),
		Punches: []attendance.PunchEventResponse{},
	}

	day, err := s.dayRepo.GetByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		return attendance.TodayStatusResponse{}, err
	}

	var events []attendance.PunchEvent
	if day != nil {
		events, err = s.eventRepo.ListByAttendanceDay(ctx, day.ID)
		if err != nil {
			return attendance.TodayStatusResponse{}, err
		}
		dayResp := attendance.NewAttendanceDayResponse(*day, s.loc)
		resp.HasAttendance = true
		resp.Attendance = &dayResp
		resp.Punches = attendance.NewPunchEventResponses(events, s.loc)
	}

	state := attendance.StateOf(attendance.LastEventType(events))
	resp.PunchCount = len(events)
	resp.State = state
	resp.CanPunchIn = attendance.CanPunchIn(state)
	resp.CanPunchOut = attendance.CanPunchOut(state)

	return resp, nil
}

// RecomputeDay implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecomputeDay(ctx context.Context, req attendance.RecomputeRequest) (attendance.AttendanceDayResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceDayResponse{}, err
	}
	date, err := attendance.ParseDate(req.Date)
	if err != nil {
		return attendance.AttendanceDayResponse{}, fmt.Errorf("failed to parse date: %w", err)
	}

	target, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceDayResponse{}, err
	}
	if err := authorizeCompany(ctx, target.CompanyID); err != nil {
		return attendance.AttendanceDayResponse{}, err
	}

	var before, after attendance.AttendanceDay
	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		day, err := s.dayRepo.GetForUpdate(txCtx, target.ID, date)
		if err != nil {
			return err
		}
		before = day

		events, err := s.eventRepo.ListByAttendanceDay(txCtx, day.ID)
		if err != nil {
			return err
		}

		totals := attendance.ComputeHours(events)
		if err := s.dayRepo.UpdateTotals(txCtx, day.ID, totals); err != nil {
			return err
		}

		after = day
		after.TotalWorkHours = totals.WorkHours
		after.TotalBreakHours = totals.BreakHours
		after.GrossHours = totals.GrossHours
		after.LastCheckOut = totals.LastCheckOut
		after.PunchCount = len(events)
		after.EmployeeName = &target.FullName
		after.EmployeeCode = &target.EmployeeCode
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "recompute failed",
			"employee_id", target.ID,
			"date", req.Date,
			"error", err,
		)
		return attendance.AttendanceDayResponse{}, err
	}

	slog.InfoContext(ctx, "attendance day recomputed",
		"employee_id", target.ID,
		"attendance_id", after.ID,
		"date", req.Date,
		"previous_work_hours", before.TotalWorkHours.String(),
		"total_work_hours", after.TotalWorkHours.String(),
	)
	return attendance.NewAttendanceDayResponse(after, s.loc), nil
}

// authorizeCompany scopes HTTP callers to their own company. Calls without a
// token (the operator CLI) are not scoped.
func authorizeCompany(ctx context.Context, companyID string) error {
	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		if errors.Is(err, jwt.ErrMissingClaim) {
			return nil
		}
		return fmt.Errorf("failed to extract claims from context: %w", err)
	}
	if caller.CompanyID == nil {
		return user.ErrCompanyIDRequired
	}
	if *caller.CompanyID != companyID {
		return employee.ErrEmployeeNotFound
	}
	return nil
}
