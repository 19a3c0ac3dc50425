package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

// dayRecomputer is the subset of attendance.AttendanceService used by the jobs.
type dayRecomputer interface {
	RecomputeDay(ctx context.Context, req attendance.RecomputeRequest) (attendance.AttendanceDayResponse, error)
}

type AttendanceJobs struct {
	dayRepo    attendance.AttendanceDayRepository
	recomputer dayRecomputer
	loc        *time.Location
	now        func() time.Time
}

func NewAttendanceJobs(dayRepo attendance.AttendanceDayRepository, recomputer dayRecomputer, loc *time.Location) *AttendanceJobs {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceJobs{
		dayRepo:    dayRepo,
		recomputer: recomputer,
		loc:        loc,
		now:        time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("reconcile_attendance_totals", interval, j.ReconcilePreviousDay)
}

// ReconcilePreviousDay replays yesterday's ledger for every employee-day and
// rewrites stored totals. Replaying is idempotent, so repeated runs are safe.
// Open days are left open; no punches are written.
func (j *AttendanceJobs) ReconcilePreviousDay(ctx context.Context) error {
	date := attendance.CalendarDate(j.now(), j.loc).AddDate(0, 0, -1)
	return j.ReconcileDate(ctx, date)
}

func (j *AttendanceJobs) ReconcileDate(ctx context.Context, date time.Time) error {
	dateStr := date.Format(attendance.DateLayout)

	employeeIDs, err := j.dayRepo.ListEmployeeIDsByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to list attendance days for %s: %w", dateStr, err)
	}

	var errs []error
	for _, employeeID := range employeeIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := j.recomputer.RecomputeDay(ctx, attendance.RecomputeRequest{
			EmployeeID: employeeID,
			Date:       dateStr,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("employee %s: %w", employeeID, err))
		}
	}

	slog.InfoContext(ctx, "Attendance totals reconciled",
		"date", dateStr,
		"days", len(employeeIDs),
		"failed", len(errs),
	)
	return errors.Join(errs...)
}
