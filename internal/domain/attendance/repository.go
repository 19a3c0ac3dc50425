package attendance

import (
	"context"
	"time"
)

// AttendanceDayRepository persists the per-day aggregate.
// Dates are calendar dates; only their year, month and day are used.
type AttendanceDayRepository interface {
	// GetOrCreateForUpdate inserts the day row if it does not exist and locks it
	// until the surrounding transaction ends. created reports whether this call
	// inserted the row.
	GetOrCreateForUpdate(ctx context.Context, day AttendanceDay) (result AttendanceDay, created bool, err error)

	// GetForUpdate locks an existing day row. Returns ErrAttendanceNotFound if absent.
	GetForUpdate(ctx context.Context, employeeID string, date time.Time) (AttendanceDay, error)

	// GetByEmployeeAndDate returns nil when the employee has no row for date.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*AttendanceDay, error)

	SetFirstCheckIn(ctx context.Context, id string, at time.Time) error

	// UpdateTotals writes the derived fields computed by ComputeHours.
	UpdateTotals(ctx context.Context, id string, totals DayTotals) error

	// ListByEmployeesAndDate loads rows for many employees in one query.
	ListByEmployeesAndDate(ctx context.Context, employeeIDs []string, date time.Time) ([]AttendanceDay, error)

	// ListEmployeeIDsByDate returns every employee with a row for date, across companies.
	ListEmployeeIDsByDate(ctx context.Context, date time.Time) ([]string, error)
}

// PunchEventRepository is the append-only punch ledger.
type PunchEventRepository interface {
	Append(ctx context.Context, event PunchEvent) (PunchEvent, error)

	// ListByAttendanceDay returns events ordered by punch_time, then seq.
	ListByAttendanceDay(ctx context.Context, attendanceDayID string) ([]PunchEvent, error)

	// LastByAttendanceDays returns the most recent event per day id in one query.
	LastByAttendanceDays(ctx context.Context, attendanceDayIDs []string) (map[string]PunchEvent, error)
}
