package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type PunchType string

const (
	PunchIn  PunchType = "in"
	PunchOut PunchType = "out"

	// NoPunch is reported by LastEventType for a day without events.
	NoPunch PunchType = "none"
)

type WorkMode string

const (
	WorkModeOffice WorkMode = "office"
	WorkModeRemote WorkMode = "remote"
	WorkModeHybrid WorkMode = "hybrid"
	WorkModeField  WorkMode = "field"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusHalfDay = "half_day"
)

// AttendanceDay is the per-employee, per-date aggregate. One row per (employee_id, date).
type AttendanceDay struct {
	ID              string
	EmployeeID      string
	CompanyID       string
	Date            time.Time
	FirstCheckIn    *time.Time
	LastCheckOut    *time.Time
	WorkMode        WorkMode
	Location        *string
	Status          string
	TotalWorkHours  decimal.Decimal
	TotalBreakHours decimal.Decimal
	GrossHours      decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// DTO
	EmployeeName *string
	EmployeeCode *string
	PunchCount   int
}

// PunchEvent is immutable once written.
type PunchEvent struct {
	ID              string
	Seq             int64
	EmployeeID      string
	AttendanceDayID string
	PunchType       PunchType
	PunchTime       time.Time
	Location        *string
	DeviceInfo      *string
	IPAddress       *string
	Notes           *string
	CreatedAt       time.Time
}

// PunchMeta carries request metadata recorded alongside a punch.
type PunchMeta struct {
	Location   *string
	DeviceInfo *string
	IPAddress  *string
	Notes      *string
}

// PunchPair is derived from consecutive in/out events and never persisted.
type PunchPair struct {
	InTime      time.Time
	OutTime     *time.Time
	HoursWorked *decimal.Decimal
	Status      string
}

const (
	PairStatusCompleted  = "Completed"
	PairStatusInProgress = "In Progress"
)

// DayTotals is the output of the hours computation engine.
type DayTotals struct {
	WorkHours    decimal.Decimal
	BreakHours   decimal.Decimal
	GrossHours   decimal.Decimal
	LastCheckOut *time.Time
	InProgress   bool
}
