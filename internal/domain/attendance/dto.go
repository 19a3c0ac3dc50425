package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = time.RFC3339
)

// ========================================
// PUNCH DTOs
// ========================================

type PunchInRequest struct {
	WorkMode   string  `json:"work_mode" validate:"omitempty,oneof=office remote hybrid field"`
	Location   *string `json:"location,omitempty" validate:"omitempty,max=255"`
	DeviceInfo *string `json:"device_info,omitempty" validate:"omitempty,max=255"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
	IPAddress  *string `json:"-"`
}

func (r *PunchInRequest) Validate() error {
	r.WorkMode = strings.ToLower(strings.TrimSpace(r.WorkMode))
	if r.WorkMode == "" {
		r.WorkMode = string(WorkModeOffice)
	}
	return validator.Struct(r)
}

func (r *PunchInRequest) Meta() PunchMeta {
	return PunchMeta{
		Location:   r.Location,
		DeviceInfo: r.DeviceInfo,
		IPAddress:  r.IPAddress,
		Notes:      r.Notes,
	}
}

type PunchOutRequest struct {
	Location   *string `json:"location,omitempty" validate:"omitempty,max=255"`
	DeviceInfo *string `json:"device_info,omitempty" validate:"omitempty,max=255"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
	IPAddress  *string `json:"-"`
}

func (r *PunchOutRequest) Validate() error {
	return validator.Struct(r)
}

func (r *PunchOutRequest) Meta() PunchMeta {
	return PunchMeta{
		Location:   r.Location,
		DeviceInfo: r.DeviceInfo,
		IPAddress:  r.IPAddress,
		Notes:      r.Notes,
	}
}

type PunchInResponse struct {
	AttendanceID string `json:"attendance_id"`
	PunchTime    string `json:"punch_time"`
	WorkMode     string `json:"work_mode"`
}

type PunchOutResponse struct {
	AttendanceID    string  `json:"attendance_id"`
	PunchTime       string  `json:"punch_time"`
	TotalWorkHours  float64 `json:"total_work_hours"`
	TotalBreakHours float64 `json:"total_break_hours"`
	GrossHours      float64 `json:"gross_hours"`
}

type RecomputeRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
}

func (r *RecomputeRequest) Validate() error {
	return validator.Struct(r)
}

// ========================================
// STATUS DTOs
// ========================================

type AttendanceDayResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	EmployeeName    *string `json:"employee_name,omitempty"`
	EmployeeCode    *string `json:"employee_code,omitempty"`
	Date            string  `json:"date"`
	FirstCheckIn    *string `json:"first_check_in"`
	LastCheckOut    *string `json:"last_check_out"`
	WorkMode        string  `json:"work_mode"`
	Location        *string `json:"location,omitempty"`
	Status          string  `json:"status"`
	TotalWorkHours  float64 `json:"total_work_hours"`
	TotalBreakHours float64 `json:"total_break_hours"`
	GrossHours      float64 `json:"gross_hours"`
	PunchCount      int     `json:"punch_count"`
}

type PunchEventResponse struct {
	ID         string  `json:"id"`
	PunchType  string  `json:"punch_type"`
	PunchTime  string  `json:"punch_time"`
	Location   *string `json:"location,omitempty"`
	DeviceInfo *string `json:"device_info,omitempty"`
	IPAddress  *string `json:"ip_address,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

type PunchPairResponse struct {
	InTime      string   `json:"in_time"`
	OutTime     *string  `json:"out_time"`
	HoursWorked *float64 `json:"hours_worked"`
	Status      string   `json:"status"`
}

type TodayStatusResponse struct {
	Date          string                 `json:"date"`
	HasAttendance bool                   `json:"has_attendance"`
	Attendance    *AttendanceDayResponse `json:"attendance"`
	Punches       []PunchEventResponse   `json:"punches"`
	PunchCount    int                    `json:"punch_count"`
	State         DayState               `json:"state"`
	CanPunchIn    bool                   `json:"can_punch_in"`
	CanPunchOut   bool                   `json:"can_punch_out"`
}

// ========================================
// MAPPERS
// ========================================

func timePtrToString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(TimestampLayout)
	return &s
}

func hours(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// NewAttendanceDayResponse renders timestamps in loc.
func NewAttendanceDayResponse(day AttendanceDay, loc *time.Location) AttendanceDayResponse {
	return AttendanceDayResponse{
		ID:              day.ID,
		EmployeeID:      day.EmployeeID,
		EmployeeName:    day.EmployeeName,
		EmployeeCode:    day.EmployeeCode,
		Date:            day.Date.Format(DateLayout),
		FirstCheckIn:    timePtrToString(day.FirstCheckIn, loc),
		LastCheckOut:    timePtrToString(day.LastCheckOut, loc),
		WorkMode:        string(day.WorkMode),
		Location:        day.Location,
		Status:          day.Status,
		TotalWorkHours:  hours(day.TotalWorkHours),
		TotalBreakHours: hours(day.TotalBreakHours),
		GrossHours:      hours(day.GrossHours),
		PunchCount:      day.PunchCount,
	}
}

func NewPunchEventResponses(events []PunchEvent, loc *time.Location) []PunchEventResponse {
	out := make([]PunchEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, PunchEventResponse{
			ID:         e.ID,
			PunchType:  string(e.PunchType),
			PunchTime:  e.PunchTime.In(loc).Format(TimestampLayout),
			Location:   e.Location,
			DeviceInfo: e.DeviceInfo,
			IPAddress:  e.IPAddress,
			Notes:      e.Notes,
		})
	}
	return out
}

func NewPunchPairResponses(pairs []PunchPair, loc *time.Location) []PunchPairResponse {
	out := make([]PunchPairResponse, 0, len(pairs))
	for _, p := range pairs {
		resp := PunchPairResponse{
			InTime:  p.InTime.In(loc).Format(TimestampLayout),
			OutTime: timePtrToString(p.OutTime, loc),
			Status:  p.Status,
		}
		if p.HoursWorked != nil {
			h := hours(*p.HoursWorked)
			resp.HoursWorked = &h
		}
		out = append(out, resp)
	}
	return out
}

// CalendarDate truncates t to its calendar date in loc, returned as UTC midnight.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
