package attendance

import (
	"context"
)

// AttendanceService owns the punch ledger and the per-day aggregate.
type AttendanceService interface {
	// PunchIn records an "in" event for the caller, creating today's attendance row on the first punch
	PunchIn(ctx context.Context, req PunchInRequest) (PunchInResponse, error)

	// PunchOut records an "out" event for the caller and recomputes the day's totals
	PunchOut(ctx context.Context, req PunchOutRequest) (PunchOutResponse, error)

	// GetToday returns the caller's attendance for today with the derived punch state
	GetToday(ctx context.Context) (TodayStatusResponse, error)

	// RecomputeDay replays the ledger of one employee-day and rewrites its totals
	RecomputeDay(ctx context.Context, req RecomputeRequest) (AttendanceDayResponse, error)
}
