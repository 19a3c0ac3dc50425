package attendance

import "errors"

// Attendance domain errors
var (
	// Punch state conflicts
	ErrAlreadyPunchedIn  = errors.New("you are already punched in")
	ErrNotPunchedIn      = errors.New("you have not punched in yet")
	ErrAlreadyPunchedOut = errors.New("you have already punched out")

	// Not found
	ErrNoAttendanceToday  = errors.New("no attendance record found for today")
	ErrAttendanceNotFound = errors.New("attendance record not found")

	ErrInvalidPunchType = errors.New("punch type must be in or out")
)

// IsStateConflict reports whether err is a rejected punch transition.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrAlreadyPunchedIn) ||
		errors.Is(err, ErrNotPunchedIn) ||
		errors.Is(err, ErrAlreadyPunchedOut)
}
