package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Punch state conflicts
	case errors.Is(err, attendance.ErrAlreadyPunchedIn):
		Conflict(w, CodeAlreadyPunchedIn, err.Error())
	case errors.Is(err, attendance.ErrNotPunchedIn):
		Conflict(w, CodeNotPunchedIn, err.Error())
	case errors.Is(err, attendance.ErrAlreadyPunchedOut):
		Conflict(w, CodeAlreadyPunchedOut, err.Error())

	// Not found
	case errors.Is(err, attendance.ErrNoAttendanceToday):
		NotFound(w, CodeAttendanceNotFound, err.Error())
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, CodeAttendanceNotFound, "Attendance record not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, CodeEmployeeNotFound, "Employee not found")

	// Access
	case errors.Is(err, user.ErrInsufficientPermissions),
		errors.Is(err, user.ErrCompanyIDRequired):
		Forbidden(w, err.Error())

	// Default
	default:
		slog.ErrorContext(r.Context(), "unhandled error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		InternalServerError(w, "An unexpected error occurred")
	}
}
