package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const attendanceDayColumns = `
	a.id, a.employee_id, a.company_id, a.date, a.first_check_in, a.last_check_out,
	a.work_mode, a.location, a.status,
	a.total_work_hours, a.total_break_hours, a.gross_hours,
	a.created_at, a.updated_at`

type attendanceDayRepository struct {
	db *database.DB
}

func NewAttendanceDayRepository(db *database.DB) attendance.AttendanceDayRepository {
	return &attendanceDayRepository{db: db}
}

func dateParam(t time.Time) string {
	return t.Format(attendance.DateLayout)
}

func scanAttendanceDay(row pgx.Row, extra ...interface{}) (attendance.AttendanceDay, error) {
	var day attendance.AttendanceDay
	dest := []interface{}{
		&day.ID, &day.EmployeeID, &day.CompanyID, &day.Date, &day.FirstCheckIn, &day.LastCheckOut,
		&day.WorkMode, &day.Location, &day.Status,
		&day.TotalWorkHours, &day.TotalBreakHours, &day.GrossHours,
		&day.CreatedAt, &day.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return day, err
}

// GetOrCreateForUpdate implements attendance.AttendanceDayRepository.
func (r *attendanceDayRepository) GetOrCreateForUpdate(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, bool, error) {
	q := GetQuerier(ctx, r.db)

	if day.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.AttendanceDay{}, false, fmt.Errorf("failed to generate attendance id: %w", err)
		}
		day.ID = id.String()
	}

	// The unique (employee_id, date) constraint makes concurrent first punches
	// converge on one row; the loser's insert waits and then does nothing.
	insert := `
		INSERT INTO attendance_days (
			id, employee_id, company_id, date, work_mode, location, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (employee_id, date) DO NOTHING
	`
	tag, err := q.Exec(ctx, insert,
		day.ID,
		day.EmployeeID,
		day.CompanyID,
		dateParam(day.Date),
		day.WorkMode,
		day.Location,
		day.Status,
	)
	if err != nil {
		return attendance.AttendanceDay{}, false, fmt.Errorf("failed to insert attendance day: %w", err)
	}
	created := tag.RowsAffected() == 1

	locked, err := r.GetForUpdate(ctx, day.EmployeeID, day.Date)
	if err != nil {
		return attendance.AttendanceDay{}, false, err
	}

	return locked, created, nil
}

// GetForUpdate implements attendance.AttendanceDayRepository.
func (r *attendanceDayRepository) GetForUpdate(ctx context.Context, employeeID string, date time.Time) (attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceDayColumns + `
		FROM attendance_days a
		WHERE a.employee_id = $1 AND a.date = $2
		FOR UPDATE
	`

	day, err := scanAttendanceDay(q.QueryRow(ctx, query, employeeID, dateParam(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceDay{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceDay{}, fmt.Errorf("failed to lock attendance day: %w", err)
	}

	return day, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceDayRepository.
func (r *attendanceDayRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceDayColumns + `,
			e.full_name, e.employee_code,
			(SELECT COUNT(*) FROM punch_events p WHERE p.attendance_day_id = a.id) AS punch_count
		FROM attendance_days a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = $1 AND a.date = $2
	`

	var name, code *string
	var punchCount int
	day, err := scanAttendanceDay(q.QueryRow(ctx, query, employeeID, dateParam(date)), &name, &code, &punchCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance day by employee and date: %w", err)
	}
	day.EmployeeName = name
	day.EmployeeCode = code
	day.PunchCount = punchCount

	return &day, nil
}

// SetFirstCheckIn implements attendance.AttendanceDayRepository.
func (r *attendanceDayRepository) SetFirstCheckIn(ctx context.Context, id string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_days
		SET first_check_in = $2, updated_at = NOW()
		WHERE id = $1 AND first_check_in IS NULL
	`
	if _, err := q.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to set first check-in: %w", err)
	}

	return nil
}

// UpdateTotals implements attendance.AttendanceDayRepository.
func (r *attendanceDayRepository) UpdateTotals(ctx context.Context, id string, totals attendance.DayTotals) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_days
		SET total_work_hours = $2,
			total_break_hours = $3,
			gross_hours = $4,
			last_check_out = $5,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, id, totals.WorkHours, totals.BreakHours, totals.GrossHours, totals.LastCheckOut)
	if err != nil {
		return fmt.Errorf("failed to update attendance totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// ListByEmployeesAndDate implements attendance.AttendanceDayRepository.
func (r *attendanceDayRepository) ListByEmployeesAndDate(ctx context.Context, employeeIDs []string, date time.Time) ([]attendance.AttendanceDay, error) {
	if len(employeeIDs) == 0 {
		return []attendance.AttendanceDay{}, nil
	}
	q := GetQuerier(ctx, r.db)

	ids, err := parseUUIDs(employeeIDs)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + attendanceDayColumns + `,
			e.full_name, e.employee_code,
			(SELECT COUNT(*) FROM punch_events p WHERE p.attendance_day_id = a.id) AS punch_count
		FROM attendance_days a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = ANY($1) AND a.date = $2
		ORDER BY e.full_name
	`

	rows, err := q.Query(ctx, query, ids, dateParam(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance days: %w", err)
	}
	defer rows.Close()

	days, err := collectAttendanceDays(rows)
	if err != nil {
		return nil, err
	}

	return days, nil
}

// ListEmployeeIDsByDate implements attendance.AttendanceDayRepository.
func (r *attendanceDayRepository) ListEmployeeIDsByDate(ctx context.Context, date time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT employee_id FROM attendance_days WHERE date = $1 ORDER BY employee_id`, dateParam(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance employees: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan attendance employees: %w", err)
	}
	return ids, nil
}

// collectAttendanceDays scans rows selected as attendanceDayColumns + name, code, punch_count.
func collectAttendanceDays(rows pgx.Rows) ([]attendance.AttendanceDay, error) {
	days := make([]attendance.AttendanceDay, 0)
	for rows.Next() {
		var name, code *string
		var punchCount int
		day, err := scanAttendanceDay(rows, &name, &code, &punchCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance day: %w", err)
		}
		day.EmployeeName = name
		day.EmployeeCode = code
		day.PunchCount = punchCount
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance days: %w", err)
	}
	return days, nil
}

func parseUUIDs(ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", id, err)
		}
		out = append(out, parsed)
	}
	return out, nil
}
