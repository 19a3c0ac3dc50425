package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/google/uuid"
)

type punchEventRepository struct {
	db *database.DB
}

func NewPunchEventRepository(db *database.DB) attendance.PunchEventRepository {
	return &punchEventRepository{db: db}
}

// Append implements attendance.PunchEventRepository.
func (r *punchEventRepository) Append(ctx context.Context, event attendance.PunchEvent) (attendance.PunchEvent, error) {
	q := GetQuerier(ctx, r.db)

	if event.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.PunchEvent{}, fmt.Errorf("failed to generate punch id: %w", err)
		}
		event.ID = id.String()
	}

	query := `
		INSERT INTO punch_events (
			id, employee_id, attendance_day_id, punch_type, punch_time,
			location, device_info, ip_address, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING seq, created_at
	`

	err := q.QueryRow(ctx, query,
		event.ID,
		event.EmployeeID,
		event.AttendanceDayID,
		event.PunchType,
		event.PunchTime,
		event.Location,
		event.DeviceInfo,
		event.IPAddress,
		event.Notes,
	).Scan(&event.Seq, &event.CreatedAt)
	if err != nil {
		return attendance.PunchEvent{}, fmt.Errorf("failed to append punch event: %w", err)
	}

	return event, nil
}

// ListByAttendanceDay implements attendance.PunchEventRepository.
func (r *punchEventRepository) ListByAttendanceDay(ctx context.Context, attendanceDayID string) ([]attendance.PunchEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, seq, employee_id, attendance_day_id, punch_type, punch_time,
			   location, device_info, ip_address, notes, created_at
		FROM punch_events
		WHERE attendance_day_id = $1
		ORDER BY punch_time ASC, seq ASC
	`

	rows, err := q.Query(ctx, query, attendanceDayID)
	if err != nil {
		return nil, fmt.Errorf("failed to query punch events: %w", err)
	}
	defer rows.Close()

	events := make([]attendance.PunchEvent, 0)
	for rows.Next() {
		var e attendance.PunchEvent
		if err := rows.Scan(
			&e.ID, &e.Seq, &e.EmployeeID, &e.AttendanceDayID, &e.PunchType, &e.PunchTime,
			&e.Location, &e.DeviceInfo, &e.IPAddress, &e.Notes, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan punch event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punch events: %w", err)
	}

	return events, nil
}

// LastByAttendanceDays implements attendance.PunchEventRepository.
func (r *punchEventRepository) LastByAttendanceDays(ctx context.Context, attendanceDayIDs []string) (map[string]attendance.PunchEvent, error) {
	result := make(map[string]attendance.PunchEvent, len(attendanceDayIDs))
	if len(attendanceDayIDs) == 0 {
		return result, nil
	}
	q := GetQuerier(ctx, r.db)

	ids, err := parseUUIDs(attendanceDayIDs)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT DISTINCT ON (attendance_day_id)
			   id, seq, employee_id, attendance_day_id, punch_type, punch_time,
			   location, device_info, ip_address, notes, created_at
		FROM punch_events
		WHERE attendance_day_id = ANY($1)
		ORDER BY attendance_day_id, punch_time DESC, seq DESC
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query last punch events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e attendance.PunchEvent
		if err := rows.Scan(
			&e.ID, &e.Seq, &e.EmployeeID, &e.AttendanceDayID, &e.PunchType, &e.PunchTime,
			&e.Location, &e.DeviceInfo, &e.IPAddress, &e.Notes, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan last punch event: %w", err)
		}
		result[e.AttendanceDayID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate last punch events: %w", err)
	}

	return result, nil
}
