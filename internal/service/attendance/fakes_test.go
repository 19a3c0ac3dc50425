package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/google/uuid"
)

// memStore backs the in-memory repositories. txMu stands in for the row lock:
// transactions run one at a time and restore a snapshot on error.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	days   map[string]attendance.AttendanceDay
	events []attendance.PunchEvent
	seq    int64

	employees map[string]employee.Employee

	appendErr error
	updateErr error
}

func newMemStore(emps ...employee.Employee) *memStore {
	s := &memStore{
		days:      make(map[string]attendance.AttendanceDay),
		employees: make(map[string]employee.Employee),
	}
	for _, e := range emps {
		s.employees[e.ID] = e
	}
	return s
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	days := make(map[string]attendance.AttendanceDay, len(s.days))
	for k, v := range s.days {
		days[k] = v
	}
	events := append([]attendance.PunchEvent(nil), s.events...)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.days = days
		s.events = events
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) dayCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.days)
}

func (s *memStore) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *memStore) findDay(employeeID string, date time.Time) (attendance.AttendanceDay, bool) {
	for _, d := range s.days {
		if d.EmployeeID == employeeID && d.Date.Equal(date) {
			return d, true
		}
	}
	return attendance.AttendanceDay{}, false
}

func (s *memStore) eventsOf(dayID string) []attendance.PunchEvent {
	out := make([]attendance.PunchEvent, 0)
	for _, e := range s.events {
		if e.AttendanceDayID == dayID {
			out = append(out, e)
		}
	}
	return attendance.SortEvents(out)
}

type memDayRepo struct{ s *memStore }

func (r memDayRepo) GetOrCreateForUpdate(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.findDay(day.EmployeeID, day.Date); ok {
		return existing, false, nil
	}
	day.ID = uuid.NewString()
	day.CreatedAt = time.Now()
	day.UpdatedAt = day.CreatedAt
	r.s.days[day.ID] = day
	return day, true, nil
}

func (r memDayRepo) GetForUpdate(ctx context.Context, employeeID string, date time.Time) (attendance.AttendanceDay, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if d, ok := r.s.findDay(employeeID, date); ok {
		return d, nil
	}
	return attendance.AttendanceDay{}, attendance.ErrAttendanceNotFound
}

func (r memDayRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.AttendanceDay, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.findDay(employeeID, date)
	if !ok {
		return nil, nil
	}
	d.PunchCount = len(r.s.eventsOf(d.ID))
	if emp, ok := r.s.employees[d.EmployeeID]; ok {
		d.EmployeeName = &emp.FullName
		d.EmployeeCode = &emp.EmployeeCode
	}
	return &d, nil
}

func (r memDayRepo) SetFirstCheckIn(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d := r.s.days[id]
	if d.FirstCheckIn == nil {
		d.FirstCheckIn = &at
		r.s.days[id] = d
	}
	return nil
}

func (r memDayRepo) UpdateTotals(ctx context.Context, id string, totals attendance.DayTotals) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.updateErr != nil {
		return r.s.updateErr
	}
	d, ok := r.s.days[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	d.TotalWorkHours = totals.WorkHours
	d.TotalBreakHours = totals.BreakHours
	d.GrossHours = totals.GrossHours
	d.LastCheckOut = totals.LastCheckOut
	r.s.days[id] = d
	return nil
}

func (r memDayRepo) ListByEmployeesAndDate(ctx context.Context, employeeIDs []string, date time.Time) ([]attendance.AttendanceDay, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]attendance.AttendanceDay, 0)
	for _, id := range employeeIDs {
		if d, ok := r.s.findDay(id, date); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r memDayRepo) ListEmployeeIDsByDate(ctx context.Context, date time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]string, 0)
	for _, d := range r.s.days {
		if d.Date.Equal(date) {
			out = append(out, d.EmployeeID)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memEventRepo struct{ s *memStore }

func (r memEventRepo) Append(ctx context.Context, event attendance.PunchEvent) (attendance.PunchEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.appendErr != nil {
		return attendance.PunchEvent{}, fmt.Errorf("failed to append punch event: %w", r.s.appendErr)
	}
	r.s.seq++
	event.ID = uuid.NewString()
	event.Seq = r.s.seq
	event.CreatedAt = time.Now()
	r.s.events = append(r.s.events, event)
	return event, nil
}

func (r memEventRepo) ListByAttendanceDay(ctx context.Context, attendanceDayID string) ([]attendance.PunchEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.eventsOf(attendanceDayID), nil
}

func (r memEventRepo) LastByAttendanceDays(ctx context.Context, attendanceDayIDs []string) (map[string]attendance.PunchEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make(map[string]attendance.PunchEvent)
	for _, id := range attendanceDayIDs {
		if events := r.s.eventsOf(id); len(events) > 0 {
			out[id] = events[len(events)-1]
		}
	}
	return out, nil
}

type memEmployeeRepo struct{ s *memStore }

func (r memEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e, ok := r.s.employees[id]; ok {
		return e, nil
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r memEmployeeRepo) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.employees {
		if e.UserID != nil && *e.UserID == userID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r memEmployeeRepo) ListByManagerID(ctx context.Context, managerID string, excludeID *string) ([]employee.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]employee.Employee, 0)
	for _, e := range r.s.employees {
		if e.ManagerID == nil || *e.ManagerID != managerID {
			continue
		}
		if excludeID != nil && e.ID == *excludeID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type fixedResolver struct {
	emp employee.Employee
	err error
}

func (f fixedResolver) ResolveEmployee(ctx context.Context) (employee.Employee, error) {
	return f.emp, f.err
}

// clock is a settable time source safe for concurrent use.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// steppingClock advances by step after every read.
type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
