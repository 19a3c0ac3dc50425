package attendance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	companyID  = "0193a6f0-0000-7000-8000-000000000001"
	employeeID = "0193a6f0-0000-7000-8000-0000000000e1"
)

var testDate = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func clockAt(hour, minute int) time.Time {
	return testDate.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type fixture struct {
	store   *memStore
	clock   *clock
	service *AttendanceServiceImpl
	emp     employee.Employee
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	emp := employee.Employee{
		ID:               employeeID,
		CompanyID:        companyID,
		EmployeeCode:     "EMP-001",
		FullName:         "Dewi Lestari",
		EmploymentStatus: employee.EmploymentStatusActive,
	}
	store := newMemStore(emp)
	clk := &clock{now: clockAt(9, 0)}

	svc := NewAttendanceService(
		store,
		memDayRepo{store},
		memEventRepo{store},
		memEmployeeRepo{store},
		fixedResolver{emp: emp},
		time.UTC,
		WithClock(clk.Now),
	)

	return &fixture{store: store, clock: clk, service: svc, emp: emp}
}

func (f *fixture) punchIn(t *testing.T, hour, minute int) attendance.PunchInResponse {
	t.Helper()
	f.clock.Set(clockAt(hour, minute))
	resp, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{})
	require.NoError(t, err)
	return resp
}

func (f *fixture) punchOut(t *testing.T, hour, minute int) attendance.PunchOutResponse {
	t.Helper()
	f.clock.Set(clockAt(hour, minute))
	resp, err := f.service.PunchOut(context.Background(), attendance.PunchOutRequest{})
	require.NoError(t, err)
	return resp
}

func TestPunchIn(t *testing.T) {
	t.Run("first punch creates the day", func(t *testing.T) {
		f := newFixture(t)
		location := "HQ Jakarta"

		resp, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{
			WorkMode: "Remote",
			Location: &location,
		})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.AttendanceID)
		assert.Equal(t, "remote", resp.WorkMode)
		assert.Equal(t, "2025-03-10T09:00:00Z", resp.PunchTime)

		day := f.store.days[resp.AttendanceID]
		require.NotNil(t, day.FirstCheckIn)
		assert.Equal(t, clockAt(9, 0), *day.FirstCheckIn)
		assert.Equal(t, attendance.WorkModeRemote, day.WorkMode)
		assert.Equal(t, attendance.StatusPresent, day.Status)
		assert.Equal(t, companyID, day.CompanyID)
		assert.Equal(t, 1, f.store.eventCount())
	})

	t.Run("default work mode is office", func(t *testing.T) {
		f := newFixture(t)

		resp := f.punchIn(t, 8, 30)

		assert.Equal(t, "office", resp.WorkMode)
	})

	t.Run("rejects invalid work mode", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{WorkMode: "beach"})

		var validationErrs validator.ValidationErrors
		require.ErrorAs(t, err, &validationErrs)
		assert.Equal(t, "work_mode", validationErrs[0].Field)
		assert.Equal(t, 0, f.store.dayCount())
	})

	t.Run("rejects punch-in while open", func(t *testing.T) {
		f := newFixture(t)
		f.punchIn(t, 9, 0)

		f.clock.Set(clockAt(9, 5))
		_, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{})

		assert.ErrorIs(t, err, attendance.ErrAlreadyPunchedIn)
		assert.True(t, attendance.IsStateConflict(err))
		assert.Equal(t, 1, f.store.eventCount())
	})

	t.Run("second session keeps first check-in", func(t *testing.T) {
		f := newFixture(t)
		first := f.punchIn(t, 9, 0)
		f.punchOut(t, 12, 0)
		second := f.punchIn(t, 13, 0)

		assert.Equal(t, first.AttendanceID, second.AttendanceID)
		assert.Equal(t, 1, f.store.dayCount())
		day := f.store.days[first.AttendanceID]
		assert.Equal(t, clockAt(9, 0), *day.FirstCheckIn)
	})

	t.Run("unknown caller", func(t *testing.T) {
		f := newFixture(t)
		f.service.resolver = fixedResolver{err: employee.ErrEmployeeNotFound}

		_, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{})

		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
		assert.Equal(t, 0, f.store.dayCount())
	})

	t.Run("storage failure rolls back the new day", func(t *testing.T) {
		f := newFixture(t)
		f.store.appendErr = errors.New("connection reset")

		_, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{})

		require.Error(t, err)
		assert.False(t, attendance.IsStateConflict(err))
		assert.Equal(t, 0, f.store.dayCount())
		assert.Equal(t, 0, f.store.eventCount())
	})

	t.Run("clock skew never reorders the ledger", func(t *testing.T) {
		f := newFixture(t)
		f.punchIn(t, 9, 0)
		f.punchOut(t, 12, 0)

		f.clock.Set(clockAt(11, 59))
		resp, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{})

		require.NoError(t, err)
		assert.Equal(t, "2025-03-10T12:00:00Z", resp.PunchTime)
		today, err := f.service.GetToday(context.Background())
		require.NoError(t, err)
		assert.True(t, today.CanPunchOut)
	})
}

func TestPunchIn_AcrossMidnight(t *testing.T) {
	lastMillis := clockAt(23, 59).Add(59*time.Second + 999*time.Millisecond)

	t.Run("event lands on the day it was filed under", func(t *testing.T) {
		f := newFixture(t)
		f.service.now = (&steppingClock{now: lastMillis, step: time.Millisecond}).Now

		resp, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{})

		require.NoError(t, err)
		day := f.store.days[resp.AttendanceID]
		assert.Equal(t, testDate, day.Date)
		require.NotNil(t, day.FirstCheckIn)
		assert.Equal(t, lastMillis, *day.FirstCheckIn)
		assert.Equal(t, testDate, attendance.CalendarDate(*day.FirstCheckIn, time.UTC))
	})

	t.Run("punch-out before midnight closes the same day", func(t *testing.T) {
		f := newFixture(t)
		f.service.now = (&steppingClock{now: lastMillis.Add(-time.Millisecond), step: time.Millisecond}).Now

		in, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{})
		require.NoError(t, err)
		out, err := f.service.PunchOut(context.Background(), attendance.PunchOutRequest{})
		require.NoError(t, err)

		assert.Equal(t, in.AttendanceID, out.AttendanceID)
		day := f.store.days[out.AttendanceID]
		require.NotNil(t, day.LastCheckOut)
		assert.Equal(t, lastMillis, *day.LastCheckOut)
		assert.Equal(t, 1, f.store.dayCount())
	})
}

func TestPunch_FailureLogs(t *testing.T) {
	t.Run("validation failure names the employee", func(t *testing.T) {
		logs := captureLogs(t)
		f := newFixture(t)

		_, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{WorkMode: "beach"})
		require.Error(t, err)

		entry := lastLogEntry(t, logs)
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "punch rejected", entry["msg"])
		assert.Equal(t, employeeID, entry["employee_id"])
		assert.Equal(t, "2025-03-10", entry["date"])
		assert.Equal(t, "in", entry["transition"])
	})

	t.Run("unresolved caller names the user", func(t *testing.T) {
		logs := captureLogs(t)
		f := newFixture(t)
		f.service.resolver = fixedResolver{err: employee.ErrEmployeeNotFound}
		ctx := tokenContext(t, jwt.Caller{
			UserID: "0193a6f0-0000-7000-8000-0000000000b1",
			Role:   user.RoleEmployee,
		})

		_, err := f.service.PunchOut(ctx, attendance.PunchOutRequest{})
		require.ErrorIs(t, err, employee.ErrEmployeeNotFound)

		entry := lastLogEntry(t, logs)
		assert.Equal(t, "0193a6f0-0000-7000-8000-0000000000b1", entry["user_id"])
		assert.NotContains(t, entry, "employee_id")
		assert.Equal(t, "2025-03-10", entry["date"])
		assert.Equal(t, "out", entry["transition"])
	})

	t.Run("storage failure logs at error level", func(t *testing.T) {
		logs := captureLogs(t)
		f := newFixture(t)
		f.store.appendErr = errors.New("connection reset")

		_, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{})
		require.Error(t, err)

		entry := lastLogEntry(t, logs)
		assert.Equal(t, "ERROR", entry["level"])
		assert.Equal(t, "punch failed", entry["msg"])
		assert.Equal(t, employeeID, entry["employee_id"])
	})
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func lastLogEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines[len(lines)-1])
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestPunchIn_Concurrent(t *testing.T) {
	f := newFixture(t)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.service.PunchIn(context.Background(), attendance.PunchInRequest{})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, attendance.ErrAlreadyPunchedIn):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, f.store.dayCount())
	assert.Equal(t, 1, f.store.eventCount())
}

func TestPunchOut(t *testing.T) {
	t.Run("computes totals over sessions", func(t *testing.T) {
		f := newFixture(t)
		f.punchIn(t, 9, 0)
		first := f.punchOut(t, 13, 0)
		assert.Equal(t, 4.0, first.TotalWorkHours)
		assert.Equal(t, 0.0, first.TotalBreakHours)

		f.punchIn(t, 14, 0)
		resp := f.punchOut(t, 18, 0)

		assert.Equal(t, 8.0, resp.TotalWorkHours)
		assert.Equal(t, 1.0, resp.TotalBreakHours)
		assert.Equal(t, 8.0, resp.GrossHours)
		assert.Equal(t, "2025-03-10T18:00:00Z", resp.PunchTime)

		day := f.store.days[resp.AttendanceID]
		assert.Equal(t, "8", day.TotalWorkHours.String())
		assert.Equal(t, "1", day.TotalBreakHours.String())
		require.NotNil(t, day.LastCheckOut)
		assert.Equal(t, clockAt(18, 0), *day.LastCheckOut)
		assert.Equal(t, 1, f.store.dayCount())
	})

	t.Run("no attendance today", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.PunchOut(context.Background(), attendance.PunchOutRequest{})

		assert.ErrorIs(t, err, attendance.ErrNoAttendanceToday)
		assert.Equal(t, 0, f.store.eventCount())
	})

	t.Run("already punched out", func(t *testing.T) {
		f := newFixture(t)
		f.punchIn(t, 9, 0)
		f.punchOut(t, 17, 0)

		f.clock.Set(clockAt(17, 1))
		_, err := f.service.PunchOut(context.Background(), attendance.PunchOutRequest{})

		assert.ErrorIs(t, err, attendance.ErrAlreadyPunchedOut)
		assert.Equal(t, 2, f.store.eventCount())
	})

	t.Run("yesterday's open session does not carry over", func(t *testing.T) {
		f := newFixture(t)
		f.punchIn(t, 9, 0)

		f.clock.Set(clockAt(24+8, 0))
		_, err := f.service.PunchOut(context.Background(), attendance.PunchOutRequest{})

		assert.ErrorIs(t, err, attendance.ErrNoAttendanceToday)
	})

	t.Run("totals failure rolls back the out event", func(t *testing.T) {
		f := newFixture(t)
		f.punchIn(t, 9, 0)
		f.store.updateErr = errors.New("disk full")

		f.clock.Set(clockAt(17, 0))
		_, err := f.service.PunchOut(context.Background(), attendance.PunchOutRequest{})

		require.Error(t, err)
		assert.Equal(t, 1, f.store.eventCount())

		f.store.updateErr = nil
		today, err := f.service.GetToday(context.Background())
		require.NoError(t, err)
		assert.True(t, today.CanPunchOut)
		assert.Nil(t, today.Attendance.LastCheckOut)
	})
}

func TestGetToday(t *testing.T) {
	t.Run("no attendance yet", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.service.GetToday(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "2025-03-10", resp.Date)
		assert.False(t, resp.HasAttendance)
		assert.Nil(t, resp.Attendance)
		assert.Empty(t, resp.Punches)
		assert.Equal(t, attendance.StateClosed, resp.State)
		assert.True(t, resp.CanPunchIn)
		assert.False(t, resp.CanPunchOut)
	})

	t.Run("open session", func(t *testing.T) {
		f := newFixture(t)
		f.punchIn(t, 9, 0)

		resp, err := f.service.GetToday(context.Background())

		require.NoError(t, err)
		assert.True(t, resp.HasAttendance)
		require.NotNil(t, resp.Attendance)
		assert.Equal(t, "Dewi Lestari", *resp.Attendance.EmployeeName)
		assert.Equal(t, 1, resp.Attendance.PunchCount)
		assert.Equal(t, 1, resp.PunchCount)
		require.Len(t, resp.Punches, 1)
		assert.Equal(t, "in", resp.Punches[0].PunchType)
		assert.Equal(t, attendance.StateOpen, resp.State)
		assert.False(t, resp.CanPunchIn)
		assert.True(t, resp.CanPunchOut)
	})

	t.Run("closed after punch-out", func(t *testing.T) {
		f := newFixture(t)
		f.punchIn(t, 9, 0)
		f.punchOut(t, 12, 0)

		resp, err := f.service.GetToday(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, resp.PunchCount)
		assert.True(t, resp.CanPunchIn)
		assert.False(t, resp.CanPunchOut)
		assert.Equal(t, 3.0, resp.Attendance.TotalWorkHours)
	})
}

func TestRecomputeDay(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		f := newFixture(t)
		f.punchIn(t, 9, 0)
		f.punchOut(t, 13, 0)
		f.punchIn(t, 14, 0)
		f.punchOut(t, 18, 0)

		req := attendance.RecomputeRequest{EmployeeID: employeeID, Date: "2025-03-10"}
		first, err := f.service.RecomputeDay(context.Background(), req)
		require.NoError(t, err)
		second, err := f.service.RecomputeDay(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 8.0, first.TotalWorkHours)
		assert.Equal(t, 1.0, first.TotalBreakHours)
		assert.Equal(t, 4, first.PunchCount)
		assert.Equal(t, "2025-03-10T18:00:00Z", *first.LastCheckOut)
	})

	t.Run("repairs stale totals", func(t *testing.T) {
		f := newFixture(t)
		resp := f.punchIn(t, 9, 0)
		f.punchOut(t, 17, 0)

		day := f.store.days[resp.AttendanceID]
		day.TotalWorkHours = day.TotalWorkHours.Add(day.TotalWorkHours)
		f.store.days[resp.AttendanceID] = day

		out, err := f.service.RecomputeDay(context.Background(), attendance.RecomputeRequest{
			EmployeeID: employeeID,
			Date:       "2025-03-10",
		})

		require.NoError(t, err)
		assert.Equal(t, 8.0, out.TotalWorkHours)
		assert.Equal(t, "8", f.store.days[resp.AttendanceID].TotalWorkHours.String())
	})

	t.Run("missing day", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.RecomputeDay(context.Background(), attendance.RecomputeRequest{
			EmployeeID: employeeID,
			Date:       "2025-03-09",
		})

		assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
	})

	t.Run("invalid request", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.RecomputeDay(context.Background(), attendance.RecomputeRequest{
			EmployeeID: "not-a-uuid",
			Date:       "10/03/2025",
		})

		var validationErrs validator.ValidationErrors
		require.ErrorAs(t, err, &validationErrs)
		assert.Len(t, validationErrs, 2)
	})

	t.Run("other company is hidden", func(t *testing.T) {
		f := newFixture(t)
		f.punchIn(t, 9, 0)

		otherCompany := "0193a6f0-0000-7000-8000-0000000000c2"
		ctx := tokenContext(t, jwt.Caller{
			UserID:    "0193a6f0-0000-7000-8000-0000000000a1",
			CompanyID: &otherCompany,
			Role:      user.RoleOwner,
		})

		_, err := f.service.RecomputeDay(ctx, attendance.RecomputeRequest{
			EmployeeID: employeeID,
			Date:       "2025-03-10",
		})

		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})
}

func tokenContext(t *testing.T, caller jwt.Caller) context.Context {
	t.Helper()

	svc := jwt.NewJWTService("test-secret", "15m")
	tokenString, _, err := svc.GenerateAccessToken(caller)
	require.NoError(t, err)

	token, err := jwtauth.VerifyToken(svc.JWTAuth(), tokenString)
	require.NoError(t, err)

	return jwtauth.NewContext(context.Background(), token, nil)
}
