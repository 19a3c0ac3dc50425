package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func march(day int) time.Time {
	return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
}

func TestReportRepository(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	a := insertEmployee(t, db, employeeFixture{Code: "EMP-A", Name: "Anto"})
	b := insertEmployee(t, db, employeeFixture{CompanyID: a.CompanyID, Code: "EMP-B", Name: "Bella"})
	other := insertEmployee(t, db, employeeFixture{Code: "EMP-X", Name: "Other Co"})

	insertDay(t, db, a.ID, a.CompanyID, "2025-03-03", attendance.StatusPresent, "8.00")
	insertDay(t, db, a.ID, a.CompanyID, "2025-03-04", attendance.StatusHalfDay, "4.00")
	insertDay(t, db, b.ID, b.CompanyID, "2025-03-04", attendance.StatusPresent, "7.50")
	insertDay(t, db, b.ID, b.CompanyID, "2025-03-05", attendance.StatusAbsent, "0")
	insertDay(t, db, a.ID, a.CompanyID, "2025-04-01", attendance.StatusPresent, "8.00")
	insertDay(t, db, other.ID, other.CompanyID, "2025-03-04", attendance.StatusPresent, "9.00")

	repo := postgresql.NewReportRepository(db)
	period := report.Period{Start: march(1), End: march(31)}

	t.Run("employee days in range", func(t *testing.T) {
		days, err := repo.ListEmployeeDays(ctx, a.ID, period)
		require.NoError(t, err)
		require.Len(t, days, 2)
		assert.True(t, days[0].Date.Equal(march(3)))
		assert.True(t, days[1].Date.Equal(march(4)))
		require.NotNil(t, days[0].EmployeeName)
		assert.Equal(t, "Anto", *days[0].EmployeeName)
	})

	t.Run("company count excludes other companies", func(t *testing.T) {
		total, err := repo.CountCompanyDays(ctx, a.CompanyID, period)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
	})

	t.Run("company page", func(t *testing.T) {
		page, err := repo.ListCompanyDays(ctx, a.CompanyID, period, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.True(t, page[0].Date.Equal(march(5)))

		rest, err := repo.ListCompanyDays(ctx, a.CompanyID, period, 2, 2)
		require.NoError(t, err)
		require.Len(t, rest, 2)
		assert.True(t, rest[1].Date.Equal(march(3)))
	})

	t.Run("company summary", func(t *testing.T) {
		totals, err := repo.SummarizeCompanyDays(ctx, a.CompanyID, period)
		require.NoError(t, err)
		assert.Equal(t, 4, totals.TotalDays)
		assert.Equal(t, 2, totals.PresentDays)
		assert.Equal(t, 1, totals.AbsentDays)
		assert.Equal(t, 1, totals.HalfDays)
		assert.True(t, totals.TotalWorkHours.Equal(decimal.RequireFromString("19.5")), totals.TotalWorkHours.String())
	})

	t.Run("empty range", func(t *testing.T) {
		totals, err := repo.SummarizeCompanyDays(ctx, a.CompanyID, report.Period{Start: march(20), End: march(25)})
		require.NoError(t, err)
		assert.Zero(t, totals.TotalDays)
		assert.True(t, totals.TotalWorkHours.IsZero())
	})
}
