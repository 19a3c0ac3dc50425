package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	setupOnce sync.Once
	sharedDB  *database.DB
	setupErr  error
)

// testDatabase connects to TEST_DATABASE_URL and applies migrations once.
// Tests are skipped when the variable is unset.
func testDatabase(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	setupOnce.Do(func() {
		ctx := context.Background()
		sharedDB, setupErr = database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 16, MinConns: 1})
		if setupErr != nil {
			setupErr = fmt.Errorf("failed to connect to test database: %w", setupErr)
			return
		}
		if _, err := database.Migrate(ctx, sharedDB, migrations.FS); err != nil {
			setupErr = fmt.Errorf("failed to migrate test database: %w", err)
		}
	})
	require.NoError(t, setupErr)

	truncateAll(t, sharedDB)
	return sharedDB
}

// truncateAll empties the attendance tables. TRUNCATE bypasses the
// append-only row trigger on punch_events.
func truncateAll(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "TRUNCATE TABLE punch_events, attendance_days, employees CASCADE")
	require.NoError(t, err)

	require.NoError(t, tx.Commit(ctx))
}

type employeeFixture struct {
	ID        string
	UserID    string
	CompanyID string
	ManagerID *string
	Code      string
	Name      string
}

func insertEmployee(t *testing.T, db *database.DB, e employeeFixture) employeeFixture {
	t.Helper()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.UserID == "" {
		e.UserID = uuid.NewString()
	}
	if e.CompanyID == "" {
		e.CompanyID = uuid.NewString()
	}

	_, err := db.Exec(context.Background(), `
		INSERT INTO employees (id, user_id, company_id, manager_id, employee_code, full_name)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.UserID, e.CompanyID, e.ManagerID, e.Code, e.Name)
	require.NoError(t, err)

	return e
}

func insertDay(t *testing.T, db *database.DB, employeeID, companyID, date, status, workHours string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := db.Exec(context.Background(), `
		INSERT INTO attendance_days (id, employee_id, company_id, date, status, total_work_hours)
		VALUES ($1, $2, $3, $4, $5, $6::numeric)
	`, id, employeeID, companyID, date, status, workHours)
	require.NoError(t, err)

	return id
}
