package cli

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	employeeService "github.com/cmlabs-hris/hris-attendance-go/internal/service/employee"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Replay every attendance day of a date and rewrite stored totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEnv()
		if err != nil {
			return err
		}

		dateFlag, _ := cmd.Flags().GetString("date")
		date := attendance.CalendarDate(time.Now(), cfg.Attendance.Location()).AddDate(0, 0, -1)
		if dateFlag != "" {
			if date, err = attendance.ParseDate(dateFlag); err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
		}

		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		employeeRepo := postgresql.NewEmployeeRepository(db)
		dayRepo := postgresql.NewAttendanceDayRepository(db)
		svc := attendanceService.NewAttendanceService(
			postgresql.NewTransactor(db),
			dayRepo,
			postgresql.NewPunchEventRepository(db),
			employeeRepo,
			employeeService.NewResolver(employeeRepo),
			cfg.Attendance.Location(),
		)

		jobs := cron.NewAttendanceJobs(dayRepo, svc, cfg.Attendance.Location())
		if err := jobs.ReconcileDate(cmd.Context(), date); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "reconciled %s\n", date.Format(attendance.DateLayout))
		return err
	},
}

func init() {
	reconcileCmd.Flags().String("date", "", "calendar date (YYYY-MM-DD), defaults to yesterday")
}
