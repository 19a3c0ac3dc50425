package cli

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	employeeService "github.com/cmlabs-hris/hris-attendance-go/internal/service/employee"
	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Replay one employee-day's punches and rewrite its totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEnv()
		if err != nil {
			return err
		}
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		employeeRepo := postgresql.NewEmployeeRepository(db)
		svc := attendanceService.NewAttendanceService(
			postgresql.NewTransactor(db),
			postgresql.NewAttendanceDayRepository(db),
			postgresql.NewPunchEventRepository(db),
			employeeRepo,
			employeeService.NewResolver(employeeRepo),
			cfg.Attendance.Location(),
		)

		employeeID, _ := cmd.Flags().GetString("employee-id")
		date, _ := cmd.Flags().GetString("date")
		if date == "" {
			date = attendance.CalendarDate(time.Now(), cfg.Attendance.Location()).Format(attendance.DateLayout)
		}
		return runRecompute(cmd, svc, employeeID, date)
	},
}

func init() {
	recomputeCmd.Flags().String("employee-id", "", "employee UUID")
	recomputeCmd.Flags().String("date", "", "calendar date (YYYY-MM-DD), defaults to today")
	_ = recomputeCmd.MarkFlagRequired("employee-id")
}

type dayRecomputer interface {
	RecomputeDay(ctx context.Context, req attendance.RecomputeRequest) (attendance.AttendanceDayResponse, error)
}

func runRecompute(cmd *cobra.Command, svc dayRecomputer, employeeID, date string) error {
	result, err := svc.RecomputeDay(cmd.Context(), attendance.RecomputeRequest{
		EmployeeID: employeeID,
		Date:       date,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
