package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/logger"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	employeeService "github.com/cmlabs-hris/hris-attendance-go/internal/service/employee"
	reportService "github.com/cmlabs-hris/hris-attendance-go/internal/service/report"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(os.Stdout, logger.Options{
		App:     "hris-attendance",
		Version: version,
		Env:     cfg.App.Env,
		Level:   cfg.SlogLevel(),
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	transactor := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceDayRepo := postgresql.NewAttendanceDayRepository(db)
	punchEventRepo := postgresql.NewPunchEventRepository(db)
	reportRepo := postgresql.NewReportRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	resolver := employeeService.NewResolver(employeeRepo)
	loc := cfg.Attendance.Location()

	attendanceSvc := attendanceService.NewAttendanceService(
		transactor,
		attendanceDayRepo,
		punchEventRepo,
		employeeRepo,
		resolver,
		loc,
	)
	reportSvc := reportService.NewReportService(
		reportRepo,
		attendanceDayRepo,
		punchEventRepo,
		employeeRepo,
		resolver,
		loc,
		reportService.WithBulkMaxIDs(cfg.Attendance.BulkMaxIDs),
	)

	if cfg.Attendance.ReconcileInterval > 0 {
		scheduler := cron.NewScheduler(log)
		cron.NewAttendanceJobs(attendanceDayRepo, attendanceSvc, loc).RegisterJobs(scheduler, cfg.Attendance.ReconcileInterval)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	reportHandler := appHTTP.NewReportHandler(reportSvc)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         log,
			AllowedOrigins: cfg.App.CORSAllowedOrigins,
		},
		JWTService,
		attendanceHandler,
		reportHandler,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server running", "addr", srv.Addr, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
