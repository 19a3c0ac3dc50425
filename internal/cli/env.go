package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/logger"
)

// loadEnv loads configuration and installs the default logger on stderr.
func loadEnv() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stderr, logger.Options{
		App:     "attendancectl",
		Version: appVersion,
		Env:     cfg.App.Env,
		Level:   cfg.SlogLevel(),
	}))
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: 2,
		MinConns: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}
