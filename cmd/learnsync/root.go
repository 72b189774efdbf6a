package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/learnsync/internal/app"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

var (
	portFlag    string
	logModeFlag string
)

var rootCmd = &cobra.Command{
	Use:   "learnsync",
	Short: "Progress reconciliation service",
	Long: `learnsync folds progress snapshots pushed by several clients into one
canonical record per learner and activity.

Configuration is read from the environment (DB_DRIVER, POSTGRES_*, SQLITE_PATH,
JWT_SECRET_KEY, REDIS_ADDR, ...). Flags override PORT and LOG_MODE.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&portFlag, "port", "", "HTTP port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&logModeFlag, "log-mode", "", "development, production or test (overrides LOG_MODE)")

	rootCmd.AddCommand(serveCmd, migrateCmd, clearProgressCmd)
}

// setup resolves config and builds the logger for a subcommand.
func setup() (app.Config, *logger.Logger, error) {
	cfg := app.LoadConfig(nil)
	if portFlag != "" {
		cfg.Port = portFlag
	}
	if logModeFlag != "" {
		cfg.LogMode = logModeFlag
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY is not set; every authenticated request will be rejected")
	}
	return cfg, log, nil
}
