// Package cli defines the dashboard commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"manus-dashboard/internal/application/port/output"
	"manus-dashboard/internal/di"
	"manus-dashboard/internal/infrastructure/config"
	"manus-dashboard/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "manus-dashboard",
	Short: "Terminal and HTTP dashboard for the Manus agent API",
	Long: `manus-dashboard talks to the Manus agent API: chat with the agent,
upload and manage files, and browse, export or delete tasks.

Settings come from manus-dashboard.yaml, .env files and MANUS_* variables.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default manus-dashboard.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, env.NewEnvService())
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newContainer(logName string, progress output.ProgressPort) (*di.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return di.NewContainer(cfg, di.Options{LogName: logName, Progress: progress})
}
