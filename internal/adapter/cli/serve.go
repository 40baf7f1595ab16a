package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"manus-dashboard/internal/application/port/output"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	serveAddr       string
	serveAccessLogs bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard JSON API",
	Long: `Serve the dashboard operations over HTTP. All requests share one
session, so the server is meant for a single user.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with the API key masked",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveAccessLogs, "access-log", true, "write a JSON access log line per request")
}

func runServe(cmd *cobra.Command, args []string) error {
	c, err := newContainer("", output.NopProgress{})
	if err != nil {
		return err
	}
	defer c.Close()

	if serveAddr != "" {
		c.Config.HTTPAddr = serveAddr
	}
	srv := c.HTTPServer(serveAccessLogs)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	c.Logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprint(os.Stdout, string(out))
	return cfg.Validate()
}
