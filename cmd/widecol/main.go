package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/widecol/pkg/config"
	"github.com/ajitpratap0/widecol/pkg/driver"
	"github.com/ajitpratap0/widecol/pkg/logger"
	"github.com/ajitpratap0/widecol/pkg/metrics"
	"github.com/ajitpratap0/widecol/pkg/observability"

	// Import all available drivers to register them
	_ "github.com/ajitpratap0/widecol/pkg/driver/memory"
	_ "github.com/ajitpratap0/widecol/pkg/driver/postgresql"
	_ "github.com/ajitpratap0/widecol/pkg/driver/sqldb"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "widecol",
		Short: "widecol - wide-row column counts over tabular stores",
		Long: `widecol reads row slices from a tabular store and reports, per row key,
how many columns the logical wide row holds.

In native mode every physical row is a logical row and its count is the number
of non-key columns. In legacy mode every physical row is one column of the
logical row named by its key.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML configuration file")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "widecol v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "drivers",
		Short: "List available drivers",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available drivers:")
			for _, name := range driver.List() {
				fmt.Fprintf(out, "  - %s\n", name)
			}
		},
	})

	root.AddCommand(newCountCmd(&configFile))
	return root
}

// setup loads configuration and initializes logging and tracing. The returned
// function flushes both.
func setup(configFile string) (*config.Config, func(), error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	metrics.SetEnabled(cfg.Observability.EnableMetrics)

	tracing := observability.DefaultTracingConfig()
	tracing.ServiceVersion = version
	tracing.Enabled = cfg.Observability.EnableTracing
	tracing.SamplingRate = cfg.Observability.TracingSampleRate
	tracing.Writer = os.Stderr
	if err := observability.Initialize(tracing); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return cfg, func() {
		_ = observability.Shutdown(context.Background())
		_ = logger.Sync()
	}, nil
}
