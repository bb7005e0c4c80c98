package cmd

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/discovery"
	"github.com/memlink-ipc/memlink/internal/log"
	"github.com/memlink-ipc/memlink/internal/tracing"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config

	tracerProvider *tracing.Provider
)

var rootCmd = &cobra.Command{
	Use:   "memlink",
	Short: "Inspect and monitor memlink IPC domains",
	Long: `Inspect and monitor the node and service registries of a memlink
shared-memory IPC domain: list nodes with their liveness state, list
registered services, clean up residue of crashed processes and watch the
registries live.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnFinalize(shutdownTracing)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .memlink/config.yaml, then ~/.config/memlink/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write debug logs to memlink-debug.log")
}

func initConfig() {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		// A broken config file must not brick the CLI; fall back to the
		// defaults and say so.
		rootCmd.PrintErrf("warning: %v, using defaults\n", err)
		loaded = config.Default()
	}
	cfg = loaded

	if debug || os.Getenv("MEMLINK_DEBUG") != "" {
		if _, err := log.Init("memlink-debug.log"); err == nil {
			log.SetEnabled(true)
		}
	}

	provider, err := newTracingProvider(cfg)
	if err != nil {
		// Broken tracing must not brick the CLI either.
		rootCmd.PrintErrf("warning: %v, tracing disabled\n", err)
		return
	}
	tracerProvider = provider
}

// newTracingProvider builds the trace provider the domain config asks
// for. A nil provider (with nil error) means tracing is off.
func newTracingProvider(cfg config.Config) (*tracing.Provider, error) {
	if !cfg.Tracing.Enabled {
		return nil, nil
	}
	filePath := cfg.Tracing.FilePath
	if filePath == "" && cfg.Tracing.Exporter == "file" {
		filePath = config.DefaultTracesFilePath()
	}
	return tracing.NewProvider(tracing.Config{
		Enabled:      true,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     filePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		ServiceName:  "memlink",
	})
}

// scanOpts returns the discovery options every command's scans share.
func scanOpts() []discovery.Option {
	if tracerProvider == nil {
		return nil
	}
	return []discovery.Option{discovery.WithTracer(tracerProvider.Tracer())}
}

// shutdownTracing flushes pending spans before the process exits.
func shutdownTracing() {
	if tracerProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = tracerProvider.Shutdown(ctx)
	tracerProvider = nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
