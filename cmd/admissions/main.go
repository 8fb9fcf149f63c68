package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"admissionsdash/internal/config"
	"admissionsdash/internal/infrastructure"
	"admissionsdash/pkg/contracts"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configFile string
	logLevel   string
}

// loadConfig reads the config file named by --config, or the discovered
// one, and applies --log-level on top.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFrom(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// commandLogger logs to w so that stdout stays free for command output.
func commandLogger(cfg *config.Config, w io.Writer) (*slog.Logger, io.Closer, error) {
	logger, closer, err := infrastructure.NewLogger(cfg.Logging, w)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, closer, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "admissions",
		Short:   "Admissions results dashboard",
		Version: contracts.Version,
		Long: `admissions loads a high-school admissions results sheet (CSV or XLSX),
classifies each record by admission track and department, and serves the
filtered views the dashboard draws.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (default: config.yaml or $ADM_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newClassifyCmd(opts))
	cmd.AddCommand(newSummaryCmd(opts))

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
