package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"admissionsdash/internal/admissions"
	"admissionsdash/internal/app"
	"admissionsdash/internal/exporter"
	"admissionsdash/internal/infrastructure"
	"admissionsdash/internal/services"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		input string
		port  int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if input != "" {
				cfg.Data.InputPath = input
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			logger, err := infrastructure.InitializeLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer infrastructure.CloseLogFile()

			application, err := app.NewApplication(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Admissions sheet to serve (overrides data.input_path)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides server.port)")

	return cmd
}

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	var (
		input  string
		out    string
		format string
		sheet  string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Write the classified table to CSV or XLSX",
		Example: `  admissions classify --input admission_results.csv --out classified.xlsx
  admissions classify --input results.xlsx --sheet 2024 --out classified.csv --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(out), ".")
			}
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, closer, err := commandLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx := infrastructure.EnsureTraceID(cmd.Context())

			var loadOpts []admissions.LoadOption
			if sheet != "" {
				loadOpts = append(loadOpts, admissions.WithSheet(sheet))
			}
			tbl, err := admissions.LoadAndClassify(input, loadOpts...)
			if err != nil {
				return err
			}

			if err := exporter.New(logger).WriteFile(ctx, out, tbl, f); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", tbl.Len(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Admissions sheet (.csv or .xlsx)")
	cmd.Flags().StringVar(&out, "out", "", "Output file")
	cmd.Flags().StringVar(&format, "format", "", "Output format: csv or xlsx (default: from --out extension)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Workbook sheet for .xlsx input (default: first)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	var (
		input string
		sheet string
		top   int
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print row counts, category distributions and top institutions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			cfg.Data.InputPath = input
			cfg.Data.Sheet = sheet

			logger, closer, err := commandLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx := infrastructure.EnsureTraceID(cmd.Context())
			svc := services.NewAdmissionsService(cfg.Data, nil, logger)
			summary, err := svc.Summary(ctx, top)
			if err != nil {
				return err
			}

			logger.DebugContext(ctx, "summary computed",
				slog.Int("rows", summary.Rows),
				slog.Int("admitted", summary.Admitted))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Admissions sheet (.csv or .xlsx)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Workbook sheet for .xlsx input (default: first)")
	cmd.Flags().IntVar(&top, "top", 10, "Number of institutions to list")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
