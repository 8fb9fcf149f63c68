package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"admissionsdash/internal/admissions"
	"admissionsdash/internal/infrastructure"
)

// Exporter writes classified tables to CSV or XLSX.
type Exporter struct {
	logger *slog.Logger
}

// New creates an exporter.
func New(logger *slog.Logger) *Exporter {
	return &Exporter{logger: infrastructure.WithComponent(logger, "exporter")}
}

// Write encodes t to w in format f. CSV output carries a UTF-8 BOM.
func (e *Exporter) Write(ctx context.Context, w io.Writer, t *admissions.Table, f Format) error {
	start := time.Now()

	var err error
	switch f {
	case FormatCSV:
		err = WriteCSV(w, t, WriteOptions{BOMPrefix: true})
	case FormatXLSX:
		err = WriteXLSX(w, t)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		infrastructure.WithError(e.logger, err).ErrorContext(ctx, "export failed",
			slog.String("format", string(f)))
		return err
	}

	e.logger.InfoContext(ctx, "table exported",
		slog.String("format", string(f)),
		slog.Int("record_count", t.Len()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// WriteFile writes t to path, creating parent directories. A failed write
// leaves no partial file behind.
func (e *Exporter) WriteFile(ctx context.Context, path string, t *admissions.Table, f Format) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	e.logger.DebugContext(ctx, "writing export file", slog.String("file_path", path))
	return e.Write(ctx, file, t, f)
}
