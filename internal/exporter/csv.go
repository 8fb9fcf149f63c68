package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"admissionsdash/internal/admissions"
)

// utf8BOM lets Excel recognise UTF-8 Korean text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
	NoHeader  bool
}

// WriteCSV writes every column of t, header first.
func WriteCSV(w io.Writer, t *admissions.Table, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	columns := t.Columns()
	if !options.NoHeader {
		if err := writer.Write(columns); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	record := make([]string, len(columns))
	for i := 0; i < t.Len(); i++ {
		for j, col := range columns {
			v, err := t.Text(i, col)
			if err != nil {
				return fmt.Errorf("failed to read row %d column %s: %w", i, col, err)
			}
			record[j] = v.Value
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
