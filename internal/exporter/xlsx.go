package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"admissionsdash/internal/admissions"
)

// SheetName is the worksheet the table is written to.
const SheetName = "admissions"

// WriteXLSX writes t as a single-sheet workbook. Numeric columns are stored
// as numbers, missing values as empty cells.
func WriteXLSX(w io.Writer, t *admissions.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	columns := t.Columns()
	header := make([]interface{}, len(columns))
	for j, col := range columns {
		header[j] = excelize.Cell{StyleID: bold, Value: col}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	numeric := make([]bool, len(columns))
	for j, col := range columns {
		numeric[j] = t.IsNumeric(col)
	}

	for i := 0; i < t.Len(); i++ {
		row := make([]interface{}, len(columns))
		for j, col := range columns {
			if row[j], err = cellValue(t, i, col, numeric[j]); err != nil {
				return err
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellValue(t *admissions.Table, i int, col string, numeric bool) (interface{}, error) {
	if numeric {
		n, err := t.Number(i, col)
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d column %s: %w", i, col, err)
		}
		if !n.Valid {
			return nil, nil
		}
		return n.Value, nil
	}

	v, err := t.Text(i, col)
	if err != nil {
		return nil, fmt.Errorf("failed to read row %d column %s: %w", i, col, err)
	}
	if !v.Valid {
		return nil, nil
	}
	return v.Value, nil
}
