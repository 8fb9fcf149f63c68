// Package exporter writes classified admissions tables to files.
//
// CSV output is UTF-8 with a byte order mark so Excel opens Korean text
// correctly. XLSX output is a single "admissions" sheet with a bold header
// row; numeric columns are stored as numbers and missing values as empty
// cells.
//
// Example usage:
//
//	exp := exporter.New(logger)
//	err := exp.WriteFile(ctx, "out/admissions.xlsx", table, exporter.FormatXLSX)
package exporter
