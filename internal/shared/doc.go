// Package shared holds helpers used across packages that belong to no
// single layer. The testutil subpackage provides a capturing slog handler
// and admissions CSV/XLSX fixtures for tests.
package shared
