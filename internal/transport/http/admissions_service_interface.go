package http

import (
	"context"
	"io"

	"admissionsdash/internal/admissions"
	"admissionsdash/internal/exporter"
	"admissionsdash/internal/services"
)

// AdmissionsServiceInterface defines the dashboard queries the handler needs
type AdmissionsServiceInterface interface {
	Options(ctx context.Context) (*services.Options, error)
	Records(ctx context.Context, c services.FilterCriteria) (*services.RecordsResult, error)
	UniversityCounts(ctx context.Context, c services.FilterCriteria) ([]services.UniversityCount, error)
	YearlyTrend(ctx context.Context, c services.FilterCriteria) ([]services.YearCount, error)
	YearlyTrackTrend(ctx context.Context, c services.FilterCriteria) ([]services.YearTrackCount, error)
	SchoolTrackGPA(ctx context.Context, c services.FilterCriteria) ([]services.SchoolTrackGPA, error)
	GroupTrends(ctx context.Context, c services.FilterCriteria) (*services.GroupTrends, error)
	Schema(ctx context.Context) (*services.Schema, error)
	Filtered(ctx context.Context, c services.FilterCriteria) (*admissions.Table, error)
}

// TableExporter writes a table in an export format
type TableExporter interface {
	Write(ctx context.Context, w io.Writer, t *admissions.Table, f exporter.Format) error
}
