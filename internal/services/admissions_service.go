package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"admissionsdash/internal/admissions"
	"admissionsdash/internal/config"
	"admissionsdash/internal/infrastructure"
	"admissionsdash/pkg/contracts/domain"
)

// schemaHeadRows is how many rows the schema view previews.
const schemaHeadRows = 5

// AdmissionsService serves the dashboard views over the classified table.
// The table is loaded once per version of the input file and shared
// read-only between requests.
type AdmissionsService struct {
	data     config.DataConfig
	cache    *cache.Cache
	loads    singleflight.Group
	validate *validator.Validate
	metrics  *infrastructure.BusinessMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewAdmissionsService creates the service. metrics may be nil.
func NewAdmissionsService(data config.DataConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *AdmissionsService {
	return &AdmissionsService{
		data:     data,
		cache:    cache.New(cache.NoExpiration, 0),
		validate: newValidator(),
		metrics:  metrics,
		tracer:   otel.Tracer(infrastructure.MeterName),
		logger:   infrastructure.WithComponent(logger, "admissions_service"),
	}
}

// Options are the sidebar bounds and choices computed from the full table.
type Options struct {
	YearMin       *int     `json:"year_min,omitempty"`
	YearMax       *int     `json:"year_max,omitempty"`
	GPAMin        *float64 `json:"gpa_min,omitempty"`
	GPAMax        *float64 `json:"gpa_max,omitempty"`
	MiddleSchools []string `json:"middle_schools"`
	Tracks        []string `json:"tracks"`
	Departments   []string `json:"departments"`
	Groups        []string `json:"groups"`
	// GroupMembers lists the institutions behind each institution group,
	// keyed capital_region, national and teachers_college.
	GroupMembers map[string][]string `json:"group_members"`
	TotalRecords int                 `json:"total_records"`
}

// RecordsResult is the filtered table with its size.
type RecordsResult struct {
	Count   int                    `json:"count"`
	Records []domain.StudentRecord `json:"records"`
}

// UniversityCount is the admitted count for one primary institution.
type UniversityCount struct {
	University string `json:"university"`
	Admitted   int    `json:"admitted"`
}

// YearCount is the admitted count for one graduation year.
type YearCount struct {
	Year     int `json:"year"`
	Admitted int `json:"admitted"`
}

// YearTrackCount is the admitted count for one year and track category.
type YearTrackCount struct {
	Year     int    `json:"year"`
	Track    string `json:"track"`
	Admitted int    `json:"admitted"`
}

// SchoolTrackGPA is the mean high-school GPA for one middle school and
// track category.
type SchoolTrackGPA struct {
	MiddleSchool string  `json:"middle_school"`
	Track        string  `json:"track"`
	MeanGPA      float64 `json:"mean_gpa"`
	Students     int     `json:"students"`
}

// GroupTrends are the yearly admitted counts of the three specialist groups.
type GroupTrends struct {
	Medical         []YearCount `json:"medical"`
	Nursing         []YearCount `json:"nursing"`
	TeachersCollege []YearCount `json:"teachers_college"`
}

// Schema describes the full table: its columns and a preview.
type Schema struct {
	Columns          []string               `json:"columns"`
	Rows             int                    `json:"rows"`
	HasOutcomeColumn bool                   `json:"has_outcome_column"`
	Head             []domain.StudentRecord `json:"head"`
}

// CategoryCount is the number of rows in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Summary is the overview printed by the summary command.
type Summary struct {
	Source          string            `json:"source"`
	Rows            int               `json:"rows"`
	Admitted        int               `json:"admitted"`
	Tracks          []CategoryCount   `json:"tracks"`
	Departments     []CategoryCount   `json:"departments"`
	TopInstitutions []UniversityCount `json:"top_institutions"`
}

// Table returns the classified table for the current version of the input
// file, loading it on first use or after the file changed.
func (s *AdmissionsService) Table(ctx context.Context) (*admissions.Table, error) {
	key := s.cacheKey()

	if cached, ok := s.cache.Get(key); ok {
		infrastructure.RecordCacheLookup(ctx, s.metrics, true)
		return cached.(*admissions.Table), nil
	}
	infrastructure.RecordCacheLookup(ctx, s.metrics, false)

	v, err, shared := s.loads.Do(key, func() (interface{}, error) {
		tbl, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		// Older versions of the file are never asked for again.
		s.cache.Flush()
		s.cache.Set(key, tbl, cache.NoExpiration)
		return tbl, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "joined in-flight table load", slog.String("key", key))
	}
	return v.(*admissions.Table), nil
}

// cacheKey identifies one version of the input file. A missing file gets a
// key that never hits, so the load reports the error.
func (s *AdmissionsService) cacheKey() string {
	info, err := os.Stat(s.data.InputPath)
	if err != nil {
		return fmt.Sprintf("%s|missing|%d", s.data.InputPath, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s|%s|%d|%d", s.data.InputPath, s.data.Sheet, info.Size(), info.ModTime().UnixNano())
}

func (s *AdmissionsService) load(ctx context.Context) (*admissions.Table, error) {
	ctx, span := s.tracer.Start(ctx, "admissions.load",
		trace.WithAttributes(attribute.String("admissions.path", s.data.InputPath)))
	defer span.End()

	start := time.Now()

	var opts []admissions.LoadOption
	if s.data.Sheet != "" {
		opts = append(opts, admissions.WithSheet(s.data.Sheet))
	}

	raw, err := admissions.LoadRaw(s.data.InputPath, opts...)
	if err != nil {
		infrastructure.RecordTableLoad(ctx, s.metrics, "", 0, time.Since(start), err)
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(s.logger, err).ErrorContext(ctx, "failed to load admissions table",
			slog.String("path", s.data.InputPath))
		return nil, err
	}

	tbl := admissions.Classify(raw)
	infrastructure.RecordTableLoad(ctx, s.metrics, raw.Encoding, tbl.Len(), time.Since(start), nil)
	infrastructure.AddSpanEvent(ctx, "admissions.table.loaded",
		attribute.Int("rows", tbl.Len()),
		attribute.String("encoding", raw.Encoding))

	s.logger.InfoContext(ctx, "admissions table loaded",
		slog.String("path", s.data.InputPath),
		slog.String("encoding", raw.Encoding),
		slog.Int("rows", tbl.Len()),
		slog.Int("columns", len(tbl.Columns())),
		slog.Bool("source_outcome", tbl.HasOutcomeColumn()),
		slog.Duration("duration", time.Since(start)))

	return tbl, nil
}

// Ready loads (or reuses) the table so readiness reflects whether the
// input is usable.
func (s *AdmissionsService) Ready(ctx context.Context) error {
	_, err := s.Table(ctx)
	return err
}

// Filtered validates c and returns the matching rows of the table. Criteria
// that select nothing return the loaded table itself.
func (s *AdmissionsService) Filtered(ctx context.Context, c FilterCriteria) (*admissions.Table, error) {
	if err := c.Validate(s.validate); err != nil {
		return nil, err
	}

	tbl, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	if c.IsZero() {
		return tbl, nil
	}

	filtered, err := tbl.Filter(c.Predicates(tbl)...)
	if err != nil {
		return nil, fmt.Errorf("filter admissions table: %w", err)
	}
	return filtered, nil
}

// Options computes the sidebar bounds from the unfiltered table.
func (s *AdmissionsService) Options(ctx context.Context) (*Options, error) {
	infrastructure.RecordQuery(ctx, s.metrics, "options")

	tbl, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	opts := &Options{
		MiddleSchools: withAll(tbl.Distinct(domain.FieldMiddleSchool)),
		Tracks:        withAll(tbl.Distinct(domain.FieldTrackCategory)),
		Departments:   withAll(tbl.Distinct(domain.FieldDepartmentCategory)),
		TotalRecords:  tbl.Len(),
	}
	for _, g := range domain.GroupFlags {
		opts.Groups = append(opts.Groups, string(g))
	}
	opts.GroupMembers = make(map[string][]string, len(institutionGroups))
	for _, g := range institutionGroups {
		opts.GroupMembers[g.String()] = admissions.GroupMembers(g)
	}

	if lo, hi, ok := tbl.NumericRange(domain.FieldGraduationYear); ok {
		yMin, yMax := int(lo), int(hi)
		opts.YearMin, opts.YearMax = &yMin, &yMax
	}
	// Bounds widen to the enclosing tenth so the default range keeps every row.
	if lo, hi, ok := tbl.NumericRange(domain.FieldHighSchoolGPA); ok {
		gMin, gMax := math.Floor(lo*10)/10, math.Ceil(hi*10)/10
		opts.GPAMin, opts.GPAMax = &gMin, &gMax
	}

	return opts, nil
}

var institutionGroups = []admissions.InstitutionGroup{
	admissions.CapitalRegion,
	admissions.National,
	admissions.TeachersCollege,
}

func withAll(values []string) []string {
	return append([]string{AllOption}, values...)
}

// Records returns the filtered rows.
func (s *AdmissionsService) Records(ctx context.Context, c FilterCriteria) (*RecordsResult, error) {
	infrastructure.RecordQuery(ctx, s.metrics, "records")

	filtered, err := s.Filtered(ctx, c)
	if err != nil {
		return nil, err
	}
	return &RecordsResult{Count: filtered.Len(), Records: filtered.Rows()}, nil
}

// admitted narrows t to the rows counted by the count views: outcome 합격
// and a student name present.
func admitted(t *admissions.Table) (*admissions.Table, error) {
	preds := []admissions.Predicate{admissions.Equals(domain.FieldAdmissionOutcome, domain.OutcomeAdmitted)}
	if t.HasColumn(domain.FieldName) {
		preds = append(preds, admissions.NotMissing(domain.FieldName))
	}
	return t.Filter(preds...)
}

// groupCount counts rows by keys, answering nothing when the table lacks a
// key column.
func groupCount(t *admissions.Table, keys ...string) ([]admissions.GroupCount, error) {
	for _, k := range keys {
		if !t.HasColumn(k) {
			return nil, nil
		}
	}
	return t.GroupCount(keys...)
}

// UniversityCounts counts admitted students per primary institution, most
// admitted first, ties by name.
func (s *AdmissionsService) UniversityCounts(ctx context.Context, c FilterCriteria) ([]UniversityCount, error) {
	infrastructure.RecordQuery(ctx, s.metrics, "university_counts")

	filtered, err := s.Filtered(ctx, c)
	if err != nil {
		return nil, err
	}
	return universityCounts(filtered)
}

func universityCounts(t *admissions.Table) ([]UniversityCount, error) {
	adm, err := admitted(t)
	if err != nil {
		return nil, err
	}
	groups, err := groupCount(adm, domain.FieldPrimaryInstitution)
	if err != nil {
		return nil, err
	}

	out := make([]UniversityCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, UniversityCount{University: g.Keys[0], Admitted: g.Count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Admitted > out[j].Admitted })
	return out, nil
}

// YearlyTrend counts admitted students per graduation year.
func (s *AdmissionsService) YearlyTrend(ctx context.Context, c FilterCriteria) ([]YearCount, error) {
	infrastructure.RecordQuery(ctx, s.metrics, "yearly_trend")

	filtered, err := s.Filtered(ctx, c)
	if err != nil {
		return nil, err
	}
	adm, err := admitted(filtered)
	if err != nil {
		return nil, err
	}
	return yearCounts(adm)
}

func yearCounts(t *admissions.Table) ([]YearCount, error) {
	groups, err := groupCount(t, domain.FieldGraduationYear)
	if err != nil {
		return nil, err
	}

	out := make([]YearCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, YearCount{Year: parseYear(g.Keys[0]), Admitted: g.Count})
	}
	return out, nil
}

// YearlyTrackTrend counts admitted students per year and track category.
func (s *AdmissionsService) YearlyTrackTrend(ctx context.Context, c FilterCriteria) ([]YearTrackCount, error) {
	infrastructure.RecordQuery(ctx, s.metrics, "yearly_track_trend")

	filtered, err := s.Filtered(ctx, c)
	if err != nil {
		return nil, err
	}
	adm, err := admitted(filtered)
	if err != nil {
		return nil, err
	}
	groups, err := groupCount(adm, domain.FieldGraduationYear, domain.FieldTrackCategory)
	if err != nil {
		return nil, err
	}

	out := make([]YearTrackCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, YearTrackCount{Year: parseYear(g.Keys[0]), Track: g.Keys[1], Admitted: g.Count})
	}
	return out, nil
}

// SchoolTrackGPA averages high-school GPA per middle school and track over
// all filtered rows, admitted or not.
func (s *AdmissionsService) SchoolTrackGPA(ctx context.Context, c FilterCriteria) ([]SchoolTrackGPA, error) {
	infrastructure.RecordQuery(ctx, s.metrics, "school_track_gpa")

	filtered, err := s.Filtered(ctx, c)
	if err != nil {
		return nil, err
	}
	if !filtered.HasColumn(domain.FieldMiddleSchool) || !filtered.HasColumn(domain.FieldHighSchoolGPA) {
		return []SchoolTrackGPA{}, nil
	}

	means, err := filtered.GroupMean(domain.FieldHighSchoolGPA, domain.FieldMiddleSchool, domain.FieldTrackCategory)
	if err != nil {
		return nil, err
	}

	out := make([]SchoolTrackGPA, 0, len(means))
	for _, m := range means {
		out = append(out, SchoolTrackGPA{
			MiddleSchool: m.Keys[0],
			Track:        m.Keys[1],
			MeanGPA:      m.Mean,
			Students:     m.Count,
		})
	}
	return out, nil
}

// GroupTrends counts admitted medical, nursing and teachers-college students
// per year.
func (s *AdmissionsService) GroupTrends(ctx context.Context, c FilterCriteria) (*GroupTrends, error) {
	infrastructure.RecordQuery(ctx, s.metrics, "group_trends")

	filtered, err := s.Filtered(ctx, c)
	if err != nil {
		return nil, err
	}
	adm, err := admitted(filtered)
	if err != nil {
		return nil, err
	}

	trend := func(field string) ([]YearCount, error) {
		sub, err := adm.Filter(admissions.IsTrue(field))
		if err != nil {
			return nil, err
		}
		return yearCounts(sub)
	}

	var out GroupTrends
	if out.Medical, err = trend(domain.FieldIsMedicalField); err != nil {
		return nil, err
	}
	if out.Nursing, err = trend(domain.FieldIsNursingField); err != nil {
		return nil, err
	}
	if out.TeachersCollege, err = trend(domain.FieldIsTeachersCollege); err != nil {
		return nil, err
	}
	return &out, nil
}

// Schema returns the full table's columns and first rows.
func (s *AdmissionsService) Schema(ctx context.Context) (*Schema, error) {
	infrastructure.RecordQuery(ctx, s.metrics, "schema")

	tbl, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return &Schema{
		Columns:          tbl.Columns(),
		Rows:             tbl.Len(),
		HasOutcomeColumn: tbl.HasOutcomeColumn(),
		Head:             tbl.Head(schemaHeadRows),
	}, nil
}

// Summary gives row count, category distributions and the topN
// institutions by admitted count.
func (s *AdmissionsService) Summary(ctx context.Context, topN int) (*Summary, error) {
	infrastructure.RecordQuery(ctx, s.metrics, "summary")

	tbl, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	adm, err := admitted(tbl)
	if err != nil {
		return nil, err
	}
	tracks, err := categoryCounts(tbl, domain.FieldTrackCategory)
	if err != nil {
		return nil, err
	}
	departments, err := categoryCounts(tbl, domain.FieldDepartmentCategory)
	if err != nil {
		return nil, err
	}
	top, err := universityCounts(tbl)
	if err != nil {
		return nil, err
	}
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}

	return &Summary{
		Source:          s.data.InputPath,
		Rows:            tbl.Len(),
		Admitted:        adm.Len(),
		Tracks:          tracks,
		Departments:     departments,
		TopInstitutions: top,
	}, nil
}

func categoryCounts(t *admissions.Table, field string) ([]CategoryCount, error) {
	groups, err := t.GroupCount(field)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, CategoryCount{Category: g.Keys[0], Count: g.Count})
	}
	return out, nil
}

// parseYear reads a year group key; keys are formatted numbers.
func parseYear(key string) int {
	f, err := strconv.ParseFloat(key, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// IsDataUnavailable reports whether err means the input could not be read.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, admissions.ErrDataUnavailable)
}
