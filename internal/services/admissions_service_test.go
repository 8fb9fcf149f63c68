package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissionsdash/internal/admissions"
	"admissionsdash/internal/config"
	apperrors "admissionsdash/internal/errors"
	"admissionsdash/internal/shared/testutil"
	"admissionsdash/pkg/contracts/domain"
)

func newFixtureService(t *testing.T) (*AdmissionsService, string) {
	t.Helper()
	path := testutil.WriteAdmissionsCSV(t, t.TempDir())
	logger, _ := testutil.NewTestLogger(t)
	return NewAdmissionsService(config.DataConfig{InputPath: path}, nil, logger), path
}

func names(records []domain.StudentRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestAdmissionsService_Records(t *testing.T) {
	svc, _ := newFixtureService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		criteria FilterCriteria
		want     []string
	}{
		{
			name: "no filters",
			want: []string{"김민수", "이서연", "박지훈", "최유진", "정하늘", "강도윤", "윤서아", "임재원"},
		},
		{
			name:     "year range",
			criteria: FilterCriteria{YearMin: 2023, YearMax: 2023},
			want:     []string{"박지훈", "최유진", "윤서아"},
		},
		{
			name:     "open year range",
			criteria: FilterCriteria{YearMin: 2024},
			want:     []string{"정하늘", "강도윤", "임재원"},
		},
		{
			name:     "middle school",
			criteria: FilterCriteria{MiddleSchool: "함창중"},
			want:     []string{"김민수", "박지훈", "정하늘"},
		},
		{
			name:     "all middle schools sentinel",
			criteria: FilterCriteria{MiddleSchool: AllOption},
			want:     []string{"김민수", "이서연", "박지훈", "최유진", "정하늘", "강도윤", "윤서아", "임재원"},
		},
		{
			name:     "gpa range drops missing gpa",
			criteria: FilterCriteria{GPAMin: 1.0, GPAMax: 2.5},
			want:     []string{"김민수", "정하늘", "윤서아", "임재원"},
		},
		{
			name:     "option bounds drop missing gpa",
			criteria: FilterCriteria{YearMin: 2022, YearMax: 2024, GPAMin: 1.3, GPAMax: 4.2},
			want:     []string{"김민수", "이서연", "최유진", "정하늘", "강도윤", "윤서아", "임재원"},
		},
		{
			name:     "track",
			criteria: FilterCriteria{Track: "종합"},
			want:     []string{"김민수", "최유진", "임재원"},
		},
		{
			name:     "department",
			criteria: FilterCriteria{Department: "의학/보건계열"},
			want:     []string{"정하늘", "임재원"},
		},
		{
			name:     "keyword is literal",
			criteria: FilterCriteria{Keyword: "(구미)"},
			want:     []string{"이서연"},
		},
		{
			name:     "groups are ORed",
			criteria: FilterCriteria{Groups: []string{"수도권대학", "교대"}},
			want:     []string{"김민수", "최유진", "윤서아"},
		},
		{
			name:     "filters are ANDed",
			criteria: FilterCriteria{Groups: []string{"국립대학"}, YearMin: 2024},
			want:     []string{"정하늘", "임재원"},
		},
		{
			name:     "nothing matches",
			criteria: FilterCriteria{Keyword: "하버드"},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Records(ctx, tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), got.Count)
			assert.Equal(t, tt.want, names(got.Records))
		})
	}
}

func TestAdmissionsService_InvalidCriteria(t *testing.T) {
	svc, _ := newFixtureService(t)

	tests := []struct {
		name     string
		criteria FilterCriteria
		field    string
	}{
		{name: "inverted years", criteria: FilterCriteria{YearMin: 2024, YearMax: 2022}, field: "year_max"},
		{name: "inverted gpa", criteria: FilterCriteria{GPAMin: 3, GPAMax: 2}, field: "gpa_max"},
		{name: "implausible year", criteria: FilterCriteria{YearMin: 22}, field: "year_min"},
		{name: "unknown track", criteria: FilterCriteria{Track: "수시"}, field: "track"},
		{name: "unknown department", criteria: FilterCriteria{Department: "의학"}, field: "department"},
		{name: "unknown group", criteria: FilterCriteria{Groups: []string{"간호", "사관학교"}}, field: "groups[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Records(context.Background(), tt.criteria)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCriteria)

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Contains(t, verrs[0].Namespace(), tt.field)
		})
	}
}

func TestAdmissionsService_Options(t *testing.T) {
	svc, _ := newFixtureService(t)

	opts, err := svc.Options(context.Background())
	require.NoError(t, err)

	require.NotNil(t, opts.YearMin)
	require.NotNil(t, opts.YearMax)
	assert.Equal(t, 2022, *opts.YearMin)
	assert.Equal(t, 2024, *opts.YearMax)

	require.NotNil(t, opts.GPAMin)
	require.NotNil(t, opts.GPAMax)
	assert.InDelta(t, 1.3, *opts.GPAMin, 1e-9)
	assert.InDelta(t, 4.2, *opts.GPAMax, 1e-9)

	assert.Equal(t, []string{"전체", "문경중", "점촌중", "함창중"}, opts.MiddleSchools)
	assert.Equal(t, []string{"전체", "교과", "기타", "논술", "정시", "종합"}, opts.Tracks)
	assert.Equal(t, []string{"전체", "공학/이공계열", "기타", "의학/보건계열", "인문/사회계열"}, opts.Departments)
	assert.Equal(t, []string{"수도권대학", "국립대학", "의치약한수", "간호", "교대"}, opts.Groups)
	assert.Equal(t, testutil.AdmissionsFixtureRows, opts.TotalRecords)

	require.Len(t, opts.GroupMembers, 3)
	assert.Len(t, opts.GroupMembers["capital_region"], 14)
	assert.Len(t, opts.GroupMembers["national"], 13)
	assert.Len(t, opts.GroupMembers["teachers_college"], 11)
	assert.Contains(t, opts.GroupMembers["national"], "경북대학교")
}

func TestAdmissionsService_UniversityCounts(t *testing.T) {
	svc, _ := newFixtureService(t)

	got, err := svc.UniversityCounts(context.Background(), FilterCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []UniversityCount{
		{University: "경북대학교", Admitted: 2},
		{University: "경운대학교", Admitted: 1},
		{University: "부산교육대학교", Admitted: 1},
		{University: "서울대학교", Admitted: 1},
		{University: "연세대학교", Admitted: 1},
		{University: "정시", Admitted: 1},
	}, got)

	got, err = svc.UniversityCounts(context.Background(), FilterCriteria{Keyword: "없는대학"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestAdmissionsService_Trends(t *testing.T) {
	svc, _ := newFixtureService(t)
	ctx := context.Background()

	yearly, err := svc.YearlyTrend(ctx, FilterCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []YearCount{{2022, 2}, {2023, 3}, {2024, 2}}, yearly)

	byTrack, err := svc.YearlyTrackTrend(ctx, FilterCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []YearTrackCount{
		{2022, "교과", 1},
		{2022, "종합", 1},
		{2023, "논술", 1},
		{2023, "정시", 1},
		{2023, "종합", 1},
		{2024, "교과", 1},
		{2024, "종합", 1},
	}, byTrack)

	groups, err := svc.GroupTrends(ctx, FilterCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []YearCount{{2024, 1}}, groups.Medical)
	assert.Equal(t, []YearCount{{2024, 1}}, groups.Nursing)
	assert.Equal(t, []YearCount{{2023, 1}}, groups.TeachersCollege)

	filtered, err := svc.YearlyTrend(ctx, FilterCriteria{MiddleSchool: "점촌중"})
	require.NoError(t, err)
	assert.Equal(t, []YearCount{{2022, 1}, {2023, 1}, {2024, 1}}, filtered)
}

func TestAdmissionsService_SchoolTrackGPA(t *testing.T) {
	svc, _ := newFixtureService(t)

	got, err := svc.SchoolTrackGPA(context.Background(), FilterCriteria{})
	require.NoError(t, err)
	require.Len(t, got, 6)

	assert.Equal(t, "문경중", got[0].MiddleSchool)
	assert.Equal(t, "기타", got[0].Track)
	assert.InDelta(t, 4.2, got[0].MeanGPA, 1e-9)

	assert.Equal(t, "점촌중", got[3].MiddleSchool)
	assert.Equal(t, "종합", got[3].Track)
	assert.InDelta(t, 2.35, got[3].MeanGPA, 1e-9)
	assert.Equal(t, 2, got[3].Students)
}

func TestAdmissionsService_SchemaAndSummary(t *testing.T) {
	svc, path := newFixtureService(t)
	ctx := context.Background()

	schema, err := svc.Schema(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.AdmissionsFixtureRows, schema.Rows)
	assert.Len(t, schema.Head, 5)
	assert.False(t, schema.HasOutcomeColumn)
	assert.Contains(t, schema.Columns, domain.FieldAdmissionOutcome)
	assert.Contains(t, schema.Columns, domain.FieldTrackCategory)

	summary, err := svc.Summary(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, path, summary.Source)
	assert.Equal(t, 8, summary.Rows)
	assert.Equal(t, 7, summary.Admitted)
	assert.Equal(t, []UniversityCount{{"경북대학교", 2}, {"경운대학교", 1}}, summary.TopInstitutions)
	assert.Contains(t, summary.Tracks, CategoryCount{Category: "종합", Count: 3})
	assert.Contains(t, summary.Departments, CategoryCount{Category: "의학/보건계열", Count: 2})
}

func TestAdmissionsService_CacheReuseAndReload(t *testing.T) {
	svc, path := newFixtureService(t)
	ctx := context.Background()

	first, err := svc.Table(ctx)
	require.NoError(t, err)
	second, err := svc.Table(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second, "unchanged file must not be reloaded")

	// Drop the last row and move the modification time forward.
	rows := testutil.AdmissionsRows(t)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll(rows[:len(rows)-1]))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	third, err := svc.Table(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, testutil.AdmissionsFixtureRows-1, third.Len())
}

func TestAdmissionsService_ConcurrentFirstLoad(t *testing.T) {
	svc, _ := newFixtureService(t)

	const callers = 16
	tables := make([]*admissions.Table, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl, err := svc.Table(context.Background())
			assert.NoError(t, err)
			tables[i] = tbl
		}(i)
	}
	wg.Wait()

	for _, tbl := range tables {
		require.NotNil(t, tbl)
		assert.Equal(t, testutil.AdmissionsFixtureRows, tbl.Len())
	}
}

func TestAdmissionsService_DataUnavailable(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	missing := filepath.Join(t.TempDir(), "absent.csv")
	svc := NewAdmissionsService(config.DataConfig{InputPath: missing}, nil, logger)

	_, err := svc.Records(context.Background(), FilterCriteria{})
	require.Error(t, err)
	assert.True(t, IsDataUnavailable(err))
	assert.ErrorIs(t, err, admissions.ErrDataUnavailable)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeDataUnavailable, appErr.Type)

	assert.Error(t, svc.Ready(context.Background()))
	assert.True(t, logs.ContainsMessage("failed to load admissions table"))

	// The error is not cached: once the file appears the table loads.
	testutil.WriteFile(t, filepath.Dir(missing), filepath.Base(missing), []byte(testutil.AdmissionsCSV()))
	assert.NoError(t, svc.Ready(context.Background()))
}

func TestAdmissionsService_XLSXSheet(t *testing.T) {
	path := testutil.WriteAdmissionsXLSX(t, t.TempDir())
	logger, _ := testutil.NewTestLogger(t)
	svc := NewAdmissionsService(config.DataConfig{InputPath: path, Sheet: "Sheet1"}, nil, logger)

	got, err := svc.Records(context.Background(), FilterCriteria{Track: "논술"})
	require.NoError(t, err)
	assert.Equal(t, []string{"윤서아"}, names(got.Records))
}

func TestFilterCriteria_MissingColumnsSkipped(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "partial.csv", []byte("성명,주요 합격 대학/전형/학과\n김민수,서울대학교/학생부종합/컴퓨터공학부\n이서연,\n"))
	logger, _ := testutil.NewTestLogger(t)
	svc := NewAdmissionsService(config.DataConfig{InputPath: path}, nil, logger)
	ctx := context.Background()

	got, err := svc.Records(ctx, FilterCriteria{YearMin: 2022, MiddleSchool: "함창중", GPAMax: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)

	yearly, err := svc.YearlyTrend(ctx, FilterCriteria{})
	require.NoError(t, err)
	assert.Empty(t, yearly)

	gpa, err := svc.SchoolTrackGPA(ctx, FilterCriteria{})
	require.NoError(t, err)
	assert.Empty(t, gpa)

	unis, err := svc.UniversityCounts(ctx, FilterCriteria{})
	require.NoError(t, err)
	assert.Equal(t, []UniversityCount{{"서울대학교", 1}}, unis)
}

func TestAdmissionsService_FilteredWithoutCriteria(t *testing.T) {
	svc, _ := newFixtureService(t)
	ctx := context.Background()

	tbl, err := svc.Table(ctx)
	require.NoError(t, err)

	unfiltered, err := svc.Filtered(ctx, FilterCriteria{Track: AllOption, Department: AllOption})
	require.NoError(t, err)
	assert.Same(t, tbl, unfiltered)

	filtered, err := svc.Filtered(ctx, FilterCriteria{Keyword: "경북"})
	require.NoError(t, err)
	assert.NotSame(t, tbl, filtered)
}

func TestFilterCriteria_IsZero(t *testing.T) {
	assert.True(t, FilterCriteria{}.IsZero())
	assert.True(t, FilterCriteria{MiddleSchool: AllOption, Track: AllOption}.IsZero())
	assert.False(t, FilterCriteria{Keyword: "간호"}.IsZero())
}
