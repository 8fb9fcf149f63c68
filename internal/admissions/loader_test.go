package admissions

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "admissionsdash/internal/errors"
	"admissionsdash/internal/shared/testutil"
)

var fixtureHeaders = []string{
	ColGraduationYear, ColMiddleSchool, ColName, ColMiddleSchoolGPA,
	ColHighSchoolGPA, ColHighSchoolEntryRank, ColHighSchoolClassRank, ColOffer,
}

func TestLoadRaw_Encodings(t *testing.T) {
	tests := []struct {
		name         string
		write        func(t testing.TB, dir string) string
		wantEncoding string
	}{
		{
			name:         "utf-8 with signature",
			write:        testutil.WriteAdmissionsCSV,
			wantEncoding: EncodingUTF8BOM,
		},
		{
			name: "utf-8 without signature",
			write: func(t testing.TB, dir string) string {
				return testutil.WriteFile(t, dir, "plain.csv", []byte(testutil.AdmissionsCSV()))
			},
			wantEncoding: EncodingUTF8,
		},
		{
			name:         "euc-kr fallback",
			write:        testutil.WriteAdmissionsCSVEUCKR,
			wantEncoding: EncodingEUCKR,
		},
		{
			name:         "xlsx workbook",
			write:        testutil.WriteAdmissionsXLSX,
			wantEncoding: EncodingXLSX,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.write(t, t.TempDir())

			raw, err := LoadRaw(path)
			require.NoError(t, err)

			assert.Equal(t, tt.wantEncoding, raw.Encoding)
			assert.Equal(t, fixtureHeaders, raw.Headers)
			require.Len(t, raw.Rows, testutil.AdmissionsFixtureRows)
			for _, row := range raw.Rows {
				assert.Len(t, row, len(fixtureHeaders))
			}
			assert.Equal(t, "김민수", raw.Rows[0][2])
			assert.Equal(t, "정시(서울과학기술대)", raw.Rows[2][7])
			assert.Equal(t, "", raw.Rows[5][7])
		})
	}
}

func TestLoadRaw_HeaderRenames(t *testing.T) {
	csv := "내신(중),내신(고),\"고등학교\r\n석차\",주요 합격 대학/전형/학과,비고\n1.5,2.1,15,서울대학교/학생부종합/컴퓨터공학부,메모\n"
	path := testutil.WriteFile(t, t.TempDir(), "renames.csv", []byte(csv))

	raw, err := LoadRaw(path)
	require.NoError(t, err)

	assert.Equal(t, []string{ColMiddleSchoolGPA, ColHighSchoolGPA, ColHighSchoolClassRank, ColOffer, "비고"}, raw.Headers)

	i, ok := raw.Index(ColHighSchoolClassRank)
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = raw.Index(ColGraduationYear)
	assert.False(t, ok)
}

func TestLoadRaw_RaggedRows(t *testing.T) {
	csv := "졸업년도,성명,주요 합격 대학/전형/학과\n2022,김민수\n2023,이서연,경북대학교/학생부교과/간호학과,extra\n"
	path := testutil.WriteFile(t, t.TempDir(), "ragged.csv", []byte(csv))

	raw, err := LoadRaw(path)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"2022", "김민수", ""},
		{"2023", "이서연", "경북대학교/학생부교과/간호학과"},
	}, raw.Rows)
}

func TestLoadRaw_Failures(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "absent.csv")},
		{name: "empty file", path: testutil.WriteFile(t, dir, "empty.csv", nil)},
		{name: "undecodable bytes", path: testutil.WriteFile(t, dir, "binary.csv", []byte{0xff, 0xfe, 0xfd, 0x00, 0x81})},
		{name: "missing workbook", path: filepath.Join(dir, "absent.xlsx")},
		{name: "corrupt workbook", path: testutil.WriteFile(t, dir, "broken.xlsx", []byte("not a zip"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := LoadRaw(tt.path)
			require.Error(t, err)
			assert.Nil(t, raw)
			assert.True(t, errors.Is(err, ErrDataUnavailable))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.ErrTypeDataUnavailable, appErr.Type)
			assert.Equal(t, tt.path, appErr.Context["path"])
		})
	}
}

func TestLoadRaw_WithSheet(t *testing.T) {
	path := testutil.WriteAdmissionsXLSX(t, t.TempDir())

	_, err := LoadRaw(path, WithSheet("없는시트"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	raw, err := LoadRaw(path, WithSheet("Sheet1"))
	require.NoError(t, err)
	assert.Len(t, raw.Rows, testutil.AdmissionsFixtureRows)
}
