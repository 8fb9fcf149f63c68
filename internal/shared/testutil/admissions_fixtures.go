package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
)

// admissionsCSV is an eight-row export in the layout teachers download
// from the school system, including the header with an embedded newline.
const admissionsCSV = `졸업년도,출신중,성명,내신(중),내신(고),고입석차,"고등학교
석차",주요 합격 대학/전형/학과
2022,함창중,김민수,1.5,2.1,10,15,서울대학교/학생부종합(일반전형)/컴퓨터공학부
2022,점촌중,이서연,2.0,2.8,25,30,"경운대학교(구미)/학생부교과(일반전형1)/의료서비스경영학과, 대구대학교/학생부교과/사회복지학과"
2023,함창중,박지훈,1.8,abc,,12,정시(서울과학기술대)
2023,점촌중,최유진,2.5,3.4,40,45,부산교육대학교/학생부종합/초등교육과
2024,함창중,정하늘,,2.4,18,20,경북대학교/학생부교과/간호학과
2024,문경중,강도윤,3.1,4.2,60,70,
2023,문경중,윤서아,1.2,1.9,5,3,연세대학교/논술전형/경영공학과
2024,점촌중,임재원,1.1,1.3,2,1,경북대학교/학생부종합(지역인재)/의예과
`

// AdmissionsFixtureRows is the number of data rows in the fixture.
const AdmissionsFixtureRows = 8

// AdmissionsCSV returns the fixture as UTF-8 CSV text without a signature.
func AdmissionsCSV() string {
	return admissionsCSV
}

// AdmissionsRows returns the fixture as parsed CSV rows, header first.
func AdmissionsRows(t testing.TB) [][]string {
	t.Helper()

	rows, err := csv.NewReader(strings.NewReader(admissionsCSV)).ReadAll()
	require.NoError(t, err)
	return rows
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// WriteAdmissionsCSV writes the fixture as UTF-8 with a byte order mark,
// the way spreadsheet programs save "CSV UTF-8".
func WriteAdmissionsCSV(t testing.TB, dir string) string {
	t.Helper()

	data := append([]byte{0xEF, 0xBB, 0xBF}, admissionsCSV...)
	return WriteFile(t, dir, "admission_results.csv", data)
}

// WriteAdmissionsCSVEUCKR writes the fixture in the legacy Korean code page.
func WriteAdmissionsCSVEUCKR(t testing.TB, dir string) string {
	t.Helper()

	encoded, err := korean.EUCKR.NewEncoder().String(admissionsCSV)
	require.NoError(t, err)
	return WriteFile(t, dir, "admission_results_euckr.csv", []byte(encoded))
}

// WriteAdmissionsXLSX writes the fixture into the first sheet of a workbook.
func WriteAdmissionsXLSX(t testing.TB, dir string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range AdmissionsRows(t) {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &cells))
	}

	path := filepath.Join(dir, "admission_results.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}
