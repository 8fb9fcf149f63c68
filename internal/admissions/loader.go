package admissions

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	apperrors "admissionsdash/internal/errors"
)

// ErrDataUnavailable is wrapped by every load failure: missing, unreadable,
// undecodable or empty input.
var ErrDataUnavailable = errors.New("admissions data unavailable")

// Encodings reported on RawTable.
const (
	EncodingUTF8    = "utf-8"
	EncodingUTF8BOM = "utf-8-sig"
	EncodingEUCKR   = "euc-kr"
	EncodingXLSX    = "xlsx"
)

// Source column names after renaming.
const (
	ColGraduationYear      = "졸업년도"
	ColMiddleSchool        = "출신중"
	ColName                = "성명"
	ColMiddleSchoolGPA     = "중학교내신"
	ColHighSchoolGPA       = "고교내신"
	ColHighSchoolEntryRank = "고입석차"
	ColHighSchoolClassRank = "고등학교석차"
	ColOffer               = "주요합격"
	ColOutcome             = "합격여부"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// headerRenames maps spreadsheet headers to the names the pipeline reads.
// Headers not listed pass through unchanged.
var headerRenames = map[string]string{
	"졸업년도":           ColGraduationYear,
	"출신중":            ColMiddleSchool,
	"성명":             ColName,
	"내신(중)":          ColMiddleSchoolGPA,
	"내신(고)":          ColHighSchoolGPA,
	"고입석차":           ColHighSchoolEntryRank,
	"고등학교석차":         ColHighSchoolClassRank,
	"고등학교\n석차":       ColHighSchoolClassRank,
	"주요 합격 대학/전형/학과": ColOffer,
}

// RawTable is the loaded source table with renamed headers. Every row has
// exactly len(Headers) cells.
type RawTable struct {
	Path     string
	Encoding string
	Headers  []string
	Rows     [][]string
}

// Index returns the position of the first column with the given name.
func (t *RawTable) Index(name string) (int, bool) {
	for i, h := range t.Headers {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// LoadOption adjusts how LoadRaw reads a file.
type LoadOption func(*loadOptions)

type loadOptions struct {
	sheet string
}

// WithSheet selects the workbook sheet to read. Ignored for CSV input.
func WithSheet(name string) LoadOption {
	return func(o *loadOptions) {
		o.sheet = name
	}
}

// LoadRaw reads a CSV or XLSX file into a RawTable. CSV bytes are decoded
// as UTF-8 (an optional signature is dropped) and, when that fails, as
// EUC-KR. Any failure wraps ErrDataUnavailable.
func LoadRaw(path string, opts ...LoadOption) (*RawTable, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	var (
		records  [][]string
		encoding string
		err      error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(path, o.sheet)
		encoding = EncodingXLSX
	default:
		records, encoding, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, unavailable(path, "input has no header row", nil)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = renameHeader(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, fitRow(rec, len(headers)))
	}

	return &RawTable{
		Path:     path,
		Encoding: encoding,
		Headers:  headers,
		Rows:     rows,
	}, nil
}

func readCSV(path string) ([][]string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", unavailable(path, "cannot read input file", err)
	}

	text, encoding, err := decode(data)
	if err != nil {
		return nil, "", unavailable(path, "cannot decode input file", err).WithContext("encoding", EncodingEUCKR)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, "", unavailable(path, "cannot parse CSV", err).WithContext("encoding", encoding)
	}
	return records, encoding, nil
}

// decode returns the text of data, trying UTF-8 first and EUC-KR second.
func decode(data []byte) (string, string, error) {
	if utf8.Valid(data) {
		if bytes.HasPrefix(data, utf8BOM) {
			return string(data[len(utf8BOM):]), EncodingUTF8BOM, nil
		}
		return string(data), EncodingUTF8, nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), korean.EUCKR.NewDecoder()))
	if err != nil {
		return "", "", fmt.Errorf("euc-kr decode: %w", err)
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", "", errors.New("input is neither UTF-8 nor EUC-KR")
	}
	return string(decoded), EncodingEUCKR, nil
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, unavailable(path, "cannot open workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, unavailable(path, "workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, unavailable(path, "cannot read sheet", err).WithContext("sheet", sheet)
	}

	// GetRows keeps trailing blank rows that carry formatting only.
	for len(rows) > 0 && isBlank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

func renameHeader(h string) string {
	h = strings.ReplaceAll(h, "\r\n", "\n")
	if renamed, ok := headerRenames[h]; ok {
		return renamed
	}
	return h
}

// fitRow pads short rows with empty cells and drops cells beyond the header.
func fitRow(rec []string, width int) []string {
	row := make([]string, width)
	copy(row, rec)
	return row
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func unavailable(path, msg string, cause error) *apperrors.AppError {
	wrapped := ErrDataUnavailable
	if cause != nil {
		wrapped = fmt.Errorf("%w: %w", ErrDataUnavailable, cause)
	}
	return apperrors.NewDataUnavailableError(msg, wrapped).WithContext("path", path)
}
