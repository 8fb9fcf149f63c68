package admissions

import (
	"maps"
	"strconv"

	"admissionsdash/pkg/contracts/domain"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindBool
)

// fieldSpec reads one column from a record.
type fieldSpec struct {
	kind   fieldKind
	text   func(*domain.StudentRecord) domain.NullString
	number func(*domain.StudentRecord) domain.NullFloat
}

func textField(get func(*domain.StudentRecord) domain.NullString) fieldSpec {
	return fieldSpec{
		kind: kindText,
		text: get,
		number: func(r *domain.StudentRecord) domain.NullFloat {
			return coerceFloat(get(r).Value)
		},
	}
}

func numberField(get func(*domain.StudentRecord) domain.NullFloat) fieldSpec {
	return fieldSpec{
		kind: kindNumber,
		text: func(r *domain.StudentRecord) domain.NullString {
			v := get(r)
			if !v.Valid {
				return domain.NullString{}
			}
			return domain.Str(v.String())
		},
		number: get,
	}
}

func boolField(get func(*domain.StudentRecord) bool) fieldSpec {
	return fieldSpec{
		kind: kindBool,
		text: func(r *domain.StudentRecord) domain.NullString {
			return domain.Str(strconv.FormatBool(get(r)))
		},
		number: func(r *domain.StudentRecord) domain.NullFloat {
			if get(r) {
				return domain.Float(1)
			}
			return domain.Float(0)
		},
	}
}

func presentText(s string) domain.NullString {
	if s == "" {
		return domain.NullString{}
	}
	return domain.Str(s)
}

// derivedFields lists the offer-derived columns in output order.
var derivedFields = []string{
	domain.FieldPrimaryInstitution,
	domain.FieldRawTrackLabel,
	domain.FieldPrimaryDepartment,
	domain.FieldTrackCategory,
	domain.FieldDepartmentCategory,
	domain.FieldIsCapitalRegion,
	domain.FieldIsNational,
	domain.FieldIsTeachersCollege,
	domain.FieldIsMedicalField,
	domain.FieldIsNursingField,
}

var canonicalFields = map[string]fieldSpec{
	domain.FieldGraduationYear: numberField(func(r *domain.StudentRecord) domain.NullFloat {
		if !r.GraduationYear.Valid {
			return domain.NullFloat{}
		}
		return domain.Float(float64(r.GraduationYear.Value))
	}),
	domain.FieldMiddleSchool:        textField(func(r *domain.StudentRecord) domain.NullString { return r.MiddleSchool }),
	domain.FieldName:                textField(func(r *domain.StudentRecord) domain.NullString { return presentText(r.Name) }),
	domain.FieldMiddleSchoolGPA:     numberField(func(r *domain.StudentRecord) domain.NullFloat { return r.MiddleSchoolGPA }),
	domain.FieldHighSchoolGPA:       numberField(func(r *domain.StudentRecord) domain.NullFloat { return r.HighSchoolGPA }),
	domain.FieldHighSchoolEntryRank: numberField(func(r *domain.StudentRecord) domain.NullFloat { return r.HighSchoolEntryRank }),
	domain.FieldHighSchoolClassRank: numberField(func(r *domain.StudentRecord) domain.NullFloat { return r.HighSchoolClassRank }),
	domain.FieldOfferText:           textField(func(r *domain.StudentRecord) domain.NullString { return r.OfferText }),
	domain.FieldAdmissionOutcome:    textField(func(r *domain.StudentRecord) domain.NullString { return presentText(r.AdmissionOutcome) }),
	domain.FieldPrimaryInstitution:  textField(func(r *domain.StudentRecord) domain.NullString { return r.PrimaryInstitution }),
	domain.FieldRawTrackLabel:       textField(func(r *domain.StudentRecord) domain.NullString { return r.RawTrackLabel }),
	domain.FieldPrimaryDepartment:   textField(func(r *domain.StudentRecord) domain.NullString { return r.PrimaryDepartment }),
	domain.FieldTrackCategory: textField(func(r *domain.StudentRecord) domain.NullString {
		return presentText(string(r.TrackCategory))
	}),
	domain.FieldDepartmentCategory: textField(func(r *domain.StudentRecord) domain.NullString {
		return presentText(string(r.DepartmentCategory))
	}),
	domain.FieldIsCapitalRegion:   boolField(func(r *domain.StudentRecord) bool { return r.IsCapitalRegion }),
	domain.FieldIsNational:        boolField(func(r *domain.StudentRecord) bool { return r.IsNational }),
	domain.FieldIsTeachersCollege: boolField(func(r *domain.StudentRecord) bool { return r.IsTeachersCollege }),
	domain.FieldIsMedicalField:    boolField(func(r *domain.StudentRecord) bool { return r.IsMedicalField }),
	domain.FieldIsNursingField:    boolField(func(r *domain.StudentRecord) bool { return r.IsNursingField }),
}

func isCanonicalField(name string) bool {
	_, ok := canonicalFields[name]
	return ok
}

func extraField(name string) fieldSpec {
	return textField(func(r *domain.StudentRecord) domain.NullString {
		v, ok := r.Extra[name]
		if !ok || v == "" {
			return domain.NullString{}
		}
		return domain.Str(v)
	})
}

// Table is an immutable set of classified records. Every method returns
// new values and leaves the receiver unchanged, so a Table can be shared
// between goroutines without locking.
type Table struct {
	rows       []domain.StudentRecord
	source     []string
	extras     []string
	hasOutcome bool
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns a copy of every row.
func (t *Table) Rows() []domain.StudentRecord {
	return cloneRecords(t.rows)
}

// Head returns a copy of the first n rows.
func (t *Table) Head(n int) []domain.StudentRecord {
	if n < 0 {
		n = 0
	}
	if n > len(t.rows) {
		n = len(t.rows)
	}
	return cloneRecords(t.rows[:n])
}

// Columns lists source columns, derived columns and extra columns in that
// order.
func (t *Table) Columns() []string {
	cols := make([]string, 0, len(t.source)+len(derivedFields)+len(t.extras))
	cols = append(cols, t.source...)
	cols = append(cols, derivedFields...)
	cols = append(cols, t.extras...)
	return cols
}

// HasColumn reports whether name is a column of the table.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.field(name)
	return ok
}

// IsNumeric reports whether name is a numeric column.
func (t *Table) IsNumeric(name string) bool {
	spec, ok := t.field(name)
	return ok && spec.kind == kindNumber
}

// HasOutcomeColumn reports whether admission outcomes came from the source
// rather than being inferred from offers.
func (t *Table) HasOutcomeColumn() bool {
	return t.hasOutcome
}

// Text returns the value of field in row i as text.
func (t *Table) Text(i int, field string) (domain.NullString, error) {
	spec, err := t.lookup(field)
	if err != nil {
		return domain.NullString{}, err
	}
	if i < 0 || i >= len(t.rows) {
		return domain.NullString{}, ErrRowOutOfRange
	}
	return spec.text(&t.rows[i]), nil
}

// Number returns the value of field in row i as a number. Text cells that
// do not parse are missing.
func (t *Table) Number(i int, field string) (domain.NullFloat, error) {
	spec, err := t.lookup(field)
	if err != nil {
		return domain.NullFloat{}, err
	}
	if i < 0 || i >= len(t.rows) {
		return domain.NullFloat{}, ErrRowOutOfRange
	}
	return spec.number(&t.rows[i]), nil
}

func (t *Table) field(name string) (fieldSpec, bool) {
	if spec, ok := canonicalFields[name]; ok {
		for _, d := range derivedFields {
			if d == name {
				return spec, true
			}
		}
		for _, s := range t.source {
			if s == name {
				return spec, true
			}
		}
		return fieldSpec{}, false
	}
	for _, e := range t.extras {
		if e == name {
			return extraField(name), true
		}
	}
	return fieldSpec{}, false
}

func (t *Table) derive(rows []domain.StudentRecord) *Table {
	return &Table{
		rows:       rows,
		source:     t.source,
		extras:     t.extras,
		hasOutcome: t.hasOutcome,
	}
}

func cloneRecords(rows []domain.StudentRecord) []domain.StudentRecord {
	out := make([]domain.StudentRecord, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].Extra != nil {
			out[i].Extra = maps.Clone(out[i].Extra)
		}
	}
	return out
}
