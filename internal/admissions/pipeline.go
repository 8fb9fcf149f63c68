package admissions

import (
	"fmt"

	"admissionsdash/pkg/contracts/domain"
)

// sourceColumns pairs each recognized source column with its canonical
// field, in canonical column order.
var sourceColumns = []struct {
	Column string
	Field  string
}{
	{ColGraduationYear, domain.FieldGraduationYear},
	{ColMiddleSchool, domain.FieldMiddleSchool},
	{ColName, domain.FieldName},
	{ColMiddleSchoolGPA, domain.FieldMiddleSchoolGPA},
	{ColHighSchoolGPA, domain.FieldHighSchoolGPA},
	{ColHighSchoolEntryRank, domain.FieldHighSchoolEntryRank},
	{ColHighSchoolClassRank, domain.FieldHighSchoolClassRank},
	{ColOffer, domain.FieldOfferText},
	{ColOutcome, domain.FieldAdmissionOutcome},
}

// LoadAndClassify loads path and returns the classified table. Load
// failures abort without a partial table.
func LoadAndClassify(path string, opts ...LoadOption) (*Table, error) {
	raw, err := LoadRaw(path, opts...)
	if err != nil {
		return nil, err
	}
	return Classify(raw), nil
}

// Classify builds the typed, classified table from a raw table. It never
// fails: unparseable cells become missing and absent columns are skipped.
func Classify(raw *RawTable) *Table {
	pos := make(map[string]int, len(sourceColumns))
	var present []string
	for _, sc := range sourceColumns {
		if i, ok := raw.Index(sc.Column); ok {
			pos[sc.Column] = i
			present = append(present, sc.Field)
		}
	}
	_, hasOutcome := pos[ColOutcome]
	if !hasOutcome {
		present = append(present, domain.FieldAdmissionOutcome)
	}

	extras, extraPos := extraColumns(raw.Headers)

	rows := make([]domain.StudentRecord, 0, len(raw.Rows))
	for _, cells := range raw.Rows {
		cell := func(col string) string {
			if i, ok := pos[col]; ok {
				return cells[i]
			}
			return ""
		}

		rec := domain.StudentRecord{
			GraduationYear:      coerceInt(cell(ColGraduationYear)),
			MiddleSchool:        coerceText(cell(ColMiddleSchool)),
			Name:                cell(ColName),
			MiddleSchoolGPA:     coerceFloat(cell(ColMiddleSchoolGPA)),
			HighSchoolGPA:       coerceFloat(cell(ColHighSchoolGPA)),
			HighSchoolEntryRank: coerceFloat(cell(ColHighSchoolEntryRank)),
			HighSchoolClassRank: coerceFloat(cell(ColHighSchoolClassRank)),
			OfferText:           coerceText(cell(ColOffer)),
		}

		if hasOutcome {
			rec.AdmissionOutcome = cell(ColOutcome)
		} else {
			rec.AdmissionOutcome = InferOutcome(rec.OfferText)
		}

		ClassifyRecord(&rec)

		if len(extras) > 0 {
			rec.Extra = make(map[string]string, len(extras))
			for j, name := range extras {
				rec.Extra[name] = cells[extraPos[j]]
			}
		}

		rows = append(rows, rec)
	}

	return &Table{
		rows:       rows,
		source:     present,
		extras:     extras,
		hasOutcome: hasOutcome,
	}
}

// ClassifyRecord derives every offer-based field of rec from its OfferText.
func ClassifyRecord(rec *domain.StudentRecord) {
	applyOffer(rec, ParseOffer(rec.OfferText))
}

func applyOffer(rec *domain.StudentRecord, offer Offer) {
	rec.PrimaryInstitution = offer.Institution
	rec.RawTrackLabel = offer.TrackLabel
	rec.PrimaryDepartment = offer.Department
	rec.TrackCategory = ClassifyTrack(offer.TrackLabel)
	rec.DepartmentCategory = ClassifyDepartment(offer.Department)
	rec.IsCapitalRegion = InGroup(offer.Institution, CapitalRegion)
	rec.IsNational = InGroup(offer.Institution, National)
	rec.IsTeachersCollege = InGroup(offer.Institution, TeachersCollege)
	rec.IsMedicalField = IsMedicalDepartment(offer.Department)
	rec.IsNursingField = IsNursingDepartment(offer.Department)
}

// extraColumns returns the headers with no canonical mapping and their
// positions. Blank headers are named by position; repeated headers keep the
// first occurrence.
func extraColumns(headers []string) ([]string, []int) {
	known := make(map[string]bool, len(sourceColumns))
	for _, sc := range sourceColumns {
		known[sc.Column] = true
	}

	var (
		names     []string
		positions []int
	)
	seen := make(map[string]bool)
	for i, h := range headers {
		if known[h] {
			continue
		}
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if seen[h] || isCanonicalField(h) {
			continue
		}
		seen[h] = true
		names = append(names, h)
		positions = append(positions, i)
	}
	return names, positions
}
