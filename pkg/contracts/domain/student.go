package domain

// StudentRecord is one graduating student's row after normalization and
// classification. Value-typed optional fields keep copies independent.
type StudentRecord struct {
	// Source fields
	GraduationYear      NullInt    `json:"graduation_year"`
	MiddleSchool        NullString `json:"source_middle_school"`
	Name                string     `json:"name"`
	MiddleSchoolGPA     NullFloat  `json:"middle_school_gpa"`
	HighSchoolGPA       NullFloat  `json:"high_school_gpa"`
	HighSchoolEntryRank NullFloat  `json:"high_school_entry_rank"`
	HighSchoolClassRank NullFloat  `json:"high_school_class_rank"`
	OfferText           NullString `json:"offer_text"`
	AdmissionOutcome    string     `json:"admission_outcome"`

	// Derived from OfferText
	PrimaryInstitution NullString         `json:"primary_institution"`
	RawTrackLabel      NullString         `json:"raw_track_label"`
	PrimaryDepartment  NullString         `json:"primary_department"`
	TrackCategory      TrackCategory      `json:"track_category"`
	DepartmentCategory DepartmentCategory `json:"department_category"`
	IsCapitalRegion    bool               `json:"is_capital_region"`
	IsNational         bool               `json:"is_national"`
	IsTeachersCollege  bool               `json:"is_teachers_college"`
	IsMedicalField     bool               `json:"is_medical_field"`
	IsNursingField     bool               `json:"is_nursing_field"`

	// Extra holds source columns with no canonical mapping, by header.
	Extra map[string]string `json:"extra,omitempty"`
}

// Canonical field names used by the table, the query API and exports.
const (
	FieldGraduationYear      = "graduation_year"
	FieldMiddleSchool        = "source_middle_school"
	FieldName                = "name"
	FieldMiddleSchoolGPA     = "middle_school_gpa"
	FieldHighSchoolGPA       = "high_school_gpa"
	FieldHighSchoolEntryRank = "high_school_entry_rank"
	FieldHighSchoolClassRank = "high_school_class_rank"
	FieldOfferText           = "offer_text"
	FieldAdmissionOutcome    = "admission_outcome"
	FieldPrimaryInstitution  = "primary_institution"
	FieldRawTrackLabel       = "raw_track_label"
	FieldPrimaryDepartment   = "primary_department"
	FieldTrackCategory       = "track_category"
	FieldDepartmentCategory  = "department_category"
	FieldIsCapitalRegion     = "is_capital_region"
	FieldIsNational          = "is_national"
	FieldIsTeachersCollege   = "is_teachers_college"
	FieldIsMedicalField      = "is_medical_field"
	FieldIsNursingField      = "is_nursing_field"
)

// TrackCategory is the coarse admission track of the primary offer.
type TrackCategory string

const (
	TrackCurriculum TrackCategory = "교과"
	TrackHolistic   TrackCategory = "종합"
	TrackEssay      TrackCategory = "논술"
	TrackRegular    TrackCategory = "정시"
	TrackOther      TrackCategory = "기타"
)

// TrackCategories lists every TrackCategory in classification order.
var TrackCategories = []TrackCategory{TrackCurriculum, TrackHolistic, TrackEssay, TrackRegular, TrackOther}

// DepartmentCategory is the subject-area group of the primary department.
type DepartmentCategory string

const (
	DepartmentMedical     DepartmentCategory = "의학/보건계열"
	DepartmentEngineering DepartmentCategory = "공학/이공계열"
	DepartmentHumanities  DepartmentCategory = "인문/사회계열"
	DepartmentArts        DepartmentCategory = "예체능계열"
	DepartmentOther       DepartmentCategory = "기타"
)

// DepartmentCategories lists every DepartmentCategory in classification order.
var DepartmentCategories = []DepartmentCategory{
	DepartmentMedical, DepartmentEngineering, DepartmentHumanities, DepartmentArts, DepartmentOther,
}

// Admission outcome labels.
const (
	OutcomeAdmitted = "합격"
	OutcomeUnknown  = "미상"
)

// GroupFlag names one of the institution or department group flags as
// shown to dashboard users.
type GroupFlag string

const (
	GroupCapitalRegion   GroupFlag = "수도권대학"
	GroupNational        GroupFlag = "국립대학"
	GroupMedical         GroupFlag = "의치약한수"
	GroupNursing         GroupFlag = "간호"
	GroupTeachersCollege GroupFlag = "교대"
)

// GroupFlags lists the selectable groups in display order.
var GroupFlags = []GroupFlag{GroupCapitalRegion, GroupNational, GroupMedical, GroupNursing, GroupTeachersCollege}

// Field returns the canonical boolean field backing the group.
func (g GroupFlag) Field() string {
	switch g {
	case GroupCapitalRegion:
		return FieldIsCapitalRegion
	case GroupNational:
		return FieldIsNational
	case GroupMedical:
		return FieldIsMedicalField
	case GroupNursing:
		return FieldIsNursingField
	case GroupTeachersCollege:
		return FieldIsTeachersCollege
	}
	return ""
}
