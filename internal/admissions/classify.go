package admissions

import (
	"strings"

	"admissionsdash/pkg/contracts/domain"
)

// ClassifyTrack maps a raw track label to its category. Missing labels and
// labels matching no rule are 기타.
func ClassifyTrack(label domain.NullString) domain.TrackCategory {
	if !label.Valid {
		return domain.TrackOther
	}
	for _, rule := range trackRules {
		if strings.Contains(label.Value, rule.Keyword) {
			return rule.Category
		}
	}
	return domain.TrackOther
}

// ClassifyDepartment maps a department name to its subject-area category.
func ClassifyDepartment(dept domain.NullString) domain.DepartmentCategory {
	if !dept.Valid {
		return domain.DepartmentOther
	}
	for _, rule := range departmentRules {
		if containsAny(dept.Value, rule.Keywords) {
			return rule.Category
		}
	}
	return domain.DepartmentOther
}

// InGroup reports whether institution is listed in group. Matching is exact.
func InGroup(institution domain.NullString, group InstitutionGroup) bool {
	if !institution.Valid {
		return false
	}
	set, ok := institutionGroups[group]
	return ok && set.has(institution.Value)
}

// IsMedicalDepartment reports whether dept is medicine, dentistry, pharmacy,
// oriental medicine or veterinary medicine.
func IsMedicalDepartment(dept domain.NullString) bool {
	return dept.Valid && containsAny(dept.Value, medicalKeywords)
}

// IsNursingDepartment reports whether dept is nursing.
func IsNursingDepartment(dept domain.NullString) bool {
	return dept.Valid && containsAny(dept.Value, nursingKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
