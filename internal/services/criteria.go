package services

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"admissionsdash/internal/admissions"
	"admissionsdash/pkg/contracts/domain"
)

// AllOption is the selection meaning "no restriction" for single-choice
// filters, as offered first in every option list.
const AllOption = "전체"

// FilterCriteria is the dashboard's sidebar state. Zero values mean the
// filter is off; ranges may be open on either side.
type FilterCriteria struct {
	YearMin      int      `json:"year_min,omitempty" validate:"omitempty,gte=1900,lte=2200"`
	YearMax      int      `json:"year_max,omitempty" validate:"omitempty,gte=1900,lte=2200,gtefield=YearMin"`
	GPAMin       float64  `json:"gpa_min,omitempty" validate:"omitempty,gt=0,lte=100"`
	GPAMax       float64  `json:"gpa_max,omitempty" validate:"omitempty,gt=0,lte=100,gtefield=GPAMin"`
	MiddleSchool string   `json:"middle_school,omitempty" validate:"max=100"`
	Track        string   `json:"track,omitempty" validate:"omitempty,oneof=전체 교과 종합 논술 정시 기타"`
	Department   string   `json:"department,omitempty" validate:"omitempty,oneof=전체 의학/보건계열 공학/이공계열 인문/사회계열 예체능계열 기타"`
	Keyword      string   `json:"keyword,omitempty" validate:"max=100"`
	Groups       []string `json:"groups,omitempty" validate:"max=5,dive,oneof=수도권대학 국립대학 의치약한수 간호 교대"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the criteria, wrapping validator errors in
// ErrInvalidCriteria.
func (c FilterCriteria) Validate(v *validator.Validate) error {
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCriteria, err)
	}
	return nil
}

// IsZero reports whether no filter is active.
func (c FilterCriteria) IsZero() bool {
	return len(c.Predicates(nil)) == 0
}

// Predicates translates the criteria into table predicates. A filter on a
// column the table lacks is skipped, so a sheet without 졸업년도 still
// answers year-filtered queries with every row. A nil table keeps every
// filter.
func (c FilterCriteria) Predicates(t *admissions.Table) []admissions.Predicate {
	has := func(field string) bool { return t == nil || t.HasColumn(field) }

	var preds []admissions.Predicate

	if (c.YearMin != 0 || c.YearMax != 0) && has(domain.FieldGraduationYear) {
		preds = append(preds, admissions.Between(domain.FieldGraduationYear, bound(float64(c.YearMin), -1), bound(float64(c.YearMax), 1)))
	}
	if selected(c.MiddleSchool) && has(domain.FieldMiddleSchool) {
		preds = append(preds, admissions.Equals(domain.FieldMiddleSchool, c.MiddleSchool))
	}
	if (c.GPAMin != 0 || c.GPAMax != 0) && has(domain.FieldHighSchoolGPA) {
		preds = append(preds, admissions.Between(domain.FieldHighSchoolGPA, bound(c.GPAMin, -1), bound(c.GPAMax, 1)))
	}
	if selected(c.Track) {
		preds = append(preds, admissions.Equals(domain.FieldTrackCategory, c.Track))
	}
	if selected(c.Department) {
		preds = append(preds, admissions.Equals(domain.FieldDepartmentCategory, c.Department))
	}
	if c.Keyword != "" && has(domain.FieldOfferText) {
		preds = append(preds, admissions.Contains(domain.FieldOfferText, c.Keyword))
	}
	if len(c.Groups) > 0 {
		anyOf := make([]admissions.Predicate, 0, len(c.Groups))
		for _, g := range c.Groups {
			if field := domain.GroupFlag(g).Field(); field != "" {
				anyOf = append(anyOf, admissions.IsTrue(field))
			}
		}
		preds = append(preds, admissions.AnyOf(anyOf...))
	}

	return preds
}

func selected(choice string) bool {
	return choice != "" && choice != AllOption
}

// bound maps an unset (zero) range end to the matching infinity.
func bound(v float64, sign int) float64 {
	if v == 0 {
		return math.Inf(sign)
	}
	return v
}
