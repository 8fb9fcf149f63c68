package admissions

import "admissionsdash/pkg/contracts/domain"

// trackRule assigns Category when the track label contains Keyword.
type trackRule struct {
	Keyword  string
	Category domain.TrackCategory
}

// trackRules are evaluated in order; the first match wins.
var trackRules = []trackRule{
	{Keyword: "교과", Category: domain.TrackCurriculum},
	{Keyword: "종합", Category: domain.TrackHolistic},
	{Keyword: "논술", Category: domain.TrackEssay},
	{Keyword: "정시", Category: domain.TrackRegular},
}

// departmentRule assigns Category when the department contains any keyword.
type departmentRule struct {
	Category domain.DepartmentCategory
	Keywords []string
}

// departmentRules are evaluated in order; the first match wins, so
// "경영공학과" is engineering rather than humanities.
var departmentRules = []departmentRule{
	{Category: domain.DepartmentMedical, Keywords: []string{"의학", "의예", "치의", "약학", "한의", "수의", "간호"}},
	{Category: domain.DepartmentEngineering, Keywords: []string{"기계", "전기", "전자", "화학", "컴퓨터", "소프트웨어", "공학"}},
	{Category: domain.DepartmentHumanities, Keywords: []string{"국어", "영어", "경영", "경제", "행정", "교육", "심리", "사회"}},
	{Category: domain.DepartmentArts, Keywords: []string{"체육", "스포츠", "음악", "미술", "디자인", "무용"}},
}

// medicalKeywords differ from the medical department rule: 치과 is added and
// 간호 is tracked separately.
var medicalKeywords = []string{"의학", "의예", "치의", "치과", "약학", "한의", "수의"}

var nursingKeywords = []string{"간호"}

// InstitutionGroup is a named list of institutions matched by exact name.
type InstitutionGroup int

const (
	CapitalRegion InstitutionGroup = iota
	National
	TeachersCollege
)

func (g InstitutionGroup) String() string {
	switch g {
	case CapitalRegion:
		return "capital_region"
	case National:
		return "national"
	case TeachersCollege:
		return "teachers_college"
	}
	return "unknown"
}

var capitalRegionInstitutions = []string{
	"서울대학교", "연세대학교", "고려대학교",
	"성균관대학교", "한양대학교", "서강대학교",
	"중앙대학교", "경희대학교", "한국외국어대학교",
	"서울시립대학교", "숭실대학교", "동국대학교",
	"건국대학교", "홍익대학교",
}

var nationalInstitutions = []string{
	"서울대학교", "부산대학교", "경북대학교", "전남대학교",
	"전북대학교", "충남대학교", "충북대학교", "강원대학교",
	"제주대학교", "경상국립대학교", "금오공과대학교",
	"서울과학기술대학교", "한국교통대학교",
}

var teachersCollegeInstitutions = []string{
	"서울교육대학교", "부산교육대학교", "대구교육대학교",
	"광주교육대학교", "경인교육대학교", "춘천교육대학교",
	"청주교육대학교", "공주교육대학교", "전주교육대학교",
	"진주교육대학교", "제주교육대학교",
}

type stringSet map[string]struct{}

func newStringSet(items []string) stringSet {
	s := make(stringSet, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

func (s stringSet) has(item string) bool {
	_, ok := s[item]
	return ok
}

var institutionGroups = map[InstitutionGroup]stringSet{
	CapitalRegion:   newStringSet(capitalRegionInstitutions),
	National:        newStringSet(nationalInstitutions),
	TeachersCollege: newStringSet(teachersCollegeInstitutions),
}

// GroupMembers returns the institutions of g in list order.
func GroupMembers(g InstitutionGroup) []string {
	var src []string
	switch g {
	case CapitalRegion:
		src = capitalRegionInstitutions
	case National:
		src = nationalInstitutions
	case TeachersCollege:
		src = teachersCollegeInstitutions
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
