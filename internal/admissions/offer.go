package admissions

import (
	"strings"

	"admissionsdash/pkg/contracts/domain"
)

// Offer is the structured form of the first entry of an offer cell such as
// "경운대학교(구미)/학생부교과(일반전형1)/의료서비스경영학과".
type Offer struct {
	Institution domain.NullString
	TrackLabel  domain.NullString
	Department  domain.NullString
}

// ParseOffer extracts institution, track label and department from the first
// comma-separated entry of text. Missing or blank text yields an empty Offer.
//
// When the entry has no "/" the whole entry, parenthetical included, is the
// track label: "정시(서울과학기술대)" gives institution "정시" and track
// label "정시(서울과학기술대)".
func ParseOffer(text domain.NullString) Offer {
	if !text.Valid || strings.TrimSpace(text.Value) == "" {
		return Offer{}
	}

	first, _, _ := strings.Cut(text.Value, ",")
	first = strings.TrimSpace(first)
	parts := strings.Split(first, "/")

	head := strings.TrimSpace(parts[0])
	institution, _, _ := strings.Cut(head, "(")

	offer := Offer{Institution: domain.Str(strings.TrimSpace(institution))}

	if len(parts) > 1 {
		offer.TrackLabel = domain.Str(strings.TrimSpace(parts[1]))
	} else {
		offer.TrackLabel = domain.Str(head)
	}

	if len(parts) > 2 {
		offer.Department = domain.Str(strings.TrimSpace(parts[2]))
	}

	return offer
}
