package admissions

import (
	"strings"

	"admissionsdash/pkg/contracts/domain"
)

// InferOutcome labels a student 합격 when any offer is recorded and 미상
// otherwise. It is used only when the source has no outcome column.
func InferOutcome(offer domain.NullString) string {
	if offer.Valid && strings.TrimSpace(offer.Value) != "" {
		return domain.OutcomeAdmitted
	}
	return domain.OutcomeUnknown
}
