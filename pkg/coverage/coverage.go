// Package coverage decides whether surviving evidence is sufficient to answer.
package coverage

import (
	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

// Reasons for refusing to answer.
const (
	ReasonNoApplicablePolicy = "No applicable policy found"
	ReasonBelowAnswerable    = "Relevance below answerability threshold"
)

// Verdict reports whether coverage is sufficient; Reason is set when not.
type Verdict struct {
	Sufficient bool
	Reason     string
}

// Validate checks that an authoritative policy exists and that its relevance
// clears the answerability threshold. The threshold is configured separately
// from the filter cut, default equal to it.
func Validate(winner *models.PolicyCandidate, answerableThreshold float64) Verdict {
	if winner == nil {
		return Verdict{Reason: ReasonNoApplicablePolicy}
	}
	if winner.RelevanceScore < answerableThreshold {
		return Verdict{Reason: ReasonBelowAnswerable}
	}
	return Verdict{Sufficient: true}
}
