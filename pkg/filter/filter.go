// Package filter applies jurisdiction, effective-date, and minimum-relevance
// filtering to raw search candidates.
package filter

import (
	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

// Apply keeps a candidate only when its jurisdiction matches the query (or is
// "ALL"), its effective window contains the as-of date, and its relevance
// score meets minRelevance. Input order is preserved; the search collaborator
// supplies candidates in descending relevance. An empty result is not an
// error here, coverage validation reports it downstream.
func Apply(candidates []models.PolicyCandidate, query models.ArbitrationQuery, minRelevance float64) []models.PolicyCandidate {
	kept := make([]models.PolicyCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !Applicable(c, query) {
			continue
		}
		if c.RelevanceScore < minRelevance {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// Applicable checks jurisdiction and effective-window applicability alone,
// without the relevance cut.
func Applicable(c models.PolicyCandidate, query models.ArbitrationQuery) bool {
	if c.Jurisdiction != models.JurisdictionAll && c.Jurisdiction != query.Jurisdiction {
		return false
	}
	if c.EffectiveFrom.After(query.AsOfDate) {
		return false
	}
	if c.EffectiveUntil != nil && query.AsOfDate.After(*c.EffectiveUntil) {
		return false
	}
	return true
}
