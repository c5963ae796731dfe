// Package authority resolves the winning authority tier among filtered
// policy candidates and detects same-tier contradictions.
package authority

import (
	"sort"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

// ReasonEqualAuthorityConflict explains a policy-level conflict.
const ReasonEqualAuthorityConflict = "Multiple policies at equal authority level conflict"

// Resolution is the outcome of authority resolution.
type Resolution struct {
	// Winner is set when exactly one policy id holds the top tier.
	Winner *models.PolicyCandidate
	// Conflicted is true when two or more distinct policy ids tie at the top
	// tier. Equal authority is unresolvable without human review; relevance
	// never breaks the tie.
	Conflicted bool
	// TiedPolicyIDs lists the tied ids on conflict, descending relevance,
	// stable input order on equal scores.
	TiedPolicyIDs []string
}

// Resolve partitions candidates by authority level and keeps only the top
// tier. Lower-authority candidates never contribute, even as corroboration.
// Candidates must be non-empty; the coverage validator handles the empty case.
func Resolve(candidates []models.PolicyCandidate) Resolution {
	if len(candidates) == 0 {
		return Resolution{}
	}
	top := candidates[0].AuthorityLevel
	for _, c := range candidates[1:] {
		if c.AuthorityLevel > top {
			top = c.AuthorityLevel
		}
	}
	tier := make([]models.PolicyCandidate, 0, len(candidates))
	seen := map[string]bool{}
	distinct := make([]string, 0, 2)
	for _, c := range candidates {
		if c.AuthorityLevel != top {
			continue
		}
		tier = append(tier, c)
		if !seen[c.PolicyID] {
			seen[c.PolicyID] = true
			distinct = append(distinct, c.PolicyID)
		}
	}
	if len(distinct) == 1 {
		best := tier[0]
		for _, c := range tier[1:] {
			if c.RelevanceScore > best.RelevanceScore {
				best = c
			}
		}
		return Resolution{Winner: &best}
	}
	return Resolution{
		Conflicted:    true,
		TiedPolicyIDs: orderByRelevance(tier, distinct),
	}
}

// orderByRelevance orders distinct policy ids by the best relevance score a
// tied candidate carries, descending, keeping input order on equal scores.
func orderByRelevance(tier []models.PolicyCandidate, distinct []string) []string {
	best := map[string]float64{}
	for _, c := range tier {
		if s, ok := best[c.PolicyID]; !ok || c.RelevanceScore > s {
			best[c.PolicyID] = c.RelevanceScore
		}
	}
	ids := append([]string(nil), distinct...)
	sort.SliceStable(ids, func(i, j int) bool {
		return best[ids[i]] > best[ids[j]]
	})
	return ids
}
