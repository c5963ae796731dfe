// Package search consumes the semantic-search collaborator. The collaborator
// returns raw hits ordered by descending relevance and applies no
// jurisdiction or date filtering; that is the pipeline's job.
package search

import (
	"context"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

// PolicySearcher retrieves policy-level hits for a query.
type PolicySearcher interface {
	SearchPolicies(ctx context.Context, queryText string, topK int) ([]models.PolicyCandidate, error)
}

// ClauseSearcher retrieves the clause hits of a single policy.
type ClauseSearcher interface {
	SearchClauses(ctx context.Context, policyID, queryText string) ([]models.Clause, error)
}

// Searcher bundles both granularities, as the vector-search service serves both.
type Searcher interface {
	PolicySearcher
	ClauseSearcher
}
