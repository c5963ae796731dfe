// Package decision orchestrates the arbitration pipeline: filter, authority
// resolution, clause resolution, coverage validation, answer generation, and
// audit recording. Stages short-circuit on the first terminal decision.
package decision

import (
	"context"
	"fmt"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/audit"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/authority"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/clause"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/coverage"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/filter"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/llm"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/metrics"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/search"
)

// ReasonAnswerGenerated explains a safe decision.
const ReasonAnswerGenerated = "Answer generated from validated clauses"

// Pipeline wires the collaborators into the arbitration flow. Conflict and
// insufficient-coverage outcomes are results, not errors; only collaborator
// and internal-consistency failures return a non-nil error.
type Pipeline struct {
	Search    search.Searcher
	Generator llm.Generator
	Recorder  *audit.Recorder
	Metrics   *metrics.Registry
	Config    Config
}

// Arbitrate runs one query through the pipeline and returns the stored audit
// record. Every terminal outcome is audit-logged, including collaborator
// failures; only an invalid query is rejected before a record exists.
func (p *Pipeline) Arbitrate(ctx context.Context, query models.ArbitrationQuery) (models.AuditRecord, error) {
	if err := query.Validate(); err != nil {
		return models.AuditRecord{}, err
	}

	hits, err := p.Search.SearchPolicies(ctx, query.Query, p.Config.TopK)
	if err != nil {
		return p.recordFailure(ctx, query, err)
	}

	candidates := filter.Apply(hits, query, p.Config.FilterRelevanceThreshold)

	res := authority.Resolve(candidates)
	if res.Conflicted {
		return p.record(ctx, query, models.ArbitrationResult{
			DecisionStatus: models.StatusConflict,
			DecisionReason: authority.ReasonEqualAuthorityConflict,
			PolicyIDs:      res.TiedPolicyIDs,
			ClauseIDs:      []string{},
		})
	}
	if res.Winner == nil {
		verdict := coverage.Validate(nil, p.Config.AnswerableRelevanceThreshold)
		return p.record(ctx, query, models.ArbitrationResult{
			DecisionStatus: models.StatusInsufficientCoverage,
			DecisionReason: verdict.Reason,
			PolicyIDs:      []string{},
			ClauseIDs:      []string{},
		})
	}
	winner := *res.Winner

	clauses, err := p.Search.SearchClauses(ctx, winner.PolicyID, query.Query)
	if err != nil {
		return p.recordFailure(ctx, query, err)
	}
	owned := make([]models.Clause, 0, len(clauses))
	for _, c := range clauses {
		if c.PolicyID == winner.PolicyID {
			owned = append(owned, c)
		}
	}
	clauseRes, err := clause.Resolve(owned, query.Role)
	if err != nil {
		return p.recordFailure(ctx, query, err)
	}
	if clauseRes.Conflicted {
		return p.record(ctx, query, models.ArbitrationResult{
			DecisionStatus: models.StatusConflict,
			DecisionReason: clause.ReasonAllowDenyConflict,
			PolicyIDs:      []string{winner.PolicyID},
			ClauseIDs:      clauseRes.ConflictClauseIDs,
		})
	}

	if verdict := coverage.Validate(&winner, p.Config.AnswerableRelevanceThreshold); !verdict.Sufficient {
		return p.record(ctx, query, models.ArbitrationResult{
			DecisionStatus: models.StatusInsufficientCoverage,
			DecisionReason: verdict.Reason,
			PolicyIDs:      []string{winner.PolicyID},
			ClauseIDs:      []string{},
		})
	}

	// The generator sees exactly the resolved evidence, never the raw
	// candidate set.
	grounding := make([]string, 0, 1+len(clauseRes.Clauses))
	grounding = append(grounding, winner.Text)
	clauseIDs := make([]string, 0, len(clauseRes.Clauses))
	for _, c := range clauseRes.Clauses {
		grounding = append(grounding, c.Text)
		clauseIDs = append(clauseIDs, c.ClauseID)
	}
	answer, err := p.Generator.Generate(ctx, grounding, query.Query)
	if err != nil {
		return p.recordFailure(ctx, query, err)
	}

	return p.record(ctx, query, models.ArbitrationResult{
		DecisionStatus: models.StatusSafe,
		DecisionReason: ReasonAnswerGenerated,
		PolicyIDs:      []string{winner.PolicyID},
		ClauseIDs:      clauseIDs,
		AnswerText:     answer,
	})
}

func (p *Pipeline) record(ctx context.Context, query models.ArbitrationQuery, result models.ArbitrationResult) (models.AuditRecord, error) {
	rec, err := p.Recorder.Record(ctx, query, result)
	if err != nil {
		return models.AuditRecord{}, fmt.Errorf("persist audit record: %w", err)
	}
	if p.Metrics != nil {
		p.Metrics.IncDecision(string(result.DecisionStatus))
		p.Metrics.IncReason(result.DecisionReason)
	}
	return rec, nil
}

// recordFailure audit-logs a collaborator or internal-consistency failure and
// propagates the error unchanged in kind.
func (p *Pipeline) recordFailure(ctx context.Context, query models.ArbitrationQuery, cause error) (models.AuditRecord, error) {
	_, recErr := p.Recorder.Record(ctx, query, models.ArbitrationResult{
		DecisionStatus: models.StatusError,
		DecisionReason: cause.Error(),
		PolicyIDs:      []string{},
		ClauseIDs:      []string{},
	})
	if p.Metrics != nil {
		p.Metrics.IncDecision(string(models.StatusError))
	}
	if recErr != nil {
		return models.AuditRecord{}, fmt.Errorf("%w (audit append also failed: %v)", cause, recErr)
	}
	return models.AuditRecord{}, cause
}
