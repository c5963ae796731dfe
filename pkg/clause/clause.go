// Package clause resolves a policy's clause set for a query role: role
// visibility, override-chain resolution, and allow/deny conflict detection.
package clause

import (
	"fmt"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

// ReasonAllowDenyConflict explains a clause-level conflict.
const ReasonAllowDenyConflict = "Conflicting clauses (allow vs deny) with no override"

// Resolution is the outcome of clause resolution.
type Resolution struct {
	// Clauses is the final non-contradictory set, input order preserved. An
	// empty set is legal: the policy's general text is then the sole evidence.
	Clauses []models.Clause
	// Conflicted is true when an ALLOW and a DENY clause both survive with no
	// override edge between them.
	Conflicted bool
	// ConflictClauseIDs lists the contributing allow/deny clauses on conflict.
	ConflictClauseIDs []string
}

// Resolve applies the role filter, then removes survivors overridden by other
// survivors. Override chains must be acyclic; corpus data is externally
// supplied, so a cycle surfaces as an internal-consistency error instead of
// looping.
func Resolve(clauses []models.Clause, role string) (Resolution, error) {
	visible := make([]models.Clause, 0, len(clauses))
	for _, c := range clauses {
		if c.AppliesToRole(role) {
			visible = append(visible, c)
		}
	}
	if err := checkCycles(visible); err != nil {
		return Resolution{}, err
	}

	overridden := map[string]bool{}
	present := map[string]bool{}
	for _, c := range visible {
		present[c.ClauseID] = true
	}
	for _, c := range visible {
		if c.Overrides != "" && present[c.Overrides] {
			overridden[c.Overrides] = true
		}
	}
	final := make([]models.Clause, 0, len(visible))
	for _, c := range visible {
		if !overridden[c.ClauseID] {
			final = append(final, c)
		}
	}

	// After override resolution no edge connects two survivors, so any
	// remaining allow/deny pair is an unarbitrated contradiction.
	var allow, deny bool
	conflictIDs := make([]string, 0, len(final))
	for _, c := range final {
		switch c.Effect {
		case models.EffectAllow:
			allow = true
			conflictIDs = append(conflictIDs, c.ClauseID)
		case models.EffectDeny:
			deny = true
			conflictIDs = append(conflictIDs, c.ClauseID)
		}
	}
	if allow && deny {
		return Resolution{Conflicted: true, ConflictClauseIDs: conflictIDs}, nil
	}
	return Resolution{Clauses: final}, nil
}

// checkCycles walks every override chain with a visited set.
func checkCycles(clauses []models.Clause) error {
	next := map[string]string{}
	for _, c := range clauses {
		if c.Overrides != "" {
			next[c.ClauseID] = c.Overrides
		}
	}
	for start := range next {
		seen := map[string]bool{}
		for id := start; id != ""; id = next[id] {
			if seen[id] {
				return fmt.Errorf("%w: via clause %s", models.ErrClauseCycle, id)
			}
			seen[id] = true
		}
	}
	return nil
}
