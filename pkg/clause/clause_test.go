package clause

import (
	"errors"
	"testing"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

func mkClause(id, effect string, roles []string, overrides string) models.Clause {
	return models.Clause{
		ClauseID:        id,
		PolicyID:        "POL-1",
		ApplicableRoles: roles,
		Effect:          effect,
		Overrides:       overrides,
	}
}

func TestResolveRoleFilter(t *testing.T) {
	clauses := []models.Clause{
		mkClause("C1", models.EffectAllow, []string{models.RolesAll}, ""),
		mkClause("C2", models.EffectCondition, []string{"customer"}, ""),
		mkClause("C3", models.EffectDeny, []string{"employee"}, ""),
	}
	res, err := Resolve(clauses, "customer")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if len(res.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(res.Clauses))
	}
	if res.Clauses[0].ClauseID != "C1" || res.Clauses[1].ClauseID != "C2" {
		t.Fatalf("unexpected clauses: %+v", res.Clauses)
	}
}

func TestResolveOverrideRemovesTarget(t *testing.T) {
	clauses := []models.Clause{
		mkClause("C1", models.EffectDeny, []string{models.RolesAll}, ""),
		mkClause("C2", models.EffectAllow, []string{models.RolesAll}, "C1"),
	}
	res, err := Resolve(clauses, "customer")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if res.Conflicted {
		t.Fatal("override connects the pair, no conflict expected")
	}
	if len(res.Clauses) != 1 || res.Clauses[0].ClauseID != "C2" {
		t.Fatalf("expected only C2 to survive, got %+v", res.Clauses)
	}
}

func TestResolveOverrideOfInvisibleClauseIsInert(t *testing.T) {
	// C2 overrides C1, but C1 is filtered out by role; C2 survives alone and
	// nothing else is removed.
	clauses := []models.Clause{
		mkClause("C1", models.EffectDeny, []string{"employee"}, ""),
		mkClause("C2", models.EffectAllow, []string{models.RolesAll}, "C1"),
	}
	res, err := Resolve(clauses, "customer")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if len(res.Clauses) != 1 || res.Clauses[0].ClauseID != "C2" {
		t.Fatalf("expected C2 only, got %+v", res.Clauses)
	}
}

func TestResolveAllowDenyConflict(t *testing.T) {
	clauses := []models.Clause{
		mkClause("C1", models.EffectAllow, []string{models.RolesAll}, ""),
		mkClause("C2", models.EffectDeny, []string{models.RolesAll}, ""),
	}
	res, err := Resolve(clauses, "customer")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if !res.Conflicted {
		t.Fatal("expected conflict")
	}
	if len(res.ConflictClauseIDs) != 2 {
		t.Fatalf("expected both clauses listed, got %v", res.ConflictClauseIDs)
	}
}

func TestResolveConditionNeverConflicts(t *testing.T) {
	clauses := []models.Clause{
		mkClause("C1", models.EffectAllow, []string{models.RolesAll}, ""),
		mkClause("C2", models.EffectCondition, []string{models.RolesAll}, ""),
	}
	res, err := Resolve(clauses, "customer")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if res.Conflicted {
		t.Fatal("allow+condition is not a conflict")
	}
	if len(res.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(res.Clauses))
	}
}

func TestResolveOverrideChain(t *testing.T) {
	// C3 overrides C2, C2 overrides C1: only C3 survives.
	clauses := []models.Clause{
		mkClause("C1", models.EffectDeny, []string{models.RolesAll}, ""),
		mkClause("C2", models.EffectAllow, []string{models.RolesAll}, "C1"),
		mkClause("C3", models.EffectDeny, []string{models.RolesAll}, "C2"),
	}
	res, err := Resolve(clauses, "customer")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if len(res.Clauses) != 1 || res.Clauses[0].ClauseID != "C3" {
		t.Fatalf("expected C3 only, got %+v", res.Clauses)
	}
}

func TestResolveEmptySurvivorSetIsLegal(t *testing.T) {
	clauses := []models.Clause{
		mkClause("C1", models.EffectAllow, []string{"employee"}, ""),
	}
	res, err := Resolve(clauses, "customer")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if res.Conflicted || len(res.Clauses) != 0 {
		t.Fatalf("expected empty resolution, got %+v", res)
	}
}

func TestResolveDetectsCycle(t *testing.T) {
	clauses := []models.Clause{
		mkClause("C1", models.EffectAllow, []string{models.RolesAll}, "C2"),
		mkClause("C2", models.EffectDeny, []string{models.RolesAll}, "C1"),
	}
	_, err := Resolve(clauses, "customer")
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !errors.Is(err, models.ErrClauseCycle) {
		t.Fatalf("expected ErrClauseCycle, got %v", err)
	}
}

func TestResolveSelfOverrideIsACycle(t *testing.T) {
	clauses := []models.Clause{
		mkClause("C1", models.EffectAllow, []string{models.RolesAll}, "C1"),
	}
	_, err := Resolve(clauses, "customer")
	if !errors.Is(err, models.ErrClauseCycle) {
		t.Fatalf("expected ErrClauseCycle, got %v", err)
	}
}
