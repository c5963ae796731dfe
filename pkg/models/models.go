package models

import (
	"time"
)

// AuthorityLevel ranks a policy document's governing weight. Higher wins.
type AuthorityLevel int

const (
	AuthorityEmail     AuthorityLevel = 1
	AuthorityGuideline AuthorityLevel = 2
	AuthoritySOP       AuthorityLevel = 3
	AuthorityPolicy    AuthorityLevel = 4
)

func (l AuthorityLevel) String() string {
	switch l {
	case AuthorityEmail:
		return "email"
	case AuthorityGuideline:
		return "guideline"
	case AuthoritySOP:
		return "sop"
	case AuthorityPolicy:
		return "policy"
	default:
		return "unknown"
	}
}

// JurisdictionAll marks a policy or clause applicable everywhere.
const JurisdictionAll = "ALL"

// RolesAll marks a clause applicable to every role.
const RolesAll = "ALL"

// DecisionStatus is the terminal outcome of an arbitration.
type DecisionStatus string

const (
	StatusSafe                 DecisionStatus = "safe"
	StatusConflict             DecisionStatus = "conflict"
	StatusInsufficientCoverage DecisionStatus = "insufficient_coverage"
	// StatusError appears only in audit records for collaborator failures;
	// it is never returned as an arbitration result.
	StatusError DecisionStatus = "error"
)

// Clause effects.
const (
	EffectAllow     = "ALLOW"
	EffectDeny      = "DENY"
	EffectCondition = "CONDITION"
)

// PolicyCandidate is one policy fragment returned by semantic search,
// ordered by descending relevance as supplied by the search collaborator.
type PolicyCandidate struct {
	PolicyID       string         `json:"policy_id"`
	AuthorityLevel AuthorityLevel `json:"authority_level"`
	Jurisdiction   string         `json:"jurisdiction"`
	EffectiveFrom  time.Time      `json:"effective_from"`
	EffectiveUntil *time.Time     `json:"effective_until,omitempty"`
	RelevanceScore float64        `json:"relevance_score"`
	Text           string         `json:"text"`
}

// Clause is a role-scoped sub-rule within a policy. Overrides reference at
// most one other clause id, forming a forest rooted at non-overridden clauses.
type Clause struct {
	ClauseID        string   `json:"clause_id"`
	PolicyID        string   `json:"policy_id"`
	ApplicableRoles []string `json:"applicable_roles"`
	Effect          string   `json:"effect"`
	Overrides       string   `json:"overrides,omitempty"`
	Text            string   `json:"text"`
}

// AppliesToRole reports whether the clause is visible to the given role.
func (c Clause) AppliesToRole(role string) bool {
	for _, r := range c.ApplicableRoles {
		if r == RolesAll || r == role {
			return true
		}
	}
	return false
}

// ArbitrationQuery is the immutable per-request input.
type ArbitrationQuery struct {
	Query        string    `json:"query"`
	Jurisdiction string    `json:"jurisdiction"`
	AsOfDate     time.Time `json:"as_of_date"`
	Role         string    `json:"role"`
}

// ArbitrationResult is the immutable outcome of one arbitration.
type ArbitrationResult struct {
	DecisionStatus DecisionStatus `json:"decision_status"`
	DecisionReason string         `json:"decision_reason"`
	PolicyIDs      []string       `json:"policy_ids"`
	ClauseIDs      []string       `json:"clause_ids"`
	AnswerText     string         `json:"answer_text,omitempty"`
}

// AuditRecord is one append-only record per arbitration.
type AuditRecord struct {
	AuditID   string    `json:"audit_id"`
	Timestamp time.Time `json:"timestamp"`

	// Request context
	Query        string    `json:"query"`
	Role         string    `json:"role"`
	Jurisdiction string    `json:"jurisdiction"`
	AsOfDate     time.Time `json:"as_of_date"`

	// Decision
	DecisionStatus DecisionStatus `json:"decision_status"`
	DecisionReason string         `json:"decision_reason"`
	PolicyIDs      []string       `json:"policy_ids"`
	ClauseIDs      []string       `json:"clause_ids"`
	Answer         string         `json:"answer,omitempty"`
}
