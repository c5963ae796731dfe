package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

type auditDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists audit records durably. The seq column fixes
// insertion order for List.
type PostgresStore struct {
	DB auditDB
}

func NewPostgresStore(db auditDB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Migrate creates the audit table when absent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS audit_records (
			seq             BIGSERIAL PRIMARY KEY,
			audit_id        TEXT UNIQUE NOT NULL,
			ts              TIMESTAMPTZ NOT NULL,
			query           TEXT NOT NULL,
			role            TEXT NOT NULL,
			jurisdiction    TEXT NOT NULL,
			as_of_date      TIMESTAMPTZ NOT NULL,
			decision_status TEXT NOT NULL,
			decision_reason TEXT NOT NULL,
			policy_ids      JSONB NOT NULL,
			clause_ids      JSONB NOT NULL,
			answer          TEXT
		)
	`)
	return err
}

func (s *PostgresStore) Append(ctx context.Context, rec models.AuditRecord) error {
	policyIDs, err := json.Marshal(rec.PolicyIDs)
	if err != nil {
		return err
	}
	clauseIDs, err := json.Marshal(rec.ClauseIDs)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO audit_records
		(audit_id, ts, query, role, jurisdiction, as_of_date, decision_status, decision_reason, policy_ids, clause_ids, answer)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, rec.AuditID, rec.Timestamp, rec.Query, rec.Role, rec.Jurisdiction, rec.AsOfDate,
		string(rec.DecisionStatus), rec.DecisionReason, policyIDs, clauseIDs, rec.Answer)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, auditID string) (models.AuditRecord, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT audit_id, ts, query, role, jurisdiction, as_of_date, decision_status, decision_reason, policy_ids, clause_ids, COALESCE(answer, '')
		FROM audit_records WHERE audit_id=$1
	`, auditID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AuditRecord{}, fmt.Errorf("%w: audit record %s", models.ErrNotFound, auditID)
		}
		return models.AuditRecord{}, err
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.AuditRecord, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT audit_id, ts, query, role, jurisdiction, as_of_date, decision_status, decision_reason, policy_ids, clause_ids, COALESCE(answer, '')
		FROM audit_records ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.AuditRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (models.AuditRecord, error) {
	var (
		rec       models.AuditRecord
		status    string
		ts        time.Time
		asOf      time.Time
		policyIDs []byte
		clauseIDs []byte
	)
	if err := row.Scan(&rec.AuditID, &ts, &rec.Query, &rec.Role, &rec.Jurisdiction, &asOf,
		&status, &rec.DecisionReason, &policyIDs, &clauseIDs, &rec.Answer); err != nil {
		return models.AuditRecord{}, err
	}
	rec.Timestamp = ts
	rec.AsOfDate = asOf
	rec.DecisionStatus = models.DecisionStatus(status)
	if err := json.Unmarshal(policyIDs, &rec.PolicyIDs); err != nil {
		return models.AuditRecord{}, err
	}
	if err := json.Unmarshal(clauseIDs, &rec.ClauseIDs); err != nil {
		return models.AuditRecord{}, err
	}
	return rec, nil
}
