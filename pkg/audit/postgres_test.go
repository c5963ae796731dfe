package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

type fakeAuditDB struct {
	execErr   error
	rowErr    error
	rowValues []any
	rowSets   [][]any
	execSQL   []string
	execArgs  []any
	queryArgs []any
}

func (f *fakeAuditDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append([]any(nil), args...)
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeAuditDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queryArgs = append([]any(nil), args...)
	return &fakeAuditRow{values: f.rowValues, err: f.rowErr}
}

func (f *fakeAuditDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.rowErr != nil {
		return nil, f.rowErr
	}
	return &fakeAuditRows{sets: f.rowSets, idx: -1}, nil
}

type fakeAuditRow struct {
	values []any
	err    error
}

func (r *fakeAuditRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assignAuditScan(dest, r.values)
}

type fakeAuditRows struct {
	sets [][]any
	idx  int
}

func (r *fakeAuditRows) Next() bool {
	r.idx++
	return r.idx < len(r.sets)
}

func (r *fakeAuditRows) Scan(dest ...any) error {
	return assignAuditScan(dest, r.sets[r.idx])
}

func (r *fakeAuditRows) Close()                                       {}
func (r *fakeAuditRows) Err() error                                   { return nil }
func (r *fakeAuditRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeAuditRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeAuditRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeAuditRows) RawValues() [][]byte                          { return nil }
func (r *fakeAuditRows) Conn() *pgx.Conn                              { return nil }

func assignAuditScan(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan arity mismatch: got=%d want=%d", len(dest), len(values))
	}
	for i := range dest {
		switch d := dest[i].(type) {
		case *string:
			v, ok := values[i].(string)
			if !ok {
				return fmt.Errorf("col %d: expected string, got %T", i, values[i])
			}
			*d = v
		case *time.Time:
			v, ok := values[i].(time.Time)
			if !ok {
				return fmt.Errorf("col %d: expected time.Time, got %T", i, values[i])
			}
			*d = v
		case *[]byte:
			v, ok := values[i].(string)
			if !ok {
				return fmt.Errorf("col %d: expected json string, got %T", i, values[i])
			}
			*d = []byte(v)
		default:
			return fmt.Errorf("col %d: unsupported scan dest %T", i, dest[i])
		}
	}
	return nil
}

func rowFor(rec models.AuditRecord, policyJSON, clauseJSON string) []any {
	return []any{
		rec.AuditID, rec.Timestamp, rec.Query, rec.Role, rec.Jurisdiction, rec.AsOfDate,
		string(rec.DecisionStatus), rec.DecisionReason, policyJSON, clauseJSON, rec.Answer,
	}
}

func TestPostgresStoreAppendAndGet(t *testing.T) {
	rec := memRecord("a-1")
	rec.Answer = "yes"
	db := &fakeAuditDB{rowValues: rowFor(rec, `["REFUND-001"]`, `["C1"]`)}
	s := NewPostgresStore(db)

	if err := s.Append(context.Background(), rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(db.execArgs) != 11 {
		t.Fatalf("expected 11 insert args, got %d", len(db.execArgs))
	}
	if db.execArgs[0] != "a-1" || db.execArgs[6] != "safe" {
		t.Fatalf("unexpected insert args: %v", db.execArgs)
	}

	got, err := s.Get(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AuditID != "a-1" || got.DecisionStatus != models.StatusSafe || got.Answer != "yes" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if len(got.PolicyIDs) != 1 || got.PolicyIDs[0] != "REFUND-001" {
		t.Fatalf("policy ids not decoded: %v", got.PolicyIDs)
	}
	if len(db.queryArgs) != 1 || db.queryArgs[0] != "a-1" {
		t.Fatalf("unexpected query args: %v", db.queryArgs)
	}
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	db := &fakeAuditDB{rowErr: pgx.ErrNoRows}
	s := NewPostgresStore(db)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStoreList(t *testing.T) {
	first := memRecord("a-1")
	second := memRecord("a-2")
	db := &fakeAuditDB{rowSets: [][]any{
		rowFor(first, `["REFUND-001"]`, `["C1"]`),
		rowFor(second, `[]`, `[]`),
	}}
	s := NewPostgresStore(db)

	records, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 || records[0].AuditID != "a-1" || records[1].AuditID != "a-2" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if len(records[1].PolicyIDs) != 0 {
		t.Fatalf("expected empty policy ids, got %v", records[1].PolicyIDs)
	}
}

func TestPostgresStoreErrors(t *testing.T) {
	db := &fakeAuditDB{execErr: errors.New("exec failed")}
	s := NewPostgresStore(db)
	if err := s.Append(context.Background(), memRecord("a-1")); err == nil {
		t.Fatal("expected append error")
	}
	if err := s.Migrate(context.Background()); err == nil {
		t.Fatal("expected migrate error")
	}

	db = &fakeAuditDB{rowErr: errors.New("query failed")}
	s = NewPostgresStore(db)
	if _, err := s.List(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
}

func TestPostgresStoreMigrateCreatesTable(t *testing.T) {
	db := &fakeAuditDB{}
	s := NewPostgresStore(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(db.execSQL) != 1 {
		t.Fatalf("expected one migrate statement, got %d", len(db.execSQL))
	}
}
