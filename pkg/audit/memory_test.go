package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

func memRecord(id string) models.AuditRecord {
	return models.AuditRecord{
		AuditID:        id,
		Timestamp:      time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC),
		Query:          "refund after 2 weeks",
		Role:           "customer",
		Jurisdiction:   "US",
		AsOfDate:       time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		DecisionStatus: models.StatusSafe,
		DecisionReason: "ok",
		PolicyIDs:      []string{"REFUND-001"},
		ClauseIDs:      []string{"C1"},
	}
}

func TestMemoryStoreAppendGetList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Append(ctx, memRecord(fmt.Sprintf("a-%d", i))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := s.Get(ctx, "a-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AuditID != "a-1" {
		t.Fatalf("unexpected record: %+v", got)
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.AuditID != fmt.Sprintf("a-%d", i) {
			t.Fatalf("insertion order lost at %d: %s", i, rec.AuditID)
		}
	}
}

func TestMemoryStoreRejectsDuplicateID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Append(ctx, memRecord("a-1")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, memRecord("a-1")); err == nil {
		t.Fatal("expected duplicate id rejection")
	}
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreListCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Append(ctx, memRecord("a-1")); err != nil {
		t.Fatalf("append: %v", err)
	}
	records, _ := s.List(ctx)
	records[0].AuditID = "tampered"
	again, _ := s.List(ctx)
	if again[0].AuditID != "a-1" {
		t.Fatal("list must return a copy, not the backing slice")
	}
}

func TestRecorderStampsAndStores(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store, nil)
	fixed := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	r.newID = func() string { return "audit-1" }

	query := models.ArbitrationQuery{
		Query:        "refund after 2 weeks",
		Jurisdiction: "US",
		AsOfDate:     time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		Role:         "customer",
	}
	result := models.ArbitrationResult{
		DecisionStatus: models.StatusSafe,
		DecisionReason: "ok",
		PolicyIDs:      []string{"REFUND-001"},
		ClauseIDs:      []string{"C1", "C2"},
		AnswerText:     "yes",
	}
	rec, err := r.Record(context.Background(), query, result)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.AuditID != "audit-1" || !rec.Timestamp.Equal(fixed) {
		t.Fatalf("unexpected stamping: %+v", rec)
	}
	if rec.Query != query.Query || rec.Jurisdiction != "US" || rec.Role != "customer" {
		t.Fatalf("query fields not flattened: %+v", rec)
	}
	if rec.Answer != "yes" {
		t.Fatalf("unexpected answer: %q", rec.Answer)
	}
	stored, err := store.Get(context.Background(), "audit-1")
	if err != nil {
		t.Fatalf("stored record missing: %v", err)
	}
	if stored.DecisionStatus != models.StatusSafe {
		t.Fatalf("unexpected stored record: %+v", stored)
	}
}

func TestRecorderConcurrentRecords(t *testing.T) {
	store := NewMemoryStore()
	r := NewRecorder(store, nil)

	query := models.ArbitrationQuery{
		Query:        "q",
		Jurisdiction: "US",
		AsOfDate:     time.Now().UTC(),
		Role:         "customer",
	}
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Record(context.Background(), query, models.ArbitrationResult{
				DecisionStatus: models.StatusSafe,
				DecisionReason: "ok",
				PolicyIDs:      []string{},
				ClauseIDs:      []string{},
			})
			if err != nil {
				t.Errorf("record: %v", err)
			}
		}()
	}
	wg.Wait()

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != n {
		t.Fatalf("lost records under concurrency: got %d, want %d", len(records), n)
	}
	seen := make(map[string]bool, n)
	for _, rec := range records {
		if seen[rec.AuditID] {
			t.Fatalf("duplicate audit id %s", rec.AuditID)
		}
		seen[rec.AuditID] = true
	}
}

type capturePublisher struct {
	mu   sync.Mutex
	recs []models.AuditRecord
}

func (p *capturePublisher) Publish(ctx context.Context, rec models.AuditRecord) {
	p.mu.Lock()
	p.recs = append(p.recs, rec)
	p.mu.Unlock()
}

func TestRecorderPublishesStoredRecords(t *testing.T) {
	pub := &capturePublisher{}
	r := NewRecorder(NewMemoryStore(), pub)

	rec, err := r.Record(context.Background(), models.ArbitrationQuery{
		Query: "q", Jurisdiction: "US", AsOfDate: time.Now().UTC(), Role: "customer",
	}, models.ArbitrationResult{
		DecisionStatus: models.StatusConflict,
		DecisionReason: "r",
		PolicyIDs:      []string{"P1", "P2"},
		ClauseIDs:      []string{},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(pub.recs) != 1 || pub.recs[0].AuditID != rec.AuditID {
		t.Fatalf("expected published copy of stored record, got %+v", pub.recs)
	}
}
