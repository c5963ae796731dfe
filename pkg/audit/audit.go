// Package audit persists one immutable record per arbitration. Records are
// append-only: never mutated, never deleted, retrievable by id or listable in
// insertion order.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

// Store is the append-only audit store owned by the Recorder.
type Store interface {
	Append(ctx context.Context, rec models.AuditRecord) error
	Get(ctx context.Context, auditID string) (models.AuditRecord, error)
	List(ctx context.Context) ([]models.AuditRecord, error)
}

// Publisher receives a copy of every stored record, best-effort.
type Publisher interface {
	Publish(ctx context.Context, rec models.AuditRecord)
}

// Recorder stamps, stores, and optionally publishes audit records. It has no
// decision logic and never rejects or mutates an accepted record.
type Recorder struct {
	store  Store
	events Publisher

	// mu serializes id generation and append so concurrent arbitrations
	// never lose a record or reuse an id.
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

func NewRecorder(store Store, events Publisher) *Recorder {
	return &Recorder{
		store:  store,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

// Record persists the query and result as one audit record and returns it.
func (r *Recorder) Record(ctx context.Context, query models.ArbitrationQuery, result models.ArbitrationResult) (models.AuditRecord, error) {
	r.mu.Lock()
	rec := models.AuditRecord{
		AuditID:        r.newID(),
		Timestamp:      r.now(),
		Query:          query.Query,
		Role:           query.Role,
		Jurisdiction:   query.Jurisdiction,
		AsOfDate:       query.AsOfDate,
		DecisionStatus: result.DecisionStatus,
		DecisionReason: result.DecisionReason,
		PolicyIDs:      result.PolicyIDs,
		ClauseIDs:      result.ClauseIDs,
		Answer:         result.AnswerText,
	}
	err := r.store.Append(ctx, rec)
	r.mu.Unlock()
	if err != nil {
		return models.AuditRecord{}, err
	}
	if r.events != nil {
		r.events.Publish(ctx, rec)
	}
	return rec, nil
}

func (r *Recorder) Get(ctx context.Context, auditID string) (models.AuditRecord, error) {
	return r.store.Get(ctx, auditID)
}

func (r *Recorder) List(ctx context.Context) ([]models.AuditRecord, error) {
	return r.store.List(ctx)
}
