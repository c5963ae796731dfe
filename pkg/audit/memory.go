package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

// MemoryStore keeps records in process memory, initialized empty at startup.
// Insertion order is preserved for List.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.AuditRecord
	byID    map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]int{}}
}

func (s *MemoryStore) Append(ctx context.Context, rec models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[rec.AuditID]; exists {
		return fmt.Errorf("duplicate audit id %s", rec.AuditID)
	}
	s.byID[rec.AuditID] = len(s.records)
	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, auditID string) (models.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[auditID]
	if !ok {
		return models.AuditRecord{}, fmt.Errorf("%w: audit record %s", models.ErrNotFound, auditID)
	}
	return s.records[idx], nil
}

func (s *MemoryStore) List(ctx context.Context) ([]models.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AuditRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}
