// Package eventbus publishes stored audit records for downstream consumers
// (compliance dashboards, long-term archival). Publishing is best-effort and
// never blocks or fails an arbitration.
package eventbus

import (
	"context"
	"encoding/json"
	"log"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
)

// LogPublisher writes records to the process log, the fallback when no broker
// is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, rec models.AuditRecord) {
	b, err := json.Marshal(rec)
	if err != nil {
		log.Printf("audit event marshal failed: %v", err)
		return
	}
	log.Printf("AUDIT EVENT: %s", string(b))
}
