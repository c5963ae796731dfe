// Package metrics keeps in-process counters for arbitration outcomes and
// endpoint latency, exposed as JSON and Prometheus text.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type Registry struct {
	mu       sync.RWMutex
	endpoint map[string]*EndpointStat
	decision map[string]int64
	reason   map[string]int64
}

type EndpointStat struct {
	Count          int64   `json:"count"`
	ErrorCount     int64   `json:"error_count"`
	TotalMillis    int64   `json:"total_millis"`
	MaxMillis      int64   `json:"max_millis"`
	AverageMillis  float64 `json:"average_millis"`
	LastStatusCode int     `json:"last_status_code"`
}

type Snapshot struct {
	GeneratedAt string                  `json:"generated_at"`
	Endpoints   map[string]EndpointStat `json:"endpoints"`
	Decisions   map[string]int64        `json:"decisions"`
	Reasons     map[string]int64        `json:"reasons"`
}

func NewRegistry() *Registry {
	return &Registry{
		endpoint: map[string]*EndpointStat{},
		decision: map[string]int64{},
		reason:   map[string]int64{},
	}
}

func (r *Registry) Observe(path string, status int, d time.Duration) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stat, ok := r.endpoint[path]
	if !ok {
		stat = &EndpointStat{}
		r.endpoint[path] = stat
	}
	stat.Count++
	if status >= 400 {
		stat.ErrorCount++
	}
	stat.TotalMillis += ms
	if ms > stat.MaxMillis {
		stat.MaxMillis = ms
	}
	stat.AverageMillis = float64(stat.TotalMillis) / float64(stat.Count)
	stat.LastStatusCode = status
}

func (r *Registry) IncDecision(status string) {
	status = strings.TrimSpace(status)
	if status == "" {
		return
	}
	r.mu.Lock()
	r.decision[status]++
	r.mu.Unlock()
}

func (r *Registry) IncReason(reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	r.mu.Lock()
	r.reason[reason]++
	r.mu.Unlock()
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := Snapshot{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Endpoints:   make(map[string]EndpointStat, len(r.endpoint)),
		Decisions:   make(map[string]int64, len(r.decision)),
		Reasons:     make(map[string]int64, len(r.reason)),
	}
	for k, v := range r.endpoint {
		out.Endpoints[k] = *v
	}
	for k, v := range r.decision {
		out.Decisions[k] = v
	}
	for k, v := range r.reason {
		out.Reasons[k] = v
	}
	return out
}

func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		snap := r.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(snap)
	}
}

func (r *Registry) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		snap := r.Snapshot()
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		b := &strings.Builder{}
		b.WriteString("# HELP arbiter_endpoint_count total requests by endpoint\n")
		b.WriteString("# TYPE arbiter_endpoint_count counter\n")
		for _, ep := range sortedKeys(snap.Endpoints) {
			fmt.Fprintf(b, "arbiter_endpoint_count{endpoint=%q} %d\n", ep, snap.Endpoints[ep].Count)
		}
		b.WriteString("# HELP arbiter_endpoint_error_count total endpoint errors\n")
		b.WriteString("# TYPE arbiter_endpoint_error_count counter\n")
		for _, ep := range sortedKeys(snap.Endpoints) {
			fmt.Fprintf(b, "arbiter_endpoint_error_count{endpoint=%q} %d\n", ep, snap.Endpoints[ep].ErrorCount)
		}
		b.WriteString("# HELP arbiter_decision_count arbitration outcomes by status\n")
		b.WriteString("# TYPE arbiter_decision_count counter\n")
		for _, k := range sortedInt64Keys(snap.Decisions) {
			fmt.Fprintf(b, "arbiter_decision_count{status=%q} %d\n", k, snap.Decisions[k])
		}
		b.WriteString("# HELP arbiter_decision_reason_count arbitration outcomes by reason\n")
		b.WriteString("# TYPE arbiter_decision_reason_count counter\n")
		for _, k := range sortedInt64Keys(snap.Reasons) {
			fmt.Fprintf(b, "arbiter_decision_reason_count{reason=%q} %d\n", k, snap.Reasons[k])
		}
		_, _ = w.Write([]byte(b.String()))
	}
}

func sortedKeys(m map[string]EndpointStat) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedInt64Keys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
