package main

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/audit"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/decision"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/httpx"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/metrics"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/models"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/ratelimit"
)

type Server struct {
	Pipeline            *decision.Pipeline
	Recorder            *audit.Recorder
	Metrics             *metrics.Registry
	RateLimiter         ratelimit.Limiter
	RateLimitPerWindow  int
	InternalAuthHeader  string
	InternalAuthToken   string
	MaxRequestBodyBytes int64
}

type answerRequest struct {
	Query        string `json:"query"`
	Jurisdiction string `json:"jurisdiction"`
	AsOfDate     string `json:"as_of_date"`
	Role         string `json:"role"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if s.RateLimiter != nil {
		key := clientKey(r)
		if d := s.RateLimiter.Allow(key, s.RateLimitPerWindow); !d.Allowed {
			w.Header().Set("Retry-After", d.ResetAt.UTC().Format(http.TimeFormat))
			httpx.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	asOf, err := parseDate(req.AsOfDate)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "as_of_date must be YYYY-MM-DD or RFC3339")
		return
	}
	query := models.ArbitrationQuery{
		Query:        req.Query,
		Jurisdiction: req.Jurisdiction,
		AsOfDate:     asOf,
		Role:         req.Role,
	}
	rec, err := s.Pipeline.Arbitrate(r.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidQuery):
			httpx.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrSearchUnavailable):
			httpx.Error(w, http.StatusBadGateway, "search unavailable")
		case errors.Is(err, models.ErrGenerationFailed):
			httpx.Error(w, http.StatusBadGateway, "answer generation failed")
		default:
			log.Printf("arbitrate: %v", err)
			httpx.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.Recorder.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "audit record not found")
			return
		}
		log.Printf("audit get: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	records, err := s.Recorder.List(r.Context())
	if err != nil {
		log.Printf("audit list: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total_records": len(records),
		"records":       records,
	})
}

func (s *Server) internalTokenOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.InternalAuthHeader == "" || s.InternalAuthToken == "" {
			httpx.Error(w, http.StatusServiceUnavailable, "internal auth not configured")
			return
		}
		token := r.Header.Get(s.InternalAuthHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.InternalAuthToken)) != 1 {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limitRequestBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestBodyBytes > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		if s.Metrics != nil {
			s.Metrics.Observe(r.Method+" "+r.URL.Path, rw.status, time.Since(start))
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
