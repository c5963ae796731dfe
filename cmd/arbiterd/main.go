package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Ari-Zen/policy-retrieval-system/pkg/audit"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/decision"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/eventbus"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/httpx"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/llm"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/metrics"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/ratelimit"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/search"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/store"
	"github.com/Ari-Zen/policy-retrieval-system/pkg/telemetry"
)

// Testable variables for main()
var (
	logFatalf       = log.Fatalf
	initTelemetryFn = telemetry.Init
	openRedisFn     = store.NewRedis
	listenFn        func(*http.Server) error
)

func main() {
	if err := run(initTelemetryFn, openRedisFn, listenFn); err != nil {
		logFatalf("arbiterd: %v", err)
	}
}

func run(
	initTelemetry func(context.Context, string) (func(context.Context) error, error),
	openRedis func(context.Context) (*redis.Client, error),
	listen func(*http.Server) error,
) error {
	if initTelemetry == nil {
		initTelemetry = telemetry.Init
	}
	if openRedis == nil {
		openRedis = store.NewRedis
	}
	if listen == nil {
		listen = func(server *http.Server) error { return server.ListenAndServe() }
	}

	ctx := context.Background()
	shutdown, err := initTelemetry(ctx, "arbiterd")
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	redisClient, err := openRedis(ctx)
	if err != nil {
		log.Printf("redis unavailable, falling back to in-memory cache/limits: %v", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := store.NewCache(ctx, redisClient)

	auditStore, closeStore, err := openAuditStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	var events audit.Publisher
	if brokers := env("KAFKA_BROKERS", ""); brokers != "" {
		pub, err := eventbus.NewKafkaPublisher(eventbus.KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   env("KAFKA_AUDIT_TOPIC", "arbiter.audit"),
		})
		if err != nil {
			return err
		}
		defer pub.Close()
		events = pub
	} else {
		events = eventbus.NewLogPublisher()
	}
	recorder := audit.NewRecorder(auditStore, events)

	searchClient := search.NewClient(
		env("SEARCH_URL", "http://localhost:8091"),
		telemetry.InstrumentClient(&http.Client{Timeout: envDurationSec("SEARCH_TIMEOUT_SEC", 10)}),
	)
	searchClient.AuthHeader = env("SEARCH_AUTH_HEADER", "")
	searchClient.AuthToken = env("SEARCH_AUTH_TOKEN", "")
	cachedSearch := search.NewCached(searchClient, cache, envDurationSec("SEARCH_CACHE_TTL_SEC", 30))

	generator := llm.NewGemini(env("GEMINI_API_KEY", ""), env("GEMINI_MODEL", "gemini-1.5-flash"))

	cfg := decision.DefaultConfig()
	cfg.FilterRelevanceThreshold = envFloat("FILTER_RELEVANCE_THRESHOLD", cfg.FilterRelevanceThreshold)
	cfg.AnswerableRelevanceThreshold = envFloat("ANSWERABLE_RELEVANCE_THRESHOLD", cfg.AnswerableRelevanceThreshold)
	cfg.TopK = envInt("SEARCH_TOP_K", cfg.TopK)

	reg := metrics.NewRegistry()
	var limiter ratelimit.Limiter
	window := envDurationSec("RATE_LIMIT_WINDOW_SEC", 60)
	if redisClient != nil {
		limiter = ratelimit.NewRedis(redisClient, window)
	} else {
		limiter = ratelimit.NewInMemory(window)
	}

	s := &Server{
		Pipeline: &decision.Pipeline{
			Search:    cachedSearch,
			Generator: generator,
			Recorder:  recorder,
			Metrics:   reg,
			Config:    cfg,
		},
		Recorder:            recorder,
		Metrics:             reg,
		RateLimiter:         limiter,
		RateLimitPerWindow:  envInt("RATE_LIMIT_PER_WINDOW", 60),
		InternalAuthHeader:  env("INTERNAL_AUTH_HEADER", ""),
		InternalAuthToken:   env("INTERNAL_AUTH_TOKEN", ""),
		MaxRequestBodyBytes: int64(envInt("MAX_REQUEST_BODY_BYTES", 1<<20)),
	}

	r := chi.NewRouter()
	r.Use(httpx.SecurityHeadersMiddleware)
	r.Use(telemetry.HTTPMiddleware("arbiterd"))
	r.Use(s.limitRequestBodyMiddleware)
	r.Use(s.metricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteJSON(w, 200, map[string]string{"status": "ok", "service": "arbiterd"})
	})
	r.Post("/v1/answers", s.handleAnswer)
	r.Get("/v1/audit/{id}", s.handleGetAudit)
	r.Get("/v1/audit", s.handleListAudit)
	r.With(s.internalTokenOnly).Get("/metrics", s.Metrics.Handler())
	r.With(s.internalTokenOnly).Get("/metrics/prometheus", s.Metrics.PrometheusHandler())

	addr := env("ADDR", ":8080")
	log.Printf("arbiterd listening on %s", addr)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: envDurationSec("HTTP_READ_HEADER_TIMEOUT_SEC", 5),
		ReadTimeout:       envDurationSec("HTTP_READ_TIMEOUT_SEC", 15),
		WriteTimeout:      envDurationSec("HTTP_WRITE_TIMEOUT_SEC", 30),
		IdleTimeout:       envDurationSec("HTTP_IDLE_TIMEOUT_SEC", 120),
	}
	return listen(server)
}

// openAuditStore selects the audit backend: memory (default) or postgres.
func openAuditStore(ctx context.Context) (audit.Store, func(), error) {
	backend := strings.ToLower(env("AUDIT_STORE", "memory"))
	if backend != "postgres" {
		return audit.NewMemoryStore(), nil, nil
	}
	pool, err := store.NewPostgresPool(ctx)
	if err != nil {
		return nil, nil, err
	}
	pg := audit.NewPostgresStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pg, pool.Close, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDurationSec(k string, def int) time.Duration {
	return time.Second * time.Duration(envInt(k, def))
}
