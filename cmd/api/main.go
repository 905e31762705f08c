// Package main implements the configurator search API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
	"github.com/beedev/recommenderv3-sub002/engine/graph"
	"github.com/beedev/recommenderv3-sub002/engine/normalize"
	"github.com/beedev/recommenderv3-sub002/engine/relevance"
	"github.com/beedev/recommenderv3-sub002/engine/search"
	"github.com/beedev/recommenderv3-sub002/pkg/metrics"
	"github.com/beedev/recommenderv3-sub002/pkg/mid"
	"github.com/beedev/recommenderv3-sub002/pkg/natsutil"
)

// Config holds all environment-based configuration.
type Config struct {
	Port           string
	Neo4jURL       string
	Neo4jUser      string
	Neo4jPass      string
	QdrantURL      string
	Collection     string
	NatsURL        string
	NormTablePath  string
	CORSOrigin     string
	SearchMode     string
	RateLimitRPS   float64
	RateLimitBurst int
}

func loadConfig() Config {
	return Config{
		Port:           envOr("PORT", "8080"),
		Neo4jURL:       envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:      envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:      envOr("NEO4J_PASS", "password"),
		QdrantURL:      envOr("QDRANT_URL", "localhost:6334"),
		Collection:     envOr("QDRANT_COLLECTION", "catalog"),
		NatsURL:        envOr("NATS_URL", ""),
		NormTablePath:  envOr("NORMALIZE_TABLE", "config/normalize.toml"),
		CORSOrigin:     envOr("CORS_ORIGIN", "*"),
		SearchMode:     envOr("SEARCH_MODE", "parallel"),
		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 100),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Normalization table (fatal on malformed configuration) ---
	table, err := normalize.Load(cfg.NormTablePath)
	if err != nil {
		return fmt.Errorf("normalization table: %w", err)
	}

	// --- Connect to Neo4j ---
	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer neo4jDriver.Close(ctx)

	graphStore := graph.New(neo4jDriver)

	// --- Connect to Qdrant ---
	index, err := relevance.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer index.Close()

	// --- Optional NATS telemetry ---
	var nc *nats.Conn
	if cfg.NatsURL != "" {
		nc, err = nats.Connect(cfg.NatsURL)
		if err != nil {
			// Telemetry is best effort; the engine works without it.
			logger.Warn("nats connect failed, events disabled", "err", err)
		} else {
			defer nc.Close()
		}
	}

	// --- Build search service ---
	reg := metrics.New()
	opts := search.DefaultOptions()
	opts.Registry = reg
	if cfg.SearchMode == "sequential" {
		opts.Mode = search.ModeSequential
	}
	svc := search.New(graphStore, index, table, opts, logger)

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", reg.Handler())
	mux.HandleFunc("POST /api/search", handleSearch(svc, nc, logger))

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.OTel("configurator-search"),
		mid.Logger(logger),
		mid.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("search api starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// SearchCompleted is the event published after each successful search.
type SearchCompleted struct {
	ComponentType string         `json:"component_type"`
	TotalCount    int            `json:"total_count"`
	Returned      int            `json:"returned"`
	Strategies    map[string]int `json:"strategies"`
	DurationMS    int64          `json:"duration_ms"`
	At            time.Time      `json:"at"`
}

const searchCompletedSubject = "configurator.search.completed"

func handleSearch(svc *search.Service, nc *nats.Conn, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req catalog.SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		start := time.Now()
		res, err := svc.Search(r.Context(), req)
		switch {
		case err == nil:
		case errors.Is(err, catalog.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, search.ErrAllStrategiesFailed):
			logger.Error("search unavailable", "err", err)
			writeError(w, http.StatusServiceUnavailable, "search is temporarily unavailable")
			return
		default:
			logger.Error("search failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if nc != nil {
			event := SearchCompleted{
				ComponentType: string(req.ComponentType),
				TotalCount:    res.TotalCount,
				Returned:      len(res.Products),
				Strategies:    res.StrategyCounts,
				DurationMS:    time.Since(start).Milliseconds(),
				At:            time.Now().UTC(),
			}
			if err := natsutil.Publish(r.Context(), nc, searchCompletedSubject, event); err != nil {
				logger.Warn("publish search event failed", "err", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
