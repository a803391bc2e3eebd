// File path: internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/export"
	"github.com/mattlimsiaco/trackwise-search/internal/llm"
	"github.com/mattlimsiaco/trackwise-search/internal/observability"
	"github.com/mattlimsiaco/trackwise-search/internal/pipeline"
	"github.com/mattlimsiaco/trackwise-search/internal/retriever"
	"github.com/mattlimsiaco/trackwise-search/internal/schema"
	"github.com/mattlimsiaco/trackwise-search/internal/verified"
)

// Executor is the database collaborator: it runs generated SQL and supplies
// live schema rows for rebuilds.
type Executor interface {
	Execute(ctx context.Context, sqlText string) ([]map[string]interface{}, error)
	SchemaColumns(ctx context.Context) ([]schema.SourceColumn, error)
}

// Config controls the request-facing knobs of the API server.
type Config struct {
	RetrievalTopN  int
	SnapshotPath   string
	AllowedOrigins []string
	ExportTTL      time.Duration
	ExportMax      int
}

// DefaultConfig returns the standard configuration used when no overrides
// are provided.
func DefaultConfig() Config {
	return Config{
		RetrievalTopN:  retriever.DefaultTopN,
		SnapshotPath:   "data/embedding_csv.csv",
		AllowedOrigins: []string{"*"},
	}
}

// Merge overlays non-zero fields from the override onto the base
// configuration.
func (c Config) Merge(override Config) Config {
	result := c
	if override.RetrievalTopN > 0 {
		result.RetrievalTopN = override.RetrievalTopN
	}
	if strings.TrimSpace(override.SnapshotPath) != "" {
		result.SnapshotPath = strings.TrimSpace(override.SnapshotPath)
	}
	if len(override.AllowedOrigins) > 0 {
		result.AllowedOrigins = append([]string(nil), override.AllowedOrigins...)
	}
	if override.ExportTTL > 0 {
		result.ExportTTL = override.ExportTTL
	}
	if override.ExportMax > 0 {
		result.ExportMax = override.ExportMax
	}
	return result
}

type Server struct {
	router    chi.Router
	provider  llm.Provider
	retriever *retriever.Retriever
	recorder  *verified.Recorder
	db        Executor
	results   *export.ResultCache
	cfg       Config

	// mu guards the schema index and the pipeline built on top of it; a
	// rebuild swaps both together.
	mu       sync.RWMutex
	index    *schema.Index
	pipeline *pipeline.Pipeline
}

func NewServer(index *schema.Index, store *verified.Store, provider llm.Provider, db Executor, cfg *Config) (*Server, error) {
	logger := common.Logger()
	if index == nil {
		return nil, fmt.Errorf("schema index required")
	}
	if store == nil {
		return nil, fmt.Errorf("verified store required")
	}
	if provider == nil {
		return nil, fmt.Errorf("llm provider required")
	}
	configuration := DefaultConfig()
	if cfg != nil {
		configuration = configuration.Merge(*cfg)
	}
	retr, err := retriever.New(store, provider)
	if err != nil {
		return nil, err
	}
	recorder, err := verified.NewRecorder(store, provider)
	if err != nil {
		return nil, err
	}
	srv := &Server{
		router:    chi.NewRouter(),
		provider:  provider,
		retriever: retr,
		recorder:  recorder,
		db:        db,
		results:   export.NewResultCache(configuration.ExportTTL, configuration.ExportMax),
		cfg:       configuration,
		index:     index,
	}
	if err := srv.rebuildPipeline(index); err != nil {
		return nil, err
	}
	srv.routes()
	logger.Info("api: server ready",
		"schema_tables", len(index.Tables()),
		"verified_records", store.Len(),
		"provider", provider.Name(),
	)
	return srv, nil
}

// rebuildPipeline installs a fresh pipeline over the given index; used at
// construction and after a schema rebuild.
func (s *Server) rebuildPipeline(index *schema.Index) error {
	resolver, err := schema.NewResolver(index, s.provider)
	if err != nil {
		return err
	}
	pipe, err := pipeline.New(s.retriever, resolver, s.provider, s.cfg.RetrievalTopN)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.index = index
	s.pipeline = pipe
	s.mu.Unlock()
	return nil
}

func (s *Server) currentPipeline() *pipeline.Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)
	s.router.Use(observability.MetricsMiddleware)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Post("/query", s.handleQuery)
	s.router.Post("/verify_query", s.handleVerify)
	s.router.Post("/update_data", s.handleUpdateData)
	s.router.Post("/export_data", s.handleExport)
	s.router.Get("/v1/logs", s.handleLogs)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusForPipelineError distinguishes malformed model output from transport
// failures when reporting a pipeline error.
func statusForPipelineError(err error) int {
	var formatErr *pipeline.ExtractionFormatError
	if errors.As(err, &formatErr) {
		return http.StatusUnprocessableEntity
	}
	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
