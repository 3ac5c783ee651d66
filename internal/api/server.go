// Package api exposes the query service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gov-dash/internal/common/config"
	"gov-dash/internal/common/logger"
	"gov-dash/internal/models"
	"gov-dash/internal/opendata/normalizer"
	"gov-dash/internal/opendata/service"
	"gov-dash/pkg/registry"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// recentResults bounds how many answered tables stay downloadable by id.
const recentResults = 256

// Answerer answers one question.
type Answerer interface {
	Answer(ctx context.Context, text string) *models.QueryResult
}

var _ Answerer = (*service.Service)(nil)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	answerer Answerer
	registry *registry.Registry
	logger   logger.Logger
	checks   map[string]HealthCheck
	results  *lru.Cache[string, *models.QueryResult]
}

func NewHandler(answerer Answerer, reg *registry.Registry, log logger.Logger) *Handler {
	results, _ := lru.New[string, *models.QueryResult](recentResults)
	return &Handler{
		answerer: answerer,
		registry: reg,
		logger:   log.With(map[string]interface{}{"component": "api"}),
		checks:   make(map[string]HealthCheck),
		results:  results,
	}
}

// AddHealthCheck registers a dependency probed by /healthz.
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// Routes returns the API mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/query", h.query)
	mux.HandleFunc("GET /api/query/download", h.download)
	mux.HandleFunc("GET /api/datasets", h.datasets)
	mux.HandleFunc("GET /healthz", h.health)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// NewServer wraps the routes in an http.Server built from cfg.
func NewServer(cfg config.ServerConfig, h *Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      h.Routes(),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	result := h.answerer.Answer(r.Context(), q)
	if result.Outcome == models.OutcomeEmptyQuery {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: string(result.Outcome), Message: result.Message})
		return
	}
	if result.HasTable() && result.ID != "" {
		h.results.Add(result.ID, result)
	}
	writeJSON(w, http.StatusOK, result)
}

// download serves the table of an earlier /api/query answer when id names
// one still held, so the file matches what was shown. Otherwise q is
// answered again.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	q := r.URL.Query().Get("q")
	if id != "" {
		if result, ok := h.results.Get(id); ok {
			h.writeCSV(w, result)
			return
		}
		if q == "" {
			writeJSON(w, http.StatusNotFound, errorResponse{
				Error:   "expired",
				Message: "This result is no longer available. Please run the query again.",
			})
			return
		}
	}

	result := h.answerer.Answer(r.Context(), q)
	if result.Outcome == models.OutcomeEmptyQuery {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: string(result.Outcome), Message: result.Message})
		return
	}
	if !result.HasTable() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: string(result.Outcome), Message: result.Message})
		return
	}
	h.writeCSV(w, result)
}

func (h *Handler) writeCSV(w http.ResponseWriter, result *models.QueryResult) {
	body, err := normalizer.CSVBytes(result.Columns, result.Records)
	if err != nil {
		h.logger.Error("csv render failed", map[string]interface{}{
			"queryId": result.ID,
			"error":   err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "render_failed", Message: err.Error()})
		return
	}

	name := "data.csv"
	if desc, ok := h.registry.Lookup(result.DatasetID); ok {
		name = desc.DownloadName
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type datasetView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Filters  []string `json:"filters"`
	Columns  []string `json:"columns"`
	Keywords []string `json:"keywords"`
	Examples []string `json:"examples,omitempty"`
}

func (h *Handler) datasets(w http.ResponseWriter, r *http.Request) {
	descs := h.registry.Descriptors()
	out := make([]datasetView, 0, len(descs))
	for _, d := range descs {
		out = append(out, datasetView{
			ID:       d.ID,
			Name:     d.Name,
			Filters:  d.Filters,
			Columns:  d.Columns,
			Keywords: d.Keywords,
			Examples: d.Examples,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"datasets": out})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", map[string]interface{}{
				"dependency": name,
				"error":      err.Error(),
			})
			deps[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	writeJSON(w, code, map[string]interface{}{
		"status":       status,
		"time":         time.Now().Format(time.RFC3339),
		"dependencies": deps,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
