// Package api serves the query surface downstream consumers (alerting,
// dashboards) read scored observations from.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"supply-risk-alerts/internal/storage"
)

const defaultRangeDays = 30

// Server exposes scored observations and alert rules over HTTP.
type Server struct {
	scores   storage.ScoreStore
	rules    storage.RuleStore
	registry *prometheus.Registry
	logger   zerolog.Logger
}

// New constructs the API server. registry may be nil to skip /metrics.
func New(scores storage.ScoreStore, rules storage.RuleStore, registry *prometheus.Registry, logger zerolog.Logger) *Server {
	return &Server{
		scores:   scores,
		rules:    rules,
		registry: registry,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Router builds the http handler tree.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "shockwatcher"})
	})

	if s.registry != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/metrics", s.handleListMetrics)
		r.Get("/scores/{metric}", s.handleQueryRange)
		r.Get("/scores/{metric}/latest", s.handleLatest)
		r.Get("/rules", s.handleListRules)
		r.Post("/rules", s.handleSaveRule)
		r.Delete("/rules/{user_id}/{metric}", s.handleDeleteRule)
	})

	return router
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.scores.ListMetrics(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"metrics": metrics})
}

func (s *Server) handleQueryRange(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")

	end := r.URL.Query().Get("end")
	if end == "" {
		end = time.Now().UTC().Format("2006-01-02")
	}
	start := r.URL.Query().Get("start")
	if start == "" {
		start = time.Now().UTC().AddDate(0, 0, -defaultRangeDays).Format("2006-01-02")
	}
	limit := parseLimit(r.URL.Query().Get("limit"), 1000)

	scores, err := s.scores.QueryRange(r.Context(), metric, start, end, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"metric": metric, "items": scores})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")

	score, err := s.scores.Latest(r.Context(), metric)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if score == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no scores for metric", "metric": metric})
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	metric := r.URL.Query().Get("metric")

	var (
		rules []storage.AlertRule
		err   error
	)
	switch {
	case userID != "":
		rules, err = s.rules.UserAlertRules(r.Context(), userID)
	case metric != "":
		rules, err = s.rules.RulesForMetric(r.Context(), metric)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "user_id or metric query parameter required"})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rules})
}

func (s *Server) handleSaveRule(w http.ResponseWriter, r *http.Request) {
	var rule storage.AlertRule
	if err := decodeJSON(r, &rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if rule.UserID == "" || rule.Metric == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "user_id and metric are required"})
		return
	}
	if rule.Threshold < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "threshold cannot be negative"})
		return
	}

	if err := s.rules.SaveAlertRule(r.Context(), rule); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	metric := chi.URLParam(r, "metric")

	if err := s.rules.DeleteAlertRule(r.Context(), userID, metric); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "metric": metric, "deleted": true})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("api request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
