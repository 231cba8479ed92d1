// Package apihttp exposes the query service over HTTP: one auto-classified
// search endpoint, four forced-domain endpoints, and operational routes.
package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"unifiedsearch/queryservice/internal/domain"
	"unifiedsearch/queryservice/internal/search"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type QueryService interface {
	Run(ctx context.Context, input string) (domain.QueryResponse, error)
	RunMovie(ctx context.Context, input string) (domain.QueryResponse, error)
	RunMusic(ctx context.Context, input string) (domain.QueryResponse, error)
	RunNews(ctx context.Context, input string) (domain.QueryResponse, error)
	RunGeneral(ctx context.Context, input string) (domain.QueryResponse, error)
	ProviderDiagnostics() []domain.ProviderStatus
}

type Server struct {
	queries QueryService
	logger  *slog.Logger
}

const maxQueryLength = 500

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(queries QueryService, options ...ServerOption) *Server {
	server := &Server{
		queries: queries,
		logger:  slog.Default(),
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/search", s.queryHandler("Please provide a search query", func(q QueryService) runFunc { return q.Run }))
	mux.HandleFunc("/api/movie", s.queryHandler("Please provide a movie search query", func(q QueryService) runFunc { return q.RunMovie }))
	mux.HandleFunc("/api/music", s.queryHandler("Please provide a music search query", func(q QueryService) runFunc { return q.RunMusic }))
	mux.HandleFunc("/api/news", s.queryHandler("Please provide a news search query", func(q QueryService) runFunc { return q.RunNews }))
	mux.HandleFunc("/api/general", s.queryHandler("Please provide a search query", func(q QueryService) runFunc { return q.RunGeneral }))
	mux.HandleFunc("/api/providers/health", s.handleProvidersHealth)
	mux.HandleFunc("/api/image", s.handleImageProxy)

	// The browser front end runs on a different origin.
	withCORS := cors.AllowAll().Handler(mux)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, withCORS), "query-service",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

type runFunc func(ctx context.Context, input string) (domain.QueryResponse, error)

// queryHandler builds a POST handler for one query endpoint. Missing input and
// downstream errors are reported as 200 with an error body; clients predate
// status-code driven error handling and inspect the payload.
func (s *Server) queryHandler(emptyMessage string, pick func(QueryService) runFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if s.queries == nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query service is not configured"})
			return
		}

		var payload struct {
			UserInput string `json:"user_input"`
		}
		if err := decodeJSONBody(r, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		input := strings.TrimSpace(payload.UserInput)
		if input == "" {
			writeJSON(w, http.StatusOK, map[string]string{"error": emptyMessage})
			return
		}
		if len(input) > maxQueryLength {
			writeJSON(w, http.StatusOK, map[string]string{"error": "Query too long (max 500 characters)"})
			return
		}

		startedAt := time.Now()
		response, err := pick(s.queries)(r.Context(), input)
		if err != nil {
			if errors.Is(err, search.ErrEmptyQuery) {
				writeJSON(w, http.StatusOK, map[string]string{"error": emptyMessage})
				return
			}
			s.logger.Error("query failed",
				slog.String("path", r.URL.Path),
				slog.String("input", truncate(input, 80)),
				slog.String("error", err.Error()),
			)
			writeJSON(w, http.StatusOK, map[string]string{"error": fmt.Sprintf("An error occurred: %s", err)})
			return
		}

		s.logger.Info("query completed",
			slog.String("path", r.URL.Path),
			slog.String("input", truncate(input, 80)),
			slog.String("type", string(response.Type)),
			slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
		)
		writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) handleProvidersHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/providers/health" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.queries == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query service is not configured"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"checkedAt": time.Now().UTC(),
		"items":     s.queries.ProviderDiagnostics(),
	})
}

func decodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
