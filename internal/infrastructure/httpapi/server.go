package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chainbrief/internal/domain"
	"chainbrief/internal/ports"
	"chainbrief/internal/usecase"
)

// Server exposes the stored feed read-only plus a manual agent trigger.
// Authentication is a collaborator concern and lives outside this module.
type Server struct {
	repo     ports.ArticleRepository
	pipeline *usecase.Pipeline
	addr     string
	logger   *slog.Logger
}

// New builds the API server.
func New(repo ports.ArticleRepository, pipeline *usecase.Pipeline, addr string, logger *slog.Logger) *Server {
	return &Server{repo: repo, pipeline: pipeline, addr: addr, logger: logger}
}

// Handler assembles the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /feed", s.getFeed)
	mux.HandleFunc("GET /feed/search", s.searchFeed)
	mux.HandleFunc("POST /agent/run", s.runAgent)

	return mux
}

// Run starts the HTTP listener and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type articleResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	Summary         string    `json:"summary"`
	Source          string    `json:"source"`
	EcosystemTag    string    `json:"ecosystem_tag"`
	LegitimacyScore float64   `json:"legitimacy_score"`
	SentimentScore  int       `json:"sentiment_score"`
	CreatedAt       time.Time `json:"created_at"`
	PublishedAt     time.Time `json:"published_at"`
}

func (s *Server) getFeed(w http.ResponseWriter, r *http.Request) {
	ecosystemTag := strings.ToLower(r.URL.Query().Get("ecosystem"))
	limit := parseLimit(r.URL.Query().Get("limit"))

	records, err := s.repo.Recent(r.Context(), ecosystemTag, limit)
	if err != nil {
		s.logError("feed query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "feed unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, toResponses(records))
}

func (s *Server) searchFeed(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing query parameter q"})
		return
	}

	records, err := s.repo.Search(r.Context(), query, parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		s.logError("search query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, toResponses(records))
}

func (s *Server) runAgent(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "agent not configured"})
		return
	}

	stored, err := s.pipeline.RunCycle(r.Context())
	if errors.Is(err, usecase.ErrCycleRunning) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "cycle already running"})
		return
	}
	if err != nil {
		s.logError("manual cycle failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cycle failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"stored": stored})
}

func toResponses(records []domain.EnrichedRecord) []articleResponse {
	responses := make([]articleResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, articleResponse{
			ID:              record.ID,
			Title:           record.Title,
			URL:             record.URL,
			Summary:         record.Summary,
			Source:          record.Source,
			EcosystemTag:    record.EcosystemTag,
			LegitimacyScore: record.LegitimacyScore,
			SentimentScore:  record.SentimentScore,
			CreatedAt:       record.CreatedAt,
			PublishedAt:     record.PublishedAt,
		})
	}
	return responses
}

func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
