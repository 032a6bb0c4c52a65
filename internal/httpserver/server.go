package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"iuem_fetcher/internal/domain"
)

const (
	serviceName = "iuem-api"
	maxLimit    = 1000
)

// Searcher answers listing requests.
type Searcher interface {
	Search(ctx context.Context, f domain.Filter) ([]domain.Post, error)
}

// PostGetter loads a single post by key.
type PostGetter interface {
	Get(ctx context.Context, id string) (*domain.Post, error)
}

// Server is the read-only listing API.
type Server struct {
	searcher   Searcher
	posts      PostGetter
	logger     *slog.Logger
	httpServer *http.Server
}

func NewServer(port int, searcher Searcher, posts PostGetter, logger *slog.Logger) *Server {
	s := &Server{
		searcher: searcher,
		posts:    posts,
		logger:   logger,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the instrumented route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /posts", s.handleListPosts)
	mux.HandleFunc("GET /posts/{id}", s.handleGetPost)

	return otelhttp.NewHandler(withLogging(s.logger, mux), serviceName)
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	posts, err := s.searcher.Search(r.Context(), f)
	if err != nil {
		s.logger.Error("failed to search posts", "category", f.Category, "keyword", f.Keyword, "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to list posts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"count": len(posts),
	})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	post, err := s.posts.Get(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NotFound", "post not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get post", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to get post")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func parseFilter(r *http.Request) (domain.Filter, error) {
	q := r.URL.Query()

	f := domain.Filter{
		Category:      domain.Category(q.Get("category")),
		Keyword:       q.Get("keyword"),
		Regions:       values(q["region"]),
		SupportFields: values(q["supportField"]),
		Targets:       values(q["target"]),
		Ages:          values(q["age"]),
		Careers:       values(q["career"]),
		Sort:          domain.SortOrder(q.Get("sort")),
	}

	if f.Category != "" && !f.Category.Valid() {
		return f, fmt.Errorf("unknown category %q", f.Category)
	}

	switch f.Sort {
	case "", domain.SortLatest, domain.SortStartDate, domain.SortEndDate:
	default:
		return f, fmt.Errorf("unknown sort %q", f.Sort)
	}

	if l := q.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 || limit > maxLimit {
			return f, fmt.Errorf("limit must be between 1 and %d", maxLimit)
		}
		f.Limit = limit
	}

	return f, nil
}

// values accepts both repeated parameters and comma separated lists.
func values(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
