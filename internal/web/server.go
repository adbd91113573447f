// Package web exposes the review engine over a JSON HTTP API for editor
// plugins and scripts.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/retainmd/retain/internal/domain"
	"github.com/retainmd/retain/internal/review"
	"github.com/retainmd/retain/internal/sources"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	manager *review.Manager
	sources *sources.Registry
	router  *http.ServeMux
	log     *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(manager *review.Manager, registry *sources.Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		manager: manager,
		sources: registry,
		router:  http.NewServeMux(),
		log:     log,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /queue", s.handleGetQueue())
	s.router.HandleFunc("GET /counts", s.handleGetCounts())

	s.router.HandleFunc("POST /cards", s.handleCreateCard())
	s.router.HandleFunc("GET /cards/{id}/preview", s.handlePreviewCard())
	s.router.HandleFunc("GET /cards/{id}/history", s.handleCardHistory())
	s.router.HandleFunc("POST /cards/{id}/review", s.handleReviewCard())
	s.router.HandleFunc("POST /cards/{id}/dismiss", s.handleDismissCard())

	s.router.HandleFunc("POST /snippets", s.handleCreateSnippet())
	s.router.HandleFunc("POST /snippets/{id}/review", s.handleReviewText(review.KindSnippet))
	s.router.HandleFunc("POST /snippets/{id}/priority", s.handleReprioritize(review.KindSnippet))
	s.router.HandleFunc("POST /snippets/{id}/dismiss", s.handleDismissText(review.KindSnippet))

	s.router.HandleFunc("POST /articles", s.handleImportArticle())
	s.router.HandleFunc("POST /articles/{id}/review", s.handleReviewText(review.KindArticle))
	s.router.HandleFunc("POST /articles/{id}/priority", s.handleReprioritize(review.KindArticle))
	s.router.HandleFunc("POST /articles/{id}/dismiss", s.handleDismissText(review.KindArticle))
	s.router.HandleFunc("POST /articles/{id}/rename", s.handleRenameArticle())

	s.router.HandleFunc("GET /sources", s.handleListSources())
	s.router.HandleFunc("POST /sources", s.handleAddSource())
	s.router.HandleFunc("DELETE /sources/{id}", s.handleRemoveSource())
	s.router.HandleFunc("POST /sync", s.handleSync())
}

func (s *Server) handleGetQueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var dueBy *time.Time
		if raw := r.URL.Query().Get("due_by"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				s.writeError(w, domain.Validationf("due_by must be RFC 3339, got %q", raw))
				return
			}
			dueBy = &t
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				s.writeError(w, domain.Validationf("limit must be a positive integer, got %q", raw))
				return
			}
			limit = n
		}
		result, err := s.manager.GetDue(r.Context(), dueBy, limit)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleGetCounts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := s.manager.CountsNow(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, counts)
	}
}

func (s *Server) handleCreateCard() http.HandlerFunc {
	type request struct {
		Reference string `json:"reference"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.readJSON(w, r, &req) {
			return
		}
		card, err := s.manager.CreateCard(r.Context(), req.Reference)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, card)
	}
}

func (s *Server) handlePreviewCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcomes, err := s.manager.PreviewCard(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		byGrade := make(map[string]domain.Card, len(outcomes))
		for grade, card := range outcomes {
			byGrade[grade.String()] = card
		}
		s.writeJSON(w, http.StatusOK, byGrade)
	}
}

func (s *Server) handleCardHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := s.manager.CardHistory(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, history)
	}
}

func (s *Server) handleReviewCard() http.HandlerFunc {
	type request struct {
		Grade      int        `json:"grade"`
		ReviewTime *time.Time `json:"review_time,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.readJSON(w, r, &req) {
			return
		}
		grade, err := domain.ParseGrade(int64(req.Grade))
		if err != nil {
			s.writeError(w, err)
			return
		}
		card, err := s.manager.ReviewCard(r.Context(), r.PathValue("id"), grade, req.ReviewTime)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDismissCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.manager.DismissCard(r.Context(), r.PathValue("id")); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleCreateSnippet() http.HandlerFunc {
	type request struct {
		Source    string `json:"source"`
		Selection string `json:"selection"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.readJSON(w, r, &req) {
			return
		}
		snippet, err := s.manager.CreateSnippet(r.Context(), req.Source, req.Selection)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, snippet)
	}
}

func (s *Server) handleImportArticle() http.HandlerFunc {
	type request struct {
		Reference string `json:"reference"`
		Priority  int    `json:"priority,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.readJSON(w, r, &req) {
			return
		}
		article, err := s.manager.ImportArticle(r.Context(), req.Reference, req.Priority)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, article)
	}
}

func (s *Server) handleRenameArticle() http.HandlerFunc {
	type request struct {
		Name string `json:"name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		var req request
		if !s.readJSON(w, r, &req) {
			return
		}
		article, err := s.manager.RenameArticle(r.Context(), id, req.Name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, article)
	}
}

func (s *Server) handleReviewText(kind review.Kind) http.HandlerFunc {
	type request struct {
		ReviewTime     *time.Time `json:"review_time,omitempty"`
		NextIntervalMS *int64     `json:"next_interval_ms,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		var req request
		if !s.readJSON(w, r, &req) {
			return
		}
		var interval *time.Duration
		if req.NextIntervalMS != nil {
			d := time.Duration(*req.NextIntervalMS) * time.Millisecond
			interval = &d
		}

		var payload any
		var err error
		if kind == review.KindSnippet {
			payload, err = s.manager.ReviewSnippet(r.Context(), id, req.ReviewTime, interval)
		} else {
			payload, err = s.manager.ReviewArticle(r.Context(), id, req.ReviewTime, interval)
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, payload)
	}
}

func (s *Server) handleReprioritize(kind review.Kind) http.HandlerFunc {
	type request struct {
		Priority int `json:"priority"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		var req request
		if !s.readJSON(w, r, &req) {
			return
		}
		var payload any
		var err error
		if kind == review.KindSnippet {
			payload, err = s.manager.ReprioritizeSnippet(r.Context(), id, req.Priority)
		} else {
			payload, err = s.manager.ReprioritizeArticle(r.Context(), id, req.Priority)
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, payload)
	}
}

func (s *Server) handleDismissText(kind review.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		var err error
		if kind == review.KindSnippet {
			err = s.manager.DismissSnippet(r.Context(), id)
		} else {
			err = s.manager.DismissArticle(r.Context(), id)
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleListSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.sources.List(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) handleAddSource() http.HandlerFunc {
	type request struct {
		Location string `json:"location"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !s.readJSON(w, r, &req) {
			return
		}
		src, err := s.sources.Add(r.Context(), req.Location)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, src)
	}
}

func (s *Server) handleRemoveSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		if err := s.sources.Remove(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := s.sources.SyncAll(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		messages := make([]string, 0, len(report.Errors))
		for _, e := range report.Errors {
			messages = append(messages, e.Error())
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"sources":  report.Sources,
			"imported": report.Imported,
			"skipped":  report.Skipped,
			"errors":   messages,
		})
	}
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.writeError(w, domain.Validationf("id must be an integer, got %q", raw))
		return 0, false
	}
	return id, true
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, domain.Validationf("decoding request body: %s", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("writing response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateImport):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
