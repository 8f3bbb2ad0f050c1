// Package api exposes the query pipeline over HTTP with JSON bodies.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mlevans/coursepilot/generation"
	"github.com/mlevans/coursepilot/rag"
	"github.com/mlevans/coursepilot/store"
)

// QueryService is the part of the rag system the HTTP layer needs.
type QueryService interface {
	Query(ctx context.Context, text, sessionID string) (rag.Answer, error)
	ClearSession(sessionID string)
	CourseStats() rag.Stats
}

// Server handles HTTP requests against a query service.
type Server struct {
	service QueryService
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewServer builds the HTTP handler. A nil logger discards output.
func NewServer(service QueryService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{service: service, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /api/query", s.handleQuery)
	s.mux.HandleFunc("GET /api/courses", s.handleCourses)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleClearSession)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.logger.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"duration", time.Since(start))
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	answer, err := s.service.Query(r.Context(), req.Query, req.SessionID)
	if err != nil {
		var transport *generation.TransportError
		switch {
		case errors.As(err, &transport):
			s.writeError(w, http.StatusBadGateway, "model provider unavailable")
		case errors.Is(err, store.ErrUnavailable):
			s.writeError(w, http.StatusServiceUnavailable, "content store unavailable")
		default:
			s.writeError(w, http.StatusInternalServerError, "query failed")
		}
		s.logger.Error("query failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleCourses(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.CourseStats())
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "session id required")
		return
	}
	s.service.ClearSession(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
