// Package rag wires the content store, tool registry, generator and
// session history into a single query surface.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mlevans/coursepilot/generation"
	"github.com/mlevans/coursepilot/llm"
	"github.com/mlevans/coursepilot/session"
	"github.com/mlevans/coursepilot/store"
	"github.com/mlevans/coursepilot/tools"
)

// Answer is the outcome of one query round trip.
type Answer struct {
	Text      string   `json:"answer"`
	Sources   []string `json:"sources"`
	SessionID string   `json:"session_id"`
}

// Stats summarizes the indexed catalog.
type Stats struct {
	CourseCount  int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System coordinates query handling end to end.
type System struct {
	store     *store.Store
	registry  *tools.Registry
	generator *generation.Generator
	history   *session.History
	logger    *slog.Logger
}

// Config collects the collaborators for a System. Store and Provider
// are required; the rest default sensibly.
type Config struct {
	Store            *store.Store
	Provider         llm.Provider
	ResolveThreshold float64
	MaxHistory       int
	SystemPrompt     string
	Logger           *slog.Logger
}

// New assembles a System, registering the course search and outline
// tools against the store.
func New(cfg Config) (*System, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("rag: store is required")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("rag: provider is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	resolver := store.NewResolver(cfg.Store, cfg.ResolveThreshold)
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewCourseSearch(cfg.Store, resolver)); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.NewCourseOutline(cfg.Store, resolver)); err != nil {
		return nil, err
	}

	generator := generation.New(cfg.Provider, registry)
	if cfg.SystemPrompt != "" {
		generator = generator.WithSystemPrompt(cfg.SystemPrompt)
	}

	return &System{
		store:     cfg.Store,
		registry:  registry,
		generator: generator,
		history:   session.NewHistory(cfg.MaxHistory),
		logger:    logger,
	}, nil
}

// Query answers one user question. A blank sessionID starts a fresh
// session; the (possibly new) session ID is returned so callers can
// continue the conversation. The exchange is recorded only when
// generation succeeds.
func (s *System) Query(ctx context.Context, text, sessionID string) (Answer, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := s.generator.Generate(ctx, text, s.history.Messages(sessionID))
	if err != nil {
		s.logger.Error("query failed", "session_id", sessionID, "error", err)
		return Answer{}, err
	}

	s.history.Append(sessionID, text, result.Answer)
	s.logger.Info("query answered",
		"session_id", sessionID,
		"sources", len(result.Sources))

	return Answer{
		Text:      result.Answer,
		Sources:   result.Sources,
		SessionID: sessionID,
	}, nil
}

// ClearSession drops the stored history for a session.
func (s *System) ClearSession(sessionID string) {
	s.history.Clear(sessionID)
}

// CourseStats reports what the catalog currently holds.
func (s *System) CourseStats() Stats {
	titles := s.store.CourseTitles()
	return Stats{CourseCount: len(titles), CourseTitles: titles}
}
