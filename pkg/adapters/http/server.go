// Package http hosts the shell command surface over HTTP.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/runner"
)

// Shell is the dispatch surface the server hosts. Satisfied by
// lattice.Shell.
type Shell interface {
	NewSession() *domain.Session
	Dispatch(ctx context.Context, sess *domain.Session, input string) *domain.Response
	Nodes() []*domain.Node
}

// Server hosts one shell instance. Sessions are persisted in the store
// between requests; each command request loads, dispatches and saves.
type Server struct {
	shell   Shell
	store   ports.SessionStore
	logger  *slog.Logger
	version string
}

// Config carries the server dependencies.
type Config struct {
	Shell   Shell
	Store   ports.SessionStore
	Logger  *slog.Logger
	Version string

	// Gatherer backs GET /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewHandler creates the HTTP handler for a shell.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		shell:   cfg.Shell,
		store:   cfg.Store,
		logger:  logger,
		version: cfg.Version,
	}

	r := chi.NewRouter()
	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/nodes", s.getNodes)
	r.Post("/sessions", s.createSession)
	r.Get("/sessions", s.listSessions)
	r.Delete("/sessions/{sessionID}", s.deleteSession)
	r.Get("/sessions/{sessionID}", s.getSession)
	r.Post("/sessions/{sessionID}/commands", s.postCommand)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// commandRequest is the body of POST /sessions/{id}/commands.
type commandRequest struct {
	Command string `json:"command"`
}

// commandResponse pairs the shell response with the session snapshot.
type commandResponse struct {
	SessionID string           `json:"session_id"`
	Response  *domain.Response `json:"response"`
	Session   *domain.Session  `json:"session,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.shell.NewSession()
	id := newSessionID()
	if err := s.store.Save(r.Context(), id, sess); err != nil {
		s.logger.Error("session create failed", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	resp := s.shell.Dispatch(r.Context(), sess, "")
	writeJSON(w, http.StatusCreated, commandResponse{
		SessionID: id,
		Response:  resp,
		Session:   sess,
	})
}

func (s *Server) postCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var body commandRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("invalid command body", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	clean, err := runner.SanitizeInput(body.Command)
	if err != nil {
		s.logger.Warn("command rejected", "error", err, "size", len(body.Command))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := s.store.Load(r.Context(), id)
	if err == domain.ErrSessionNotFound {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("session load failed", "session_id", id, "error", err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	resp := s.shell.Dispatch(r.Context(), sess, clean)

	if err := s.store.Save(r.Context(), id, sess); err != nil {
		s.logger.Error("session save failed", "session_id", id, "error", err)
		http.Error(w, "failed to persist session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, commandResponse{SessionID: id, Response: resp})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.store.Load(r.Context(), id)
	if err == domain.ErrSessionNotFound {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("session load failed", "session_id", id, "error", err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("session list failed", "error", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.logger.Error("session delete failed", "session_id", id, "error", err)
		http.Error(w, "failed to delete session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.shell.Nodes())
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lattice-http",
		"version": s.version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func newSessionID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
