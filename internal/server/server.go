// Package server exposes tracking sessions over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/stakeledger/internal/store"
)

// Config configures a Server.
type Config struct {
	Addr     string
	Clock    quartz.Clock
	Debounce store.DebounceConfig
}

// Server serves the session API.
type Server struct {
	addr     string
	logger   *log.Logger
	sessions *Registry
	http     *http.Server
}

// New returns a server backed by st.
func New(st store.Store, logger *log.Logger, cfg Config) *Server {
	s := &Server{
		addr:     cfg.Addr,
		logger:   logger.WithPrefix("server"),
		sessions: NewRegistry(st, logger, cfg.Clock, cfg.Debounce),
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /sessions", s.logged(s.handleCreate))
	mux.HandleFunc("GET /sessions", s.logged(s.handleList))
	mux.HandleFunc("GET /sessions/{id}", s.logged(s.handleGet))
	mux.HandleFunc("PATCH /sessions/{id}", s.logged(s.handleRename))
	mux.HandleFunc("DELETE /sessions/{id}", s.logged(s.handleDelete))
	mux.HandleFunc("GET /sessions/{id}/totals", s.logged(s.handleTotals))

	mux.HandleFunc("POST /sessions/{id}/setup", s.logged(s.handleSetup))
	mux.HandleFunc("PATCH /sessions/{id}/players/{pid}", s.logged(s.handlePlayer))
	mux.HandleFunc("POST /sessions/{id}/calculate", s.logged(s.handleCalculate))
	mux.HandleFunc("POST /sessions/{id}/new-round", s.logged(s.handleNewRound))
	mux.HandleFunc("POST /sessions/{id}/undo", s.logged(s.handleUndo))
	mux.HandleFunc("POST /sessions/{id}/reset", s.logged(s.handleReset))
	mux.HandleFunc("PUT /sessions/{id}/rounds/{rid}", s.logged(s.handleEditRound))
	mux.HandleFunc("DELETE /sessions/{id}/rounds/{rid}", s.logged(s.handleDeleteRound))
	mux.HandleFunc("POST /sessions/{id}/commands", s.logged(s.handleCommand))
	return mux
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Starting HTTP server", "addr", s.addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and saves every session with unsaved
// changes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	herr := s.http.Shutdown(ctx)
	serr := s.sessions.Close(ctx)
	if herr != nil {
		return fmt.Errorf("http shutdown: %w", herr)
	}
	return serr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

// logged wraps a handler with request logging.
func (s *Server) logged(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
