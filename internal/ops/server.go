// Package ops serves the health and session endpoints used by the deployment.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/artisticvicky/mocktest-bot/internal/runner"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Sessions exposes the live runners.
type Sessions interface {
	Snapshot() map[int64]*runner.Runner
}

type Server struct {
	addr     string
	db       Pinger
	sessions Sessions
	logger   *zap.Logger
}

func NewServer(addr string, db Pinger, sessions Sessions, logger *zap.Logger) *Server {
	return &Server{addr: addr, db: db, sessions: sessions, logger: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)
	r.Get("/sessions", s.listSessions)
	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type sessionsResponse struct {
	Total   int                  `json:"total"`
	ByState map[runner.State]int `json:"by_state"`
}

func (s *Server) listSessions(w http.ResponseWriter, _ *http.Request) {
	resp := sessionsResponse{ByState: map[runner.State]int{}}
	for _, r := range s.sessions.Snapshot() {
		resp.Total++
		resp.ByState[r.State()]++
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("encode sessions", zap.Error(err))
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("ops server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
