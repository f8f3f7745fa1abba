package api

import (
	"alertflow/internal/application/common/slogger"
	"alertflow/internal/config"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
)

// Server wraps the HTTP server for the status and audit API.
type Server struct {
	httpServer *http.Server
	addr       string

	mu      sync.Mutex
	running bool
}

// NewServer creates an API server from configuration and a router.
func NewServer(cfg config.APIConfig, handler http.Handler) *Server {
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		addr: addr,
	}
}

// Start begins serving in a goroutine. Returns an error if already running.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("API server already running on %s", s.addr)
	}
	s.running = true

	slogger.Info(ctx, "Starting API server", slogger.Fields{"addr": s.addr})

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.ErrorNoCtx("API server failed", slogger.Fields{"error": err.Error()})
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("API server shutdown failed: %w", err)
	}
	slogger.Info(ctx, "API server stopped", nil)
	return nil
}
