package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
	"github.com/Bobcat00/AltDetector/pkg/altdetect/detector"
	"github.com/Bobcat00/AltDetector/pkg/telemetry/health"
	"github.com/Bobcat00/AltDetector/pkg/telemetry/metrics"
)

// Config holds the admin listener settings.
type Config struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Deps are the components the admin endpoints expose.
type Deps struct {
	Store    altdetect.Store
	Detector *detector.Detector
	Checker  *health.Checker
	Metrics  *metrics.Collector
	Version  string
}

// Server is the admin HTTP server.
type Server struct {
	config     Config
	deps       Deps
	logger     *slog.Logger
	httpServer *http.Server

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// New creates an admin server. Zero timeouts get sane defaults.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	return &Server{
		config: cfg,
		deps:   deps,
		logger: logger.With("component", "admin"),
	}
}

// Start listens on the configured address and blocks until ctx is
// cancelled or the listener fails. Cancellation triggers a graceful
// shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddress, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}
	s.addr = ln.Addr()
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting admin server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully stops the server. Only the first call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		srv := s.httpServer
		s.mu.RUnlock()
		if !running {
			return
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during admin server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("admin server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.routes()
}
