package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/AmartiSamia/deploykit/pkg/orchestrator"
	"github.com/AmartiSamia/deploykit/pkg/params"
)

const name = "deploykitd"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Runner executes deployment pipelines.
type Runner interface {
	Run(ctx context.Context, prm *params.RunParameters) (*orchestrator.Outcome, error)
}

// Server is the deployment API server.
type Server struct {
	config      *Config
	httpServer  *http.Server
	rateLimiter *rate.Limiter
	runner      Runner
	runs        *runStore

	mu    sync.RWMutex
	ready bool

	// baseCtx is the lifetime of in-flight deployment runs; it outlives
	// individual HTTP requests but not the server.
	baseCtx    context.Context
	cancelRuns context.CancelFunc
	wg         sync.WaitGroup
}

// NewServer creates a server around the given pipeline runner. A nil config
// uses DefaultConfig.
func NewServer(config *Config, runner Runner) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:      config,
		rateLimiter: rate.NewLimiter(config.RateLimit, config.RateLimitBurst),
		runner:      runner,
		runs:        newRunStore(),
		baseCtx:     baseCtx,
		cancelRuns:  cancel,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Address, config.Port),
		Handler:      s.setupRoutes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes and middleware.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// System endpoints (no rate limiting)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	// API endpoints with middleware
	mux.HandleFunc("/v1/deployments", s.withMiddleware(s.handleDeployments))
	mux.HandleFunc("/v1/deployments/", s.withMiddleware(s.handleDeployment))

	return mux
}

// SetReady marks the server as ready to serve traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// Start starts the HTTP server and blocks until ctx is canceled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.SetReady(true)
	slog.Info("starting server", "addr", s.httpServer.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown stops accepting requests, then waits for in-flight deployment
// runs within the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down server")
	err := s.httpServer.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		slog.Warn("canceling in-flight deployment runs")
		s.cancelRuns()
		s.wg.Wait()
	}
	s.cancelRuns()

	return err
}

// Run starts the server with signal-driven graceful shutdown.
func Run(config *Config, runner Runner) error {
	slog.Info("starting",
		slog.String("name", name),
		slog.String("version", version),
		slog.String("commit", commit),
		slog.String("date", date))

	server := NewServer(config, runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
