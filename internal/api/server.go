package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/nolongerevil-bridge/internal/audit"
	"github.com/nerrad567/nolongerevil-bridge/internal/bridge"
	"github.com/nerrad567/nolongerevil-bridge/internal/infrastructure/config"
	"github.com/nerrad567/nolongerevil-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/nolongerevil-bridge/internal/thermostat"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Loop runs a read on the goroutine that owns thermostat state.
type Loop interface {
	Call(ctx context.Context, fn func()) error
}

// HealthChecker is implemented by infrastructure clients (MQTT, database).
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StatsProvider reports bridge message counters.
type StatsProvider interface {
	Stats() bridge.Stats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Loop     Loop
	Router   *thermostat.Router
	Bridge   StatsProvider
	Checks   map[string]HealthChecker
	Gatherer prometheus.Gatherer
	DBStats  DBStatser
	Audit    audit.Repository
	Version  string
}

// Server is the status HTTP server.
//
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	loop      Loop
	router    *thermostat.Router
	bridge    StatsProvider
	checks    map[string]HealthChecker
	gatherer  prometheus.Gatherer
	db        DBStatser
	audit     audit.Repository
	version   string
	startTime time.Time
	server    *http.Server
	listener  net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Loop == nil {
		return nil, fmt.Errorf("thermostat loop is required")
	}
	if deps.Router == nil {
		return nil, fmt.Errorf("thermostat router is required")
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		loop:      deps.Loop,
		router:    deps.Router,
		bridge:    deps.Bridge,
		checks:    deps.Checks,
		gatherer:  gatherer,
		db:        deps.DBStats,
		audit:     deps.Audit,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// Start binds the listener and serves in a background goroutine.
// Binding happens synchronously so a port conflict is returned here.
func (s *Server) Start(_ context.Context) error {
	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	addr := s.server.Addr
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.server = nil
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	s.logger.Info("API server listening", "address", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
