// Package api provides the HTTP management API for the Hampter Bridge.
//
// It exposes the device directory, command dispatch, and routing matrix
// management to operators and tool-calling clients.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Hampterlab/hampter-bridge/internal/command"
	"github.com/Hampterlab/hampter-bridge/internal/directory"
	"github.com/Hampterlab/hampter-bridge/internal/infrastructure/config"
	"github.com/Hampterlab/hampter-bridge/internal/infrastructure/logging"
	"github.com/Hampterlab/hampter-bridge/internal/routing"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Dispatcher sends a command to a device and waits for its reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, req command.Request) (map[string]any, error)
}

// DeviceDirectory is the directory surface the API reads and manages.
type DeviceDirectory interface {
	Get(id string) (directory.Device, bool)
	List() []directory.Device
	Ports(id string) ([]directory.Port, bool)
	Token(id string) (string, bool)
	SetToken(id, token string)
	Outports() []directory.PortRef
	Inports() []directory.PortRef
}

// RoutingStats exposes the routing engine's counters.
type RoutingStats interface {
	Stats() routing.Stats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Devices    DeviceDirectory
	Dispatcher Dispatcher
	Matrix     *routing.Matrix
	Router     RoutingStats
	Version    string
}

// Server is the HTTP management API server.
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	devices    DeviceDirectory
	dispatcher Dispatcher
	matrix     *routing.Matrix
	router     RoutingStats
	version    string
	server     *http.Server
	started    time.Time
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device directory is required")
	}
	if deps.Matrix == nil {
		return nil, fmt.Errorf("routing matrix is required")
	}
	// Dispatcher and Router are optional; their endpoints fail with 503
	// when absent.

	return &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		devices:    deps.Devices,
		dispatcher: deps.Dispatcher,
		matrix:     deps.Matrix,
		router:     deps.Router,
		version:    deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	s.started = time.Now()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections.
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
