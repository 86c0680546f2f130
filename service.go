package fusionbridge

import (
	"context"
	"net/http"
	"time"

	"github.com/fusionbridge/fusionbridge/bridge"
	"github.com/fusionbridge/fusionbridge/fusion"
	"github.com/fusionbridge/fusionbridge/server"
	"github.com/viant/jsonrpc/transport/server/stdio"
	"github.com/viant/mcp-protocol/schema"
)

// Service assembles the bridge: REST client, host monitor, tool catalog,
// invocation session, coordinator and MCP server.
type Service struct {
	config      *Config
	client      *fusion.Client
	monitor     *fusion.Monitor
	registry    *bridge.Registry
	session     *bridge.Session
	coordinator *bridge.Coordinator
	server      *server.Server
}

// New builds a service from the config and starts the host monitor. Extra
// server options are applied after the config-derived ones.
func New(ctx context.Context, config *Config, options ...server.Option) (*Service, error) {
	if config == nil {
		config = &Config{}
	}
	config.Init()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	level, err := parseLogLevel(config.Log.Level)
	if err != nil {
		return nil, err
	}

	client := fusion.NewClient(config.Fusion.BaseURL,
		fusion.WithCallTimeout(time.Duration(config.Fusion.CallTimeout)),
		fusion.WithHealthTimeout(time.Duration(config.Fusion.HealthTimeout)),
	)
	monitor := fusion.NewMonitor(client, time.Duration(config.Fusion.ProbeInterval))
	// Every regular call outcome refreshes the host snapshot
	client.SetObserver(monitor.Observe)

	registry := bridge.NewRegistry()
	if err := fusion.NewCatalog(client, monitor).Register(registry); err != nil {
		return nil, err
	}

	session := bridge.NewSession(time.Duration(config.Coordinator.Retention))
	coordinator := bridge.NewCoordinator(session,
		bridge.WithKeepaliveInterval(time.Duration(config.Coordinator.KeepaliveInterval)),
		bridge.WithCeiling(time.Duration(config.Coordinator.InvocationCeiling)),
	)

	serverOptions := []server.Option{
		server.WithRegistry(registry),
		server.WithCoordinator(coordinator),
		server.WithHealthSource(func() (bool, string) {
			status := monitor.Status()
			return status.Reachable, status.Detail
		}),
		server.WithImplementation(schema.Implementation{Name: config.Name, Version: config.Version}),
		server.WithLoggerName(config.Name),
		server.WithLoggingLevel(level),
		server.WithAddr(config.Addr),
	}
	if config.Cors != nil {
		serverOptions = append(serverOptions, server.WithCORS(config.Cors))
	}
	serverOptions = append(serverOptions, options...)

	srv, err := server.New(serverOptions...)
	if err != nil {
		return nil, err
	}
	if config.Transport == TransportStreamable {
		srv.UseStreamableHTTP(true)
	}

	monitor.Start(ctx)
	return &Service{
		config:      config,
		client:      client,
		monitor:     monitor,
		registry:    registry,
		session:     session,
		coordinator: coordinator,
		server:      srv,
	}, nil
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Registry returns the tool registry.
func (s *Service) Registry() *bridge.Registry {
	return s.registry
}

// Session returns the invocation session table.
func (s *Service) Session() *bridge.Session {
	return s.session
}

// Monitor returns the host-status monitor.
func (s *Service) Monitor() *fusion.Monitor {
	return s.monitor
}

// Server returns the underlying MCP server.
func (s *Service) Server() *server.Server {
	return s.server
}

// HTTP returns an HTTP server exposing the MCP transports and /health.
func (s *Service) HTTP(ctx context.Context, addr string) *http.Server {
	return s.server.HTTP(ctx, addr)
}

// Stdio returns a stdio transport serving the bridge on stdin/stdout.
func (s *Service) Stdio(ctx context.Context) *stdio.Server {
	return s.server.Stdio(ctx)
}

// Close stops the host monitor and clears the invocation table.
func (s *Service) Close() error {
	s.monitor.Close()
	s.session.Close()
	return nil
}
