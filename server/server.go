package server

import (
	"context"
	"errors"

	"github.com/fusionbridge/fusionbridge/bridge"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcp-protocol/syncmap"
)

// HealthSource reports whether the Fusion 360 host is reachable, with a
// detail message when it is not. It must answer without blocking.
type HealthSource func() (connected bool, detail string)

// Server hosts the bridge over MCP transports. Every connection gets its own
// Handler; the registry, coordinator and invocation session are shared
// process-wide so request ids and sequence numbers stay globally consistent.
type Server struct {
	activeContexts  *syncmap.Map[int, *activeContext]
	info            schema.Implementation
	instructions    *string
	protocolVersion string
	loggerName      string
	loggingLevel    schema.LoggingLevel

	registry     *bridge.Registry
	coordinator  *bridge.Coordinator
	session      *bridge.Session
	healthSource HealthSource

	httpServer
	stdioServer
}

func (s *Server) cancelOperation(id int) {
	if active, ok := s.activeContexts.Get(id); ok {
		active.CancelFunc()
		s.activeContexts.Delete(id)
	}
}

// NewHandler creates a new handler instance
func (s *Server) NewHandler(ctx context.Context, transport transport.Transport) transport.Handler {
	return s.newHandler(ctx, transport)
}

func (s *Server) newHandler(ctx context.Context, transport transport.Transport) *Handler {
	ret := &Handler{
		Server:       s,
		Notifier:     transport,
		loggingLevel: s.loggingLevel,
	}
	ret.Logger = NewLogger(s.loggerName, &ret.loggingLevel, transport)
	return ret
}

// New creates a new Server instance
func New(options ...Option) (*Server, error) {
	s := &Server{
		info: schema.Implementation{
			Name:    "fusionbridge",
			Version: "0.1",
		},
		loggerName:      "fusionbridge",
		loggingLevel:    schema.LoggingLevelInfo,
		protocolVersion: schema.LatestProtocolVersion,
		activeContexts:  syncmap.NewMap[int, *activeContext](),
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	if s.registry == nil {
		return nil, errors.New("no registry specified")
	}
	if s.coordinator == nil {
		return nil, errors.New("no coordinator specified")
	}
	s.session = s.coordinator.Session()
	return s, nil
}
