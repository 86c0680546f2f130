package server

import (
	"net/http"

	"github.com/fusionbridge/fusionbridge/bridge"
	"github.com/viant/jsonrpc/transport/server/stdio"
	"github.com/viant/mcp-protocol/schema"
)

// Option is a function that configures the server.
type Option func(s *Server) error

// WithRegistry sets the tool registry the server dispatches to.
func WithRegistry(registry *bridge.Registry) Option {
	return func(s *Server) error {
		s.registry = registry
		return nil
	}
}

// WithCoordinator sets the invocation coordinator.
func WithCoordinator(coordinator *bridge.Coordinator) Option {
	return func(s *Server) error {
		s.coordinator = coordinator
		return nil
	}
}

// WithHealthSource sets the host reachability source backing /health.
func WithHealthSource(source HealthSource) Option {
	return func(s *Server) error {
		s.healthSource = source
		return nil
	}
}

// WithImplementation sets the server implementation.
func WithImplementation(implementation schema.Implementation) Option {
	return func(s *Server) error {
		s.info = implementation
		return nil
	}
}

// WithInstructions sets the instructions returned from initialize.
func WithInstructions(instructions string) Option {
	return func(s *Server) error {
		s.instructions = &instructions
		return nil
	}
}

// WithLoggerName sets the logger name.
func WithLoggerName(name string) Option {
	return func(s *Server) error {
		s.loggerName = name
		return nil
	}
}

// WithLoggingLevel sets the initial minimum level for log notifications;
// clients adjust it per connection via logging/setLevel.
func WithLoggingLevel(level schema.LoggingLevel) Option {
	return func(s *Server) error {
		s.loggingLevel = level
		return nil
	}
}

// WithProtocolVersion overrides the announced protocol version.
func WithProtocolVersion(version string) Option {
	return func(s *Server) error {
		s.protocolVersion = version
		return nil
	}
}

// WithCORS adds a new CORS handler to the server.
func WithCORS(cors *Cors) Option {
	return func(s *Server) error {
		handler := &corsHandler{Cors: cors}
		s.corsConfig = cors
		s.corsHandler = handler.Middleware
		return nil
	}
}

// WithAddr sets the default HTTP listen address.
func WithAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithCustomHTTPHandler mounts an extra HTTP handler at the given path.
func WithCustomHTTPHandler(path string, handler http.HandlerFunc) Option {
	return func(s *Server) error {
		if s.customHTTPHandlers == nil {
			s.customHTTPHandlers = make(map[string]http.HandlerFunc)
		}
		s.customHTTPHandlers[path] = handler
		return nil
	}
}

// WithRootRedirect redirects / to the active transport base URI.
func WithRootRedirect() Option {
	return func(s *Server) error {
		s.rootRedirect = true
		return nil
	}
}

// WithStdioOptions passes options through to the stdio transport.
func WithStdioOptions(options ...stdio.Option) Option {
	return func(s *Server) error {
		s.stdioServerOption = append(s.stdioServerOption, options...)
		return nil
	}
}
