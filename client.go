package fusionbridge

import (
	"context"
	"fmt"

	"github.com/fusionbridge/fusionbridge/client"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/jsonrpc/transport/client/http/sse"
	"github.com/viant/jsonrpc/transport/client/http/streamable"
	"github.com/viant/jsonrpc/transport/client/stdio"
)

// ClientOptions configures an MCP client connection to a running bridge.
type ClientOptions struct {
	Name      string          `yaml:"name,omitempty" json:"name,omitempty"`
	Version   string          `yaml:"version,omitempty" json:"version,omitempty"`
	Transport ClientTransport `yaml:"transport,omitempty" json:"transport,omitempty"`
}

// ClientTransport selects and configures the wire transport.
type ClientTransport struct {
	Type                 string `yaml:"type,omitempty" json:"type,omitempty" short:"t" long:"transport" description:"transport type" choice:"streamable" choice:"sse" choice:"stdio"`
	ClientTransportStdio `yaml:",inline"`
	ClientTransportHTTP  `yaml:",inline"`
}

// ClientTransportStdio configures a child-process stdio transport.
type ClientTransportStdio struct {
	Command   string   `yaml:"command,omitempty" json:"command,omitempty" short:"C" long:"command" description:"bridge command for the stdio transport"`
	Arguments []string `yaml:"arguments,omitempty" json:"arguments,omitempty" short:"A" long:"argument" description:"bridge command arguments"`
}

// ClientTransportHTTP configures the HTTP transports.
type ClientTransportHTTP struct {
	URL string `yaml:"url,omitempty" json:"url,omitempty" short:"u" long:"url" description:"bridge transport URL"`
}

func (c *ClientOptions) Init() {
	if c.Name == "" {
		c.Name = "fusionbridge-client"
		c.Version = "0.1"
	}
	if c.Transport.Type == "" {
		c.Transport.Type = TransportStreamable
	}
}

// NewClient connects to a bridge and performs the initialize handshake.
// Handler options register listeners for keepalive progress frames and log
// messages arriving on the same connection.
func NewClient(ctx context.Context, options *ClientOptions, handlerOptions ...client.HandlerOption) (*client.Client, error) {
	if options == nil {
		options = &ClientOptions{}
	}
	options.Init()
	rpcTransport, err := options.getTransport(ctx, client.NewHandler(handlerOptions...))
	if err != nil {
		return nil, err
	}
	ret := client.New(options.Name, options.Version, rpcTransport)
	if _, err := ret.Initialize(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

// getTransport constructs a JSON-RPC transport from the transport options.
func (c *ClientOptions) getTransport(ctx context.Context, handler *client.Handler) (transport.Transport, error) {
	switch c.Transport.Type {
	case TransportStdio:
		if c.Transport.Command == "" {
			return nil, fmt.Errorf("command is required for stdio transport")
		}
		return stdio.New(c.Transport.Command,
			stdio.WithHandler(handler),
			stdio.WithArguments(c.Transport.Arguments...))
	case TransportSSE:
		URL := c.Transport.URL
		if URL == "" {
			URL = "http://127.0.0.1:8765/sse"
		}
		return sse.New(ctx, URL, sse.WithHandler(handler))
	case TransportStreamable:
		URL := c.Transport.URL
		if URL == "" {
			URL = "http://127.0.0.1:8765/mcp"
		}
		return streamable.New(ctx, URL, streamable.WithHandler(handler))
	default:
		return nil, fmt.Errorf("unknown transport %q", c.Transport.Type)
	}
}
