package client

import (
	"context"

	"github.com/viant/mcp-protocol/schema"
)

// Interface defines the client surface of the bridge protocol.
type Interface interface {
	// Initialize performs the initialize handshake
	Initialize(ctx context.Context) (*schema.InitializeResult, error)

	// Ping pings the server
	Ping(ctx context.Context, params *schema.PingRequestParams) (*schema.PingResult, error)

	// ListTools lists tools
	ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error)

	// CallTool calls a tool
	CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error)

	// SetLevel sets the logging level
	SetLevel(ctx context.Context, params *schema.SetLevelRequestParams) (*schema.SetLevelResult, error)
}

// Ensure Client implements Interface
var _ Interface = (*Client)(nil)
