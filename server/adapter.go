package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fusionbridge/fusionbridge/client"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

// Adapter adapts a server Handler to implement the client.Interface, letting
// tests and embedded callers drive the bridge without a transport.
type Adapter struct {
	handler *Handler
}

// Initialize initializes the session
func (a *Adapter) Initialize(ctx context.Context) (*schema.InitializeResult, error) {
	params := &schema.InitializeRequestParams{}
	req, err := jsonrpc.NewRequest(schema.MethodInitialize, params)
	if err != nil {
		return nil, err
	}

	response := &jsonrpc.Response{}
	a.handler.Serve(ctx, req, response)

	if response.Error != nil {
		return nil, response.Error
	}

	var result schema.InitializeResult
	err = json.Unmarshal(response.Result, &result)
	if err != nil {
		return nil, err
	}

	// Send Initialized notification
	a.handler.OnNotification(ctx, &jsonrpc.Notification{Method: schema.MethodNotificationInitialized})

	return &result, nil
}

// Ping pings the server
func (a *Adapter) Ping(ctx context.Context, params *schema.PingRequestParams) (*schema.PingResult, error) {
	req, err := jsonrpc.NewRequest(schema.MethodPing, params)
	if err != nil {
		return nil, err
	}

	response := &jsonrpc.Response{}
	a.handler.Serve(ctx, req, response)

	if response.Error != nil {
		return nil, response.Error
	}

	var result schema.PingResult
	err = json.Unmarshal(response.Result, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ListTools lists tools
func (a *Adapter) ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error) {
	params := &schema.ListToolsRequestParams{Cursor: cursor}
	req, err := jsonrpc.NewRequest(schema.MethodToolsList, params)
	if err != nil {
		return nil, err
	}

	response := &jsonrpc.Response{}
	a.handler.Serve(ctx, req, response)

	if response.Error != nil {
		return nil, response.Error
	}

	var result schema.ListToolsResult
	err = json.Unmarshal(response.Result, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// CallTool calls a tool
func (a *Adapter) CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error) {
	req, err := jsonrpc.NewRequest(schema.MethodToolsCall, params)
	if err != nil {
		return nil, err
	}

	response := &jsonrpc.Response{}
	a.handler.Serve(ctx, req, response)

	if response.Error != nil {
		return nil, response.Error
	}

	var result schema.CallToolResult
	err = json.Unmarshal(response.Result, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// SetLevel sets the logging level
func (a *Adapter) SetLevel(ctx context.Context, params *schema.SetLevelRequestParams) (*schema.SetLevelResult, error) {
	req, err := jsonrpc.NewRequest(schema.MethodLoggingSetLevel, params)
	if err != nil {
		return nil, err
	}

	response := &jsonrpc.Response{}
	a.handler.Serve(ctx, req, response)

	if response.Error != nil {
		return nil, response.Error
	}

	var result schema.SetLevelResult
	err = json.Unmarshal(response.Result, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// NewAdapter creates a new adapter for the given handler
func NewAdapter(handler *Handler) *Adapter {
	return &Adapter{handler: handler}
}

// AsClient returns an in-process client bound to a fresh handler. Outbound
// notifications are discarded; embed a real transport to observe keepalives.
func (s *Server) AsClient(ctx context.Context) client.Interface {
	return NewAdapter(s.newHandler(ctx, &noopTransport{}))
}

type noopTransport struct{}

func (t *noopTransport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	return nil, fmt.Errorf("in-process transport does not accept requests")
}

func (t *noopTransport) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	return nil
}

// Ensure Adapter implements client.Interface
var _ client.Interface = (*Adapter)(nil)
