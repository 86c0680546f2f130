package server

import (
	"context"
	"testing"

	"github.com/fusionbridge/fusionbridge/bridge"
	"github.com/fusionbridge/fusionbridge/client"
	"github.com/stretchr/testify/assert"
	"github.com/viant/mcp-protocol/schema"
)

func TestServerAsClient(t *testing.T) {
	registry := bridge.NewRegistry()
	err := registry.Register(&bridge.Descriptor{
		Name:        "stub_info",
		Description: "Report stub status",
		InputSchema: schema.ToolInputSchema{Type: "object"},
		Duration:    bridge.DurationFast,
		Handler: func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{"status": "ok"}, nil
		},
	})
	assert.NoError(t, err)

	srv, err := New(
		WithRegistry(registry),
		WithCoordinator(bridge.NewCoordinator(bridge.NewSession(0))),
		WithImplementation(schema.Implementation{Name: "TestServer", Version: "1.0"}),
	)
	assert.NoError(t, err)
	assert.NotNil(t, srv)

	// Get a client interface from the server
	ctx := context.Background()
	clientInterface := srv.AsClient(ctx)
	assert.NotNil(t, clientInterface)
	assert.Implements(t, (*client.Interface)(nil), clientInterface)

	// Initialize the client
	result, err := clientInterface.Initialize(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "TestServer", result.ServerInfo.Name)
	assert.Equal(t, "1.0", result.ServerInfo.Version)
	assert.NotNil(t, result.Capabilities.Tools)
	assert.NotNil(t, result.Capabilities.Logging)

	// List tools
	tools, err := clientInterface.ListTools(ctx, nil)
	assert.NoError(t, err)
	assert.NotNil(t, tools)
	assert.GreaterOrEqual(t, len(tools.Tools), 1)

	// Verify the tool we registered
	found := false
	for _, tool := range tools.Tools {
		if tool.Name == "stub_info" {
			found = true
			break
		}
	}
	assert.True(t, found, "Expected to find the 'stub_info' tool")

	// Call it end to end
	res, err := clientInterface.CallTool(ctx, &schema.CallToolRequestParams{
		Name:      "stub_info",
		Arguments: map[string]interface{}{},
	})
	assert.NoError(t, err)
	assert.NotNil(t, res)
	assert.Nil(t, res.IsError)
	assert.Equal(t, 1, len(res.Content))
	assert.Equal(t, "ok", res.StructuredContent["status"])
}

func TestServerRequiresRegistry(t *testing.T) {
	_, err := New(WithCoordinator(bridge.NewCoordinator(bridge.NewSession(0))))
	assert.NotNil(t, err)

	_, err = New(WithRegistry(bridge.NewRegistry()))
	assert.NotNil(t, err)
}
