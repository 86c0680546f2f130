// Package client implements an MCP client tailored to the bridge surface.
//
// It wraps the protocol types from github.com/viant/mcp-protocol and adds:
//   - Automatic `initialize` handshake followed by the initialized notification.
//   - Pluggable JSON-RPC transports (STDIO, HTTP/SSE, streamable HTTP).
//   - A notification handler that surfaces keepalive progress events and
//     server log messages through listener callbacks.
//
// The package is transport-agnostic; callers supply any implementation that
// satisfies the jsonrpc/transport.Transport interface.
//
// Example:
//
//	handler := client.NewHandler(client.WithProgressListener(func(p *client.Progress) {
//		fmt.Printf("keepalive #%v: %v\n", p.Progress, p.Message)
//	}))
//	transport, _ := streamable.New(ctx, "http://127.0.0.1:8765/mcp", streamable.WithHandler(handler))
//	cli := client.New("inspector", "0.1", transport)
//	if _, err := cli.Initialize(ctx); err != nil {
//		log.Fatal(err)
//	}
//	res, _ := cli.CallTool(ctx, &schema.CallToolRequestParams{Name: "fusion360_document_info"})
package client
