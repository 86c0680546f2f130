// Package server exposes the bridge tool set over MCP transports.
//
// It dispatches the protocol surface (initialize, ping, tools/list,
// tools/call, logging/setLevel plus the cancelled/initialized notifications)
// to the bridge registry and coordinator. Serving modes are HTTP-SSE,
// streamable HTTP and stdio; HTTP requests pass through CORS, Origin
// validation and MCP-Protocol-Version middleware.
//
// Callers typically construct a server via `server.New` and then expose it
// over HTTP or stdio:
//
//	s, _ := server.New(server.WithRegistry(registry), server.WithCoordinator(coordinator))
//	log.Fatal(s.HTTP(ctx, "127.0.0.1:8765").ListenAndServe())
package server
