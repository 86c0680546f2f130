// Package fusionbridge exposes Fusion 360 CAD operations as remotely
// callable MCP tools.
//
// The bridge terminates MCP (JSON-RPC over streamable HTTP, SSE or stdio) on
// one side and talks to the Fusion 360 add-in's local REST endpoint on the
// other. Its centerpiece is the invocation coordinator: long-running CAD
// operations emit keepalive progress notifications on a fixed interval so
// clients never time out waiting, every invocation produces exactly one
// terminal event, and cancellation is cooperative so an in-flight add-in
// call is never interrupted midway.
//
// Example:
//
//	config, err := fusionbridge.LoadConfig(ctx, "config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	service, err := fusionbridge.New(ctx, config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer service.Close()
//	log.Fatal(service.HTTP(ctx, "").ListenAndServe())
package fusionbridge
