// Package bridge implements the invocation core of the Fusion 360 bridge:
// the operation registry, the per-invocation session state and the
// long-operation coordinator.
//
// The registry maps a tool name to its input schema, duration class and
// handler. The coordinator runs a resolved handler as a cancellable unit of
// work, emits periodic keepalive events while it executes and guarantees
// exactly one terminal outcome per invocation, bounded by an absolute
// per-invocation ceiling.
//
// The package is transport-agnostic; the server package supplies an Emitter
// that turns keepalive ticks into JSON-RPC progress notifications.
package bridge
