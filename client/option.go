package client

import (
	"github.com/viant/mcp-protocol/schema"
)

// Option represents a client option
type Option func(c *Client)

// WithCapabilities sets client capabilities
func WithCapabilities(capabilities schema.ClientCapabilities) Option {
	return func(c *Client) {
		c.capabilities = capabilities
	}
}

// WithProtocolVersion overrides the negotiated protocol version
func WithProtocolVersion(version string) Option {
	return func(c *Client) {
		c.protocolVersion = version
	}
}

// HandlerOption configures the notification handler.
type HandlerOption func(h *Handler)

// WithProgressListener registers a listener for progress notifications.
func WithProgressListener(listener ProgressListener) HandlerOption {
	return func(h *Handler) {
		h.progressListener = listener
	}
}

// WithMessageListener registers a listener for server log messages.
func WithMessageListener(listener MessageListener) HandlerOption {
	return func(h *Handler) {
		h.messageListener = listener
	}
}
