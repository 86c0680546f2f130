package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

// Progress is a progress notification payload. The bridge emits one every
// keepalive interval while a long-running tool executes.
type Progress struct {
	ProgressToken interface{} `json:"progressToken"`
	Progress      float64     `json:"progress"`
	Total         *float64    `json:"total,omitempty"`
	Message       string      `json:"message,omitempty"`
}

// ProgressListener receives progress notifications.
type ProgressListener func(progress *Progress)

// MessageListener receives server log messages.
type MessageListener func(message *schema.LoggingMessageNotificationParams)

// Handler answers server to client traffic. The bridge server only sends
// notifications, so every incoming request is answered with method not found.
type Handler struct {
	progressListener ProgressListener
	messageListener  MessageListener
}

func (h *Handler) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = request.Jsonrpc
	response.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method %s not found", request.Method), nil)
}

// OnNotification dispatches progress and log notifications to the listeners.
func (h *Handler) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	switch notification.Method {
	case schema.MethodNotificationProgress:
		if h.progressListener == nil {
			return
		}
		progress := &Progress{}
		if err := json.Unmarshal(notification.Params, progress); err != nil {
			return
		}
		h.progressListener(progress)
	case schema.MethodNotificationMessage:
		if h.messageListener == nil {
			return
		}
		message := &schema.LoggingMessageNotificationParams{}
		if err := json.Unmarshal(notification.Params, message); err != nil {
			return
		}
		h.messageListener(message)
	}
}

// NewHandler creates a notification handler with the given listeners.
func NewHandler(options ...HandlerOption) *Handler {
	ret := &Handler{}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
