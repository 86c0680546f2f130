package server

import (
	"context"
	"encoding/json"

	"github.com/fusionbridge/fusionbridge/bridge"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

type progressParams struct {
	ProgressToken interface{} `json:"progressToken"`
	Progress      float64     `json:"progress"`
	Message       string      `json:"message,omitempty"`
}

// keepalive emits one notifications/progress frame for a running invocation.
// The token is the client-supplied one when present, else the request id;
// progress counts keepalive ticks so each frame is observably newer than the
// last. Keepalives carry no result payload.
func (h *Handler) keepalive(ctx context.Context, invocation *bridge.Invocation, tick int) error {
	token := ProgressToken(ctx)
	if token == nil {
		token = invocation.RequestID
	}
	notification := &jsonrpc.Notification{Method: schema.MethodNotificationProgress}
	params := progressParams{
		ProgressToken: token,
		Progress:      float64(tick),
		Message:       "still running",
	}
	var err error
	notification.Params, err = json.Marshal(params)
	if err != nil {
		return err
	}
	return h.Notify(ctx, notification)
}
