package server

import (
	"context"
	"encoding/json"

	"github.com/viant/jsonrpc"
)

type activeContext struct {
	context.Context
	context.CancelFunc
}

type progressTokenKey struct{}

func newActiveContext(ctx context.Context, cancel context.CancelFunc, request *jsonrpc.Request) (*activeContext, context.Context) {
	if token := extractProgressToken(request); token != nil {
		ctx = context.WithValue(ctx, progressTokenKey{}, token)
	}
	return &activeContext{
		Context:    ctx,
		CancelFunc: cancel,
	}, ctx
}

// ProgressToken returns the client-supplied progress token carried in the
// request's _meta, or nil. Tokens may be strings or integers; they are
// echoed back verbatim in progress notifications.
func ProgressToken(ctx context.Context) interface{} {
	return ctx.Value(progressTokenKey{})
}

func extractProgressToken(request *jsonrpc.Request) interface{} {
	meta := parameterMeta(request)
	return meta["progressToken"]
}

func parameterMeta(request *jsonrpc.Request) map[string]interface{} {
	type paramsMeta struct {
		Meta map[string]interface{} `json:"_meta,omitempty"`
	}
	meta := &paramsMeta{}
	if len(request.Params) > 0 {
		if err := json.Unmarshal(request.Params, meta); err == nil {
			return meta.Meta
		}
	}
	return make(map[string]interface{})
}
