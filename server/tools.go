package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fusionbridge/fusionbridge/bridge"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

// ListTools handles the tools/list method
func (h *Handler) ListTools(ctx context.Context, request *jsonrpc.Request) (*schema.ListToolsResult, *jsonrpc.Error) {
	listToolsRequest := &schema.ListToolsRequest{Method: request.Method}
	if len(request.Params) > 0 {
		if err := json.Unmarshal(request.Params, &listToolsRequest.Params); err != nil {
			return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse: %v", err), request.Params)
		}
	}
	return &schema.ListToolsResult{Tools: h.registry.Tools()}, nil
}

// CallTool handles the tools/call method. The JSON-RPC response is the
// invocation's single terminal event; keepalive progress notifications flow
// on the side while the handler runs.
func (h *Handler) CallTool(ctx context.Context, request *jsonrpc.Request) (*schema.CallToolResult, *jsonrpc.Error) {
	// Progress tokens ride in _meta and may be strings or integers, so the
	// params are decoded without the typed _meta envelope; the token itself
	// is recovered separately in newActiveContext.
	params := struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments,omitempty"`
	}{}
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse: %v", err), request.Params)
	}
	name := strings.TrimSpace(params.Name)
	descriptor, ok := h.registry.Resolve(name)
	if !ok {
		return nil, schema.NewUnknownTool(name)
	}
	args := params.Arguments

	// A validation fault never touches the host and never enters the session
	if err := bridge.ValidateArguments(&descriptor.InputSchema, args); err != nil {
		return faultResult(bridge.AsFault(err)), nil
	}

	id, _ := jsonrpc.AsRequestIntId(request.Id)
	invocation, err := h.session.Begin(id, name, args, descriptor.Duration)
	if err != nil {
		return nil, jsonrpc.NewInvalidRequest(err.Error(), request.Params)
	}
	_ = h.Logger.Debug(ctx, map[string]interface{}{
		"event": "invocation.started",
		"tool":  name,
		"uid":   invocation.UID,
		"seq":   invocation.Seq,
	})

	outcome := h.coordinator.Run(ctx, invocation, descriptor.Handler, bridge.EmitterFunc(h.keepalive))

	logEntry := map[string]interface{}{
		"event":      "invocation.finished",
		"tool":       name,
		"uid":        invocation.UID,
		"state":      string(outcome.State),
		"keepalives": invocation.Keepalives(),
	}
	if outcome.Fault != nil {
		logEntry["fault"] = string(outcome.Fault.Kind)
		_ = h.Logger.Warning(ctx, logEntry)
	} else {
		_ = h.Logger.Info(ctx, logEntry)
	}
	return toolResult(outcome), nil
}

// toolResult shapes the terminal outcome into a tools/call result: completed
// payloads travel as structured content plus a JSON text rendering, faults as
// an error result carrying the normalized taxonomy entry. Image payloads
// additionally carry an image content element so clients can render them.
func toolResult(outcome *bridge.Outcome) *schema.CallToolResult {
	if outcome.State != bridge.StateCompleted {
		return faultResult(outcome.Fault)
	}
	if image := imageElem(outcome.Payload); image != nil {
		return &schema.CallToolResult{
			Content:           []schema.CallToolResultContentElem{*image},
			StructuredContent: outcome.Payload,
		}
	}
	data, err := json.Marshal(outcome.Payload)
	if err != nil {
		data = []byte("{}")
	}
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{
			schema.TextContent{Text: string(data), Type: "text"},
		},
		StructuredContent: outcome.Payload,
	}
}

// imageElem recognizes inline image payloads (base64 data plus a format) and
// converts them to the protocol's image content shape.
func imageElem(payload map[string]interface{}) *schema.ImageContent {
	data, _ := payload["data_base64"].(string)
	format, _ := payload["format"].(string)
	if data == "" || format == "" {
		return nil
	}
	return &schema.ImageContent{
		Data:     data,
		MimeType: "image/" + format,
		Type:     "image",
	}
}

func faultResult(fault *bridge.Fault) *schema.CallToolResult {
	isError := true
	return &schema.CallToolResult{
		IsError: &isError,
		Content: []schema.CallToolResultContentElem{
			schema.TextContent{Text: fault.Error(), Type: "text"},
		},
		StructuredContent: map[string]interface{}{
			"fault":  string(fault.Kind),
			"detail": fault.Detail,
		},
	}
}
