package fusion

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/fusionbridge/fusionbridge/bridge"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	afsurl "github.com/viant/afs/url"
	"github.com/viant/mcp-protocol/schema"
)

// Catalog binds the add-in REST operations to bridge tool descriptors.
type Catalog struct {
	client  *Client
	monitor *Monitor
	fs      afs.Service
}

// Register adds every catalog tool to the registry. Errors here are
// configuration errors and abort assembly.
func (c *Catalog) Register(registry *bridge.Registry) error {
	for _, descriptor := range c.descriptors() {
		if err := registry.Register(descriptor); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) descriptors() []*bridge.Descriptor {
	return []*bridge.Descriptor{
		{
			Name:        "fusion360_document_info",
			Description: "Get information about the currently open Fusion 360 document",
			InputSchema: schema.ToolInputSchema{Type: "object"},
			Duration:    bridge.DurationFast,
			Handler:     c.documentInfo,
		},
		{
			Name:        "fusion360_components",
			Description: "Get the component tree of the current design",
			InputSchema: schema.ToolInputSchema{Type: "object"},
			Duration:    bridge.DurationFast,
			Handler:     c.components,
		},
		{
			Name:        "fusion360_sketches",
			Description: "List all sketches in the current design",
			InputSchema: schema.ToolInputSchema{Type: "object"},
			Duration:    bridge.DurationFast,
			Handler:     c.sketches,
		},
		{
			Name:        "fusion360_sketch_details",
			Description: "Get detailed information about a specific sketch",
			InputSchema: schema.ToolInputSchema{
				Type: "object",
				Properties: schema.ToolInputSchemaProperties{
					"name": {"type": "string", "description": "Name of the sketch"},
				},
				Required: []string{"name"},
			},
			Duration: bridge.DurationFast,
			Handler:  c.sketchDetails,
		},
		{
			Name:        "fusion360_bodies",
			Description: "List all bodies in the current design",
			InputSchema: schema.ToolInputSchema{Type: "object"},
			Duration:    bridge.DurationFast,
			Handler:     c.bodies,
		},
		{
			Name:        "fusion360_body_details",
			Description: "Get detailed information about a specific body",
			InputSchema: schema.ToolInputSchema{
				Type: "object",
				Properties: schema.ToolInputSchemaProperties{
					"name": {"type": "string", "description": "Name of the body"},
				},
				Required: []string{"name"},
			},
			Duration: bridge.DurationFast,
			Handler:  c.bodyDetails,
		},
		{
			Name:        "fusion360_parameters",
			Description: "Get all user parameters in the current design",
			InputSchema: schema.ToolInputSchema{Type: "object"},
			Duration:    bridge.DurationFast,
			Handler:     c.parameters,
		},
		{
			Name:        "fusion360_screenshot",
			Description: "Take a screenshot of the current Fusion 360 viewport",
			InputSchema: schema.ToolInputSchema{
				Type: "object",
				Properties: schema.ToolInputSchemaProperties{
					"save_to": {"type": "string", "description": "Optional file path or URL to save the PNG to"},
				},
			},
			Duration: bridge.DurationLong,
			Handler:  c.screenshot,
		},
		{
			Name:        "fusion360_health",
			Description: "Check if Fusion 360 and the MCP add-in are running",
			InputSchema: schema.ToolInputSchema{Type: "object"},
			Duration:    bridge.DurationFast,
			Handler:     c.health,
		},
		{
			Name: "fusion360_run_script",
			Description: "Execute Python code directly in Fusion 360 context. " +
				"The code has access to: adsk (Fusion API module), app (Application), " +
				"design (active Design), ui (UserInterface). Set 'result' variable to return data.",
			InputSchema: schema.ToolInputSchema{
				Type: "object",
				Properties: schema.ToolInputSchemaProperties{
					"code": {"type": "string", "description": "Python code to execute"},
				},
				Required: []string{"code"},
			},
			Duration: bridge.DurationLong,
			Handler:  c.runScript,
		},
		{
			Name:        "fusion360_create_sketch",
			Description: "Create a new sketch on a construction plane",
			InputSchema: schema.ToolInputSchema{
				Type: "object",
				Properties: schema.ToolInputSchemaProperties{
					"component_name": {"type": "string", "description": "Name of the component to create sketch in"},
					"plane":          {"type": "string", "description": `Plane to create sketch on: "XY", "XZ", or "YZ"`},
				},
				Required: []string{"component_name", "plane"},
			},
			Duration: bridge.DurationLong,
			Handler:  c.createSketch,
		},
		{
			Name:        "fusion360_draw_circle",
			Description: "Draw a circle in an existing sketch",
			InputSchema: schema.ToolInputSchema{
				Type: "object",
				Properties: schema.ToolInputSchemaProperties{
					"sketch_name": {"type": "string", "description": "Name of the sketch"},
					"center_x":    {"type": "number", "description": "X coordinate of circle center"},
					"center_y":    {"type": "number", "description": "Y coordinate of circle center"},
					"radius":      {"type": "number", "description": "Radius of the circle"},
				},
				Required: []string{"sketch_name", "center_x", "center_y", "radius"},
			},
			Duration: bridge.DurationLong,
			Handler:  c.drawCircle,
		},
		{
			Name:        "fusion360_extrude",
			Description: "Extrude a sketch profile to create 3D geometry",
			InputSchema: schema.ToolInputSchema{
				Type: "object",
				Properties: schema.ToolInputSchemaProperties{
					"sketch_name":   {"type": "string", "description": "Name of the sketch"},
					"profile_index": {"type": "number", "description": "Index of the profile to extrude"},
					"distance":      {"type": "number", "description": "Extrusion distance"},
					"operation":     {"type": "string", "description": `Operation type: "new", "join", or "cut"`},
				},
				Required: []string{"sketch_name", "profile_index", "distance", "operation"},
			},
			Duration: bridge.DurationLong,
			Handler:  c.extrude,
		},
		{
			Name:        "fusion360_draw_rectangle",
			Description: "Draw a rectangle in an existing sketch",
			InputSchema: schema.ToolInputSchema{
				Type: "object",
				Properties: schema.ToolInputSchemaProperties{
					"sketch_name": {"type": "string", "description": "Name of the sketch"},
					"x1":          {"type": "number", "description": "X coordinate of first corner"},
					"y1":          {"type": "number", "description": "Y coordinate of first corner"},
					"x2":          {"type": "number", "description": "X coordinate of opposite corner"},
					"y2":          {"type": "number", "description": "Y coordinate of opposite corner"},
				},
				Required: []string{"sketch_name", "x1", "y1", "x2", "y2"},
			},
			Duration: bridge.DurationLong,
			Handler:  c.drawRectangle,
		},
		{
			Name:        "fusion360_activate_component",
			Description: "Activate a component for editing",
			InputSchema: schema.ToolInputSchema{
				Type: "object",
				Properties: schema.ToolInputSchemaProperties{
					"name": {"type": "string", "description": "Name of the component to activate"},
				},
				Required: []string{"name"},
			},
			Duration: bridge.DurationLong,
			Handler:  c.activateComponent,
		},
		{
			Name:        "fusion360_set_visibility",
			Description: "Show or hide a component",
			InputSchema: schema.ToolInputSchema{
				Type: "object",
				Properties: schema.ToolInputSchemaProperties{
					"component_name": {"type": "string", "description": "Name of the component"},
					"visible":        {"type": "boolean", "description": "True to show, False to hide"},
				},
				Required: []string{"component_name", "visible"},
			},
			Duration: bridge.DurationLong,
			Handler:  c.setVisibility,
		},
		{
			Name: "fusion360_list_versions",
			Description: "List all saved versions of the current document. " +
				"Only works for cloud-saved documents.",
			InputSchema: schema.ToolInputSchema{Type: "object"},
			Duration:    bridge.DurationLong,
			Handler:     c.listVersions,
		},
		{
			Name:        "fusion360_restore_version",
			Description: "Open a specific version of the document in a new tab. Save to make it current.",
			InputSchema: schema.ToolInputSchema{
				Type: "object",
				Properties: schema.ToolInputSchemaProperties{
					"version_number": {"type": "integer", "description": "Version number to restore (1-based)"},
				},
				Required: []string{"version_number"},
			},
			Duration: bridge.DurationLong,
			Handler:  c.restoreVersion,
		},
	}
}

// call is the single choke point for host round-trips: cancellation is
// observed here, before a call starts, never mid-call.
func (c *Catalog) call(ctx context.Context, route Route) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := c.client.Call(ctx, route)
	if !result.OK() {
		return nil, result.Fault()
	}
	return result.Payload, nil
}

func (c *Catalog) documentInfo(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodGet, Endpoint: "/document"})
}

func (c *Catalog) components(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodGet, Endpoint: "/components"})
}

func (c *Catalog) sketches(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodGet, Endpoint: "/sketches"})
}

func (c *Catalog) sketchDetails(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	name, _ := args["name"].(string)
	return c.call(ctx, Route{Method: http.MethodGet, Endpoint: "/sketches/" + url.PathEscape(name)})
}

func (c *Catalog) bodies(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodGet, Endpoint: "/bodies"})
}

func (c *Catalog) bodyDetails(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	name, _ := args["name"].(string)
	return c.call(ctx, Route{Method: http.MethodGet, Endpoint: "/bodies/" + url.PathEscape(name)})
}

func (c *Catalog) parameters(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodGet, Endpoint: "/parameters"})
}

// health answers from the monitor snapshot in constant time; a down host
// must never make the health tool block on a live probe.
func (c *Catalog) health(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	status := c.monitor.Status()
	payload := map[string]interface{}{
		"status": "ok",
		"fusion": status.Fusion,
	}
	if !status.CheckedAt.IsZero() {
		payload["checked_at"] = status.CheckedAt.Format(time.RFC3339)
	}
	if status.Detail != "" {
		payload["detail"] = status.Detail
	}
	return payload, nil
}

func (c *Catalog) screenshot(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := c.client.Call(ctx, Route{Method: http.MethodGet, Endpoint: "/screenshot"})
	if !result.OK() {
		return nil, result.Fault()
	}
	if len(result.Raw) == 0 {
		return nil, bridge.NewFault(bridge.FaultHostError, "No screenshot data")
	}
	payload := map[string]interface{}{
		"format":      "png",
		"size_bytes":  len(result.Raw),
		"data_base64": base64.StdEncoding.EncodeToString(result.Raw),
	}
	// Dimensions live only in the PNG header; the add-in does not report them
	if header, err := png.DecodeConfig(bytes.NewReader(result.Raw)); err == nil {
		payload["width"] = header.Width
		payload["height"] = header.Height
	}
	if destination, _ := args["save_to"].(string); destination != "" {
		saved, err := c.save(ctx, destination, result.Raw)
		if err != nil {
			return nil, bridge.NewFault(bridge.FaultHostError, "failed to save screenshot to %s", destination)
		}
		payload["saved_to"] = saved
		delete(payload, "data_base64")
	}
	return payload, nil
}

func (c *Catalog) save(ctx context.Context, destination string, data []byte) (string, error) {
	if !strings.Contains(destination, "://") && filepath.IsAbs(destination) {
		destination = "file://" + destination
	}
	if parent, _ := afsurl.Split(destination, file.Scheme); strings.TrimSpace(parent) != "" {
		exists, err := c.fs.Exists(ctx, parent)
		if err != nil {
			return "", err
		}
		if !exists {
			if err := c.fs.Create(ctx, parent, file.DefaultDirOsMode, true); err != nil {
				return "", err
			}
		}
	}
	if err := c.fs.Upload(ctx, destination, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return destination, nil
}

func (c *Catalog) runScript(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodPost, Endpoint: "/run_script", Payload: map[string]interface{}{
		"code": args["code"],
	}})
}

func (c *Catalog) createSketch(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodPost, Endpoint: "/sketch/create", Payload: map[string]interface{}{
		"component_name": args["component_name"],
		"plane":          args["plane"],
	}})
}

func (c *Catalog) drawCircle(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodPost, Endpoint: "/sketch/circle", Payload: map[string]interface{}{
		"sketch_name": args["sketch_name"],
		"center_x":    args["center_x"],
		"center_y":    args["center_y"],
		"radius":      args["radius"],
	}})
}

func (c *Catalog) extrude(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodPost, Endpoint: "/extrude", Payload: map[string]interface{}{
		"sketch_name":   args["sketch_name"],
		"profile_index": args["profile_index"],
		"distance":      args["distance"],
		"operation":     args["operation"],
	}})
}

func (c *Catalog) drawRectangle(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodPost, Endpoint: "/sketch/rectangle", Payload: map[string]interface{}{
		"sketch_name": args["sketch_name"],
		"x1":          args["x1"],
		"y1":          args["y1"],
		"x2":          args["x2"],
		"y2":          args["y2"],
	}})
}

func (c *Catalog) activateComponent(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodPost, Endpoint: "/component/activate", Payload: map[string]interface{}{
		"name": args["name"],
	}})
}

func (c *Catalog) setVisibility(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodPost, Endpoint: "/visibility", Payload: map[string]interface{}{
		"component_name": args["component_name"],
		"visible":        args["visible"],
	}})
}

func (c *Catalog) listVersions(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodGet, Endpoint: "/versions"})
}

func (c *Catalog) restoreVersion(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return c.call(ctx, Route{Method: http.MethodPost, Endpoint: "/version/restore", Payload: map[string]interface{}{
		"version_number": args["version_number"],
	}})
}

// NewCatalog creates the tool catalog over the given client and monitor.
func NewCatalog(client *Client, monitor *Monitor) *Catalog {
	return &Catalog{
		client:  client,
		monitor: monitor,
		fs:      afs.New(),
	}
}
