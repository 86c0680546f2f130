package fusion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fusionbridge/fusionbridge/bridge"
	"github.com/stretchr/testify/assert"
)

type recordedCall struct {
	Method  string
	Path    string
	Payload map[string]interface{}
}

type addinStub struct {
	server     *httptest.Server
	screenshot []byte
	mux        sync.Mutex
	calls      []recordedCall
}

func (s *addinStub) record(r *http.Request) {
	call := recordedCall{Method: r.Method, Path: r.URL.EscapedPath()}
	if r.Method == http.MethodPost {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &call.Payload)
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	s.calls = append(s.calls, call)
}

func (s *addinStub) Calls() []recordedCall {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]recordedCall(nil), s.calls...)
}

func newAddinStub(t *testing.T) *addinStub {
	var capture bytes.Buffer
	assert.Nil(t, png.Encode(&capture, image.NewRGBA(image.Rect(0, 0, 64, 48))))
	stub := &addinStub{screenshot: capture.Bytes()}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		if r.URL.Path == "/screenshot" {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(stub.screenshot)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "success"}`))
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func newTestCatalog(t *testing.T) (*Catalog, *addinStub) {
	stub := newAddinStub(t)
	client := NewClient(stub.server.URL)
	monitor := NewMonitor(client, time.Minute)
	return NewCatalog(client, monitor), stub
}

func TestCatalogRegister(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	registry := bridge.NewRegistry()
	assert.Nil(t, catalog.Register(registry))
	assert.Equal(t, 18, registry.Size())

	tools := registry.Tools()
	assert.Equal(t, "fusion360_document_info", tools[0].Name)
	assert.Equal(t, "fusion360_restore_version", tools[17].Name)
	for _, tool := range tools {
		assert.NotEmpty(t, *tool.Description, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type, tool.Name)
	}

	info, ok := registry.Resolve("fusion360_document_info")
	assert.True(t, ok)
	assert.Equal(t, bridge.DurationFast, info.Duration)
	script, ok := registry.Resolve("fusion360_run_script")
	assert.True(t, ok)
	assert.Equal(t, bridge.DurationLong, script.Duration)
	assert.Equal(t, []string{"code"}, script.InputSchema.Required)
}

func TestCatalogRoutes(t *testing.T) {
	catalog, stub := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.documentInfo(ctx, nil)
	assert.Nil(t, err)
	_, err = catalog.sketchDetails(ctx, map[string]interface{}{"name": "Sketch 1"})
	assert.Nil(t, err)
	_, err = catalog.runScript(ctx, map[string]interface{}{"code": "result = 1"})
	assert.Nil(t, err)
	_, err = catalog.setVisibility(ctx, map[string]interface{}{"component_name": "Frame", "visible": false})
	assert.Nil(t, err)
	_, err = catalog.restoreVersion(ctx, map[string]interface{}{"version_number": float64(3)})
	assert.Nil(t, err)

	calls := stub.Calls()
	assert.Equal(t, 5, len(calls))
	assert.Equal(t, recordedCall{Method: http.MethodGet, Path: "/document"}, calls[0])
	// Sketch names are URL-escaped into the path
	assert.Equal(t, "/sketches/Sketch%201", calls[1].Path)
	assert.Equal(t, "/run_script", calls[2].Path)
	assert.Equal(t, "result = 1", calls[2].Payload["code"])
	assert.Equal(t, "/visibility", calls[3].Path)
	assert.Equal(t, false, calls[3].Payload["visible"])
	assert.Equal(t, "/version/restore", calls[4].Path)
	assert.Equal(t, float64(3), calls[4].Payload["version_number"])
}

func TestCatalogHealthTool(t *testing.T) {
	// No stub: the health tool must answer from the snapshot without any
	// host round-trip, even when the add-in is down.
	client := NewClient("http://127.0.0.1:1")
	monitor := NewMonitor(client, time.Minute)
	catalog := NewCatalog(client, monitor)

	payload, err := catalog.health(context.Background(), nil)
	assert.Nil(t, err)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "disconnected", payload["fusion"])

	monitor.Observe(&CallResult{Status: StatusOK})
	payload, err = catalog.health(context.Background(), nil)
	assert.Nil(t, err)
	assert.Equal(t, "connected", payload["fusion"])
	assert.NotEmpty(t, payload["checked_at"])
}

func TestCatalogScreenshot(t *testing.T) {
	catalog, stub := newTestCatalog(t)

	payload, err := catalog.screenshot(context.Background(), nil)
	assert.Nil(t, err)
	assert.Equal(t, "png", payload["format"])
	assert.Equal(t, 64, payload["width"])
	assert.Equal(t, 48, payload["height"])
	assert.Equal(t, len(stub.screenshot), payload["size_bytes"])
	data, decodeErr := base64.StdEncoding.DecodeString(payload["data_base64"].(string))
	assert.Nil(t, decodeErr)
	assert.Equal(t, stub.screenshot, data)
}

func TestCatalogScreenshotSaveTo(t *testing.T) {
	catalog, stub := newTestCatalog(t)
	destination := filepath.Join(t.TempDir(), "captures", "shot.png")

	payload, err := catalog.screenshot(context.Background(), map[string]interface{}{"save_to": destination})
	assert.Nil(t, err)
	saved, _ := payload["saved_to"].(string)
	assert.True(t, strings.HasSuffix(saved, "shot.png"))
	// The capture went to disk, so the inline copy is dropped
	_, inline := payload["data_base64"]
	assert.False(t, inline)

	written, readErr := os.ReadFile(destination)
	assert.Nil(t, readErr)
	assert.Equal(t, stub.screenshot, written)
}

func TestCatalogScreenshotHostError(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "No screenshot data"}`))
	}))
	defer stub.Close()
	client := NewClient(stub.URL)
	catalog := NewCatalog(client, NewMonitor(client, time.Minute))

	_, err := catalog.screenshot(context.Background(), nil)
	fault := bridge.AsFault(err)
	assert.Equal(t, bridge.FaultHostError, fault.Kind)
	assert.Equal(t, "No screenshot data", fault.Detail)
}

func TestCatalogCancelledBeforeCall(t *testing.T) {
	catalog, stub := newTestCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := catalog.documentInfo(ctx, nil)
	assert.Equal(t, context.Canceled, err)
	// The choke point stops a cancelled invocation before it reaches the host
	assert.Equal(t, 0, len(stub.Calls()))
}
