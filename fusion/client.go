package fusion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fusionbridge/fusionbridge/bridge"
)

const (
	// DefaultBaseURL is where the add-in REST server listens.
	DefaultBaseURL = "http://127.0.0.1:3001"
	// DefaultCallTimeout bounds a single REST round-trip.
	DefaultCallTimeout = 300 * time.Second
	// DefaultHealthTimeout bounds a health probe round-trip.
	DefaultHealthTimeout = 5 * time.Second
)

// CallStatus classifies the outcome of one add-in call.
type CallStatus string

const (
	StatusOK              CallStatus = "ok"
	StatusHostUnreachable CallStatus = "host_unreachable"
	StatusHostError       CallStatus = "host_error"
	StatusTimeout         CallStatus = "timeout"
)

// Route identifies one add-in REST operation. Timeout, when set, bounds this
// single round-trip instead of the client default.
type Route struct {
	Method   string
	Endpoint string
	Payload  map[string]interface{}
	Timeout  time.Duration
}

// CallResult is the normalized outcome of one add-in call. Failures never
// surface as Go errors at this layer; they are classified into a status with
// a caller-facing detail. Raw holds a non-JSON response body, such as
// viewport PNG bytes.
type CallResult struct {
	Status  CallStatus
	Payload map[string]interface{}
	Raw     []byte
	Detail  string
}

// OK reports whether the call reached the add-in and succeeded.
func (r *CallResult) OK() bool {
	return r.Status == StatusOK
}

// Fault maps a failed result onto the bridge fault taxonomy.
func (r *CallResult) Fault() *bridge.Fault {
	switch r.Status {
	case StatusOK:
		return nil
	case StatusHostUnreachable:
		return bridge.NewFault(bridge.FaultHostUnreachable, "%s", r.Detail)
	case StatusTimeout:
		return bridge.NewFault(bridge.FaultTimeout, "%s", r.Detail)
	default:
		return bridge.NewFault(bridge.FaultHostError, "%s", r.Detail)
	}
}

// ClientOption configures an add-in client.
type ClientOption func(c *Client)

// WithCallTimeout overrides the default per-call timeout.
func WithCallTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHealthTimeout overrides the health probe timeout.
func WithHealthTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.healthTimeout = timeout
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is the REST client for the Fusion 360 add-in. All failures are
// normalized into CallResult statuses; no retries at this layer.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	timeout       time.Duration
	healthTimeout time.Duration
	observer      func(result *CallResult)
}

// SetObserver registers a sink notified of every call outcome, so host
// reachability piggybacks on regular traffic. Must be set before serving
// starts.
func (c *Client) SetObserver(observer func(result *CallResult)) {
	c.observer = observer
}

// BaseURL returns the add-in endpoint this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call performs one REST round-trip against the add-in. The in-flight
// request is shielded from invocation cancellation so the host is never left
// mid-operation; only the per-call timeout bounds it. Cooperative
// cancellation happens between calls, in the handler layer.
func (c *Client) Call(ctx context.Context, route Route) *CallResult {
	timeout := route.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	request, err := c.newRequest(callCtx, route)
	if err != nil {
		return &CallResult{Status: StatusHostError, Detail: "internal error"}
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return c.observe(&CallResult{Status: StatusTimeout, Detail: fmt.Sprintf("no response from add-in within %s", timeout)})
		}
		return c.observe(&CallResult{Status: StatusHostUnreachable, Detail: "Fusion 360 not running or add-in not loaded"})
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return c.observe(&CallResult{Status: StatusTimeout, Detail: fmt.Sprintf("no response from add-in within %s", timeout)})
		}
		return c.observe(&CallResult{Status: StatusHostError, Detail: "failed to read add-in response"})
	}
	return c.observe(c.normalize(response, body))
}

// Health probes GET /health with the short health timeout. The add-in
// answers it without touching the Fusion API, so the probe is cheap.
func (c *Client) Health(ctx context.Context) *CallResult {
	return c.Call(ctx, Route{Method: http.MethodGet, Endpoint: "/health", Timeout: c.healthTimeout})
}

func (c *Client) newRequest(ctx context.Context, route Route) (*http.Request, error) {
	url := c.baseURL + route.Endpoint
	if route.Method != http.MethodPost {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
	payload := route.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	return request, nil
}

// normalize classifies an HTTP response. An error status with a JSON
// {"error": ...} body surfaces the add-in's own message; otherwise the
// status line and body are preserved verbatim.
func (c *Client) normalize(response *http.Response, body []byte) *CallResult {
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		if message := errorMessage(body); message != "" {
			return &CallResult{Status: StatusHostError, Detail: message}
		}
		return &CallResult{Status: StatusHostError, Detail: fmt.Sprintf("HTTP %d: %s", response.StatusCode, strings.TrimSpace(string(body)))}
	}
	if contentType := response.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
		return &CallResult{Status: StatusOK, Raw: body}
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &CallResult{Status: StatusHostError, Detail: "malformed response from add-in"}
	}
	if message, ok := payload["error"].(string); ok && message != "" {
		return &CallResult{Status: StatusHostError, Payload: payload, Detail: message}
	}
	return &CallResult{Status: StatusOK, Payload: payload}
}

func (c *Client) observe(result *CallResult) *CallResult {
	if c.observer != nil {
		c.observer(result)
	}
	return result
}

func errorMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	message, _ := payload["error"].(string)
	return message
}

// NewClient creates an add-in client for the given base URL.
func NewClient(baseURL string, options ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ret := &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		httpClient:    &http.Client{},
		timeout:       DefaultCallTimeout,
		healthTimeout: DefaultHealthTimeout,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}
