package fusionbridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fusionbridge/fusionbridge/bridge"
	"github.com/fusionbridge/fusionbridge/fusion"
	"github.com/fusionbridge/fusionbridge/server"
	"github.com/viant/afs"
	"github.com/viant/mcp-protocol/schema"
	"gopkg.in/yaml.v3"
)

// DefaultRetention keeps terminal invocations inspectable after their
// terminal event went out.
const DefaultRetention = 30 * time.Second

// Transport names accepted by Config.Transport.
const (
	TransportStreamable = "streamable"
	TransportSSE        = "sse"
	TransportStdio      = "stdio"
)

// Duration is a time.Duration that unmarshals from "300s" style YAML values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// FusionConfig points the bridge at the local add-in REST endpoint.
type FusionConfig struct {
	BaseURL       string   `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	CallTimeout   Duration `yaml:"call_timeout,omitempty" json:"call_timeout,omitempty"`
	HealthTimeout Duration `yaml:"health_timeout,omitempty" json:"health_timeout,omitempty"`
	ProbeInterval Duration `yaml:"probe_interval,omitempty" json:"probe_interval,omitempty"`
}

// CoordinatorConfig tunes the invocation lifecycle clocks.
type CoordinatorConfig struct {
	KeepaliveInterval Duration `yaml:"keepalive_interval,omitempty" json:"keepalive_interval,omitempty"`
	InvocationCeiling Duration `yaml:"invocation_ceiling,omitempty" json:"invocation_ceiling,omitempty"`
	Retention         Duration `yaml:"retention,omitempty" json:"retention,omitempty"`
}

// LogConfig sets the initial minimum level for MCP log notifications.
type LogConfig struct {
	Level string `yaml:"level,omitempty" json:"level,omitempty"`
}

// Config assembles a bridge deployment. The zero value yields a working
// localhost setup: bridge on 127.0.0.1:8765, add-in on 127.0.0.1:3001.
type Config struct {
	Name        string             `yaml:"name,omitempty" json:"name,omitempty"`
	Version     string             `yaml:"version,omitempty" json:"version,omitempty"`
	Addr        string             `yaml:"addr,omitempty" json:"addr,omitempty"`
	Transport   string             `yaml:"transport,omitempty" json:"transport,omitempty"`
	Fusion      *FusionConfig      `yaml:"fusion,omitempty" json:"fusion,omitempty"`
	Coordinator *CoordinatorConfig `yaml:"coordinator,omitempty" json:"coordinator,omitempty"`
	Log         *LogConfig         `yaml:"log,omitempty" json:"log,omitempty"`
	Cors        *server.Cors       `yaml:"cors,omitempty" json:"cors,omitempty"`
}

// Init fills zero fields with defaults.
func (c *Config) Init() {
	if c.Name == "" {
		c.Name = "fusionbridge"
	}
	if c.Version == "" {
		c.Version = "0.1"
	}
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8765"
	}
	if c.Transport == "" {
		c.Transport = TransportStreamable
	}
	if c.Fusion == nil {
		c.Fusion = &FusionConfig{}
	}
	if c.Fusion.BaseURL == "" {
		c.Fusion.BaseURL = fusion.DefaultBaseURL
	}
	if c.Fusion.CallTimeout <= 0 {
		c.Fusion.CallTimeout = Duration(fusion.DefaultCallTimeout)
	}
	if c.Fusion.HealthTimeout <= 0 {
		c.Fusion.HealthTimeout = Duration(fusion.DefaultHealthTimeout)
	}
	if c.Fusion.ProbeInterval <= 0 {
		c.Fusion.ProbeInterval = Duration(fusion.DefaultProbeInterval)
	}
	if c.Coordinator == nil {
		c.Coordinator = &CoordinatorConfig{}
	}
	if c.Coordinator.KeepaliveInterval <= 0 {
		c.Coordinator.KeepaliveInterval = Duration(bridge.DefaultKeepaliveInterval)
	}
	if c.Coordinator.InvocationCeiling <= 0 {
		c.Coordinator.InvocationCeiling = Duration(bridge.DefaultCeiling)
	}
	if c.Coordinator.Retention <= 0 {
		c.Coordinator.Retention = Duration(DefaultRetention)
	}
	if c.Log == nil {
		c.Log = &LogConfig{}
	}
	if c.Log.Level == "" {
		c.Log.Level = string(schema.LoggingLevelInfo)
	}
}

// Validate rejects configurations that cannot serve.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStreamable, TransportSSE, TransportStdio:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if !strings.HasPrefix(c.Fusion.BaseURL, "http://") && !strings.HasPrefix(c.Fusion.BaseURL, "https://") {
		return fmt.Errorf("fusion base_url %q: expected an http(s) URL", c.Fusion.BaseURL)
	}
	if _, err := parseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func parseLogLevel(level string) (schema.LoggingLevel, error) {
	parsed := schema.LoggingLevel(strings.ToLower(strings.TrimSpace(level)))
	switch parsed {
	case schema.LoggingLevelDebug, schema.LoggingLevelInfo, schema.LoggingLevelNotice,
		schema.LoggingLevelWarning, schema.LoggingLevelError, schema.LoggingLevelCritical,
		schema.LoggingLevelAlert, schema.LoggingLevelEmergency:
		return parsed, nil
	}
	return "", fmt.Errorf("unknown log level %q", level)
}

// LoadConfig reads a YAML config from a local path or URL. A missing location
// yields the default config.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	config := &Config{}
	if URL != "" {
		fs := afs.New()
		ok, err := fs.Exists(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("failed to check config %v: %w", URL, err)
		}
		if !ok {
			return nil, fmt.Errorf("config %v does not exist", URL)
		}
		data, err := fs.DownloadWithURL(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
		}
	}
	config.Init()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
