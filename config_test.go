package fusionbridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fusionbridge/fusionbridge/fusion"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestLoadConfig(t *testing.T) {
	location := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(location, []byte(`
name: bridge-test
addr: 127.0.0.1:9911
transport: sse
fusion:
  base_url: http://127.0.0.1:3201
  call_timeout: 45s
coordinator:
  keepalive_interval: 12s
log:
  level: debug
`), 0o644)
	assert.Nil(t, err)

	config, err := LoadConfig(context.Background(), location)
	assert.Nil(t, err)
	assert.Equal(t, "bridge-test", config.Name)
	assert.Equal(t, "127.0.0.1:9911", config.Addr)
	assert.Equal(t, TransportSSE, config.Transport)
	assert.Equal(t, "http://127.0.0.1:3201", config.Fusion.BaseURL)
	assert.Equal(t, 45*time.Second, time.Duration(config.Fusion.CallTimeout))
	assert.Equal(t, 12*time.Second, time.Duration(config.Coordinator.KeepaliveInterval))
	assert.Equal(t, "debug", config.Log.Level)

	// Unset values fall back to defaults
	assert.Equal(t, 5*time.Second, time.Duration(config.Fusion.HealthTimeout))
	assert.Equal(t, 10*time.Minute, time.Duration(config.Coordinator.InvocationCeiling))
	assert.Equal(t, 30*time.Second, time.Duration(config.Coordinator.Retention))
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(context.Background(), "")
	assert.Nil(t, err)
	assert.Equal(t, "fusionbridge", config.Name)
	assert.Equal(t, "127.0.0.1:8765", config.Addr)
	assert.Equal(t, TransportStreamable, config.Transport)
	assert.Equal(t, "http://127.0.0.1:3001", config.Fusion.BaseURL)
	assert.Equal(t, 300*time.Second, time.Duration(config.Fusion.CallTimeout))
	assert.Equal(t, 10*time.Second, time.Duration(config.Coordinator.KeepaliveInterval))
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NotNil(t, err)
}

func TestConfigValidate(t *testing.T) {
	config := &Config{}
	config.Init()
	assert.Nil(t, config.Validate())

	config.Transport = "websocket"
	assert.NotNil(t, config.Validate())
	config.Transport = TransportStreamable

	config.Fusion.BaseURL = "127.0.0.1:3001"
	assert.NotNil(t, config.Validate())
	config.Fusion.BaseURL = fusion.DefaultBaseURL

	config.Log.Level = "verbose"
	assert.NotNil(t, config.Validate())
}

func TestDurationUnmarshal(t *testing.T) {
	var holder struct {
		Timeout Duration `yaml:"timeout"`
	}
	assert.Nil(t, yaml.Unmarshal([]byte("timeout: 90s"), &holder))
	assert.Equal(t, 90*time.Second, time.Duration(holder.Timeout))

	assert.NotNil(t, yaml.Unmarshal([]byte("timeout: soon"), &holder))
}
