package telemetry

import (
	"testing"
	"time"

	"github.com/locable/locable/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, ProtocolGRPC, cfg.Protocol)
	assert.Equal(t, "locable", cfg.ServiceName)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.Equal(t, 15*time.Second, cfg.ExportInterval)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "https://otel.example.com:4318",
		Protocol:    ProtocolHTTP,
		ServiceName: "locable-ci",
		SampleRate:  0.25,
		Logs:        true,
	})

	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.Insecure)
	assert.Equal(t, "https://otel.example.com:4318", cfg.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, "locable-ci", cfg.ServiceName)
	assert.Equal(t, 0.25, cfg.SampleRate)
	assert.True(t, cfg.Logs)
	require.NoError(t, cfg.Validate())

	// Zero values keep the defaults.
	cfg = ConfigFrom(config.TelemetryConfig{})
	assert.Equal(t, NewDefaultConfig().Endpoint, cfg.Endpoint)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestConfig_Validate(t *testing.T) {
	enabled := func(mutate func(*Config)) *Config {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		mutate(cfg)
		return cfg
	}

	tests := []struct {
		name   string
		config *Config
		errMsg string
	}{
		{"disabled skips validation", &Config{}, ""},
		{"enabled defaults", enabled(func(*Config) {}), ""},
		{"missing endpoint", enabled(func(c *Config) { c.Endpoint = "" }), "endpoint is required"},
		{"missing service name", enabled(func(c *Config) { c.ServiceName = "" }), "service_name is required"},
		{"unknown protocol", enabled(func(c *Config) { c.Protocol = "udp" }), "protocol must be"},
		{"insecure remote", enabled(func(c *Config) { c.Endpoint = "otel.example.com:4317" }), "insecure connections"},
		{"secure remote", enabled(func(c *Config) {
			c.Endpoint = "otel.example.com:4317"
			c.Insecure = false
		}), ""},
		{"insecure ipv6 loopback", enabled(func(c *Config) { c.Endpoint = "[::1]:4317" }), ""},
		{"insecure 127 range", enabled(func(c *Config) { c.Endpoint = "127.0.0.2:4317" }), ""},
		{"insecure with scheme", enabled(func(c *Config) { c.Endpoint = "http://localhost:4318" }), ""},
		{"sample rate too high", enabled(func(c *Config) { c.SampleRate = 1.5 }), "sample_rate"},
		{"sample rate negative", enabled(func(c *Config) { c.SampleRate = -0.1 }), "sample_rate"},
		{"zero export interval", enabled(func(c *Config) { c.ExportInterval = 0 }), "export interval"},
		{"zero shutdown timeout", enabled(func(c *Config) { c.ShutdownTimeout = 0 }), "shutdown timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "localhost:4318", stripScheme("http://localhost:4318"))
	assert.Equal(t, "otel.example.com", stripScheme("https://otel.example.com"))
	assert.Equal(t, "localhost:4317", stripScheme("localhost:4317"))
}
