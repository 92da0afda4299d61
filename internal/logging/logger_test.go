package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/locable/locable/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newBufferLogger(t *testing.T, format string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Level = TraceLevel
	cfg.Format = format
	cfg.Output = &buf
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	return logger, &buf
}

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.NotNil(t, logger.zap)
	assert.Equal(t, cfg, logger.config)
	assert.False(t, logger.Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Enabled(zapcore.WarnLevel))
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg)
	assert.Error(t, err)

	cfg = NewDefaultConfig()
	cfg.Redaction.Patterns = []string{"("}
	_, err = NewLogger(cfg)
	assert.Error(t, err)
}

func TestLogger_ContextAwareMethods(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	logger := &Logger{
		zap:    zap.New(core),
		config: NewDefaultConfig(),
	}

	ctx := WithCommand(WithRunID(context.Background(), "run-1"), "inspect")

	tests := []struct {
		name    string
		logFunc func()
		level   zapcore.Level
		message string
	}{
		{"trace", func() { logger.Trace(ctx, "trace message") }, TraceLevel, "trace message"},
		{"debug", func() { logger.Debug(ctx, "debug message") }, zapcore.DebugLevel, "debug message"},
		{"info", func() { logger.Info(ctx, "info message") }, zapcore.InfoLevel, "info message"},
		{"warn", func() { logger.Warn(ctx, "warn message") }, zapcore.WarnLevel, "warn message"},
		{"error", func() { logger.Error(ctx, "error message") }, zapcore.ErrorLevel, "error message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed.TakeAll()
			tt.logFunc()

			logs := observed.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			assert.Equal(t, tt.message, logs[0].Message)

			fields := logs[0].ContextMap()
			assert.Equal(t, "run-1", fields["run.id"])
			assert.Equal(t, "inspect", fields["command"])
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	logger, buf := newBufferLogger(t, "json")

	logger.Named("store").Info(context.Background(), "opened", zap.String("collection", "bootstrap"))
	require.NoError(t, logger.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "opened", entry["msg"])
	assert.Equal(t, "store", entry["logger"])
	assert.Equal(t, "bootstrap", entry["collection"])
	assert.Equal(t, "locable", entry["service"])
	assert.Contains(t, entry, "ts")
}

func TestRedaction_PerEntryFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "json")

	logger.Info(context.Background(), "connecting",
		zap.String("api_key", "abc123"),
		zap.String("header", "Bearer eyJhbGciOi"),
		zap.String("host", "localhost"),
	)

	out := buf.String()
	assert.NotContains(t, out, "abc123")
	assert.NotContains(t, out, "eyJhbGciOi")
	assert.Contains(t, out, "localhost")
	assert.Contains(t, out, "[REDACTED]")
}

func TestRedaction_WithFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "json")

	logger.With(zap.String("token", "t-123"), zap.String("note", "api_key=xyz")).
		Info(context.Background(), "child")

	out := buf.String()
	assert.NotContains(t, out, "t-123")
	assert.NotContains(t, out, "xyz")
}

func TestSecretField(t *testing.T) {
	logger, buf := newBufferLogger(t, "json")

	logger.Info(context.Background(), "embedder", Secret("credentials", config.Secret("sk-live-abcdefgh")))

	out := buf.String()
	assert.NotContains(t, out, "sk-live-abcdefgh")
	assert.True(t, strings.Contains(out, "[REDACTED:16]"), out)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"trace", TraceLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"ERROR", zapcore.ErrorLevel, false},
		{"Off", OffLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromSettings(t *testing.T) {
	var buf bytes.Buffer
	cfg, err := FromSettings(config.LoggingConfig{Level: "off", Format: "json"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	logger.Error(context.Background(), "silenced")
	assert.Empty(t, buf.String())

	_, err = FromSettings(config.LoggingConfig{Level: "loud"}, &buf)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Warn(ctx, "from context")
	tl.AssertLogged(t, zapcore.WarnLevel, "from context")
}

func TestTestLogger_AssertField(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "query finished", zap.String("collection", "bootstrap"))

	tl.AssertField(t, "query", "collection", "bootstrap")
	assert.Equal(t, 1, tl.FilterMessage("finished").Len())
}
