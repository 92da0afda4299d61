package logging

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap/zapcore"
)

// recordExporter keeps exported log records in memory.
type recordExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordExporter) Shutdown(context.Context) error   { return nil }
func (e *recordExporter) ForceFlush(context.Context) error { return nil }

func (e *recordExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestLogger_WithOTel(t *testing.T) {
	exp := &recordExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Level = zapcore.InfoLevel
	cfg.Output = &buf
	base, err := NewLogger(cfg)
	require.NoError(t, err)

	logger := base.WithOTel(provider)
	ctx := context.Background()
	logger.Debug(ctx, "below level")
	logger.Info(ctx, "store opened")
	logger.Warn(ctx, "skipping file")

	assert.Equal(t, []string{"store opened", "skipping file"}, exp.bodies())
	assert.Contains(t, buf.String(), "store opened")
	assert.NotContains(t, buf.String(), "below level")

	exp.mu.Lock()
	assert.Equal(t, log.SeverityWarn, exp.records[1].Severity())
	exp.mu.Unlock()
}

func TestLogger_WithOTelNilProvider(t *testing.T) {
	logger := NewNop()
	assert.Same(t, logger, logger.WithOTel(nil))

	var nilLogger *Logger
	assert.Nil(t, nilLogger.WithOTel(nil))
}
