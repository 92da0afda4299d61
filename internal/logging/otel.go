package logging

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// instrumentationName scopes the records the logger exports over OTLP.
const instrumentationName = "github.com/locable/locable"

// WithOTel returns a logger that also sends its entries to provider, at the
// same level as the console output. A nil provider returns l unchanged.
func (l *Logger) WithOTel(provider log.LoggerProvider) *Logger {
	if l == nil || provider == nil {
		return l
	}
	level := zapcore.LevelEnabler(l.config.Level)
	otelCore := &leveledCore{
		Core:  otelzap.NewCore(instrumentationName, otelzap.WithLoggerProvider(provider)),
		level: level,
	}
	tee := zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, otelCore)
	})
	return &Logger{zap: l.zap.WithOptions(tee), config: l.config}
}

// leveledCore gates a core that has no level of its own.
type leveledCore struct {
	zapcore.Core
	level zapcore.LevelEnabler
}

func (c *leveledCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{Core: c.Core.With(fields), level: c.level}
}

func (c *leveledCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.level.Enabled(ent.Level) {
		return ce
	}
	return c.Core.Check(ent, ce)
}
