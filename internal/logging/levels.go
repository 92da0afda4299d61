package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/locable/locable/internal/config"
	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug and logs every store and embedder call.
const TraceLevel = zapcore.Level(-2)

// OffLevel is above every level zap emits, silencing the logger.
const OffLevel = zapcore.FatalLevel + 1

// ParseLevel accepts zap level names plus "trace" and "off", in any case.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return TraceLevel, nil
	case "off", "none", "quiet":
		return OffLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// FromSettings builds a Config from the logging section of the application
// config, writing to out.
func FromSettings(s config.LoggingConfig, out io.Writer) (*Config, error) {
	level, err := ParseLevel(s.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", s.Level, err)
	}
	cfg := NewDefaultConfig()
	cfg.Level = level
	if s.Format != "" {
		cfg.Format = s.Format
	}
	if out != nil {
		cfg.Output = out
	}
	return cfg, nil
}
