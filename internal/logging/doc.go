// Package logging provides structured logging for locable on top of zap.
//
// # Overview
//
// The package wraps zap with:
//   - Custom Trace level (-2, below Debug)
//   - Context-aware methods that add trace, run and command fields
//   - Redaction of sensitive keys and value patterns
//   - An observer-backed TestLogger for assertions in tests
//
// Logs are written to stderr by default: stdout belongs to command output.
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRunID(ctx, uuid.NewString())
//	logger.Info(ctx, "query finished", zap.Int("results", n))
package logging
