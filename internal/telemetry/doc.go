// Package telemetry wires OpenTelemetry tracing and metrics for locable.
//
// The vector store and embedding packages record spans and instruments
// through the global otel providers. When telemetry is enabled, New installs
// SDK providers that export over OTLP (gRPC or HTTP/protobuf); otherwise the
// globals stay no-op and nothing leaves the process.
//
//	tel, err := telemetry.New(ctx, telemetry.ConfigFrom(cfg.Telemetry), logger)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// A short-lived command must call Shutdown (or ForceFlush) before exiting or
// batched spans are lost.
//
// Telemetry failures never fail a command: a provider that cannot be built
// marks the instance degraded and the no-op globals remain in place.
//
// Tests use NewTestTelemetry, which records spans and metrics in memory.
package telemetry
