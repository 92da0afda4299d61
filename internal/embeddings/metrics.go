package embeddings

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/locable/locable/internal/embeddings"

// Embedding operations, used as the "operation" attribute.
const (
	opDocuments = "embed_documents"
	opQuery     = "embed_query"
)

// instruments records per-call metrics for one provider and model.
type instruments struct {
	attrs    []attribute.KeyValue
	duration metric.Float64Histogram
	batch    metric.Int64Histogram
	chars    metric.Int64Counter
	errors   metric.Int64Counter
}

// newInstruments binds the provider and model attributes. Instruments that
// fail to register are logged and left nil; recording then skips them.
func newInstruments(provider, model string, logger *zap.Logger) *instruments {
	return newInstrumentsFrom(otel.Meter(instrumentationName), provider, model, logger)
}

func newInstrumentsFrom(meter metric.Meter, provider, model string, logger *zap.Logger) *instruments {
	if logger == nil {
		logger = zap.NewNop()
	}
	in := &instruments{
		attrs: []attribute.KeyValue{
			attribute.String("provider", provider),
			attribute.String("model", model),
		},
	}

	var err error
	if in.duration, err = meter.Float64Histogram(
		"locable.embedding.duration_seconds",
		metric.WithDescription("Embedding call latency by provider, model and operation"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	); err != nil {
		logger.Warn("embedding duration histogram unavailable", zap.Error(err))
	}
	if in.batch, err = meter.Int64Histogram(
		"locable.embedding.batch_size",
		metric.WithDescription("Texts per embedding call"),
		metric.WithUnit("{text}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 25, 50, 100, 250),
	); err != nil {
		logger.Warn("embedding batch histogram unavailable", zap.Error(err))
	}
	if in.chars, err = meter.Int64Counter(
		"locable.embedding.input_chars",
		metric.WithDescription("Characters sent for embedding"),
		metric.WithUnit("{char}"),
	); err != nil {
		logger.Warn("embedding input counter unavailable", zap.Error(err))
	}
	if in.errors, err = meter.Int64Counter(
		"locable.embedding.errors_total",
		metric.WithDescription("Failed embedding calls"),
		metric.WithUnit("{error}"),
	); err != nil {
		logger.Warn("embedding error counter unavailable", zap.Error(err))
	}
	return in
}

// observe records one call that started at start over texts.
func (in *instruments) observe(ctx context.Context, op string, start time.Time, texts []string, err error) {
	if in == nil {
		return
	}
	opt := metric.WithAttributes(append(in.attrs, attribute.String("operation", op))...)

	if in.duration != nil {
		in.duration.Record(ctx, time.Since(start).Seconds(), opt)
	}
	if err != nil {
		if in.errors != nil {
			in.errors.Add(ctx, 1, opt)
		}
		return
	}
	if in.batch != nil {
		in.batch.Record(ctx, int64(len(texts)), opt)
	}
	if in.chars != nil {
		n := 0
		for _, t := range texts {
			n += len(t)
		}
		in.chars.Add(ctx, int64(n), opt)
	}
}
