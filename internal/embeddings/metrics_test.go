package embeddings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const testModel = "sentence-transformers/all-MiniLM-L6-v2"

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func newTestInstruments(t *testing.T, provider, model string) (*instruments, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return newInstrumentsFrom(mp.Meter(instrumentationName), provider, model, nil), reader
}

func TestInstruments_Observe(t *testing.T) {
	in, reader := newTestInstruments(t, "fastembed", testModel)
	ctx := context.Background()
	start := time.Now().Add(-100 * time.Millisecond)

	in.observe(ctx, opDocuments, start, []string{"container", "class css"}, nil)
	in.observe(ctx, opQuery, start, []string{"grid"}, nil)
	in.observe(ctx, opDocuments, start, []string{"broken"}, errors.New("generation failed"))

	got := collect(t, reader)

	duration, ok := got["locable.embedding.duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var calls uint64
	for _, dp := range duration.DataPoints {
		calls += dp.Count
		provider, _ := dp.Attributes.Value(attribute.Key("provider"))
		assert.Equal(t, "fastembed", provider.AsString())
		model, _ := dp.Attributes.Value(attribute.Key("model"))
		assert.Equal(t, testModel, model.AsString())
	}
	assert.Equal(t, uint64(3), calls)
	assert.Len(t, duration.DataPoints, 2, "one series per operation")

	batch, ok := got["locable.embedding.batch_size"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	var batches uint64
	for _, dp := range batch.DataPoints {
		batches += dp.Count
	}
	assert.Equal(t, uint64(2), batches, "failed calls have no batch size")

	chars, ok := got["locable.embedding.input_chars"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range chars.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(len("container")+len("class css")+len("grid")), total)

	errs, ok := got["locable.embedding.errors_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	assert.Equal(t, int64(1), errs.DataPoints[0].Value)
	op, _ := errs.DataPoints[0].Attributes.Value(attribute.Key("operation"))
	assert.Equal(t, opDocuments, op.AsString())
}

func TestInstruments_NilIsNoop(t *testing.T) {
	var in *instruments
	assert.NotPanics(t, func() {
		in.observe(context.Background(), opQuery, time.Now(), []string{"x"}, nil)
	})
}
