package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	o := New("gov-dash-test")
	defer o.Shutdown()

	assert.NotNil(t, o.Tracer())
	assert.NotNil(t, o.queryCounter)
	assert.NotNil(t, o.queryDuration)

	ctx, span := o.Tracer().Start(context.Background(), "opendata.answer")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	assert.NotPanics(t, func() {
		o.RecordQuery(ctx, "petroleum_consumption", "ok", 120*time.Millisecond)
	})
}

func TestNoopAndNil(t *testing.T) {
	var nilObs *Observability
	assert.NotNil(t, nilObs.Tracer())
	assert.NotPanics(t, func() {
		nilObs.RecordQuery(context.Background(), "x", "ok", time.Second)
	})

	noop := NewNoop()
	assert.NotPanics(t, func() {
		noop.RecordQuery(context.Background(), "x", "no_match", 0)
		noop.Shutdown()
	})
}

func TestNew_ExportsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	core, logs := observer.New(zapcore.DebugLevel)
	o := New("gov-dash-test", exp, NewLogExporter(zap.New(core)))
	defer o.Shutdown()

	ctx, parent := o.Tracer().Start(context.Background(), "opendata.answer")
	_, child := o.Tracer().Start(ctx, "opendata.fetch")
	child.SetAttributes(attribute.String("dataset.id", "petroleum_consumption"))
	child.End()
	parent.End()

	require.NoError(t, o.ForceFlush(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "opendata.fetch", spans[0].Name)

	entries := logs.FilterMessage("span finished").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "opendata.fetch", fields["span"])
	assert.Equal(t, "petroleum_consumption", fields["dataset.id"])
	assert.Contains(t, fields, "parentId")
}
