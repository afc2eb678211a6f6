package observability

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/eventhub/component"
)

func useRecordingTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected endpoint localhost:4318, got %q", cfg.Endpoint)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected interval 15s, got %v", cfg.Interval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled config must validate, got %v", err)
	}
}

func TestConfigValidateEnabled(t *testing.T) {
	cfg := Config{Enabled: true, Endpoint: "not a host", Interval: time.Second, SampleRate: 2}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"endpoint", "sample_rate"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}

	cfg = Config{Enabled: true, Endpoint: "collector:4318", Interval: time.Second, SampleRate: 0.5}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "ParentBased"},
	}
	for _, tc := range tests {
		got := sampler(tc.rate).Description()
		if !strings.HasPrefix(got, tc.want) {
			t.Errorf("sampler(%v) = %q, want prefix %q", tc.rate, got, tc.want)
		}
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource(Resource{ServiceName: "eventhub", ServiceVersion: "1.2.3", Environment: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == AttrServiceName && kv.Value.AsString() == "eventhub" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected service.name=eventhub in %v", res.Attributes())
	}
}

func TestNewMetrics(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRequestStart(ctx)
	metrics.RecordRequestEnd(ctx, "GET", "/todos/stream", "200", 100*time.Millisecond)
	metrics.RecordOperation(ctx, "command", "ok", 50*time.Millisecond)
	metrics.RecordError(ctx, "exit", "producer")
}

func TestDefaultMetrics(t *testing.T) {
	if DefaultMetrics() == nil {
		t.Fatal("expected metrics")
	}
}

func TestOperationContextFromContext(t *testing.T) {
	if OperationContextFromContext(context.Background()) != nil {
		t.Error("expected nil when operation context not set")
	}

	oc := NewOperationContext("command", "req-1", nil)
	ctx := WithOperationContext(context.Background(), oc)
	if OperationContextFromContext(ctx) != oc {
		t.Error("expected the stored operation context")
	}
}

func TestOperationContext_Duration(t *testing.T) {
	oc := NewOperationContext("command", "", nil)
	oc.StartTime = time.Now().Add(-50 * time.Millisecond)

	if d := oc.Duration(); d < 45*time.Millisecond || d > time.Second {
		t.Errorf("expected duration around 50ms, got %v", d)
	}
}

func TestOperationContext_SpanAndMetrics(t *testing.T) {
	exporter := useRecordingTracer(t)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	oc := NewOperationContext("command", "req-1", metrics)
	ctx, span := oc.Start(context.Background(), SpanCommandRun)
	if OperationContextFromContext(ctx) != oc {
		t.Error("Start must store the operation context")
	}
	oc.End(ctx, span, "producer", "exit", fmt.Errorf("exit status 1"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != SpanCommandRun {
		t.Errorf("expected span %q, got %q", SpanCommandRun, spans[0].Name)
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	seen := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			seen[m.Name] = true
		}
	}
	for _, name := range []string{"eventhub.operations", "eventhub.operation.duration", "eventhub.errors"} {
		if !seen[name] {
			t.Errorf("expected metric %s to be recorded", name)
		}
	}
}

func TestOperationContext_NilMetrics(t *testing.T) {
	oc := NewOperationContext("ticker", "", nil)
	ctx, span := oc.Start(context.Background(), SpanTickerPublish)
	oc.End(ctx, span, "producer", "", nil)
}

func TestSetSpanAttribute(t *testing.T) {
	exporter := useRecordingTracer(t)

	ctx, span := StartSpan(context.Background(), "attrs")
	SetSpanAttribute(ctx, "string-key", "value")
	SetSpanAttribute(ctx, "int-key", 42)
	SetSpanAttribute(ctx, "int64-key", int64(100))
	SetSpanAttribute(ctx, AttrEventID, uint64(7))
	SetSpanAttribute(ctx, "float-key", 3.14)
	SetSpanAttribute(ctx, "bool-key", true)
	SetSpanAttribute(ctx, "string-slice-key", []string{"a", "b"})
	SetSpanAttribute(ctx, "unsupported-key", struct{}{})
	SetSpanError(ctx, fmt.Errorf("boom"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := len(spans[0].Attributes); got != 7 {
		t.Errorf("expected 7 attributes, got %d", got)
	}
	if len(spans[0].Events) != 1 {
		t.Errorf("expected recorded error event, got %d events", len(spans[0].Events))
	}
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	if SpanFromContext(ctx) == nil {
		t.Fatal("expected non-nil noop span")
	}
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span"))
}

func TestComponentDisabled(t *testing.T) {
	c := NewComponent(Config{}, Resource{ServiceName: "eventhub"})
	ctx := context.Background()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("unexpected health %+v", h)
	}
	if d := c.Describe(); d.Details != "disabled" {
		t.Errorf("unexpected description %+v", d)
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("stop: %v", err)
	}
}
