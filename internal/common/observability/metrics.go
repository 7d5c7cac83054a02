package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability records gateway call metrics through OpenTelemetry and
// hands out tracing spans.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	tracer        trace.Tracer
	callCounter   otelmetric.Int64Counter
	callDuration  otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	o := &Observability{tracer: otel.Tracer(serviceName)}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	o.meterProvider = provider
	o.meter = provider.Meter(serviceName)
	o.callCounter, _ = o.meter.Int64Counter(
		"gateway.calls",
		otelmetric.WithDescription("Calls to the AI and remote store gateways"),
	)
	o.callDuration, _ = o.meter.Float64Histogram(
		"gateway.duration",
		otelmetric.WithDescription("Gateway call duration"),
		otelmetric.WithUnit("ms"),
	)
	return o
}

// NewNoop returns an instance that only produces no-op spans. Used in tests.
func NewNoop() *Observability {
	return &Observability{tracer: otel.Tracer("noop")}
}

// StartSpan opens a span on the global tracer provider.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer("credit-workflow")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordGatewayCall counts one gateway call and its latency.
func (o *Observability) RecordGatewayCall(ctx context.Context, gateway, operation, status string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("gateway", gateway),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	if o.callCounter != nil {
		o.callCounter.Add(ctx, 1, attrs)
	}
	if o.callDuration != nil {
		o.callDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
