package enginectl

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// otelTracer adapts go.opentelemetry.io/otel to runner.Tracer so every
// runner.Run invocation of a client configured with it gets a span (spec
// SPEC_FULL.md "DOMAIN STACK").
// With no exporter configured, otel.Tracer returns the no-op
// implementation, so spans cost essentially nothing until a real
// TracerProvider is installed.
type otelTracer struct {
	tracer oteltrace.Tracer
}

// NewOTelTracer returns a runner.Tracer backed by the global otel
// TracerProvider. Call InstallOTLPExporter first to ship spans somewhere;
// otherwise this is a harmless no-op tracer.
func NewOTelTracer() *otelTracer {
	return &otelTracer{tracer: otel.Tracer("github.com/banksean/enginectl/runner")}
}

func (t *otelTracer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func(exitCode int, err error)) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	ctx, span := t.tracer.Start(ctx, name, oteltrace.WithAttributes(kvs...))
	return ctx, func(exitCode int, err error) {
		span.SetAttributes(attribute.Int("exit_code", exitCode))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// InstallOTLPExporter wires a real OTLP/gRPC exporter into the global
// TracerProvider when endpoint is non-empty (typically sourced from
// OTEL_EXPORTER_OTLP_ENDPOINT). Spans are only produced for clients whose
// ClientConfig carries a Tracer (WithTracer); the default config has none.
func InstallOTLPExporter(ctx context.Context, endpoint string) (shutdown func(context.Context) error, err error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := newOTLPGRPCExporter(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
