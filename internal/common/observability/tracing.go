package observability

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type tracing struct {
	tp *sdktrace.TracerProvider
}

// newTracing builds a tracer provider. Spans are exported only when a jaeger
// endpoint or an explicit exporter is configured; otherwise they are sampled
// but dropped.
func newTracing(opts Options) *tracing {
	res := resource.NewSchemaless(
		attribute.String("service.name", opts.ServiceName),
		attribute.String("service.version", opts.ServiceVersion),
	)

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	switch {
	case opts.SpanExporter != nil:
		tpOpts = append(tpOpts, sdktrace.WithSyncer(opts.SpanExporter))
	case opts.JaegerEndpoint != "":
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.JaegerEndpoint)))
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
		}
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	if opts.SpanExporter == nil {
		otel.SetTracerProvider(tp)
	}
	return &tracing{tp: tp}
}

func (t *tracing) tracer(name string) trace.Tracer {
	return t.tp.Tracer(name)
}

func (t *tracing) shutdown(ctx context.Context) {
	if t == nil || t.tp == nil {
		return
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		log.Printf("Failed to shut down tracer provider: %v", err)
	}
}
