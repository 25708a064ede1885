// Package telemetry настраивает трассировку OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
)

const instrumentationName = "github.com/UkralStul/graphql-blog-service"

type Config struct {
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

// Provider владеет провайдером трассировки. Без endpoint трассировка выключена.
type Provider struct {
	sdk    *sdktrace.TracerProvider
	tracer trace.Tracer
}

// Setup создает провайдер с экспортом по OTLP/gRPC и делает его глобальным.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(instrumentationName)}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &Provider{sdk: tp, tracer: tp.Tracer(instrumentationName)}, nil
}

// NewProvider оборачивает готовый трейсер (используется в тестах).
func NewProvider(tracer trace.Tracer) *Provider {
	return &Provider{tracer: tracer}
}

func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

// BusMiddleware открывает span на каждую команду и запрос.
func (p *Provider) BusMiddleware() bus.Middleware {
	return func(kind string, next bus.Handler) bus.Handler {
		return bus.HandlerFunc(func(ctx context.Context, msg any) (any, error) {
			name := bus.MessageName(msg)
			ctx, span := p.tracer.Start(ctx, kind+" "+name,
				trace.WithAttributes(
					attribute.String("bus.kind", kind),
					attribute.String("bus.message", name),
				),
			)
			defer span.End()

			res, err := next.Handle(ctx, msg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return res, err
		})
	}
}
