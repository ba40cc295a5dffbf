package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"

	"github.com/fraudcore/engine/internal/config"
)

// Module installs a TracerProvider and registers it globally, so every
// tracing.Start call anywhere in the process joins the same trace tree. It
// carries no exporter: embedding binaries that want spans shipped somewhere
// append a span processor to the *sdktrace.TracerProvider this module
// provides, rather than replacing it.
var Module = fx.Module("tracing",
	fx.Provide(NewTracerProvider),
	fx.Invoke(RegisterLifecycle),
)

// providerResult exposes the SDK provider for lifecycle management. It is
// nil when OTel is disabled, matching the no-op provider installed in that
// case.
type providerResult struct {
	fx.Out

	SDKProvider *sdktrace.TracerProvider `name:"otelSDKProvider" optional:"true"`
}

// NewTracerProvider builds and globally registers a TracerProvider sampling
// at cfg.Otel.SamplingRate. When cfg.Otel is disabled it installs a no-op
// provider with zero overhead instead.
func NewTracerProvider(cfg *config.Config, log *slog.Logger) (providerResult, error) {
	oc := cfg.Otel
	if !oc.Enabled() {
		log.Info("tracing disabled (OTEL_EXPORTER_OTLP_ENDPOINT not set)")
		otel.SetTracerProvider(noop.NewTracerProvider())
		return providerResult{}, nil
	}

	rate := oc.SamplingRate
	var sampler sdktrace.Sampler
	switch {
	case rate <= 0:
		sampler = sdktrace.NeverSample()
	case rate >= 1:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(rate)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sampler))
	otel.SetTracerProvider(tp)

	log.Info("tracer provider registered",
		slog.String("service", oc.ServiceName),
		slog.Float64("sampling_rate", rate))
	return providerResult{SDKProvider: tp}, nil
}

// providerParam lets RegisterLifecycle receive the optional SDK provider.
type providerParam struct {
	fx.In
	SDKProvider *sdktrace.TracerProvider `name:"otelSDKProvider" optional:"true"`
}

// RegisterLifecycle shuts the provider down on app stop, flushing any span
// processor an embedding binary attached. No-op when tracing is disabled.
func RegisterLifecycle(lc fx.Lifecycle, p providerParam, log *slog.Logger) {
	if p.SDKProvider == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down tracer provider")
			return p.SDKProvider.Shutdown(ctx)
		},
	})
}
