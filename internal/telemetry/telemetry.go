// Package telemetry wires up the process-wide OpenTelemetry meter and
// tracer providers. Scope is intentionally small: a token counter and
// call-latency histogram for the LLM client, and a counter for query
// broadening — there is no metrics server or OTLP collector endpoint in
// this system, so the default exporter prints to stderr and is meant for
// local inspection, not production scraping.
package telemetry

import (
	"context"
	"io"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var (
	initOnce sync.Once

	meterProvider metric.MeterProvider = otel.GetMeterProvider()
	tracerProvider trace.TracerProvider = otel.GetTracerProvider()
)

// Init installs stdout-based meter and tracer providers, writing spans
// and metric snapshots to w. Calling Init more than once is a no-op;
// tests that don't care about telemetry output can skip calling it
// entirely and use the process-wide no-op providers.
func Init(w io.Writer) error {
	var initErr error
	initOnce.Do(func() {
		metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			initErr = err
			return
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		)
		meterProvider = mp
		otel.SetMeterProvider(mp)

		traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			initErr = err
			return
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
		)
		tracerProvider = tp
		otel.SetTracerProvider(tp)
	})
	return initErr
}

// Shutdown flushes and releases the providers installed by Init, if any.
func Shutdown(ctx context.Context) error {
	if sp, ok := meterProvider.(interface{ Shutdown(context.Context) error }); ok {
		if err := sp.Shutdown(ctx); err != nil {
			return err
		}
	}
	if sp, ok := tracerProvider.(interface{ Shutdown(context.Context) error }); ok {
		return sp.Shutdown(ctx)
	}
	return nil
}

// Meter returns a named meter off the current (possibly no-op) provider.
func Meter(name string) metric.Meter {
	return meterProvider.Meter(name)
}

// Tracer returns a named tracer off the current (possibly no-op) provider.
func Tracer(name string) trace.Tracer {
	return tracerProvider.Tracer(name)
}
