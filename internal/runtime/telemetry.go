// Package runtime wires process-level observability for the agent binary:
// the otel SDK behind the orchestrator's tracer, a prometheus registry for
// the /metrics endpoint, and an OTLP push path for a local collector.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/mohammad-safakhou/webscout/config"
)

const (
	defaultOTLPEndpoint = "localhost:4317"
	pushInterval        = 15 * time.Second
)

// Observability owns the tracer and meter providers plus the optional
// /metrics listener. A disabled config yields a no-op instance so callers
// never branch on cfg.Enabled themselves.
type Observability struct {
	traces  *sdktrace.TracerProvider
	metrics *sdkmetric.MeterProvider
	httpSrv *http.Server
}

// Init installs the global otel providers for this process. The orchestrator
// picks them up through otel.Tracer, so nothing else needs the return value
// except for Close.
func Init(ctx context.Context, cfg config.TelemetryConfig, service, version string) (*Observability, error) {
	if !cfg.Enabled {
		return &Observability{}, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(service),
		attribute.String("service.version", version),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	endpoint := cfg.OTLPEndpoint
	if endpoint == "" {
		endpoint = defaultOTLPEndpoint
	}

	obs := &Observability{}
	if obs.traces, err = setupTraces(ctx, res, endpoint); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	if obs.metrics, err = setupMetrics(ctx, res, endpoint, registry); err != nil {
		return nil, err
	}

	// the CLI runs without a listener; serve mode scrapes this port
	if cfg.MetricsPort > 0 {
		obs.httpSrv = metricsListener(cfg.MetricsPort, registry)
	}
	return obs, nil
}

func setupTraces(ctx context.Context, res *resource.Resource, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

func setupMetrics(ctx context.Context, res *resource.Resource, endpoint string, registry *prometheus.Registry) (*sdkmetric.MeterProvider, error) {
	promReader, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	pushExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promReader),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(pushExporter, sdkmetric.WithInterval(pushInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

func metricsListener(port int, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("metrics listener: %v\n", err)
		}
	}()
	return srv
}

// Close flushes both providers and stops the metrics listener.
func (o *Observability) Close(ctx context.Context) error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.httpSrv != nil {
		if err := o.httpSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics listener: %w", err))
		}
	}
	if o.traces != nil {
		if err := o.traces.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("traces: %w", err))
		}
	}
	if o.metrics != nil {
		if err := o.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}
