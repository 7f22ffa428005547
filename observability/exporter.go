package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/multierr"

	"github.com/benz9527/xrbmap/lib/infra"
)

type ExporterKind string

const (
	ExporterNone       ExporterKind = "none"
	ExporterStdout     ExporterKind = "stdout"
	ExporterPrometheus ExporterKind = "prometheus"
)

func ParseExporterKind(kind string) (ExporterKind, error) {
	switch k := ExporterKind(strings.ToLower(strings.TrimSpace(kind))); k {
	case ExporterNone, ExporterStdout, ExporterPrometheus:
		return k, nil
	case "":
		return ExporterNone, nil
	default:
	}
	return ExporterNone, infra.NewErrorStack("[observability] unknown metrics exporter " + kind)
}

type MetricsConfig struct {
	Exporter ExporterKind
	// Periodic export interval of the stdout exporter.
	Interval time.Duration
	// Listen address of the prometheus scrape endpoint.
	Listen string
	// Out of the stdout exporter, os.Stderr if nil.
	Out io.Writer
}

func noopShutdown(context.Context) error { return nil }

// InitMetricsExporter installs the global meter provider. The returned
// callback flushes and stops the exporter.
func InitMetricsExporter(cfg MetricsConfig) (func(ctx context.Context) error, error) {
	switch cfg.Exporter {
	case ExporterStdout:
		out := cfg.Out
		if out == nil {
			out = os.Stderr
		}
		interval := cfg.Interval
		if interval <= 0 {
			interval = 10 * time.Second
		}
		return newConsoleMetricsExporter(interval, interval, stdoutmetric.WithWriter(out))
	case ExporterPrometheus:
		lis, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, "[observability] prometheus listen")
		}
		return newPrometheusMetricsExporter(lis)
	case ExporterNone, "":
		return noopShutdown, nil
	default:
	}
	return nil, infra.NewErrorStack("[observability] unknown metrics exporter " + string(cfg.Exporter))
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (func(ctx context.Context) error, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	callback := mp.Shutdown
	otel.SetMeterProvider(mp)
	return callback, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
// The scrape endpoint is /metrics on lis, backed by a private registry.
func newPrometheusMetricsExporter(lis net.Listener) (func(ctx context.Context) error, error) {
	reg := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		_ = lis.Close()
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		_ = srv.Serve(lis)
	}()

	callback := func(ctx context.Context) error {
		err := srv.Shutdown(ctx)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return multierr.Combine(err, mp.Shutdown(ctx))
	}
	otel.SetMeterProvider(mp)
	return callback, nil
}
