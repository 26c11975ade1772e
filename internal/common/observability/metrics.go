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
	"go.opentelemetry.io/otel/sdk/resource"
)

// Observability bundles the lab's OpenTelemetry instruments behind the
// Prometheus exporter.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	runCounter    otelmetric.Int64Counter
	runDuration   otelmetric.Float64Histogram
	overallScore  otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)))
	if err != nil {
		res = resource.Default()
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	runCounter, _ := meter.Int64Counter(
		"lab.runs.processed",
		otelmetric.WithDescription("Number of lab runs processed"),
	)

	runDuration, _ := meter.Float64Histogram(
		"lab.runs.duration",
		otelmetric.WithDescription("Per-task processing duration"),
		otelmetric.WithUnit("ms"),
	)

	overallScore, _ := meter.Float64Histogram(
		"lab.scores.overall",
		otelmetric.WithDescription("Overall heuristic score distribution"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		runCounter:    runCounter,
		runDuration:   runDuration,
		overallScore:  overallScore,
	}
}

// RecordRun counts one processed run by terminal status.
func (o *Observability) RecordRun(ctx context.Context, status string) {
	if o.runCounter != nil {
		o.runCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordRunDuration records how long one task took end to end.
func (o *Observability) RecordRunDuration(ctx context.Context, duration time.Duration, status string) {
	if o.runDuration != nil {
		o.runDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordOverallScore feeds the score distribution histogram.
func (o *Observability) RecordOverallScore(ctx context.Context, category string, score float64) {
	if o.overallScore != nil {
		o.overallScore.Record(ctx, score, otelmetric.WithAttributes(
			attribute.String("category", category),
		))
	}
}

// Shutdown flushes the meter provider.
func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
