// Package metrics holds the OpenTelemetry instruments recorded by scans.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

const instrumentationName = "domainscan"

// Page outcomes used as the "outcome" attribute.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
)

// Scan records per-page scan telemetry. A nil *Scan is not valid; use Noop when
// telemetry is not wanted.
type Scan struct {
	tracer trace.Tracer

	pages         metric.Int64Counter
	domains       metric.Int64Counter
	unclassified  metric.Int64Counter
	skippedCards  metric.Int64Counter
	fetchDuration metric.Float64Histogram
	runs          metric.Int64Counter
}

// NewScan creates the scan instruments on the given providers.
func NewScan(mp metric.MeterProvider, tp trace.TracerProvider) (*Scan, error) {
	meter := mp.Meter(instrumentationName)
	s := &Scan{tracer: tp.Tracer(instrumentationName)}

	var err error
	if s.pages, err = meter.Int64Counter("domainscan.pages",
		metric.WithDescription("Partner pages visited, by outcome.")); err != nil {
		return nil, fmt.Errorf("could not create pages counter: %w", err)
	}
	if s.domains, err = meter.Int64Counter("domainscan.domains",
		metric.WithDescription("Domain entries extracted, by status.")); err != nil {
		return nil, fmt.Errorf("could not create domains counter: %w", err)
	}
	if s.unclassified, err = meter.Int64Counter("domainscan.unclassified_labels",
		metric.WithDescription("Status labels that matched no vocabulary rule.")); err != nil {
		return nil, fmt.Errorf("could not create unclassified counter: %w", err)
	}
	if s.skippedCards, err = meter.Int64Counter("domainscan.skipped_cards",
		metric.WithDescription("Domain cards dropped because they could not be parsed.")); err != nil {
		return nil, fmt.Errorf("could not create skipped counter: %w", err)
	}
	if s.fetchDuration, err = meter.Float64Histogram("domainscan.fetch.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Time spent fetching a partner page."),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...)); err != nil {
		return nil, fmt.Errorf("could not create fetch histogram: %w", err)
	}
	if s.runs, err = meter.Int64Counter("domainscan.runs",
		metric.WithDescription("Scan runs, by completion.")); err != nil {
		return nil, fmt.Errorf("could not create runs counter: %w", err)
	}

	return s, nil
}

// Noop returns a Scan that records nothing.
func Noop() *Scan {
	s, err := NewScan(metricnoop.NewMeterProvider(), tracenoop.NewTracerProvider())
	if err != nil {
		// noop instruments never fail to build
		panic(err)
	}

	return s
}

// StartPage starts a span covering one partner page.
func (s *Scan) StartPage(ctx context.Context, URL string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "scan.page", trace.WithAttributes(attribute.String("partner.url", URL)))
}

// PageFetched records the fetch latency and outcome of one page.
func (s *Scan) PageFetched(ctx context.Context, outcome string, took time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	s.pages.Add(ctx, 1, attrs)
	s.fetchDuration.Record(ctx, took.Seconds(), attrs)
}

// DomainsExtracted records extracted entries by status along with the cards that
// were skipped and the labels left unclassified.
func (s *Scan) DomainsExtracted(ctx context.Context, byStatus map[string]int, skipped, unclassified int) {
	for status, n := range byStatus {
		if n > 0 {
			s.domains.Add(ctx, int64(n), metric.WithAttributes(attribute.String("status", status)))
		}
	}
	if skipped > 0 {
		s.skippedCards.Add(ctx, int64(skipped))
	}
	if unclassified > 0 {
		s.unclassified.Add(ctx, int64(unclassified))
	}
}

// RunFinished records the end of a scan run.
func (s *Scan) RunFinished(ctx context.Context, cancelled bool) {
	s.runs.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cancelled", cancelled)))
}
