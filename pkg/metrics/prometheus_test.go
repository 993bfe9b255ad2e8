package metrics_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"domainscan/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNewPrometheusProvider(t *testing.T) {
	reg := prometheus.NewRegistry()
	mp, err := metrics.NewPrometheusProvider(reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	s, err := metrics.NewScan(mp, tracenoop.NewTracerProvider())
	require.NoError(t, err)
	s.PageFetched(context.Background(), metrics.OutcomeOK, 120*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	require.Contains(t, joined, "domainscan_pages")
	require.Contains(t, joined, "domainscan_fetch_duration")
}
