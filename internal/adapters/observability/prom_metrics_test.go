package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromObsMetrics(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})

	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	obs := NewPromObs()

	obs.IncCounter("samdemo_frames_relayed_total", 5)
	if got := testutil.ToFloat64(obs.counters["samdemo_frames_relayed_total"]); got != 5 {
		t.Fatalf("expected relayed counter 5, got %f", got)
	}

	obs.IncCounter("samdemo_send_failures_total", 2)
	if got := testutil.ToFloat64(obs.counters["samdemo_send_failures_total"]); got != 2 {
		t.Fatalf("expected send failure counter 2, got %f", got)
	}

	obs.SetGauge("samdemo_viewers", 3)
	if got := testutil.ToFloat64(obs.gauges["samdemo_viewers"]); got != 3 {
		t.Fatalf("expected viewer gauge 3, got %f", got)
	}

	obs.ObserveLatency("samdemo_broadcast_latency_seconds", 0.002)
	hCollector := obs.histos["samdemo_broadcast_latency_seconds"].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected latency histogram to record 1 sample, got %d", samples)
	}

	// Unknown names are ignored rather than panicking mid-broadcast.
	obs.IncCounter("samdemo_unknown_total", 1)
	obs.SetGauge("samdemo_unknown", 1)
	obs.ObserveLatency("samdemo_unknown_seconds", 1)
}
