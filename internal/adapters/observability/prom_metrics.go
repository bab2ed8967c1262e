package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matsuuchi-sam/SAMDEMO/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	relayed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "samdemo_frames_relayed_total",
		Help: "Total frames broadcast to registered viewers.",
	})
	logLines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "samdemo_log_lines_total",
		Help: "Non-structured device lines relayed as log frames.",
	})
	sendFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "samdemo_send_failures_total",
		Help: "Per-recipient delivery failures during broadcast fan-out.",
	})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "samdemo_source_fallbacks_total",
		Help: "Terminal ingestion faults that switched the relay to demo mode.",
	})
	viewers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "samdemo_viewers",
		Help: "Currently registered viewer connections.",
	})
	producers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "samdemo_producers",
		Help: "Currently connected producer devices.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "samdemo_broadcast_latency_seconds",
		Help:    "Duration of one full broadcast fan-out pass.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})

	prometheus.MustRegister(relayed, logLines, sendFailures, fallbacks, viewers, producers, latency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"samdemo_frames_relayed_total":   relayed,
			"samdemo_log_lines_total":        logLines,
			"samdemo_send_failures_total":    sendFailures,
			"samdemo_source_fallbacks_total": fallbacks,
		},
		gauges: map[string]prometheus.Gauge{
			"samdemo_viewers":   viewers,
			"samdemo_producers": producers,
		},
		histos: map[string]prometheus.Observer{
			"samdemo_broadcast_latency_seconds": latency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
