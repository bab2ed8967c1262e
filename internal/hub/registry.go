package hub

import (
	"sync"
	"time"

	"github.com/matsuuchi-sam/SAMDEMO/internal/codec"
	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
	"github.com/matsuuchi-sam/SAMDEMO/internal/ports"
)

// Registry owns the live set of viewer connections. All mutation goes through
// Register/Deregister under one lock; Broadcast iterates a snapshot and
// reconciles failures after the pass, so membership is never mutated while a
// fan-out is walking it.
type Registry struct {
	mu      sync.Mutex
	viewers map[ports.Viewer]struct{}
	obs     ports.Observability
}

func NewRegistry(obs ports.Observability) *Registry {
	return &Registry{
		viewers: make(map[ports.Viewer]struct{}),
		obs:     obs,
	}
}

func (r *Registry) Register(v ports.Viewer) {
	if v == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewers[v] = struct{}{}
	// Published under the lock so concurrent mutations cannot reorder the
	// gauge updates and leave it stale.
	r.obs.SetGauge("samdemo_viewers", float64(len(r.viewers)))
}

// Deregister is idempotent: the disconnect path and the broadcast failure
// path may both remove the same viewer.
func (r *Registry) Deregister(v ports.Viewer) {
	if v == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.viewers, v)
	r.obs.SetGauge("samdemo_viewers", float64(len(r.viewers)))
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.viewers)
}

// Broadcast serializes f once and attempts delivery to every registered
// viewer. A per-recipient failure never aborts the pass; failed recipients
// are collected and deregistered after the full pass completes. An empty
// registry short-circuits before any serialization work.
func (r *Registry) Broadcast(f *domain.Frame) {
	viewers := r.snapshot()
	if len(viewers) == 0 {
		return
	}

	wire, err := codec.Encode(f)
	if err != nil {
		r.obs.LogError("frame_encode_failed", err)
		return
	}

	start := time.Now()
	var failed []ports.Viewer
	for _, v := range viewers {
		if err := v.Send(f, wire); err != nil {
			r.obs.LogError("viewer_send_failed", err, ports.Field{Key: "remote", Value: v.Addr()})
			r.obs.IncCounter("samdemo_send_failures_total", 1)
			failed = append(failed, v)
		}
	}
	// A recipient that failed a send is not just forgotten: closing it tears
	// the transport down, otherwise a live-but-stalled peer would sit
	// connected while receiving nothing.
	for _, v := range failed {
		r.Deregister(v)
		if closer, ok := v.(interface{ Close() }); ok {
			closer.Close()
		}
	}

	r.obs.ObserveLatency("samdemo_broadcast_latency_seconds", time.Since(start).Seconds())
	r.obs.IncCounter("samdemo_frames_relayed_total", 1)
	if f.Kind == domain.KindLog {
		r.obs.IncCounter("samdemo_log_lines_total", 1)
	}
}

func (r *Registry) snapshot() []ports.Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.Viewer, 0, len(r.viewers))
	for v := range r.viewers {
		out = append(out, v)
	}
	return out
}
