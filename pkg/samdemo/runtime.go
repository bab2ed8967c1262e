package samdemo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matsuuchi-sam/SAMDEMO/internal/adapters/observability"
	"github.com/matsuuchi-sam/SAMDEMO/internal/app/relay"
	"github.com/matsuuchi-sam/SAMDEMO/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	source        Source
	observability Observability
	viewers       []Viewer
}

// WithSource injects a custom frame source (MQTT, simulators, replay files, etc.).
func WithSource(src Source) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.source = src
	}
}

// WithObservability plugs in a custom observability backend (OpenTelemetry, structured logs, etc.).
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithViewer registers an in-process viewer that receives every broadcast
// frame alongside the websocket dashboards. May be given multiple times.
func WithViewer(v Viewer) RuntimeOption {
	return func(o *runtimeOverrides) {
		if v != nil {
			o.viewers = append(o.viewers, v)
		}
	}
}

// Runtime wires the source → relay → viewer fan-out and exposes simple
// lifecycle hooks for embedding the relay inside any Go service.
type Runtime struct {
	cfg         *Config
	obs         ports.Observability
	relay       *relay.Relay
	viewers     []Viewer
	metricsSrv  *http.Server
	gaugeStopCh chan struct{}
}

// NewRuntime bootstraps the default adapters (mode-selected source,
// Prometheus observability). Callers can use RuntimeOption values to override
// any dependency and point the relay at custom sources, viewers, or telemetry
// backends.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs()
	}

	rel, err := relay.New(cfg, overrides.source, obs)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		cfg:     cfg,
		obs:     obs,
		relay:   rel,
		viewers: overrides.viewers,
	}, nil
}

// Start binds the relay listener, registers in-process viewers, and launches
// the observability stack. It returns immediately; call Run to block on a
// context instead.
func (r *Runtime) Start(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	if err := r.relay.Start(ctx); err != nil {
		return err
	}
	for _, v := range r.viewers {
		r.relay.Registry().Register(v)
	}
	r.startMetrics()
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	err := r.relay.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := r.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	return err
}

// Shutdown stops the relay and the metrics server.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.gaugeStopCh != nil {
		close(r.gaugeStopCh)
		r.gaugeStopCh = nil
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	r.relay.Shutdown()
	return errors.Join(errs...)
}

// Addr reports the relay's bound listen address. Valid after Start.
func (r *Runtime) Addr() string {
	return r.relay.Addr()
}

// Publisher returns a handle for pushing frames into the running relay as an
// in-process producer.
func (r *Runtime) Publisher() *Publisher {
	return &Publisher{rt: r}
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	r.gaugeStopCh = make(chan struct{})
	go r.recordViewerGauge(r.gaugeStopCh, time.Second)
}

func (r *Runtime) recordViewerGauge(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.obs.SetGauge("samdemo_viewers", float64(r.relay.Registry().Len()))
		}
	}
}
