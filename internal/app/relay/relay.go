package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/matsuuchi-sam/SAMDEMO/internal/adapters/demosrc"
	"github.com/matsuuchi-sam/SAMDEMO/internal/adapters/opcuasrc"
	"github.com/matsuuchi-sam/SAMDEMO/internal/adapters/pushsrc"
	"github.com/matsuuchi-sam/SAMDEMO/internal/adapters/serialsrc"
	"github.com/matsuuchi-sam/SAMDEMO/internal/app/config"
	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
	"github.com/matsuuchi-sam/SAMDEMO/internal/hub"
	"github.com/matsuuchi-sam/SAMDEMO/internal/ports"
)

// ErrClosed is returned by Inject once the relay has shut down.
var ErrClosed = errors.New("relay is closed")

const framesBuffer = 64

// Relay wires the configured frame source into the viewer hub: source and
// producer connections feed one frames channel, a single dispatch goroutine
// stamps and broadcasts, and the websocket server carries both sides.
type Relay struct {
	cfg      *config.Config
	obs      ports.Observability
	source   ports.Source
	registry *hub.Registry
	frames   chan *domain.Frame

	fallbackOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	ln     net.Listener
	srv    *http.Server
	done   chan struct{}
	runErr error
}

// New builds a relay from cfg. A nil src selects the source implied by
// cfg.Mode.
func New(cfg *config.Config, src ports.Source, obs ports.Observability) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if obs == nil {
		return nil, fmt.Errorf("observability is required")
	}
	if src == nil {
		var err error
		src, err = BuildSource(cfg)
		if err != nil {
			return nil, err
		}
	}
	return &Relay{
		cfg:      cfg,
		obs:      obs,
		source:   src,
		registry: hub.NewRegistry(obs),
		frames:   make(chan *domain.Frame, framesBuffer),
	}, nil
}

// BuildSource constructs the frame source for a run mode.
func BuildSource(cfg *config.Config) (ports.Source, error) {
	switch cfg.Mode {
	case config.ModeSerial:
		return serialsrc.New(cfg.Serial)
	case config.ModePush:
		return pushsrc.New(), nil
	case config.ModeDemo:
		return demosrc.New(cfg.Demo), nil
	case config.ModeOPCUA:
		return opcuasrc.New(cfg.OPCUA)
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

// Start binds the listener and launches the relay. A bind failure aborts
// startup; no source is started and no fallback applies.
func (r *Relay) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.cfg.Listen.Addr)
	if err != nil {
		return fmt.Errorf("bind relay listener on %s: %w", r.cfg.Listen.Addr, err)
	}
	r.ln = ln
	r.ctx, r.cancel = context.WithCancel(ctx)

	mux := http.NewServeMux()
	mux.Handle("/ws", &hub.Handler{
		Registry:        r.registry,
		Emit:            r.emit,
		Obs:             r.obs,
		ClassifyTimeout: r.cfg.Hub.ClassifyTimeout,
		WriteTimeout:    r.cfg.Hub.WriteTimeout,
		AllowedOrigins:  r.cfg.Hub.AllowedOrigins,
	})
	if r.cfg.Static.Dir != "" {
		mux.Handle("/", http.FileServer(http.Dir(r.cfg.Static.Dir)))
	}
	r.srv = &http.Server{Handler: mux}

	r.done = make(chan struct{})
	go r.run(r.ctx)

	r.obs.LogInfo("relay_listening",
		ports.Field{Key: "addr", Value: ln.Addr().String()},
		ports.Field{Key: "mode", Value: r.cfg.Mode})
	return nil
}

// Run starts the relay and blocks until the context is cancelled or the
// server fails.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	return r.Wait()
}

// Wait blocks until the relay has stopped and returns the server error, if
// any.
func (r *Relay) Wait() error {
	<-r.done
	return r.runErr
}

// Shutdown cancels the relay. Viewer connections are closed at the transport
// level; no farewell frame is sent.
func (r *Relay) Shutdown() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Addr reports the bound listen address. Valid after Start.
func (r *Relay) Addr() string {
	return r.ln.Addr().String()
}

func (r *Relay) Registry() *hub.Registry {
	return r.registry
}

// Inject feeds a frame into the relay as if a producer had sent it.
func (r *Relay) Inject(f *domain.Frame) error {
	if f == nil {
		return nil
	}
	if r.ctx == nil {
		return fmt.Errorf("relay not started")
	}
	select {
	case <-r.ctx.Done():
		return ErrClosed
	case r.frames <- f:
		return nil
	}
}

func (r *Relay) run(ctx context.Context) {
	defer close(r.done)

	go r.dispatch(ctx)
	go r.runSource(ctx)
	go func() {
		<-ctx.Done()
		_ = r.srv.Close()
	}()

	if err := r.srv.Serve(r.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		r.runErr = err
		r.cancel()
	}
}

func (r *Relay) emit(f *domain.Frame) {
	select {
	case r.frames <- f:
	case <-r.ctx.Done():
	}
}

// dispatch is the single broadcast path: every frame, whatever its origin,
// is stamped here and fanned out in arrival order.
func (r *Relay) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-r.frames:
			if f == nil {
				continue
			}
			if f.Kind == "" {
				f.Kind = domain.KindSensor
			}
			if f.ReceivedAt.IsZero() {
				f.ReceivedAt = time.Now()
			}
			r.registry.Broadcast(f)
		}
	}
}

// runSource drives the configured source. A terminal fault switches to the
// demo source exactly once so viewers keep receiving data; a fault in the
// fallback itself stops ingestion for good.
func (r *Relay) runSource(ctx context.Context) {
	src := r.source
	for {
		err := src.Run(ctx, r.emit)
		if ctx.Err() != nil || err == nil {
			return
		}

		r.obs.LogError("source_failed", err, ports.Field{Key: "source", Value: src.Name()})

		var first bool
		r.fallbackOnce.Do(func() { first = true })
		if !first {
			r.obs.LogCritical("fallback_source_failed", err)
			return
		}

		r.obs.IncCounter("samdemo_source_fallbacks_total", 1)
		r.obs.LogInfo("switching_to_demo_source", ports.Field{Key: "failed", Value: src.Name()})
		src = demosrc.New(r.cfg.Demo)
	}
}
