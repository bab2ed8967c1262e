package samdemo

import (
	"context"
	"fmt"
)

// Flow is a convenience builder that lets callers say Conf → In → Out without
// touching the underlying hexagonal wiring.
type Flow struct {
	cfg  *Config
	opts []RuntimeOption
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// InOption configures the source side of the relay.
type InOption func(*Flow)

// OutOption configures the viewer/observability side of the relay.
type OutOption func(*Flow)

// Conf loads YAML from disk, applies FlowOption values, and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the underlying configuration so callers can tweak it before building a runtime.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends raw RuntimeOption values to the builder for advanced scenarios.
func (f *Flow) Options(opts ...RuntimeOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

// In records source-side overrides (custom sources, observability).
func (f *Flow) In(opts ...InOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Out records viewer-side overrides and builds a Runtime ready to run.
func (f *Flow) Out(opts ...OutOption) (*Runtime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return NewRuntime(f.cfg, f.opts...)
}

// Run is a shortcut for Out + runtime.Run.
func (f *Flow) Run(ctx context.Context, opts ...OutOption) error {
	rt, err := f.Out(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

// WithFlowOptions appends RuntimeOption values during Conf.
func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

// InSource injects a custom frame source (MQTT, simulators, replay files, etc.).
func InSource(src Source) InOption {
	return func(f *Flow) {
		if f != nil && src != nil {
			f.appendOptions(WithSource(src))
		}
	}
}

// InObservability overrides the default Prometheus-based observability stack.
func InObservability(obs Observability) InOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

// OutViewer registers an in-process viewer alongside the websocket dashboards.
func OutViewer(v Viewer) OutOption {
	return func(f *Flow) {
		if f != nil && v != nil {
			f.appendOptions(WithViewer(v))
		}
	}
}

// OutCallback installs a viewer built from a simple callback function.
func OutCallback(name string, fn FrameFunc) OutOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(WithViewer(NewCallbackTap(name, fn)))
		}
	}
}

// OutObservability replaces the default observability backend.
func OutObservability(obs Observability) OutOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

func (f *Flow) appendOptions(opts ...RuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
