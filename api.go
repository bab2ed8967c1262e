package samdemo

import (
	base "github.com/matsuuchi-sam/SAMDEMO/pkg/samdemo"
)

// Re-exported errors for convenience.
var (
	ErrRelayClosed      = base.ErrRelayClosed
	ErrChannelTapClosed = base.ErrChannelTapClosed
)

// Type aliases so consumers can import github.com/matsuuchi-sam/SAMDEMO directly.
type (
	Config          = base.Config
	ListenConfig    = base.ListenConfig
	StaticConfig    = base.StaticConfig
	HubConfig       = base.HubConfig
	MetricsConfig   = base.MetricsConfig
	SerialConfig    = base.SerialConfig
	DemoConfig      = base.DemoConfig
	OPCUAConfig     = base.OPCUAConfig
	OPCUANodeConfig = base.OPCUANodeConfig
	Flow            = base.Flow
	FlowOption      = base.FlowOption
	InOption        = base.InOption
	OutOption       = base.OutOption
	Runtime         = base.Runtime
	RuntimeOption   = base.RuntimeOption
	Frame           = base.Frame
	FrameFunc       = base.FrameFunc
	Kind            = base.Kind
	Source          = base.Source
	EmitFunc        = base.EmitFunc
	Viewer          = base.Viewer
	Observability   = base.Observability
	Field           = base.Field
	Publisher       = base.Publisher
)

// Frame kinds.
const (
	KindSensor          = base.KindSensor
	KindLog             = base.KindLog
	KindHello           = base.KindHello
	KindConnected       = base.KindConnected
	KindDeviceConnected = base.KindDeviceConnected
)

// Run modes.
const (
	ModeSerial = base.ModeSerial
	ModePush   = base.ModePush
	ModeDemo   = base.ModeDemo
	ModeOPCUA  = base.ModeOPCUA
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func InSource(src Source) InOption {
	return base.InSource(src)
}

func InObservability(obs Observability) InOption {
	return base.InObservability(obs)
}

func OutViewer(v Viewer) OutOption {
	return base.OutViewer(v)
}

func OutCallback(name string, fn FrameFunc) OutOption {
	return base.OutCallback(name, fn)
}

func OutObservability(obs Observability) OutOption {
	return base.OutObservability(obs)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithSource(src Source) RuntimeOption {
	return base.WithSource(src)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithViewer(v Viewer) RuntimeOption {
	return base.WithViewer(v)
}

// Viewer adapters.
func NewCallbackTap(name string, fn FrameFunc) Viewer {
	return base.NewCallbackTap(name, fn)
}

func NewChannelTap(name string, buffer int) (Viewer, <-chan Frame, func()) {
	return base.NewChannelTap(name, buffer)
}
