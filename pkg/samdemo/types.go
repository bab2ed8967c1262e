package samdemo

import (
	"time"

	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
	"github.com/matsuuchi-sam/SAMDEMO/internal/ports"
)

// Kind identifies a frame's type on the wire.
type Kind = domain.Kind

const (
	KindSensor          = domain.KindSensor
	KindLog             = domain.KindLog
	KindHello           = domain.KindHello
	KindConnected       = domain.KindConnected
	KindDeviceConnected = domain.KindDeviceConnected
)

// Source streams frames into the relay (serial ports, simulators, brokers, etc.).
type Source = ports.Source

// EmitFunc delivers one frame from a Source into the relay.
type EmitFunc = ports.EmitFunc

// Viewer receives every frame the relay broadcasts.
type Viewer = ports.Viewer

// Observability emits metrics/logs about relay throughput and fan-out health.
type Observability = ports.Observability

// Field is a structured log/metric field used by Observability implementations.
type Field = ports.Field

// Frame mirrors the internal relay frame but is safe for external callers.
type Frame struct {
	Kind       Kind
	Payload    map[string]any
	ReceivedAt time.Time
	Demo       bool
}

func (f Frame) toDomain() *domain.Frame {
	return &domain.Frame{
		Kind:       f.Kind,
		Payload:    copyPayload(f.Payload),
		ReceivedAt: f.ReceivedAt,
		Demo:       f.Demo,
	}
}

func frameFromDomain(f *domain.Frame) Frame {
	if f == nil {
		return Frame{}
	}
	return Frame{
		Kind:       f.Kind,
		Payload:    copyPayload(f.Payload),
		ReceivedAt: f.ReceivedAt,
		Demo:       f.Demo,
	}
}

func copyPayload(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
