package domain

import "time"

// Kind classifies a Frame; it travels as the "type" field of a wire record.
type Kind string

const (
	KindSensor          Kind = "sensor"
	KindLog             Kind = "log"
	KindHello           Kind = "hello"
	KindConnected       Kind = "connected"
	KindDeviceConnected Kind = "device_connected"
)

// Frame is the canonical unit of telemetry in the SAMDEMO relay: one decoded
// event ready for fan-out. Payload is schema-free and passes through the
// relay unmodified. ReceivedAt is assigned by the relay at ingestion and is
// never trusted from the source. Demo marks synthetic generator output.
type Frame struct {
	Kind       Kind
	Payload    map[string]any
	ReceivedAt time.Time
	Demo       bool
}
