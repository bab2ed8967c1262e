package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
)

// Decode turns one raw line into a Frame, stamping now as ingestion time.
// Blank and whitespace-only lines yield nil. A line that is not a JSON object
// becomes a Log frame carrying the original text, so raw debug output from
// the device still reaches viewers. Decode never fails on non-empty input.
func Decode(line []byte, now time.Time) *domain.Frame {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(trimmed, &payload); err != nil || payload == nil {
		return &domain.Frame{
			Kind:       domain.KindLog,
			Payload:    map[string]any{"message": string(trimmed)},
			ReceivedAt: now,
		}
	}

	f := &domain.Frame{
		Kind:       domain.KindSensor,
		Payload:    payload,
		ReceivedAt: now,
	}
	// Only a string "type" names the frame kind; any other value is payload
	// data and passes through untouched.
	if kind, ok := payload["type"].(string); ok && kind != "" {
		f.Kind = domain.Kind(kind)
		delete(payload, "type")
	}
	if demo, ok := payload["demo"].(bool); ok {
		f.Demo = demo
		delete(payload, "demo")
	}
	// Ingestion time is relay-assigned; a received_at sent by the source is
	// dropped rather than trusted.
	delete(payload, "received_at")
	return f
}

// Hello reports whether f is a producer handshake and returns its device id.
func Hello(f *domain.Frame) (string, bool) {
	if f == nil || f.Kind != domain.KindHello {
		return "", false
	}
	device, ok := f.Payload["device"].(string)
	if !ok || device == "" {
		return "", false
	}
	return device, true
}

// Encode renders f as one self-describing JSON record with shape
// {type, ...payload, received_at}. Round-trips are field-identical but not
// byte-identical: received_at is normalized to Unix seconds.
func Encode(f *domain.Frame) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("codec: nil frame")
	}
	record := make(map[string]any, len(f.Payload)+3)
	for k, v := range f.Payload {
		record[k] = v
	}
	kind := f.Kind
	if kind == "" {
		kind = domain.KindSensor
	}
	record["type"] = string(kind)
	record["received_at"] = unixSeconds(f.ReceivedAt)
	if f.Demo {
		record["demo"] = true
	}
	return json.Marshal(record)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}
