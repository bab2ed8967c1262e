package hub

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
)

const testClassifyTimeout = 100 * time.Millisecond

func newTestHub(t *testing.T) (*Registry, chan *domain.Frame, string) {
	t.Helper()

	reg := NewRegistry(&mockObs{})
	frames := make(chan *domain.Frame, 32)
	h := &Handler{
		Registry:        reg,
		Emit:            func(f *domain.Frame) { frames <- f },
		Obs:             &mockObs{},
		ClassifyTimeout: testClassifyTimeout,
		WriteTimeout:    time.Second,
	}

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return reg, frames, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readRecord(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("record is not JSON: %v (%s)", err, data)
	}
	return record
}

func waitForViewers(t *testing.T, reg *Registry, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for reg.Len() != want {
		if time.Now().After(deadline) {
			t.Fatalf("registry never reached %d viewers (have %d)", want, reg.Len())
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func waitForFrame(t *testing.T, frames chan *domain.Frame) *domain.Frame {
	t.Helper()
	select {
	case f := <-frames:
		return f
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for ingested frame")
		return nil
	}
}

func TestSilentConnectionClassifiedConsumer(t *testing.T) {
	reg, _, url := newTestHub(t)
	ws := dial(t, url)

	// Say nothing; the classification bound must expire and the relay must
	// answer with exactly one connected acknowledgement.
	record := readRecord(t, ws)
	if record["type"] != "connected" {
		t.Fatalf("expected connected ack, got %v", record)
	}
	if _, ok := record["received_at"]; !ok {
		t.Fatalf("ack must carry the server timestamp: %v", record)
	}
	waitForViewers(t, reg, 1)
}

func TestHelloClassifiesProducer(t *testing.T) {
	reg, frames, url := newTestHub(t)
	producer := dial(t, url)

	if err := producer.WriteMessage(websocket.TextMessage, []byte(`{"type":"hello","device":"esp32-X"}`)); err != nil {
		t.Fatalf("send hello: %v", err)
	}

	f := waitForFrame(t, frames)
	if f.Kind != domain.KindDeviceConnected {
		t.Fatalf("expected device_connected broadcast, got %s", f.Kind)
	}
	if f.Payload["device"] != "esp32-X" {
		t.Fatalf("device id not carried: %+v", f.Payload)
	}
	if reg.Len() != 0 {
		t.Fatalf("producer must not be registered as a viewer")
	}

	if err := producer.WriteMessage(websocket.TextMessage, []byte(`{"temp":21.5}`)); err != nil {
		t.Fatalf("send sensor line: %v", err)
	}
	f = waitForFrame(t, frames)
	if f.Kind != domain.KindSensor || f.Payload["temp"] != 21.5 {
		t.Fatalf("producer line not ingested: %+v", f)
	}
}

func TestHelloTriggersExactlyOneDeviceConnected(t *testing.T) {
	_, frames, url := newTestHub(t)
	producer := dial(t, url)

	if err := producer.WriteMessage(websocket.TextMessage, []byte(`{"type":"hello","device":"solo"}`)); err != nil {
		t.Fatalf("send hello: %v", err)
	}
	f := waitForFrame(t, frames)
	if f.Kind != domain.KindDeviceConnected {
		t.Fatalf("expected device_connected, got %s", f.Kind)
	}

	select {
	case extra := <-frames:
		t.Fatalf("unexpected extra frame after handshake: %+v", extra)
	case <-time.After(2 * testClassifyTimeout):
	}
}

func TestFirstNonHelloMessageIngestedAndClassifiedConsumer(t *testing.T) {
	reg, frames, url := newTestHub(t)
	ws := dial(t, url)

	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"temp":19.0}`)); err != nil {
		t.Fatalf("send first message: %v", err)
	}

	record := readRecord(t, ws)
	if record["type"] != "connected" {
		t.Fatalf("expected connected ack before data, got %v", record)
	}

	f := waitForFrame(t, frames)
	if f.Kind != domain.KindSensor || f.Payload["temp"] != 19.0 {
		t.Fatalf("first message was not ingested: %+v", f)
	}
	waitForViewers(t, reg, 1)
}

func TestConsumerPostClassificationMessagesDiscarded(t *testing.T) {
	reg, frames, url := newTestHub(t)
	ws := dial(t, url)

	record := readRecord(t, ws)
	if record["type"] != "connected" {
		t.Fatalf("expected connected ack, got %v", record)
	}
	waitForViewers(t, reg, 1)

	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"temp":99.0}`)); err != nil {
		t.Fatalf("send post-classification message: %v", err)
	}

	select {
	case f := <-frames:
		t.Fatalf("consumer message must not be ingested: %+v", f)
	case <-time.After(2 * testClassifyTimeout):
	}
}

func TestTwoProducersBothStreamsIngested(t *testing.T) {
	_, frames, url := newTestHub(t)

	first := dial(t, url)
	second := dial(t, url)
	for i, ws := range []*websocket.Conn{first, second} {
		hello := []byte(`{"type":"hello","device":"dev-` + string(rune('a'+i)) + `"}`)
		if err := ws.WriteMessage(websocket.TextMessage, hello); err != nil {
			t.Fatalf("send hello %d: %v", i, err)
		}
		if f := waitForFrame(t, frames); f.Kind != domain.KindDeviceConnected {
			t.Fatalf("expected device_connected for producer %d, got %s", i, f.Kind)
		}
	}

	if err := first.WriteMessage(websocket.TextMessage, []byte(`{"sensor":"a","v":1}`)); err != nil {
		t.Fatalf("first producer send: %v", err)
	}
	if err := second.WriteMessage(websocket.TextMessage, []byte(`{"sensor":"b","v":2}`)); err != nil {
		t.Fatalf("second producer send: %v", err)
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		f := waitForFrame(t, frames)
		if sensor, ok := f.Payload["sensor"].(string); ok {
			seen[sensor] = true
		}
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("both producer streams must be merged, saw %v", seen)
	}
}

func TestConsumerDisconnectDeregisters(t *testing.T) {
	reg, _, url := newTestHub(t)
	ws := dial(t, url)

	readRecord(t, ws) // connected ack
	waitForViewers(t, reg, 1)

	ws.Close()
	waitForViewers(t, reg, 0)
}

func TestRoleSetExactlyOnce(t *testing.T) {
	c := &Conn{}
	if !c.classify(RoleConsumer) {
		t.Fatalf("first classification must transition")
	}
	if c.classify(RoleProducer) {
		t.Fatalf("second classification must be a forbidden transition")
	}
	if c.Role() != RoleConsumer {
		t.Fatalf("role changed after being set: %s", c.Role())
	}
}
