package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
	"github.com/matsuuchi-sam/SAMDEMO/internal/ports"
)

func TestBroadcastDeliversIdenticalWireToAll(t *testing.T) {
	reg := NewRegistry(&mockObs{})

	viewers := []*fakeViewer{{id: "a"}, {id: "b"}, {id: "c"}}
	for _, v := range viewers {
		reg.Register(v)
	}

	f := &domain.Frame{
		Kind:       domain.KindSensor,
		Payload:    map[string]any{"temp": 25.3, "humidity": 60.1},
		ReceivedAt: time.Unix(1700000000, 0),
	}
	reg.Broadcast(f)

	var first string
	for i, v := range viewers {
		if len(v.wires) != 1 {
			t.Fatalf("viewer %s received %d frames, want 1", v.id, len(v.wires))
		}
		if i == 0 {
			first = v.wires[0]
			continue
		}
		if v.wires[0] != first {
			t.Fatalf("viewer %s received different bytes: %s vs %s", v.id, v.wires[0], first)
		}
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(first), &record); err != nil {
		t.Fatalf("wire record is not JSON: %v", err)
	}
	if record["type"] != "sensor" || record["temp"] != 25.3 {
		t.Fatalf("unexpected wire record: %v", record)
	}
}

func TestBroadcastEmptyRegistrySkipsSerialization(t *testing.T) {
	obs := &mockObs{}
	reg := NewRegistry(obs)

	// This payload cannot be serialized; with no viewers registered the
	// encoder must never see it.
	reg.Broadcast(&domain.Frame{
		Kind:    domain.KindSensor,
		Payload: map[string]any{"bad": func() {}},
	})

	if obs.errorCount() != 0 {
		t.Fatalf("expected no encode attempt on empty registry")
	}
}

func TestBroadcastRemovesFailedRecipientsAfterPass(t *testing.T) {
	obs := &mockObs{}
	reg := NewRegistry(obs)

	healthy := &fakeViewer{id: "healthy"}
	broken := &fakeViewer{id: "broken", fail: true}
	reg.Register(healthy)
	reg.Register(broken)

	f := &domain.Frame{Kind: domain.KindSensor, Payload: map[string]any{"temp": 1.0}}
	reg.Broadcast(f)

	if len(healthy.wires) != 1 {
		t.Fatalf("per-recipient failure aborted the fan-out: healthy got %d frames", len(healthy.wires))
	}
	if reg.Len() != 1 {
		t.Fatalf("failed recipient not removed: registry has %d entries", reg.Len())
	}

	reg.Broadcast(f)
	if broken.sends != 1 {
		t.Fatalf("deregistered viewer still receiving: %d sends", broken.sends)
	}
}

func TestBroadcastClosesFailedRecipients(t *testing.T) {
	reg := NewRegistry(&mockObs{})

	healthy := &fakeViewer{id: "healthy"}
	broken := &fakeViewer{id: "broken", fail: true}
	reg.Register(healthy)
	reg.Register(broken)

	reg.Broadcast(&domain.Frame{Kind: domain.KindSensor, Payload: map[string]any{"temp": 1.0}})

	if !broken.wasClosed() {
		t.Fatalf("failed recipient must be closed, not left connected and starved")
	}
	if healthy.wasClosed() {
		t.Fatalf("healthy recipient must stay open")
	}
}

func TestViewerGaugeTracksMembershipInOrder(t *testing.T) {
	obs := &mockObs{}
	reg := NewRegistry(obs)

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				reg.Register(&fakeViewer{id: "v"})
			}
		}()
	}
	wg.Wait()

	values := obs.viewerGaugeValues()
	if len(values) != workers*perWorker {
		t.Fatalf("expected %d gauge updates, got %d", workers*perWorker, len(values))
	}
	// Registrations only grow the set, so updates published under the
	// registry lock must count up without gaps or reordering.
	for i, v := range values {
		if v != float64(i+1) {
			t.Fatalf("gauge update %d out of order: got %f", i, v)
		}
	}
	if got := values[len(values)-1]; got != float64(reg.Len()) {
		t.Fatalf("final gauge %f disagrees with registry size %d", got, reg.Len())
	}
}

func TestRegistryNoDuplicates(t *testing.T) {
	reg := NewRegistry(&mockObs{})
	v := &fakeViewer{id: "dup"}

	reg.Register(v)
	reg.Register(v)
	if reg.Len() != 1 {
		t.Fatalf("duplicate registration: len=%d", reg.Len())
	}

	reg.Deregister(v)
	reg.Deregister(v)
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, len=%d", reg.Len())
	}
}

func TestRegistryConcurrentMutationDuringBroadcast(t *testing.T) {
	reg := NewRegistry(&mockObs{})
	f := &domain.Frame{Kind: domain.KindSensor, Payload: map[string]any{"temp": 1.0}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := &fakeViewer{id: "v"}
			for j := 0; j < 50; j++ {
				reg.Register(v)
				reg.Broadcast(f)
				reg.Deregister(v)
			}
		}()
	}
	wg.Wait()

	if reg.Len() != 0 {
		t.Fatalf("expected empty registry after churn, len=%d", reg.Len())
	}
}

type fakeViewer struct {
	id   string
	fail bool

	mu     sync.Mutex
	wires  []string
	sends  int
	closed bool
}

func (v *fakeViewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}

func (v *fakeViewer) wasClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *fakeViewer) Send(_ *domain.Frame, wire []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sends++
	if v.fail {
		return errors.New("peer gone")
	}
	v.wires = append(v.wires, string(wire))
	return nil
}

func (v *fakeViewer) Addr() string { return v.id }

type mockObs struct {
	mu           sync.Mutex
	errors       []error
	infos        []string
	viewerGauges []float64
}

func (m *mockObs) LogInfo(msg string, _ ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockObs) LogError(_ string, err error, _ ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
}

func (m *mockObs) LogCritical(_ string, err error, _ ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
}

func (m *mockObs) IncCounter(string, float64)     {}
func (m *mockObs) ObserveLatency(string, float64) {}

func (m *mockObs) SetGauge(name string, v float64) {
	if name != "samdemo_viewers" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewerGauges = append(m.viewerGauges, v)
}

func (m *mockObs) viewerGaugeValues() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.viewerGauges...)
}

func (m *mockObs) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}
