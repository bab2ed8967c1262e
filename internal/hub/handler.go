package hub

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matsuuchi-sam/SAMDEMO/internal/codec"
	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
	"github.com/matsuuchi-sam/SAMDEMO/internal/ports"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024

	defaultClassifyTimeout = 2 * time.Second
	defaultWriteTimeout    = 10 * time.Second
)

// Handler accepts websocket connections and runs each through the
// classification state machine: Unclassified → Producer | Consumer → Closed.
// Producers feed Emit; consumers are registered for fan-out.
type Handler struct {
	Registry        *Registry
	Emit            ports.EmitFunc
	Obs             ports.Observability
	ClassifyTimeout time.Duration
	WriteTimeout    time.Duration
	AllowedOrigins  []string

	producers atomic.Int64
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsReadBufferSize,
		WriteBufferSize: wsWriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return h.originAllowed(r)
		},
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Obs.LogError("websocket_upgrade_failed", err, ports.Field{Key: "remote", Value: r.RemoteAddr})
		return
	}

	writeTimeout := h.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	h.handle(newConn(ws, writeTimeout))
}

func (h *Handler) handle(c *Conn) {
	defer c.Close()

	role, first := h.classify(c)
	switch role {
	case RoleProducer:
		h.runProducer(c)
	case RoleConsumer:
		h.runConsumer(c, first)
	default:
		// Peer left before classification completed.
	}
}

// classify waits up to the classification bound for a first inbound message.
// Silence means viewer: dashboards connect and listen. A hello handshake
// means producer. Anything else means viewer too, but the message itself is
// ingested so a frame sent at connect time is not lost.
func (h *Handler) classify(c *Conn) (Role, *domain.Frame) {
	timeout := h.ClassifyTimeout
	if timeout <= 0 {
		timeout = defaultClassifyTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data, ok := <-c.inbound:
		if !ok {
			return RoleUnclassified, nil
		}
		f := codec.Decode(data, time.Now())
		if device, ok := codec.Hello(f); ok {
			c.classify(RoleProducer)
			h.Obs.LogInfo("producer_connected",
				ports.Field{Key: "remote", Value: c.Addr()},
				ports.Field{Key: "device", Value: device})
			h.Emit(&domain.Frame{
				Kind:       domain.KindDeviceConnected,
				Payload:    map[string]any{"device": device},
				ReceivedAt: time.Now(),
			})
			return RoleProducer, nil
		}
		c.classify(RoleConsumer)
		return RoleConsumer, f
	case <-timer.C:
		c.classify(RoleConsumer)
		return RoleConsumer, nil
	}
}

func (h *Handler) runProducer(c *Conn) {
	h.Obs.SetGauge("samdemo_producers", float64(h.producers.Add(1)))
	defer func() {
		h.Obs.SetGauge("samdemo_producers", float64(h.producers.Add(-1)))
		h.Obs.LogInfo("producer_disconnected", ports.Field{Key: "remote", Value: c.Addr()})
	}()

	for data := range c.inbound {
		if f := codec.Decode(data, time.Now()); f != nil {
			h.Emit(f)
		}
	}
}

func (h *Handler) runConsumer(c *Conn, first *domain.Frame) {
	ack := &domain.Frame{
		Kind:       domain.KindConnected,
		Payload:    map[string]any{"message": "connected to SAMDEMO relay"},
		ReceivedAt: time.Now(),
	}
	wire, err := codec.Encode(ack)
	if err != nil {
		h.Obs.LogError("ack_encode_failed", err)
		return
	}
	// The acknowledgement must reach the viewer before any data frame, so
	// registration happens only after the ack write succeeds.
	if err := c.Send(ack, wire); err != nil {
		h.Obs.LogError("ack_send_failed", err, ports.Field{Key: "remote", Value: c.Addr()})
		return
	}

	h.Registry.Register(c)
	defer h.Registry.Deregister(c)
	h.Obs.LogInfo("viewer_connected", ports.Field{Key: "remote", Value: c.Addr()})
	defer h.Obs.LogInfo("viewer_disconnected", ports.Field{Key: "remote", Value: c.Addr()})

	if first != nil {
		h.Emit(first)
	}

	// Viewer messages are read to detect disconnects and otherwise
	// discarded; reserved for future control commands.
	for range c.inbound {
	}
}

func (h *Handler) originAllowed(r *http.Request) bool {
	if len(h.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
