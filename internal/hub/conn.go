package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
	"github.com/matsuuchi-sam/SAMDEMO/internal/ports"
)

// Role is a connection's classified role. It is set exactly once; a second
// classification attempt is a no-op.
type Role int32

const (
	RoleUnclassified Role = iota
	RoleProducer
	RoleConsumer
)

func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	default:
		return "unclassified"
	}
}

// Conn wraps one accepted websocket peer. A dedicated reader goroutine feeds
// inbound so classification can wait on a bounded timer without poisoning
// the websocket read state; writes are serialized under writeMu with a
// deadline per message.
type Conn struct {
	ws           *websocket.Conn
	inbound      chan []byte
	done         chan struct{}
	writeTimeout time.Duration

	writeMu   sync.Mutex
	role      atomic.Int32
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	c := &Conn{
		ws:           ws,
		inbound:      make(chan []byte, 8),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer close(c.inbound)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		// The handler may have stopped draining inbound before closing the
		// connection; done keeps a full buffer from parking this goroutine
		// forever on the send.
		select {
		case c.inbound <- data:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) Addr() string {
	return c.ws.RemoteAddr().String()
}

// Send delivers one encoded frame to the peer. It satisfies ports.Viewer;
// the decoded frame is not needed over a websocket.
func (c *Conn) Send(_ *domain.Frame, wire []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, wire)
}

func (c *Conn) Role() Role {
	return Role(c.role.Load())
}

// classify transitions Unclassified → r. It reports whether the transition
// happened; a connection already classified keeps its role.
func (c *Conn) classify(r Role) bool {
	return c.role.CompareAndSwap(int32(RoleUnclassified), int32(r))
}

func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

var _ ports.Viewer = (*Conn)(nil)
