package samdemo

import (
	"errors"
	"fmt"
	"sync"

	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
)

// ErrChannelTapClosed is returned when a channel tap receives a frame after
// being closed.
var ErrChannelTapClosed = errors.New("samdemo: channel tap closed")

// FrameFunc is invoked with every frame the relay broadcasts.
type FrameFunc func(Frame) error

// NewCallbackTap adapts a FrameFunc into a full Viewer implementation so
// callers can observe the broadcast stream without defining structs. A
// returned error deregisters the tap like a failed websocket write.
func NewCallbackTap(name string, fn FrameFunc) Viewer {
	if name == "" {
		name = "callback"
	}
	return &callbackTap{name: name, fn: fn}
}

// NewChannelTap exposes broadcast frames via a channel; it returns the
// viewer, the read-only channel, and a close function that the caller should
// invoke during shutdown.
func NewChannelTap(name string, buffer int) (Viewer, <-chan Frame, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Frame, buffer)
	t := &channelTap{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return t, ch, func() { t.close() }
}

type callbackTap struct {
	name string
	fn   FrameFunc
}

func (t *callbackTap) Send(f *domain.Frame, _ []byte) error {
	if t.fn == nil {
		return fmt.Errorf("callback tap %q: nil handler", t.name)
	}
	return t.fn(frameFromDomain(f))
}

func (t *callbackTap) Addr() string { return "tap:" + t.name }

type channelTap struct {
	name   string
	ch     chan Frame
	closed chan struct{}
	once   sync.Once
}

func (t *channelTap) Send(f *domain.Frame, _ []byte) error {
	select {
	case <-t.closed:
		return ErrChannelTapClosed
	default:
	}

	select {
	case <-t.closed:
		return ErrChannelTapClosed
	case t.ch <- frameFromDomain(f):
		return nil
	}
}

func (t *channelTap) Addr() string { return "tap:" + t.name }

func (t *channelTap) close() {
	t.once.Do(func() {
		close(t.closed)
		close(t.ch)
	})
}
