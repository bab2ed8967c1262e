package samdemo

import (
	"errors"
	"fmt"

	"github.com/matsuuchi-sam/SAMDEMO/internal/app/relay"
)

// ErrRelayClosed is returned by Publish once the relay has shut down.
var ErrRelayClosed = errors.New("samdemo: relay closed")

// Publisher pushes frames into a running relay, bypassing the websocket
// handshake. Published frames are stamped and broadcast exactly like frames
// from a connected producer.
type Publisher struct {
	rt *Runtime
}

// Publish hands one frame to the relay. A zero Kind defaults to sensor and a
// zero ReceivedAt is stamped at ingestion.
func (p *Publisher) Publish(f Frame) error {
	if p == nil || p.rt == nil {
		return fmt.Errorf("publisher is not attached to a runtime")
	}
	if err := p.rt.relay.Inject(f.toDomain()); err != nil {
		if errors.Is(err, relay.ErrClosed) {
			return ErrRelayClosed
		}
		return err
	}
	return nil
}
