package server

import (
	"errors"

	"github.com/bio-routing/ospfd/protocols/ospf/types"
)

// memBus is an in-memory Transport registry connecting several
// Servers in the same test without real sockets.
type memBus struct {
	endpoints map[types.RouterID]*memTransport
}

func newMemBus() *memBus {
	return &memBus{endpoints: make(map[types.RouterID]*memTransport)}
}

func (b *memBus) newTransport(id types.RouterID) *memTransport {
	t := &memTransport{id: id, bus: b, inbox: make(chan []byte, 256)}
	b.endpoints[id] = t
	return t
}

type memTransport struct {
	id    types.RouterID
	bus   *memBus
	inbox chan []byte
}

func (t *memTransport) SendTo(dst types.RouterID, b []byte) error {
	peer, ok := t.bus.endpoints[dst]
	if !ok {
		return errors.New("no such endpoint")
	}

	cp := make([]byte, len(b))
	copy(cp, b)
	peer.inbox <- cp
	return nil
}

func (t *memTransport) ReceiveFrom() ([]byte, error) {
	b, ok := <-t.inbox
	if !ok {
		return nil, errors.New("closed")
	}
	return b, nil
}

func (t *memTransport) Close() error {
	close(t.inbox)
	return nil
}
