package server

import (
	"fmt"
	"net"

	"github.com/bio-routing/ospfd/protocols/ospf/types"
)

// maxDatagramSize bounds a single read; large enough to carry LSU
// floods of a full-mesh LSDB at the scale this daemon targets.
const maxDatagramSize = 64 * 1024

// Transport is the external collaborator this daemon depends on: an
// unreliable, unordered, datagram-oriented local channel keyed by
// router identifier. It's kept as a narrow interface so tests can
// swap in an in-memory bus instead of real sockets.
type Transport interface {
	// SendTo transmits b to the endpoint owned by dst.
	SendTo(dst types.RouterID, b []byte) error
	// ReceiveFrom blocks until a datagram arrives, returning its bytes.
	ReceiveFrom() ([]byte, error)
	// Close releases the underlying endpoint.
	Close() error
}

// udpTransport binds a UDP socket on 127.0.0.1:base+id, matching the
// port-per-router-id addressing scheme.
type udpTransport struct {
	id   types.RouterID
	base int
	conn *net.UDPConn
}

// NewUDPTransport binds the local endpoint for router id.
func NewUDPTransport(id types.RouterID, base int) (Transport, error) {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: base + int(id)}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind endpoint for router %d: %w", id, err)
	}

	return &udpTransport{id: id, base: base, conn: conn}, nil
}

func (t *udpTransport) SendTo(dst types.RouterID, b []byte) error {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: t.base + int(dst)}
	_, err := t.conn.WriteToUDP(b, addr)
	return err
}

func (t *udpTransport) ReceiveFrom() ([]byte, error) {
	buf := make([]byte, maxDatagramSize)
	n, _, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}

func (t *udpTransport) Close() error {
	return t.conn.Close()
}
