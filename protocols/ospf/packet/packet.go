// Package packet implements the tagged-union wire codec for the five
// OSPF-style packet kinds exchanged between daemons. Encoding is not
// an external standard: it's an implementation contract between
// peers of this daemon, so encoding/gob is used directly rather than
// hand-rolled framing.
package packet

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/bio-routing/ospfd/protocols/ospf/types"
)

// Kind tags the payload carried by an Envelope.
type Kind uint8

const (
	KindHello Kind = iota + 1
	KindDBD
	KindLSR
	KindLSU
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "Hello"
	case KindDBD:
		return "DBD"
	case KindLSR:
		return "LSR"
	case KindLSU:
		return "LSU"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// LSA is the wire representation of a link-state advertisement.
type LSA struct {
	Origin       types.RouterID
	Sequence     int64
	Metrics      map[types.RouterID]int
	ReceivedTime time.Time
}

// Clone returns a deep copy, so a stored LSDB entry can be handed to
// the codec without aliasing the caller's metrics map.
func (l *LSA) Clone() *LSA {
	metrics := make(map[types.RouterID]int, len(l.Metrics))
	for k, v := range l.Metrics {
		metrics[k] = v
	}

	return &LSA{
		Origin:       l.Origin,
		Sequence:     l.Sequence,
		Metrics:      metrics,
		ReceivedTime: l.ReceivedTime,
	}
}

// HelloPayload is a liveness / two-way-reachability probe.
type HelloPayload struct {
	RouterID    types.RouterID
	AlreadySeen bool
	Ack         bool
}

// DBDPayload summarizes the sender's LSDB.
type DBDPayload struct {
	RouterID types.RouterID
	Sequence int64
	LSAs     []*LSA
}

// LSRPayload requests specific LSAs by origin.
type LSRPayload struct {
	RequestedOrigins []types.RouterID
}

// LSUPayload carries full LSAs, either in response to an LSR or as a
// flood.
type LSUPayload struct {
	LSAs []*LSA
}

// TextPayload carries an opaque user message.
type TextPayload struct {
	Bytes []byte
}

// Envelope is the common header every packet kind shares.
type Envelope struct {
	Source      types.RouterID
	Destination types.RouterID
	Kind        Kind
	Payload     []byte
}

// Encode serializes an Envelope whose Payload field has already been
// populated via EncodePayload.
func Encode(e *Envelope) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode parses a raw datagram into an Envelope. The Payload field is
// left gob-encoded; call DecodePayload to recover the typed value.
func Decode(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&e); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	return &e, nil
}

// EncodePayload gob-encodes a typed payload for embedding in an
// Envelope.
func EncodePayload(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodePayload decodes an Envelope's payload into out, which must be
// a pointer to the type matching e.Kind.
func DecodePayload(e *Envelope, out interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(e.Payload)).Decode(out); err != nil {
		return fmt.Errorf("decode payload kind %s: %w", e.Kind, err)
	}

	return nil
}

// NewEnvelope builds an Envelope with its payload already encoded.
func NewEnvelope(src, dst types.RouterID, kind Kind, payload interface{}) (*Envelope, error) {
	p, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Source:      src,
		Destination: dst,
		Kind:        kind,
		Payload:     p,
	}, nil
}
