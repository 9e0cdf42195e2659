package packet

import (
	"testing"
	"time"

	"github.com/bio-routing/ospfd/protocols/ospf/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTripHello(t *testing.T) {
	env, err := NewEnvelope(1, 2, KindHello, &HelloPayload{RouterID: 1, AlreadySeen: true, Ack: false})
	require.NoError(t, err)

	raw, err := Encode(env)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, types.RouterID(1), got.Source)
	assert.Equal(t, types.RouterID(2), got.Destination)
	assert.Equal(t, KindHello, got.Kind)

	var p HelloPayload
	require.NoError(t, DecodePayload(got, &p))
	assert.True(t, p.AlreadySeen)
	assert.False(t, p.Ack)
}

func TestEnvelopeRoundTripLSUWithNestedLSAs(t *testing.T) {
	lsas := []*LSA{
		{Origin: 1, Sequence: 3, Metrics: map[types.RouterID]int{2: 5}, ReceivedTime: time.Now()},
		{Origin: 2, Sequence: 1, Metrics: map[types.RouterID]int{1: 5, 3: 2}, ReceivedTime: time.Now()},
	}

	env, err := NewEnvelope(1, 2, KindLSU, &LSUPayload{LSAs: lsas})
	require.NoError(t, err)

	raw, err := Encode(env)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)

	var p LSUPayload
	require.NoError(t, DecodePayload(got, &p))
	require.Len(t, p.LSAs, 2)
	assert.Equal(t, 5, p.LSAs[0].Metrics[2])
	assert.Equal(t, 2, p.LSAs[1].Metrics[3])
}

func TestDecodeMalformedDatagramErrors(t *testing.T) {
	_, err := Decode([]byte("not a gob stream"))
	assert.Error(t, err)
}

func TestLSACloneIsIndependent(t *testing.T) {
	original := &LSA{Origin: 1, Sequence: 1, Metrics: map[types.RouterID]int{2: 5}, ReceivedTime: time.Now()}

	clone := original.Clone()
	clone.Metrics[2] = 99

	assert.Equal(t, 5, original.Metrics[2])
}
