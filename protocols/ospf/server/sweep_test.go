package server

import (
	"testing"
	"time"

	"github.com/bio-routing/ospfd/protocols/ospf/types"
	btime "github.com/bio-routing/ospfd/util/time"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioLSARefreshWithNoPeer mirrors a single router whose only
// configured neighbor never runs: after LSARefreshTime elapses the
// self-LSA's sequence advances with no neighbor ever reaching Full and
// no OSPF routes installed.
func TestScenarioLSARefreshWithNoPeer(t *testing.T) {
	bus := newMemBus()
	cfg := DefaultConfig()
	cfg.LSARefreshTime = 0 // force every sweep to refresh

	tr := &testRouter{
		hello: btime.NewManualTicker(),
		dbd:   btime.NewManualTicker(),
		sweep: btime.NewManualTicker(),
	}
	tr.srv = NewServer(1, cfg, bus.newTransport(1), nil)
	tr.srv.Start(tr.hello, tr.dbd, tr.sweep)
	defer tr.srv.Stop()

	require.NoError(t, tr.srv.HandleCommand("addlink 2 1"))

	before := tr.srv.lsdb.get(1).Sequence

	tr.sweep.Fire(time.Now())
	time.Sleep(20 * time.Millisecond)

	after := tr.srv.lsdb.get(1).Sequence
	assert.Greater(t, after, before)
	assert.False(t, tr.srv.neighbors.anyFull())
	assert.Zero(t, tr.srv.routingTable.CountByType(types.OSPF))
}

func TestDeadIntervalExpiryTearsDownNeighbor(t *testing.T) {
	bus := newMemBus()
	cfg := DefaultConfig()
	cfg.DeadInterval = time.Millisecond

	tr := &testRouter{
		hello: btime.NewManualTicker(),
		dbd:   btime.NewManualTicker(),
		sweep: btime.NewManualTicker(),
	}
	tr.srv = NewServer(1, cfg, bus.newTransport(1), nil)
	tr.srv.Start(tr.hello, tr.dbd, tr.sweep)
	defer tr.srv.Stop()

	require.NoError(t, tr.srv.HandleCommand("addlink 2 1"))
	n := tr.srv.neighbors.find(2)
	n.setState(types.Full)
	n.lastSeen = time.Now().Add(-time.Hour)

	tr.sweep.Fire(time.Now())
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, types.Down, tr.srv.neighbors.find(2).State())
	assert.Nil(t, tr.srv.lsdb.get(2))
}
