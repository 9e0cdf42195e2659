package server

import (
	"testing"
	"time"

	"github.com/bio-routing/ospfd/protocols/ospf/types"
	btime "github.com/bio-routing/ospfd/util/time"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRouter bundles a Server with the manual tickers driving it, so
// a test can step hello/DBD/sweep ticks deterministically instead of
// sleeping on wall-clock intervals.
type testRouter struct {
	srv   *Server
	hello *btime.ManualTicker
	dbd   *btime.ManualTicker
	sweep *btime.ManualTicker
}

func newTestRouter(bus *memBus, id types.RouterID) *testRouter {
	tr := &testRouter{
		hello: btime.NewManualTicker(),
		dbd:   btime.NewManualTicker(),
		sweep: btime.NewManualTicker(),
	}

	cfg := DefaultConfig()
	tr.srv = NewServer(id, cfg, bus.newTransport(id), nil)
	tr.srv.Start(tr.hello, tr.dbd, tr.sweep)
	return tr
}

func (tr *testRouter) tickHello() {
	tr.hello.Fire(time.Now())
	time.Sleep(20 * time.Millisecond)
}

func (tr *testRouter) tickDBD() {
	tr.dbd.Fire(time.Now())
	time.Sleep(20 * time.Millisecond)
}

func (tr *testRouter) converge(rounds int) {
	for i := 0; i < rounds; i++ {
		tr.tickHello()
		tr.tickDBD()
	}
}

func TestScenarioTwoRoutersFormAdjacency(t *testing.T) {
	bus := newMemBus()
	r1 := newTestRouter(bus, 1)
	r2 := newTestRouter(bus, 2)
	defer r1.srv.Stop()
	defer r2.srv.Stop()

	require.NoError(t, r1.srv.HandleCommand("addlink 2 10"))
	require.NoError(t, r2.srv.HandleCommand("addlink 1 10"))

	for i := 0; i < 6; i++ {
		r1.converge(1)
		r2.converge(1)
	}

	n1 := r1.srv.neighbors.find(2)
	n2 := r2.srv.neighbors.find(1)
	require.NotNil(t, n1)
	require.NotNil(t, n2)
	assert.Equal(t, types.Full, n1.State())
	assert.Equal(t, types.Full, n2.State())

	assert.NotNil(t, r1.srv.lsdb.get(1))
	assert.NotNil(t, r1.srv.lsdb.get(2))
	assert.NotNil(t, r2.srv.lsdb.get(1))
	assert.NotNil(t, r2.srv.lsdb.get(2))

	route1 := r1.srv.routingTable.All()
	foundOSPF := false
	for _, e := range route1 {
		if e.Type == types.OSPF && e.Destination == 2 {
			foundOSPF = true
			assert.Equal(t, types.RouterID(2), e.NextHop)
			assert.Equal(t, 10, e.Cost)
		}
	}
	assert.True(t, foundOSPF)
}

func TestScenarioMessageForwarding(t *testing.T) {
	bus := newMemBus()
	r1 := newTestRouter(bus, 1)
	r2 := newTestRouter(bus, 2)
	r3 := newTestRouter(bus, 3)
	defer r1.srv.Stop()
	defer r2.srv.Stop()
	defer r3.srv.Stop()

	require.NoError(t, r1.srv.HandleCommand("addlink 2 1"))
	require.NoError(t, r2.srv.HandleCommand("addlink 1 1"))
	require.NoError(t, r2.srv.HandleCommand("addlink 3 1"))
	require.NoError(t, r3.srv.HandleCommand("addlink 2 1"))

	for i := 0; i < 12; i++ {
		r1.converge(1)
		r2.converge(1)
		r3.converge(1)
	}

	require.NoError(t, r1.srv.HandleCommand("send 3 hello"))
	time.Sleep(50 * time.Millisecond)

	route1 := r1.srv.routingTable.Find(3)
	assert.Equal(t, types.RouterID(2), route1)
}

func TestScenarioLinkRemovalReroutes(t *testing.T) {
	bus := newMemBus()
	r1 := newTestRouter(bus, 1)
	r2 := newTestRouter(bus, 2)
	r3 := newTestRouter(bus, 3)
	defer r1.srv.Stop()
	defer r2.srv.Stop()
	defer r3.srv.Stop()

	require.NoError(t, r1.srv.HandleCommand("addlink 2 1"))
	require.NoError(t, r1.srv.HandleCommand("addlink 3 5"))
	require.NoError(t, r2.srv.HandleCommand("addlink 1 1"))
	require.NoError(t, r2.srv.HandleCommand("addlink 3 1"))
	require.NoError(t, r3.srv.HandleCommand("addlink 1 5"))
	require.NoError(t, r3.srv.HandleCommand("addlink 2 1"))

	for i := 0; i < 12; i++ {
		r1.converge(1)
		r2.converge(1)
		r3.converge(1)
	}

	require.NoError(t, r1.srv.HandleCommand("rmlink 3"))

	for _, e := range r1.srv.routingTable.All() {
		assert.False(t, e.Type == types.Static && e.Destination == 3)
	}

	assert.Equal(t, types.RouterID(2), r1.srv.routingTable.Find(3))
}
