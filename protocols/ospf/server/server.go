// Package server implements the OSPF-style protocol engine: neighbor
// discovery, database synchronization, flooding, SPF, and forwarding.
// It is the concurrency shell and control-plane core described by the
// link-state routing daemon; the datagram transport, command reader
// and serialization format are kept as narrow external collaborators.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/bio-routing/ospfd/protocols/ospf/metrics"
	"github.com/bio-routing/ospfd/protocols/ospf/packet"
	"github.com/bio-routing/ospfd/protocols/ospf/types"
	"github.com/bio-routing/ospfd/route"
	"github.com/bio-routing/ospfd/util/log"
	btime "github.com/bio-routing/ospfd/util/time"
)

// Server is one router's protocol engine.
type Server struct {
	id        types.RouterID
	cfg       Config
	transport Transport
	metrics   *metrics.Metrics

	lsdb         *lsdb
	neighbors    *neighborTable
	routingTable *route.Table

	// mu serializes the composite protocol steps (command handling,
	// packet handling, periodic sweeps) that touch more than one of
	// the above components, matching the coarse-grained-lock
	// approach acceptable at this event rate.
	mu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// NewServer constructs a Server for router id. The self-LSA starts
// with empty metrics and sequence 0.
func NewServer(id types.RouterID, cfg Config, transport Transport, m *metrics.Metrics) *Server {
	s := &Server{
		id:           id,
		cfg:          cfg,
		transport:    transport,
		metrics:      m,
		neighbors:    nil,
		routingTable: route.NewTable(id),
		done:         make(chan struct{}),
	}

	s.lsdb = newLSDB(s)
	s.neighbors = newNeighborTable(s)
	s.lsdb.entries[id] = &packet.LSA{
		Origin:       id,
		Sequence:     0,
		Metrics:      map[types.RouterID]int{},
		ReceivedTime: clockNow(),
	}

	return s
}

// clockNow is indirected so tests can fake the passage of time for
// dead-interval expiry without a real sleep.
var clockNow = time.Now

// Start launches the four long-lived protocol tasks: the hello, DBD
// and sweep loops driven by the given tickers, and the packet receiver.
func (s *Server) Start(helloTicker, dbdTicker, sweepTicker btime.Ticker) {
	s.wg.Add(1)
	go s.helloLoop(helloTicker)

	s.wg.Add(1)
	go s.dbdLoop(dbdTicker)

	s.wg.Add(1)
	go s.sweepLoop(sweepTicker)

	s.wg.Add(1)
	go s.receiveLoop()
}

// Stop signals every task to exit and waits for them. The transport
// is closed before waiting so the receiver's blocking read returns.
func (s *Server) Stop() {
	close(s.done)
	s.transport.Close()
	s.wg.Wait()
}

func (s *Server) helloLoop(t btime.Ticker) {
	defer s.wg.Done()
	defer t.Stop()

	for {
		select {
		case <-t.C():
			s.sendHellos()
		case <-s.done:
			return
		}
	}
}

func (s *Server) dbdLoop(t btime.Ticker) {
	defer s.wg.Done()
	defer t.Stop()

	for {
		select {
		case <-t.C():
			s.sendDBDs()
		case <-s.done:
			return
		}
	}
}

func (s *Server) sweepLoop(t btime.Ticker) {
	defer s.wg.Done()
	defer t.Stop()

	for {
		select {
		case <-t.C():
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *Server) receiveLoop() {
	defer s.wg.Done()

	for {
		raw, err := s.transport.ReceiveFrom()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.WithFields(log.Fields{"router": s.id}).Warnf("transport read failed: %v", err)
				continue
			}
		}

		s.handleRaw(raw)
	}
}

func (s *Server) handleRaw(raw []byte) {
	env, err := packet.Decode(raw)
	if err != nil {
		log.WithFields(log.Fields{"router": s.id}).Debugf("dropping malformed datagram: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.handleEnvelope(env)
}

// handleEnvelope forwards packets not addressed to self, and
// dispatches those that are. Must be called with s.mu held.
func (s *Server) handleEnvelope(env *packet.Envelope) {
	if env.Destination != s.id {
		if env.Kind == packet.KindText {
			log.WithFields(log.Fields{"router": s.id}).Infof("Forward message from %d to %d", env.Source, env.Destination)
		}
		s.forward(env)
		return
	}

	switch env.Kind {
	case packet.KindHello:
		s.handleHello(env)
	case packet.KindDBD:
		s.handleDBD(env)
	case packet.KindLSR:
		s.handleLSR(env)
	case packet.KindLSU:
		s.handleLSU(env)
	case packet.KindText:
		s.handleText(env)
	}
}

// forward retransmits env unchanged: text packets consult the routing
// table for the next hop, control packets go straight to their
// destination since they're always neighbor-addressed by construction.
func (s *Server) forward(env *packet.Envelope) {
	nextHop := env.Destination
	if env.Kind == packet.KindText {
		nextHop = s.routingTable.Find(env.Destination)
		if nextHop == -1 {
			log.WithFields(log.Fields{"router": s.id}).Warnf("no route to %d, dropping forwarded text packet", env.Destination)
			return
		}
	}

	s.transmit(nextHop, env)
}

// transmit encodes and sends env to nextHop verbatim.
func (s *Server) transmit(nextHop types.RouterID, env *packet.Envelope) {
	raw, err := packet.Encode(env)
	if err != nil {
		log.WithFields(log.Fields{"router": s.id}).Errorf("encode failed: %v", err)
		return
	}

	if err := s.transport.SendTo(nextHop, raw); err != nil {
		log.WithFields(log.Fields{"router": s.id}).Debugf("transport send to %d failed: %v", nextHop, err)
	}
}

// send builds and transmits a fresh envelope toward nextHop. Non-text
// control packets always go directly to nextHop (they're neighbor
// addressed), so destination and nextHop coincide here.
func (s *Server) send(destination types.RouterID, kind packet.Kind, payload interface{}) {
	env, err := packet.NewEnvelope(s.id, destination, kind, payload)
	if err != nil {
		log.WithFields(log.Fields{"router": s.id}).Errorf("build %s packet failed: %v", kind, err)
		return
	}

	s.transmit(destination, env)
}

// RoutingTable exposes a snapshot for operator/test inspection.
func (s *Server) RoutingTable() []route.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routingTable.All()
}

// LSDB exposes a snapshot for operator/test inspection.
func (s *Server) LSDB() []*packet.LSA {
	return s.lsdb.iter()
}

// Neighbors exposes a snapshot for operator/test inspection.
func (s *Server) Neighbors() []*Neighbor {
	return s.neighbors.all()
}

// ID returns the router identifier this Server was built for.
func (s *Server) ID() types.RouterID {
	return s.id
}

func (s *Server) refreshMetrics() {
	if s.metrics == nil {
		return
	}

	s.metrics.LSDBEntries.Set(float64(s.lsdb.size()))
	s.metrics.Routes.WithLabelValues(types.Static.String()).Set(float64(s.routingTable.CountByType(types.Static)))
	s.metrics.Routes.WithLabelValues(types.OSPF.String()).Set(float64(s.routingTable.CountByType(types.OSPF)))
	allStates := []types.NeighborState{types.Down, types.Init, types.Exchange, types.Full}
	for _, n := range s.neighbors.all() {
		label := fmt.Sprintf("%d", n.RouterID)
		for _, st := range allStates {
			value := 0.0
			if st == n.State() {
				value = 1
			}
			s.metrics.NeighborState.WithLabelValues(label, st.String()).Set(value)
		}
	}
}
