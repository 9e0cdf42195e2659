package server

import (
	"github.com/bio-routing/ospfd/protocols/ospf/packet"
	"github.com/bio-routing/ospfd/protocols/ospf/types"
	"github.com/bio-routing/ospfd/util/log"
)

// sendHellos emits a hello to every configured neighbor. already_seen
// is set once the neighbor is past Down, signaling we've heard back
// from it before.
func (s *Server) sendHellos() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.neighbors.all() {
		s.sendHelloTo(n, n.State() != types.Down, false)
	}
}

func (s *Server) sendHelloTo(n *Neighbor, alreadySeen, ack bool) {
	s.send(n.RouterID, packet.KindHello, &packet.HelloPayload{
		RouterID:    s.id,
		AlreadySeen: alreadySeen,
		Ack:         ack,
	})
}

// handleHello advances the sending neighbor's state machine. An
// acknowledging hello is terminal: it doesn't itself advance state.
func (s *Server) handleHello(env *packet.Envelope) {
	var p packet.HelloPayload
	if err := packet.DecodePayload(env, &p); err != nil {
		log.WithFields(log.Fields{"router": s.id}).Debugf("dropping malformed hello: %v", err)
		return
	}

	if p.Ack {
		return
	}

	n := s.neighbors.find(env.Source)
	if n == nil {
		return
	}

	n.lastSeen = clockNow()

	if n.State() != types.Full {
		if p.AlreadySeen {
			n.setState(types.Exchange)
		} else {
			n.setState(types.Init)
		}
	}

	s.sendHelloTo(n, true, true)
}

// sendDBDs transmits the current LSDB summary to every Exchange/Full
// neighbor.
func (s *Server) sendDBDs() {
	s.mu.Lock()
	defer s.mu.Unlock()

	lsas := s.lsdb.iter()
	for _, n := range s.neighbors.exchangeOrFullNeighbors() {
		s.send(n.RouterID, packet.KindDBD, &packet.DBDPayload{
			RouterID: s.id,
			Sequence: 1,
			LSAs:     lsas,
		})
	}
}

// handleDBD compares the neighbor's advertised LSAs against the local
// LSDB. A gap triggers an LSR and keeps the neighbor in Exchange; no
// gap advances the neighbor to Full and schedules SPF.
func (s *Server) handleDBD(env *packet.Envelope) {
	var p packet.DBDPayload
	if err := packet.DecodePayload(env, &p); err != nil {
		log.WithFields(log.Fields{"router": s.id}).Debugf("dropping malformed DBD: %v", err)
		return
	}

	n := s.neighbors.find(env.Source)
	if n == nil {
		return
	}

	n.lastDBD = &p

	gaps := make([]types.RouterID, 0)
	for _, lsa := range p.LSAs {
		local := s.lsdb.get(lsa.Origin)
		if local == nil || local.Sequence < lsa.Sequence {
			gaps = append(gaps, lsa.Origin)
		}
	}

	if len(gaps) > 0 {
		s.send(n.RouterID, packet.KindLSR, &packet.LSRPayload{RequestedOrigins: gaps})
		return
	}

	n.setState(types.Full)
	s.runSPF()
	s.refreshMetrics()
}

// handleLSR answers a request for specific origins with whatever the
// local LSDB holds for them.
func (s *Server) handleLSR(env *packet.Envelope) {
	var p packet.LSRPayload
	if err := packet.DecodePayload(env, &p); err != nil {
		log.WithFields(log.Fields{"router": s.id}).Debugf("dropping malformed LSR: %v", err)
		return
	}

	lsas := make([]*packet.LSA, 0, len(p.RequestedOrigins))
	for _, origin := range p.RequestedOrigins {
		if lsa := s.lsdb.get(origin); lsa != nil {
			lsas = append(lsas, lsa)
		}
	}

	if len(lsas) == 0 {
		return
	}

	s.send(env.Source, packet.KindLSU, &packet.LSUPayload{LSAs: lsas})
}

// handleLSU installs any strictly newer LSAs and refloods them to
// every Full neighbor except the one the LSU arrived from (split
// horizon), then schedules SPF.
func (s *Server) handleLSU(env *packet.Envelope) {
	var p packet.LSUPayload
	if err := packet.DecodePayload(env, &p); err != nil {
		log.WithFields(log.Fields{"router": s.id}).Debugf("dropping malformed LSU: %v", err)
		return
	}

	installed := make([]*packet.LSA, 0)
	for _, lsa := range p.LSAs {
		if s.lsdb.addOrReplace(lsa) {
			installed = append(installed, lsa)
		}
	}

	if len(installed) > 0 {
		for _, n := range s.neighbors.fullNeighbors() {
			if n.RouterID == env.Source {
				continue
			}
			s.send(n.RouterID, packet.KindLSU, &packet.LSUPayload{LSAs: installed})
		}
	}

	s.runSPF()
	s.refreshMetrics()
}

// handleText delivers a message addressed to self.
func (s *Server) handleText(env *packet.Envelope) {
	var p packet.TextPayload
	if err := packet.DecodePayload(env, &p); err != nil {
		log.WithFields(log.Fields{"router": s.id}).Debugf("dropping malformed text packet: %v", err)
		return
	}

	log.WithFields(log.Fields{"router": s.id}).Infof("Recv message from %d: %s", env.Source, string(p.Bytes))
}

// sweep ages LSAs (reflooding any self-LSA that crossed
// LSARefreshTime) and tears down neighbors that haven't been heard
// from within DeadInterval.
func (s *Server) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	refreshed := s.lsdb.sweepAges(s.id, s.cfg.LSARefreshTime)
	for _, lsa := range refreshed {
		for _, n := range s.neighbors.fullNeighbors() {
			s.send(n.RouterID, packet.KindLSU, &packet.LSUPayload{LSAs: []*packet.LSA{lsa}})
		}
	}

	now := clockNow()
	for _, n := range s.neighbors.all() {
		if n.State() == types.Down {
			continue
		}
		if n.lastSeen.IsZero() {
			continue
		}
		if now.Sub(n.lastSeen) > s.cfg.DeadInterval {
			log.WithFields(log.Fields{"router": s.id, "neighbor": n.RouterID}).Infof("dead interval expired for neighbor %d", n.RouterID)
			n.setState(types.Down)
			s.lsdb.remove(n.RouterID)
			s.runSPF()
		}
	}

	s.refreshMetrics()
}
