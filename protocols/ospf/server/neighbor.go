package server

import (
	"sync"
	"time"

	"github.com/bio-routing/ospfd/protocols/ospf/packet"
	"github.com/bio-routing/ospfd/protocols/ospf/types"
	"github.com/bio-routing/ospfd/util/log"
)

// Neighbor is one configured adjacency.
type Neighbor struct {
	RouterID types.RouterID
	Cost     int

	state    types.NeighborState
	lastDBD  *packet.DBDPayload
	lastSeen time.Time
}

// State returns the neighbor's current adjacency state.
func (n *Neighbor) State() types.NeighborState {
	return n.state
}

func (n *Neighbor) setState(s types.NeighborState) {
	if n.state == s {
		return
	}

	old := n.state
	n.state = s
	log.WithFields(log.Fields{"neighbor": n.RouterID, "from": old, "to": s}).Infof("Neighbor %d state set to %s", n.RouterID, s)
}

// neighborTable is the set of configured adjacencies for a router.
type neighborTable struct {
	srv   *Server
	mu    sync.RWMutex
	items []*Neighbor
}

func newNeighborTable(s *Server) *neighborTable {
	return &neighborTable{srv: s, items: make([]*Neighbor, 0)}
}

// add appends a new neighbor in Down state. Re-adding an existing
// router id is a no-op returning the existing neighbor.
func (t *neighborTable) add(id types.RouterID, cost int) *Neighbor {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, n := range t.items {
		if n.RouterID == id {
			return n
		}
	}

	n := &Neighbor{RouterID: id, Cost: cost, state: types.Down}
	t.items = append(t.items, n)
	log.WithFields(log.Fields{"neighbor": id}).Infof("add neighbor %d %d", id, cost)
	return n
}

// find returns the neighbor with the given id, or nil.
func (t *neighborTable) find(id types.RouterID) *Neighbor {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, n := range t.items {
		if n.RouterID == id {
			return n
		}
	}

	return nil
}

// setCost updates a neighbor's configured cost. No-op if unknown.
func (t *neighborTable) setCost(id types.RouterID, cost int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, n := range t.items {
		if n.RouterID == id {
			n.Cost = cost
			log.WithFields(log.Fields{"neighbor": id}).Infof("update neighbor %d %d", id, cost)
			return true
		}
	}

	return false
}

// remove deletes the neighbor with the given id. No-op if unknown.
func (t *neighborTable) remove(id types.RouterID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, n := range t.items {
		if n.RouterID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			log.WithFields(log.Fields{"neighbor": id}).Infof("remove neighbor %d", id)
			return true
		}
	}

	return false
}

// all returns a snapshot of the current neighbors.
func (t *neighborTable) all() []*Neighbor {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Neighbor, len(t.items))
	copy(out, t.items)
	return out
}

// anyFull reports whether at least one neighbor has reached Full.
func (t *neighborTable) anyFull() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, n := range t.items {
		if n.state == types.Full {
			return true
		}
	}

	return false
}

// fullNeighbors returns the neighbors currently in Full state.
func (t *neighborTable) fullNeighbors() []*Neighbor {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Neighbor, 0)
	for _, n := range t.items {
		if n.state == types.Full {
			out = append(out, n)
		}
	}

	return out
}

// exchangeOrFullNeighbors returns neighbors eligible for DBD exchange.
func (t *neighborTable) exchangeOrFullNeighbors() []*Neighbor {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Neighbor, 0)
	for _, n := range t.items {
		if n.state == types.Exchange || n.state == types.Full {
			out = append(out, n)
		}
	}

	return out
}
