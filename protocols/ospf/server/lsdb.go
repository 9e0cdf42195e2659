package server

import (
	"sync"
	"time"

	"github.com/bio-routing/ospfd/protocols/ospf/packet"
	"github.com/bio-routing/ospfd/protocols/ospf/types"
	"github.com/bio-routing/ospfd/util/log"
)

// lsdb is the per-router set of latest LSAs, keyed by originating
// router. At most one entry exists per origin; the one retained is
// the highest sequence number seen.
type lsdb struct {
	srv     *Server
	entries map[types.RouterID]*packet.LSA
	mu      sync.RWMutex
}

func newLSDB(s *Server) *lsdb {
	return &lsdb{
		srv:     s,
		entries: make(map[types.RouterID]*packet.LSA),
	}
}

func (l *lsdb) fields(origin types.RouterID) log.Fields {
	return log.Fields{
		"router": l.srv.id,
		"origin": origin,
	}
}

// addOrReplace installs lsa if no entry exists for its origin, or if
// lsa's sequence strictly exceeds the existing one's. Equal or lower
// sequences are discarded. Non-positive costs are rejected wholesale.
// Returns true if the LSDB changed.
func (l *lsdb) addOrReplace(lsa *packet.LSA) bool {
	for _, cost := range lsa.Metrics {
		if cost <= 0 {
			log.WithFields(l.fields(lsa.Origin)).Warnf("rejecting LSA with non-positive cost %d", cost)
			return false
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, exists := l.entries[lsa.Origin]
	if !exists {
		log.WithFields(l.fields(lsa.Origin)).Infof("add LSA %d %d", lsa.Origin, lsa.Sequence)
		lsa.ReceivedTime = clockNow()
		l.entries[lsa.Origin] = lsa
		return true
	}

	if lsa.Sequence > existing.Sequence {
		log.WithFields(l.fields(lsa.Origin)).Infof("update LSA %d %d", lsa.Origin, lsa.Sequence)
		lsa.ReceivedTime = clockNow()
		l.entries[lsa.Origin] = lsa
		return true
	}

	return false
}

// updateSelf merges metricDelta into the self-LSA (creating it if
// absent), incrementing its sequence and refreshing its timestamp.
func (l *lsdb) updateSelf(self types.RouterID, metricDelta map[types.RouterID]int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, exists := l.entries[self]
	if !exists {
		metrics := make(map[types.RouterID]int, len(metricDelta))
		for k, v := range metricDelta {
			metrics[k] = v
		}

		l.entries[self] = &packet.LSA{
			Origin:       self,
			Sequence:     1,
			Metrics:      metrics,
			ReceivedTime: clockNow(),
		}
		log.WithFields(l.fields(self)).Infof("add LSA %d 1", self)
		return
	}

	for k, v := range metricDelta {
		existing.Metrics[k] = v
	}
	existing.Sequence++
	existing.ReceivedTime = clockNow()
	log.WithFields(l.fields(self)).Infof("update LSA %d %d", self, existing.Sequence)
}

// pruneSelf removes neighbor from the self-LSA's metrics, bumping its
// sequence so the change propagates on the next reflood.
func (l *lsdb) pruneSelf(self types.RouterID, neighbor types.RouterID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, exists := l.entries[self]
	if !exists {
		return
	}

	delete(existing.Metrics, neighbor)
	existing.Sequence++
	existing.ReceivedTime = clockNow()
	log.WithFields(l.fields(self)).Infof("update LSA %d %d", self, existing.Sequence)
}

// remove drops the entry for origin, used to age out a neighbor's
// side of a link when that neighbor is removed locally.
func (l *lsdb) remove(origin types.RouterID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[origin]; !exists {
		return
	}

	delete(l.entries, origin)
	log.WithFields(l.fields(origin)).Infof("remove LSA %d", origin)
}

// get returns a clone of the stored LSA for origin, or nil.
func (l *lsdb) get(origin types.RouterID) *packet.LSA {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, exists := l.entries[origin]
	if !exists {
		return nil
	}

	return e.Clone()
}

// iter returns a clone of every stored LSA.
func (l *lsdb) iter() []*packet.LSA {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*packet.LSA, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Clone())
	}

	return out
}

// size reports the number of distinct origins held.
func (l *lsdb) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// sweepAges re-stamps any LSA older than maxAge. The self-LSA's
// sequence is incremented and it's reflooded by the caller; foreign
// LSAs are only re-stamped locally so they survive the local sweep,
// since only the true originator may legitimately bump their
// sequence on the wire.
//
// Returns the self-LSA if it was refreshed this sweep, as a one- or
// zero-element slice the caller can range over to reflood.
func (l *lsdb) sweepAges(self types.RouterID, maxAge time.Duration) []*packet.LSA {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := clockNow()
	refreshed := make([]*packet.LSA, 0)

	for origin, e := range l.entries {
		if now.Sub(e.ReceivedTime) <= maxAge {
			continue
		}

		e.ReceivedTime = now
		if origin == self {
			e.Sequence++
			log.WithFields(l.fields(origin)).Infof("update LSA %d %d", origin, e.Sequence)
			refreshed = append(refreshed, e.Clone())
		}
	}

	return refreshed
}
