// Package route implements the merged static/dynamic routing table:
// entries are typed (Static or OSPF), with Static taking precedence
// on lookup, following the same typed-precedence shape as the
// teacher's BGP RIB separates locally originated paths from learned
// ones.
package route

import (
	"sort"

	"github.com/bio-routing/ospfd/protocols/ospf/types"
	"github.com/bio-routing/ospfd/util/log"
)

// Entry is one routing table row.
type Entry struct {
	Destination types.RouterID
	NextHop     types.RouterID
	Cost        int
	Type        types.RouteType
}

func (e Entry) equal(o Entry) bool {
	return e.Destination == o.Destination && e.NextHop == o.NextHop && e.Cost == o.Cost && e.Type == o.Type
}

// Table holds the merged Static + OSPF routing entries.
type Table struct {
	router  types.RouterID
	entries []Entry
}

// NewTable creates an empty routing table for router.
func NewTable(router types.RouterID) *Table {
	return &Table{router: router}
}

// Update replaces all entries of the given type with newEntries,
// logging additions, updates and removals relative to the previous
// view of that type.
func (t *Table) Update(typ types.RouteType, newEntries []Entry) {
	old := make([]Entry, 0)
	other := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if e.Type == typ {
			old = append(old, e)
		} else {
			other = append(other, e)
		}
	}

	oldByDest := make(map[types.RouterID]Entry, len(old))
	for _, e := range old {
		oldByDest[e.Destination] = e
	}

	newByDest := make(map[types.RouterID]Entry, len(newEntries))
	for _, e := range newEntries {
		newByDest[e.Destination] = e
	}

	for _, e := range newEntries {
		prior, existed := oldByDest[e.Destination]
		switch {
		case !existed:
			log.WithFields(log.Fields{"router": t.router}).Infof("add route %d %d %d", e.Destination, e.NextHop, e.Cost)
		case !prior.equal(e):
			log.WithFields(log.Fields{"router": t.router}).Infof("update route %d %d %d", e.Destination, e.NextHop, e.Cost)
		}
	}

	for _, e := range old {
		if _, stillPresent := newByDest[e.Destination]; !stillPresent {
			log.WithFields(log.Fields{"router": t.router}).Infof("remove route %d", e.Destination)
		}
	}

	t.entries = append(other, newEntries...)
}

// Remove deletes the single entry of typ for destination, if present.
func (t *Table) Remove(typ types.RouteType, destination types.RouterID) {
	out := make([]Entry, 0, len(t.entries))
	removed := false
	for _, e := range t.entries {
		if e.Type == typ && e.Destination == destination {
			removed = true
			continue
		}
		out = append(out, e)
	}

	t.entries = out
	if removed {
		log.WithFields(log.Fields{"router": t.router}).Infof("remove route %d", destination)
	}
}

// Find returns the next hop toward destination, preferring Static
// over OSPF when both exist. Returns -1 if no entry matches.
func (t *Table) Find(destination types.RouterID) types.RouterID {
	candidates := make([]Entry, 0)
	for _, e := range t.entries {
		if e.Destination == destination {
			candidates = append(candidates, e)
		}
	}

	if len(candidates) == 0 {
		return -1
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Type < candidates[j].Type
	})

	return candidates[0].NextHop
}

// All returns a snapshot of every entry.
func (t *Table) All() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// CountByType returns the number of entries of the given type.
func (t *Table) CountByType(typ types.RouteType) int {
	n := 0
	for _, e := range t.entries {
		if e.Type == typ {
			n++
		}
	}

	return n
}
