package server

import (
	"math"
	"sort"

	"github.com/bio-routing/ospfd/protocols/ospf/types"
	"github.com/bio-routing/ospfd/route"
	"github.com/bio-routing/ospfd/util/log"
)

// topology is the adjacency list derived fresh from the LSDB before
// each SPF run: origin -> [(neighbor, cost)]. It's never persisted
// across runs.
type topology map[types.RouterID][]edge

type edge struct {
	to   types.RouterID
	cost int
}

func (l *lsdb) buildTopology() topology {
	entries := l.iter()

	topo := make(topology, len(entries))
	for _, e := range entries {
		edges := make([]edge, 0, len(e.Metrics))
		for neighbor, cost := range e.Metrics {
			edges = append(edges, edge{to: neighbor, cost: cost})
		}
		topo[e.Origin] = edges
	}

	return topo
}

// runSPF computes shortest paths from self over the current LSDB and
// installs the resulting next-hop entries into the routing table. It
// is skipped if no neighbor has reached Full.
func (s *Server) runSPF() {
	if !s.neighbors.anyFull() {
		return
	}

	topo := s.lsdb.buildTopology()

	distance := map[types.RouterID]int{s.id: 0}
	previous := map[types.RouterID]types.RouterID{}
	visited := map[types.RouterID]bool{}

	allNodes := map[types.RouterID]bool{s.id: true}
	for origin, edges := range topo {
		allNodes[origin] = true
		for _, e := range edges {
			allNodes[e.to] = true
		}
	}

	for n := range allNodes {
		if n == s.id {
			continue
		}
		distance[n] = math.MaxInt32
	}

	for len(visited) < len(allNodes) {
		next, found := pickUnvisitedMin(allNodes, visited, distance)
		if !found {
			break
		}

		visited[next] = true

		for _, e := range topo[next] {
			if e.cost <= 0 {
				continue
			}

			cand := distance[next] + e.cost
			if cand < distance[e.to] {
				distance[e.to] = cand
				previous[e.to] = next
			}
		}
	}

	newEntries := make([]route.Entry, 0)
	for dest := range allNodes {
		if dest == s.id {
			continue
		}

		if distance[dest] >= math.MaxInt32 {
			continue
		}

		nextHop := firstHop(s.id, dest, previous)
		newEntries = append(newEntries, route.Entry{
			Destination: dest,
			NextHop:     nextHop,
			Cost:        distance[dest],
			Type:        types.OSPF,
		})
	}

	sort.Slice(newEntries, func(i, j int) bool { return newEntries[i].Destination < newEntries[j].Destination })

	s.routingTable.Update(types.OSPF, newEntries)
	if s.metrics != nil {
		s.metrics.SPFRuns.Inc()
	}
	log.WithFields(log.Fields{"router": s.id}).Debugf("SPF run complete, %d reachable destinations", len(newEntries))
}

// pickUnvisitedMin finds the unvisited node with the smallest
// distance, breaking ties on the lowest router id for determinism.
func pickUnvisitedMin(allNodes map[types.RouterID]bool, visited map[types.RouterID]bool, distance map[types.RouterID]int) (types.RouterID, bool) {
	best := types.RouterID(0)
	bestDist := math.MaxInt32 + 1
	found := false

	ids := make([]types.RouterID, 0, len(allNodes))
	for n := range allNodes {
		ids = append(ids, n)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, n := range ids {
		if visited[n] {
			continue
		}

		d := distance[n]
		if d < bestDist {
			bestDist = d
			best = n
			found = true
		}
	}

	return best, found
}

// firstHop walks the predecessor chain from dest back toward self,
// returning the node adjacent to self on that path.
func firstHop(self, dest types.RouterID, previous map[types.RouterID]types.RouterID) types.RouterID {
	if previous[dest] == self {
		return dest
	}

	cur := dest
	for {
		p, ok := previous[cur]
		if !ok {
			return cur
		}
		if p == self {
			return cur
		}
		cur = p
	}
}
