package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bio-routing/ospfd/protocols/ospf/packet"
	"github.com/bio-routing/ospfd/protocols/ospf/types"
	"github.com/bio-routing/ospfd/route"
	"github.com/bio-routing/ospfd/util/log"
)

// ErrExit is returned by HandleCommand for the "exit" command,
// signaling the caller (cmd/ospfd's command loop) to shut down.
var ErrExit = fmt.Errorf("exit requested")

// HandleCommand parses and applies one operator command line. Malformed
// commands are reported and otherwise ignored; the daemon keeps running.
func (s *Server) HandleCommand(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "addlink":
		return s.cmdAddLink(fields[1:])
	case "setlink":
		return s.cmdSetLink(fields[1:])
	case "rmlink":
		return s.cmdRmLink(fields[1:])
	case "send":
		return s.cmdSend(fields[1:])
	case "exit":
		return ErrExit
	case "dump":
		return s.cmdDump(fields[1:])
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

// cmdDump prints a snapshot of routing table, LSDB, or neighbors to
// the operator, mirroring the dump-rib style introspection command
// of the sibling BGP daemon, minus the RPC plumbing this daemon has
// no use for.
func (s *Server) cmdDump(args []string) error {
	what := "routes"
	if len(args) > 0 {
		what = args[0]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch what {
	case "routes":
		for _, e := range s.routingTable.All() {
			fmt.Printf("%d via %d cost %d (%s)\n", e.Destination, e.NextHop, e.Cost, e.Type)
		}
	case "lsdb":
		for _, lsa := range s.lsdb.iter() {
			fmt.Printf("LSA %d seq=%d metrics=%v\n", lsa.Origin, lsa.Sequence, lsa.Metrics)
		}
	case "neighbors":
		for _, n := range s.neighbors.all() {
			fmt.Printf("neighbor %d cost=%d state=%s\n", n.RouterID, n.Cost, n.State())
		}
	default:
		return fmt.Errorf("usage: dump [routes|lsdb|neighbors]")
	}

	return nil
}

func parseRouterID(s string) (types.RouterID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid router id %q: %w", s, err)
	}

	id := types.RouterID(n)
	if !id.Valid() {
		return 0, fmt.Errorf("router id %d out of range 1..99", n)
	}

	return id, nil
}

func parseCost(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid cost %q: %w", s, err)
	}

	if n <= 0 {
		return 0, fmt.Errorf("cost must be positive, got %d", n)
	}

	return n, nil
}

func (s *Server) cmdAddLink(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: addlink <id> <cost>")
	}

	id, err := parseRouterID(args[0])
	if err != nil {
		return err
	}

	cost, err := parseCost(args[1])
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.neighbors.add(id, cost)
	s.lsdb.updateSelf(s.id, map[types.RouterID]int{id: cost})
	s.routingTable.Update(types.Static, s.withStatic(route.Entry{
		Destination: id,
		NextHop:     id,
		Cost:        cost,
		Type:        types.Static,
	}))
	s.refreshMetrics()
	return nil
}

func (s *Server) cmdSetLink(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: setlink <id> <cost>")
	}

	id, err := parseRouterID(args[0])
	if err != nil {
		return err
	}

	cost, err := parseCost(args[1])
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.neighbors.setCost(id, cost) {
		return nil
	}

	s.lsdb.updateSelf(s.id, map[types.RouterID]int{id: cost})
	s.routingTable.Update(types.Static, s.withStatic(route.Entry{
		Destination: id,
		NextHop:     id,
		Cost:        cost,
		Type:        types.Static,
	}))
	s.refreshMetrics()
	return nil
}

func (s *Server) cmdRmLink(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rmlink <id>")
	}

	id, err := parseRouterID(args[0])
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.neighbors.remove(id) {
		return nil
	}

	s.lsdb.remove(id)
	s.lsdb.pruneSelf(s.id, id)
	s.routingTable.Remove(types.Static, id)
	s.runSPF()
	s.refreshMetrics()
	return nil
}

func (s *Server) cmdSend(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: send <id> <text>")
	}

	id, err := parseRouterID(args[0])
	if err != nil {
		return err
	}

	msg := strings.Join(args[1:], " ")

	s.mu.Lock()
	nextHop := s.routingTable.Find(id)
	s.mu.Unlock()

	if nextHop == -1 {
		log.WithFields(log.Fields{"router": s.id}).Errorf("no route to %d, message dropped", id)
		return fmt.Errorf("no route to router %d", id)
	}

	env, err := packet.NewEnvelope(s.id, id, packet.KindText, &packet.TextPayload{Bytes: []byte(msg)})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"router": s.id}).Infof("Send message to %d: %s", id, msg)
	s.transmit(nextHop, env)
	return nil
}

// withStatic returns the current Static entries with newEntry merged
// in (replacing any prior entry for the same destination).
func (s *Server) withStatic(newEntry route.Entry) []route.Entry {
	existing := s.routingTable.All()
	out := make([]route.Entry, 0, len(existing)+1)
	for _, e := range existing {
		if e.Type == types.Static && e.Destination == newEntry.Destination {
			continue
		}
		if e.Type == types.Static {
			out = append(out, e)
		}
	}

	out = append(out, newEntry)
	return out
}
