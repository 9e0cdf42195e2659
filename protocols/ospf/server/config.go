package server

import "time"

// DefaultPortBase is added to a router identifier to produce its
// local datagram port, e.g. router 3 listens on 127.0.0.1:10003.
const DefaultPortBase = 10000

// Config holds the tunable timers of the protocol engine. All have
// defaults matching the original simulation's constants.
type Config struct {
	// PortBase is added to a RouterID to derive its local UDP port.
	PortBase int

	// HelloInterval is the cadence of outgoing hello packets.
	HelloInterval time.Duration

	// DBDInterval is the cadence of outgoing database descriptions
	// to Exchange/Full neighbors.
	DBDInterval time.Duration

	// LSARefreshTime is the max age an LSA may reach locally before
	// it is re-stamped (and, for the self-LSA, reflooded).
	LSARefreshTime time.Duration

	// DeadInterval is how long a neighbor may go without a hello
	// before it is torn down. Declared as 4x HelloInterval.
	DeadInterval time.Duration

	// SweepInterval is the cadence of the LSA-age / dead-interval
	// sweep task.
	SweepInterval time.Duration
}

// DefaultConfig returns the constants used by the original simulation.
func DefaultConfig() Config {
	hello := time.Second
	return Config{
		PortBase:       DefaultPortBase,
		HelloInterval:  hello,
		DBDInterval:    time.Second,
		LSARefreshTime: 15 * time.Second,
		DeadInterval:   4 * hello,
		SweepInterval:  time.Second,
	}
}
