// Package time wraps *time.Ticker behind an interface so periodic
// protocol tasks can be driven by a fake clock in tests.
package time

import "time"

// Ticker is the subset of *time.Ticker the periodic tasks need.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (r *realTicker) C() <-chan time.Time {
	return r.t.C
}

func (r *realTicker) Stop() {
	r.t.Stop()
}

// ManualTicker is a Ticker a test can fire on demand.
type ManualTicker struct {
	c chan time.Time
}

// NewManualTicker creates a Ticker with no automatic firing.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{c: make(chan time.Time, 1)}
}

func (m *ManualTicker) C() <-chan time.Time {
	return m.c
}

func (m *ManualTicker) Stop() {}

// Fire sends a tick, using now as the reported time.
func (m *ManualTicker) Fire(now time.Time) {
	m.c <- now
}
