package time

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualTickerDeliversFiredTime(t *testing.T) {
	mt := NewManualTicker()
	now := time.Now()

	mt.Fire(now)

	select {
	case got := <-mt.C():
		assert.Equal(t, now, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for manual tick")
	}
}

func TestRealTickerImplementsInterface(t *testing.T) {
	var ticker Ticker = NewTicker(time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker never fired")
	}
}
