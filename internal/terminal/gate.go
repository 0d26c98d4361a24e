package terminal

import (
	"sync"
	"time"
)

// triggerGate combines the detection debounce window with the in-flight
// verification guard. A trigger is granted only when no verification is
// running and the cooldown since the last grant has elapsed.
type triggerGate struct {
	mu          sync.Mutex
	cooldown    time.Duration
	lastTrigger time.Time
	inFlight    bool
}

func newTriggerGate(cooldown time.Duration) *triggerGate {
	return &triggerGate{cooldown: cooldown}
}

// TryAcquire reports whether a verification may start now, and if so marks
// the gate in flight and restarts the cooldown window.
func (g *triggerGate) TryAcquire(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight {
		return false
	}
	if !g.lastTrigger.IsZero() && now.Sub(g.lastTrigger) < g.cooldown {
		return false
	}

	g.lastTrigger = now
	g.inFlight = true
	return true
}

// Release marks the in-flight verification finished. The cooldown window
// keeps running from the trigger time.
func (g *triggerGate) Release() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

// InFlight reports whether a verification is currently running.
func (g *triggerGate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}
