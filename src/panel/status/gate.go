package status

import (
	"sync"
	"time"
)

// DefaultGateDelay is the cooldown re-check delay: the server window is 60s,
// plus a one second margin so the re-fetch lands after expiry.
const DefaultGateDelay = 61 * time.Second

// Gate watches snapshots for the cooldown flag and schedules exactly one
// re-check per activation. The flag is never expired locally; the timer just
// asks for fresh truth.
type Gate struct {
	refresh func()
	delay   time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	last    bool
	stopped bool
}

func NewGate(refresh func()) *Gate {
	return NewGateWithDelay(refresh, DefaultGateDelay)
}

func NewGateWithDelay(refresh func(), delay time.Duration) *Gate {
	return &Gate{refresh: refresh, delay: delay}
}

// Observe feeds the gate a new snapshot. On a false-to-true transition of
// the cooldown flag for a non-expired proposal, a one-shot timer is armed;
// re-arming replaces the previous timer rather than stacking. Only a
// confirmed inactive flag, expiry, or Stop disarms: an unknown snapshot
// (one failed refresh) keeps any pending re-check alive.
func (g *Gate) Observe(snap Snapshot, expired bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}

	if expired {
		g.disarmLocked()
		g.last = false
		return
	}
	if !snap.Known {
		return
	}
	if !snap.CooldownActive {
		g.disarmLocked()
		g.last = false
		return
	}

	if g.last {
		return
	}
	g.last = true
	g.disarmLocked()
	g.timer = time.AfterFunc(g.delay, g.fire)
}

func (g *Gate) fire() {
	g.mu.Lock()
	if g.stopped || g.timer == nil {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	g.last = false
	g.mu.Unlock()
	g.refresh()
}

// Armed reports whether a re-check timer is pending.
func (g *Gate) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timer != nil
}

// Stop cancels any pending timer. A stopped gate never triggers a refresh.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopped = true
	g.disarmLocked()
}

func (g *Gate) disarmLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
