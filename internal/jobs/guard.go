package jobs

import (
	"sync"
	"time"
)

// RunGuard serializes a scheduled job against itself. A trigger that arrives
// while a run is in flight is skipped, never queued.
type RunGuard struct {
	mu      sync.Mutex
	running bool
	lastRun time.Time
}

// TryStart attempts to claim the guard. Returns false if a run is already
// in flight.
func (g *RunGuard) TryStart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	return true
}

// Finish releases the guard and records the run time
func (g *RunGuard) Finish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running = false
	g.lastRun = time.Now()
}

// Running reports whether a run is in flight
func (g *RunGuard) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// LastRun returns when the guard last finished a run
func (g *RunGuard) LastRun() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastRun
}
