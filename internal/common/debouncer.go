package common

import (
	"sync"
	"time"
)

// Debouncer rate-limits an action to at most once per interval. Ready
// reports whether the action may run now; Mark records that it ran.
// A non-positive interval disables the gate.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Ready reports whether enough time has passed since the last Mark.
// It does not update internal state.
func (d *Debouncer) Ready(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.interval <= 0 {
		return true
	}
	if d.last.IsZero() {
		return true
	}
	return now.Sub(d.last) >= d.interval
}

// Mark records that the action ran at now.
func (d *Debouncer) Mark(now time.Time) {
	d.mu.Lock()
	d.last = now
	d.mu.Unlock()
}

// ReadyNow is Ready(time.Now()).
func (d *Debouncer) ReadyNow() bool { return d.Ready(time.Now()) }

// MarkNow is Mark(time.Now()).
func (d *Debouncer) MarkNow() { d.Mark(time.Now()) }
