package execution

import "sync"

// OwnerLocks serializes gated runs per (owner, asset). The signing session
// is a process-wide capability with no mutual exclusion of its own, so two
// concurrent approve/execute sequences for the same pair would race their
// allowances; this is the explicit lock that prevents it.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire blocks until the (owner, asset) lock is held and returns the
// release func. Locks are never removed; the key space is bounded by the
// asset catalog.
func (l *OwnerLocks) Acquire(owner, asset string) func() {
	key := owner + "|" + asset
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
