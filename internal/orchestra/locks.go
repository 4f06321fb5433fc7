package orchestra

import "sync"

// scopeLocks hands out one mutex per scope so reconciliation runs for the
// same scope are serialized while different scopes proceed in parallel.
type scopeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the scope's mutex and returns its release func.
func (l *scopeLocks) lock(scopeID string) func() {
	l.mu.Lock()
	m, ok := l.locks[scopeID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[scopeID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
