package cleanup

import (
	"sync"
	"time"
)

// RunStore records when the last cleanup run completed. It is an
// explicit dependency of the service instead of hidden process-global
// state, so alternative backings (a persisted cleanup_runs row, a
// shared key-value store) can be swapped in.
type RunStore interface {
	LastCleanupAt() (time.Time, bool)
	SetLastCleanupAt(t time.Time)
}

// MemoryRunStore keeps the timestamp in process memory. The value is
// lost on restart, which callers of Status must tolerate.
type MemoryRunStore struct {
	mu  sync.RWMutex
	at  time.Time
	set bool
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{}
}

func (m *MemoryRunStore) LastCleanupAt() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.at, m.set
}

func (m *MemoryRunStore) SetLastCleanupAt(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.at = t
	m.set = true
}
