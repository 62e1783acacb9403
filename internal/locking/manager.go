// Package locking provides an in-process lock manager used to prevent
// concurrent execution of background jobs.
package locking

import (
	"fmt"
	"sync"
	"time"
)

// Manager tracks named locks
type Manager struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewManager creates a new lock manager
func NewManager() *Manager {
	return &Manager{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

// Acquire takes the named lock, failing immediately if it is already held.
// Jobs skip their cycle on failure rather than queueing behind each other.
func (m *Manager) Acquire(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if since, ok := m.held[name]; ok {
		return fmt.Errorf("lock %q already held since %s", name, since.Format(time.RFC3339))
	}

	m.held[name] = m.clock()
	return nil
}

// Release frees the named lock. Releasing a lock that is not held is a no-op.
func (m *Manager) Release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, name)
}

// IsHeld reports whether the named lock is currently held.
func (m *Manager) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[name]
	return ok
}
