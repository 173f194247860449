package session

import "sync"

// Manager hands out one session machine per user. Machines are created
// lazily on first use and live for the process lifetime; an Idle
// machine holds no resources.
type Manager struct {
	writer PostWriter
	opts   []Option

	mu       sync.Mutex
	machines map[string]*Machine
}

// NewManager creates a machine registry sharing one post writer.
func NewManager(writer PostWriter, opts ...Option) *Manager {
	return &Manager{
		writer:   writer,
		opts:     opts,
		machines: map[string]*Machine{},
	}
}

// ForUser returns the user's session machine, creating it on first
// access.
func (mgr *Manager) ForUser(userID string) *Machine {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	m, ok := mgr.machines[userID]
	if !ok {
		m = NewMachine(mgr.writer, mgr.opts...)
		mgr.machines[userID] = m
	}
	return m
}
