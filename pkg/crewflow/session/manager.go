// Package session maps conversation thread identifiers to persisted state
// snapshots and serializes turns per thread. The engine owns state
// semantics; the manager owns identity, locking, and storage.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/calebmorris/crewflow/pkg/crewflow/checkpoint"
)

// Manager binds thread identifiers to a snapshot store. A thread id is
// opaque to the core; callers may bring their own or use NewThread.
//
// Manager is safe for concurrent use. Acquire guarantees that turns on the
// same thread never interleave; distinct threads proceed independently.
type Manager struct {
	store checkpoint.Store

	mu    sync.Mutex
	locks map[string]*threadLock
}

// threadLock serializes turns for one thread. refs tracks waiters so idle
// entries can be evicted from the lock map.
type threadLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a manager over the given snapshot store.
func NewManager(store checkpoint.Store) *Manager {
	return &Manager{
		store: store,
		locks: make(map[string]*threadLock),
	}
}

// NewThread returns a fresh opaque thread identifier.
func (m *Manager) NewThread() string {
	return uuid.New().String()
}

// Acquire blocks until the thread is free and returns a release function.
// Every turn must run between Acquire and its release.
func (m *Manager) Acquire(threadID string) (release func()) {
	m.mu.Lock()
	tl, ok := m.locks[threadID]
	if !ok {
		tl = &threadLock{}
		m.locks[threadID] = tl
	}
	tl.refs++
	m.mu.Unlock()

	tl.mu.Lock()

	return func() {
		tl.mu.Unlock()

		m.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(m.locks, threadID)
		}
		m.mu.Unlock()
	}
}

// Load returns the latest snapshot for a thread, or nil if the thread has
// no history yet. Store unavailability is returned as an error: the caller
// must not silently continue with a fresh thread.
func (m *Manager) Load(threadID string) (*checkpoint.Snapshot, error) {
	data, err := m.store.Load(threadID)
	if err == checkpoint.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", threadID, err)
	}

	snap, err := checkpoint.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", threadID, err)
	}
	if snap.Version != checkpoint.Version {
		return nil, fmt.Errorf("thread %s: snapshot version %d, want %d", threadID, snap.Version, checkpoint.Version)
	}
	return snap, nil
}

// Save persists a snapshot for its thread.
func (m *Manager) Save(snap *checkpoint.Snapshot) error {
	data, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", snap.ThreadID, err)
	}
	if err := m.store.Save(snap.ThreadID, data); err != nil {
		return fmt.Errorf("save thread %s: %w", snap.ThreadID, err)
	}
	return nil
}

// History returns snapshot metadata for a thread, ordered by sequence.
func (m *Manager) History(threadID string) ([]checkpoint.Info, error) {
	return m.store.List(threadID)
}

// Reset deletes all persisted state for a thread. This is the explicit
// session reset; nothing else ever discards thread history.
func (m *Manager) Reset(threadID string) error {
	release := m.Acquire(threadID)
	defer release()

	if err := m.store.Delete(threadID); err != nil {
		return fmt.Errorf("reset thread %s: %w", threadID, err)
	}
	return nil
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
