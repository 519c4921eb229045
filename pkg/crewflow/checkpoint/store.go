// Package checkpoint provides persistent state snapshots keyed by
// conversation thread. A snapshot is written after every worker step so a
// thread survives process restarts between turns.
package checkpoint

import (
	"errors"
	"time"
)

// Store persists thread snapshots. Implementations must be safe for
// concurrent use; per-thread write ordering is the session manager's job.
type Store interface {
	// Save appends a snapshot for a thread. The store assigns the next
	// sequence number for that thread.
	Save(threadID string, data []byte) error

	// Load retrieves the latest snapshot for a thread.
	// Returns ErrNotFound if the thread has no snapshots.
	Load(threadID string) ([]byte, error)

	// List returns snapshot metadata for a thread, ordered by sequence.
	// Returns an empty slice (not an error) for an unknown thread.
	List(threadID string) ([]Info, error)

	// Delete removes every snapshot for a thread (explicit session reset).
	// Returns nil if the thread has no snapshots.
	Delete(threadID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides snapshot metadata without loading the full state.
type Info struct {
	ThreadID  string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a thread has no snapshots.
	ErrNotFound = errors.New("snapshot not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("snapshot store closed")
)
