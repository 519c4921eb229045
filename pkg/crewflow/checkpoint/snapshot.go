package checkpoint

import (
	"encoding/json"
	"time"
)

// Version is the current snapshot format version. Increment on breaking
// changes to the snapshot structure.
const Version = 1

// Snapshot is the persisted envelope around a thread's serialized state.
type Snapshot struct {
	// Metadata
	Version   int       `json:"version"`
	ThreadID  string    `json:"thread_id"`
	Turn      int       `json:"turn"`
	Step      int       `json:"step"`
	Timestamp time.Time `json:"timestamp"`

	// Execution position
	Worker     string `json:"worker"`
	NextWorker string `json:"next_worker,omitempty"`

	// State is the JSON-serialized shared state.
	State json.RawMessage `json:"state"`
}

// New creates a snapshot for the given position. State must already be
// JSON-serialized.
func New(threadID string, turn, step int, worker, nextWorker string, state []byte) *Snapshot {
	return &Snapshot{
		Version:    Version,
		ThreadID:   threadID,
		Turn:       turn,
		Step:       step,
		Timestamp:  time.Now().UTC(),
		Worker:     worker,
		NextWorker: nextWorker,
		State:      state,
	}
}

// Marshal serializes a snapshot to JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal deserializes a snapshot from JSON.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
