// Package event carries step-completion events out of the engine: one event
// per executed worker, plus a final event holding the turn's answer. The
// in-process Bus fans events out to any number of subscribers (progressive
// UI rendering, audit sinks).
package event

import (
	"time"

	"github.com/google/uuid"
)

// StepEvent describes one completed worker step within a turn.
// Events are immutable once published.
type StepEvent struct {
	// ID is the unique event identifier.
	ID string `json:"id"`
	// ThreadID is the conversation thread the step belongs to.
	ThreadID string `json:"thread_id"`
	// TurnID correlates all steps of one engine turn.
	TurnID string `json:"turn_id"`
	// Step is the 1-based position of this step within the turn.
	Step int `json:"step"`
	// Worker is the worker that executed.
	Worker string `json:"worker"`
	// Summary is the content of the message the worker appended, if any.
	Summary string `json:"summary,omitempty"`
	// ToolCalls lists tools the worker invoked during this step.
	ToolCalls []string `json:"tool_calls,omitempty"`
	// Final marks the turn's last event; Answer is set only on it.
	Final bool `json:"final"`
	// Answer is the turn's final answer text.
	Answer string `json:"answer,omitempty"`
	// Err carries the failure description when the turn ended in error.
	// Set only on a Final event.
	Err string `json:"error,omitempty"`
	// Timestamp is when the step completed.
	Timestamp time.Time `json:"timestamp"`
}

// NewStepEvent creates an event for a completed step.
func NewStepEvent(threadID, turnID string, step int, worker string) StepEvent {
	return StepEvent{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		TurnID:    turnID,
		Step:      step,
		Worker:    worker,
		Timestamp: time.Now().UTC(),
	}
}
