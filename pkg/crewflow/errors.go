package crewflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for engine construction and turn entry.
var (
	// ErrEmptyInput indicates a turn was submitted without user text.
	ErrEmptyInput = errors.New("user input is empty")

	// ErrWorkerMissing indicates the worker set does not cover the
	// transition table.
	ErrWorkerMissing = errors.New("worker not registered")

	// ErrNilSessions indicates the engine was built without a session manager.
	ErrNilSessions = errors.New("session manager cannot be nil")

	// ErrNilContext indicates Run was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")
)

// Sentinel errors for routing and termination.
var (
	// ErrMaxHops indicates a turn exceeded the configured hop limit.
	ErrMaxHops = errors.New("exceeded maximum hops")

	// ErrRouteNotInTable indicates a worker declared a successor outside
	// its row of the transition table.
	ErrRouteNotInTable = errors.New("declared successor not in transition table")

	// ErrTurnTimeout is the cancellation cause when a turn exceeds its
	// configured wall-clock budget.
	ErrTurnTimeout = errors.New("turn timed out")
)

// DecisionError indicates a structured routing decision could not be parsed
// into a legal route. Per the error taxonomy this is fatal to the turn: the
// engine never guesses a route.
type DecisionError struct {
	// Point is the decision point (supervisor or validator).
	Point WorkerName
	// Raw is the value the model produced.
	Raw string
	// Err is the underlying error.
	Err error
}

func (e *DecisionError) Error() string {
	return fmt.Sprintf("%s decision %q: %v", e.Point, e.Raw, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DecisionError) Unwrap() error {
	return e.Err
}

// StepError wraps a fatal error with the worker that raised it.
type StepError struct {
	// Worker is the worker that failed.
	Worker WorkerName
	// Op is the operation that failed (e.g. "execute").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("worker %s: %s: %v", e.Worker, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StepError) Unwrap() error {
	return e.Err
}

// RouteError indicates an illegal routing declaration: either an empty
// successor or one outside the declaring worker's transition row.
type RouteError struct {
	// From is the worker that declared the route.
	From WorkerName
	// Declared is the successor it declared.
	Declared WorkerName
	// Err is the underlying error.
	Err error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("route from %s to %q: %v", e.From, e.Declared, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RouteError) Unwrap() error {
	return e.Err
}

// MaxHopsError is returned when the supervisor/validator loop fails to
// terminate within the configured bound.
type MaxHopsError struct {
	// Max is the configured hop limit.
	Max int
	// LastWorker is the worker that would have executed next.
	LastWorker WorkerName
}

func (e *MaxHopsError) Error() string {
	return fmt.Sprintf("exceeded maximum hops (%d) at worker %s", e.Max, e.LastWorker)
}

// Unwrap returns ErrMaxHops for errors.Is support.
func (e *MaxHopsError) Unwrap() error {
	return ErrMaxHops
}

// PanicError captures a panic raised inside a worker.
type PanicError struct {
	// Worker is the worker that panicked.
	Worker WorkerName
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker %s panicked: %v", e.Worker, e.Value)
}

// CancellationError is returned when the caller's context is cancelled
// between or during worker executions.
type CancellationError struct {
	// Worker is the worker that was executing or about to execute.
	Worker WorkerName
	// Cause is the context error.
	Cause error
	// WasExecuting is true when cancellation surfaced during execution.
	WasExecuting bool
}

func (e *CancellationError) Error() string {
	if e.WasExecuting {
		return fmt.Sprintf("cancelled during worker %s: %v", e.Worker, e.Cause)
	}
	return fmt.Sprintf("cancelled before worker %s: %v", e.Worker, e.Cause)
}

// Unwrap returns the cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// SessionError wraps a session or checkpoint failure with its thread.
type SessionError struct {
	// ThreadID is the conversation thread involved.
	ThreadID string
	// Op is the operation that failed ("load", "save", "reset").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s thread %s: %v", e.Op, e.ThreadID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SessionError) Unwrap() error {
	return e.Err
}
