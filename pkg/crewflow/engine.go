package crewflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/calebmorris/crewflow/pkg/crewflow/checkpoint"
	"github.com/calebmorris/crewflow/pkg/crewflow/event"
	"github.com/calebmorris/crewflow/pkg/crewflow/observability"
	"github.com/calebmorris/crewflow/pkg/crewflow/registry"
	"github.com/calebmorris/crewflow/pkg/crewflow/session"
)

// timeoutAnswer is the degraded final answer for a turn that ran out of its
// wall-clock budget.
const timeoutAnswer = "Error: the request timed out before an answer could be produced."

// TurnResult is the outcome of one completed turn.
type TurnResult struct {
	// ThreadID is the conversation thread the turn ran on.
	ThreadID string
	// TurnID is the unique identifier of this turn.
	TurnID string
	// Answer is the turn's final answer text.
	Answer string
	// State is the conversation state after the turn.
	State State
	// Steps is the number of workers executed.
	Steps int
}

// Engine drives turns through the workflow graph: load thread state, merge
// the user's message, execute workers from the supervisor until a terminal
// worker declares END, snapshotting after every step.
//
// Engine is safe for concurrent use; turns on the same thread are
// serialized by the session manager, distinct threads proceed in parallel.
type Engine struct {
	workers  *registry.Registry[WorkerName, Worker]
	sessions *session.Manager
	cfg      engineConfig
}

// New creates an engine over the given session manager and worker set. The
// worker set must cover every worker in the transition table.
func New(sessions *session.Manager, workerSet []Worker, opts ...Option) (*Engine, error) {
	if sessions == nil {
		return nil, ErrNilSessions
	}

	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	reg := registry.New[WorkerName, Worker]()
	for _, w := range workerSet {
		reg.Register(w.Name(), w)
	}
	for _, name := range WorkerNames() {
		if !reg.Has(name) {
			return nil, fmt.Errorf("%w: %s", ErrWorkerMissing, name)
		}
	}

	return &Engine{
		workers:  reg,
		sessions: sessions,
		cfg:      cfg,
	}, nil
}

// Sessions returns the engine's session manager, for thread creation,
// history inspection, and reset.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Run executes one turn synchronously: the user's input against the
// thread's accumulated state, through the workflow until a terminal worker
// finishes.
//
// On error the turn's partial state is not persisted beyond the last
// successful snapshot; the thread remains usable for the next turn.
func (e *Engine) Run(ctx context.Context, threadID, input string) (*TurnResult, error) {
	return e.runTurn(ctx, threadID, input, nil)
}

// Stream executes one turn asynchronously and returns a channel of step
// events: one per executed worker, then a final event carrying the answer
// (or the failure). The channel closes when the turn ends.
//
// Input validation happens before the goroutine starts, so a Stream call
// that returns a channel always eventually produces a final event.
func (e *Engine) Stream(ctx context.Context, threadID, input string) (<-chan event.StepEvent, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	out := make(chan event.StepEvent, e.streamBuffer())
	go func() {
		defer close(out)
		//nolint:errcheck // the failure is delivered through the final event
		e.runTurn(ctx, threadID, input, func(evt event.StepEvent) {
			select {
			case out <- evt:
			case <-ctx.Done():
			}
		})
	}()
	return out, nil
}

func (e *Engine) streamBuffer() int {
	return e.cfg.maxHops + 1
}

// runTurn is the shared turn driver behind Run and Stream. sink, when
// non-nil, receives every event the turn produces; the configured bus
// always does.
func (e *Engine) runTurn(ctx context.Context, threadID, input string, sink func(event.StepEvent)) (result *TurnResult, runErr error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	if threadID == "" {
		threadID = e.sessions.NewThread()
	}

	release := e.sessions.Acquire(threadID)
	defer release()

	snap, err := e.sessions.Load(threadID)
	if err != nil {
		return nil, &SessionError{ThreadID: threadID, Op: "load", Err: err}
	}

	var state State
	turn := 1
	if snap != nil {
		if err := json.Unmarshal(snap.State, &state); err != nil {
			return nil, &SessionError{ThreadID: threadID, Op: "load", Err: err}
		}
		turn = snap.Turn + 1
	}

	turnID := uuid.New().String()
	start := time.Now()
	observability.LogTurnStart(e.cfg.logger, threadID, turnID)

	var execCtx context.Context = ctx
	if e.cfg.turnTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeoutCause(ctx, e.cfg.turnTimeout, ErrTurnTimeout)
		defer cancel()
	}

	var turnSpan trace.Span
	if e.cfg.tracingEnabled {
		execCtx, turnSpan = e.cfg.spans.StartTurnSpan(execCtx, threadID, turnID)
		defer func() {
			e.cfg.spans.EndSpanWithError(turnSpan, runErr)
		}()
	}

	state.Merge(Delta{Messages: []Message{{
		Role:    RoleUser,
		Author:  "user",
		Content: input,
	}}})

	steps, execErr := e.executeTurn(execCtx, threadID, turnID, turn, &state, sink)

	duration := time.Since(start)
	durationMs := float64(duration.Milliseconds())

	// A timeout is resolved, not raised: the turn degrades to a timeout
	// answer so the thread stays conversational.
	var cancelErr *CancellationError
	if errors.As(execErr, &cancelErr) && errors.Is(cancelErr.Cause, ErrTurnTimeout) {
		state.Merge(Delta{Messages: []Message{{
			Role:    RoleAssistant,
			Author:  string(WorkerFinalOutput),
			Content: timeoutAnswer,
		}}})
		e.publish(finalEvent(threadID, turnID, steps+1, timeoutAnswer, nil), sink)
		e.cfg.metrics.RecordTurn(execCtx, false, duration)
		observability.LogTurnComplete(e.cfg.logger, threadID, turnID, durationMs, steps)
		return &TurnResult{
			ThreadID: threadID,
			TurnID:   turnID,
			Answer:   timeoutAnswer,
			State:    state.Clone(),
			Steps:    steps,
		}, nil
	}

	e.cfg.metrics.RecordTurn(execCtx, execErr == nil, duration)

	if execErr != nil {
		e.publish(finalEvent(threadID, turnID, steps+1, "", execErr), sink)
		observability.LogTurnError(e.cfg.logger, threadID, turnID, execErr, durationMs, string(lastWorkerOf(execErr)))
		return nil, execErr
	}

	answer := ""
	if last, ok := state.LastMessage(); ok {
		answer = last.Content
	}
	e.publish(finalEvent(threadID, turnID, steps+1, answer, nil), sink)
	observability.LogTurnComplete(e.cfg.logger, threadID, turnID, durationMs, steps)

	return &TurnResult{
		ThreadID: threadID,
		TurnID:   turnID,
		Answer:   answer,
		State:    state.Clone(),
		Steps:    steps,
	}, nil
}

// executeTurn runs the worker loop from the entry worker until END. It
// mutates state in place and returns the number of steps executed.
func (e *Engine) executeTurn(ctx context.Context, threadID, turnID string, turn int, state *State, sink func(event.StepEvent)) (int, error) {
	current := EntryWorker
	steps := 0

	for current != END {
		if steps >= e.cfg.maxHops {
			return steps, &MaxHopsError{Max: e.cfg.maxHops, LastWorker: current}
		}

		select {
		case <-ctx.Done():
			return steps, &CancellationError{
				Worker:       current,
				Cause:        context.Cause(ctx),
				WasExecuting: false,
			}
		default:
		}

		observability.LogStepStart(e.cfg.logger, string(current))

		stepCtx := ctx
		var stepSpan trace.Span
		if e.cfg.tracingEnabled {
			stepCtx, stepSpan = e.cfg.spans.StartStepSpan(ctx, string(current))
		}

		stepStart := time.Now()
		delta, declared, stepErr := e.executeWorker(stepCtx, current, *state)
		stepDuration := time.Since(stepStart)

		e.cfg.metrics.RecordStep(stepCtx, string(current), stepDuration, stepErr)
		if e.cfg.tracingEnabled {
			e.cfg.spans.EndSpanWithError(stepSpan, stepErr)
		}

		if stepErr != nil {
			if cause := context.Cause(ctx); cause != nil {
				stepErr = &CancellationError{
					Worker:       current,
					Cause:        cause,
					WasExecuting: true,
				}
			}
			observability.LogStepError(e.cfg.logger, string(current), stepErr)
			return steps, stepErr
		}

		state.Merge(delta)
		steps++

		if !ValidTransition(current, declared) {
			return steps, &RouteError{
				From:     current,
				Declared: declared,
				Err:      ErrRouteNotInTable,
			}
		}

		observability.LogStepComplete(e.cfg.logger, string(current), string(declared), float64(stepDuration.Milliseconds()))
		if current == WorkerSupervisor || current == WorkerValidator {
			e.cfg.metrics.RecordDecision(stepCtx, string(current), string(declared))
		}

		if err := e.saveSnapshot(ctx, threadID, turn, steps, current, declared, state); err != nil {
			return steps, err
		}

		e.publish(stepEvent(threadID, turnID, steps, current, delta), sink)

		current = declared
	}

	return steps, nil
}

// executeWorker runs a single worker with panic recovery.
func (e *Engine) executeWorker(ctx context.Context, name WorkerName, state State) (delta Delta, next WorkerName, err error) {
	w, ok := e.workers.Get(name)
	if !ok {
		// Unreachable after New validated coverage.
		return Delta{}, "", &StepError{
			Worker: name,
			Op:     "lookup",
			Err:    ErrWorkerMissing,
		}
	}

	defer func() {
		if r := recover(); r != nil {
			delta = Delta{}
			err = &PanicError{
				Worker: name,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	delta, next, err = w.Execute(ctx, state)
	if err != nil {
		return delta, next, &StepError{
			Worker: name,
			Op:     "execute",
			Err:    err,
		}
	}
	return delta, next, nil
}

// saveSnapshot persists the post-merge state after a step. Failures are
// logged and swallowed unless checkpoint failures are configured fatal.
func (e *Engine) saveSnapshot(ctx context.Context, threadID string, turn, step int, worker, next WorkerName, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		if e.cfg.checkpointFailureFatal {
			return &SessionError{ThreadID: threadID, Op: "serialize", Err: err}
		}
		observability.LogCheckpointError(e.cfg.logger, threadID, "serialize", err)
		return nil
	}

	snap := checkpoint.New(threadID, turn, step, string(worker), string(next), data)
	if err := e.sessions.Save(snap); err != nil {
		if e.cfg.checkpointFailureFatal {
			return &SessionError{ThreadID: threadID, Op: "save", Err: err}
		}
		observability.LogCheckpointError(e.cfg.logger, threadID, "save", err)
		return nil
	}

	observability.LogCheckpoint(e.cfg.logger, threadID, step, len(data))
	e.cfg.metrics.RecordCheckpoint(ctx, threadID, int64(len(data)))
	return nil
}

// publish delivers an event to the configured bus and the per-turn sink.
func (e *Engine) publish(evt event.StepEvent, sink func(event.StepEvent)) {
	if e.cfg.bus != nil {
		e.cfg.bus.Publish(evt)
	}
	if sink != nil {
		sink(evt)
	}
}

func stepEvent(threadID, turnID string, step int, worker WorkerName, delta Delta) event.StepEvent {
	evt := event.NewStepEvent(threadID, turnID, step, string(worker))
	if n := len(delta.Messages); n > 0 {
		evt.Summary = delta.Messages[n-1].Content
	}
	evt.ToolCalls = append(evt.ToolCalls, delta.ToolCallsMade...)
	return evt
}

func finalEvent(threadID, turnID string, step int, answer string, err error) event.StepEvent {
	evt := event.NewStepEvent(threadID, turnID, step, string(END))
	evt.Final = true
	evt.Answer = answer
	if err != nil {
		evt.Err = err.Error()
	}
	return evt
}

// lastWorkerOf extracts the worker a turn error points at, for logging.
func lastWorkerOf(err error) WorkerName {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Worker
	}
	var maxErr *MaxHopsError
	if errors.As(err, &maxErr) {
		return maxErr.LastWorker
	}
	var cancelErr *CancellationError
	if errors.As(err, &cancelErr) {
		return cancelErr.Worker
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return panicErr.Worker
	}
	var routeErr *RouteError
	if errors.As(err, &routeErr) {
		return routeErr.From
	}
	return ""
}
