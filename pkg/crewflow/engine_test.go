package crewflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebmorris/crewflow/pkg/crewflow/checkpoint"
	"github.com/calebmorris/crewflow/pkg/crewflow/session"
)

// stubWorkers builds a full worker set from overrides; unnamed workers get a
// default that routes to the first legal successor.
func stubWorkers(overrides map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error)) []Worker {
	set := make([]Worker, 0, len(transitions))
	for name := range transitions {
		fn, ok := overrides[name]
		if !ok {
			n := name
			fn = func(ctx context.Context, state State) (Delta, WorkerName, error) {
				delta := Delta{Messages: []Message{{
					Role:    RoleUser,
					Author:  string(n),
					Content: string(n) + " output",
				}}}
				return delta, transitions[n][0], nil
			}
		}
		set = append(set, WorkerFunc{ID: name, Fn: fn})
	}
	return set
}

// routeTo returns a worker body that appends one message and declares next.
func routeTo(name, next WorkerName) func(ctx context.Context, state State) (Delta, WorkerName, error) {
	return func(ctx context.Context, state State) (Delta, WorkerName, error) {
		delta := Delta{Messages: []Message{{
			Role:    RoleUser,
			Author:  string(name),
			Content: string(name) + " output",
		}}}
		return delta, next, nil
	}
}

func newTestEngine(t *testing.T, overrides map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error), opts ...Option) (*Engine, *checkpoint.MemoryStore) {
	t.Helper()
	store := checkpoint.NewMemoryStore()
	engine, err := New(session.NewManager(store), stubWorkers(overrides), opts...)
	require.NoError(t, err)
	return engine, store
}

// generalOverrides routes every turn supervisor -> general answer.
func generalOverrides() map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error) {
	return map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error){
		WorkerSupervisor: routeTo(WorkerSupervisor, WorkerGeneralAnswer),
		WorkerGeneralAnswer: func(ctx context.Context, state State) (Delta, WorkerName, error) {
			delta := Delta{Messages: []Message{{
				Role:    RoleAssistant,
				Author:  string(WorkerGeneralAnswer),
				Content: "the answer",
			}}}
			return delta, END, nil
		},
	}
}

// TestNew_NilSessions tests construction without a session manager fails.
func TestNew_NilSessions(t *testing.T) {
	_, err := New(nil, stubWorkers(nil))
	assert.ErrorIs(t, err, ErrNilSessions)
}

// TestNew_MissingWorker tests the worker set must cover the table.
func TestNew_MissingWorker(t *testing.T) {
	all := stubWorkers(nil)
	incomplete := make([]Worker, 0, len(all)-1)
	for _, w := range all {
		if w.Name() != WorkerValidator {
			incomplete = append(incomplete, w)
		}
	}

	_, err := New(session.NewManager(checkpoint.NewMemoryStore()), incomplete)
	require.ErrorIs(t, err, ErrWorkerMissing)
	assert.Contains(t, err.Error(), "validator")
}

// TestRun_EmptyInput tests blank input is rejected before any execution.
func TestRun_EmptyInput(t *testing.T) {
	engine, store := newTestEngine(t, generalOverrides())

	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := engine.Run(context.Background(), "thread-1", input)
		assert.ErrorIs(t, err, ErrEmptyInput, "input %q", input)
	}
	assert.Equal(t, 0, store.Len())
}

// TestRun_NilContext tests nil context is rejected.
func TestRun_NilContext(t *testing.T) {
	engine, _ := newTestEngine(t, generalOverrides())

	//nolint:staticcheck // passing nil context deliberately
	_, err := engine.Run(nil, "thread-1", "hello")
	assert.ErrorIs(t, err, ErrNilContext)
}

// TestRun_GeneralAnswerFlow tests the two-step terminal path.
func TestRun_GeneralAnswerFlow(t *testing.T) {
	engine, _ := newTestEngine(t, generalOverrides())

	result, err := engine.Run(context.Background(), "thread-1", "hello")

	require.NoError(t, err)
	assert.Equal(t, "the answer", result.Answer)
	assert.Equal(t, 2, result.Steps)
	assert.Equal(t, "thread-1", result.ThreadID)
	assert.NotEmpty(t, result.TurnID)

	first, ok := result.State.FirstMessage()
	require.True(t, ok)
	assert.Equal(t, "hello", first.Content)
	assert.Equal(t, "user", first.Author)
}

// TestRun_FullLoopFlow tests supervisor -> researcher -> validator ->
// final output with default stubs.
func TestRun_FullLoopFlow(t *testing.T) {
	overrides := map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error){
		WorkerSupervisor: routeTo(WorkerSupervisor, WorkerResearcher),
		WorkerValidator:  routeTo(WorkerValidator, WorkerFinalOutput),
	}
	engine, _ := newTestEngine(t, overrides)

	result, err := engine.Run(context.Background(), "thread-1", "what is the weather")

	require.NoError(t, err)
	assert.Equal(t, 4, result.Steps)
	// user + supervisor + researcher + validator + final output
	assert.Equal(t, 5, result.State.MessageCount())
}

// TestRun_AppendOnlyOrdering tests messages accumulate in execution order.
func TestRun_AppendOnlyOrdering(t *testing.T) {
	overrides := map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error){
		WorkerSupervisor: routeTo(WorkerSupervisor, WorkerResearcher),
		WorkerValidator:  routeTo(WorkerValidator, WorkerFinalOutput),
	}
	engine, _ := newTestEngine(t, overrides)

	result, err := engine.Run(context.Background(), "t", "q")
	require.NoError(t, err)

	authors := make([]string, 0, result.State.MessageCount())
	for _, m := range result.State.Messages {
		authors = append(authors, m.Author)
	}
	assert.Equal(t, []string{"user", "supervisor", "researcher", "validator", "final_output_provider"}, authors)
}

// TestRun_MaxHops tests a non-terminating loop is cut off.
func TestRun_MaxHops(t *testing.T) {
	overrides := map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error){
		WorkerSupervisor: routeTo(WorkerSupervisor, WorkerResearcher),
		WorkerValidator:  routeTo(WorkerValidator, WorkerSupervisor), // never FINISH
	}
	engine, _ := newTestEngine(t, overrides, WithMaxHops(7))

	_, err := engine.Run(context.Background(), "thread-1", "loop forever")

	require.ErrorIs(t, err, ErrMaxHops)
	var maxErr *MaxHopsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 7, maxErr.Max)
	assert.NotEmpty(t, maxErr.LastWorker)
}

// TestRun_RouteViolation tests a declared successor outside the table is
// rejected even though the worker executed successfully.
func TestRun_RouteViolation(t *testing.T) {
	overrides := map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error){
		WorkerSupervisor: routeTo(WorkerSupervisor, WorkerValidator), // illegal
	}
	engine, _ := newTestEngine(t, overrides)

	_, err := engine.Run(context.Background(), "thread-1", "go")

	require.ErrorIs(t, err, ErrRouteNotInTable)
	var routeErr *RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Equal(t, WorkerSupervisor, routeErr.From)
	assert.Equal(t, WorkerValidator, routeErr.Declared)
}

// TestRun_EmptyRouteViolation tests an empty successor is rejected.
func TestRun_EmptyRouteViolation(t *testing.T) {
	overrides := map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error){
		WorkerSupervisor: routeTo(WorkerSupervisor, ""),
	}
	engine, _ := newTestEngine(t, overrides)

	_, err := engine.Run(context.Background(), "thread-1", "go")
	assert.ErrorIs(t, err, ErrRouteNotInTable)
}

// TestRun_WorkerPanic tests panics become PanicError with a stack.
func TestRun_WorkerPanic(t *testing.T) {
	overrides := map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error){
		WorkerSupervisor: func(ctx context.Context, state State) (Delta, WorkerName, error) {
			panic("boom")
		},
	}
	engine, _ := newTestEngine(t, overrides)

	_, err := engine.Run(context.Background(), "thread-1", "go")

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, WorkerSupervisor, panicErr.Worker)
	assert.Equal(t, "boom", panicErr.Value)
	assert.Contains(t, panicErr.Stack, "goroutine")
}

// TestRun_WorkerError tests fatal worker errors are wrapped with identity
// and the inner type stays reachable.
func TestRun_WorkerError(t *testing.T) {
	inner := &DecisionError{Point: WorkerSupervisor, Raw: "garbage", Err: errors.New("bad enum")}
	overrides := map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error){
		WorkerSupervisor: func(ctx context.Context, state State) (Delta, WorkerName, error) {
			return Delta{}, "", inner
		},
	}
	engine, _ := newTestEngine(t, overrides)

	_, err := engine.Run(context.Background(), "thread-1", "go")

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, WorkerSupervisor, stepErr.Worker)

	var decisionErr *DecisionError
	require.ErrorAs(t, err, &decisionErr)
	assert.Equal(t, "garbage", decisionErr.Raw)
}

// TestRun_Cancellation tests caller cancellation surfaces as
// CancellationError.
func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	overrides := map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error){
		WorkerSupervisor: func(c context.Context, state State) (Delta, WorkerName, error) {
			cancel()
			return Delta{}, WorkerGeneralAnswer, nil
		},
	}
	engine, _ := newTestEngine(t, overrides)

	_, err := engine.Run(ctx, "thread-1", "go")

	var cancelErr *CancellationError
	require.ErrorAs(t, err, &cancelErr)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestRun_CheckpointPerStep tests one snapshot lands per executed worker.
func TestRun_CheckpointPerStep(t *testing.T) {
	engine, store := newTestEngine(t, generalOverrides())

	result, err := engine.Run(context.Background(), "thread-1", "hello")

	require.NoError(t, err)
	assert.Equal(t, result.Steps, store.Len())

	infos, err := store.List("thread-1")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, 1, infos[0].Sequence)
	assert.Equal(t, 2, infos[1].Sequence)
}

// TestRun_StatePersistsAcrossTurns tests a second turn sees the first
// turn's conversation.
func TestRun_StatePersistsAcrossTurns(t *testing.T) {
	engine, _ := newTestEngine(t, generalOverrides())

	first, err := engine.Run(context.Background(), "thread-1", "turn one")
	require.NoError(t, err)

	second, err := engine.Run(context.Background(), "thread-1", "turn two")
	require.NoError(t, err)

	assert.Greater(t, second.State.MessageCount(), first.State.MessageCount())
	q, ok := second.State.FirstMessage()
	require.True(t, ok)
	assert.Equal(t, "turn one", q.Content)
}

// TestRun_ThreadsAreIndependent tests distinct threads never share state.
func TestRun_ThreadsAreIndependent(t *testing.T) {
	engine, _ := newTestEngine(t, generalOverrides())

	a, err := engine.Run(context.Background(), "thread-a", "question a")
	require.NoError(t, err)
	b, err := engine.Run(context.Background(), "thread-b", "question b")
	require.NoError(t, err)

	firstB, _ := b.State.FirstMessage()
	assert.Equal(t, "question b", firstB.Content)
	assert.Equal(t, a.State.MessageCount(), b.State.MessageCount())
}

// TestRun_GeneratesThreadID tests an empty thread id gets a fresh thread.
func TestRun_GeneratesThreadID(t *testing.T) {
	engine, _ := newTestEngine(t, generalOverrides())

	result, err := engine.Run(context.Background(), "", "hello")

	require.NoError(t, err)
	assert.NotEmpty(t, result.ThreadID)
}

// TestRun_Timeout tests the wall-clock budget degrades to a timeout answer
// instead of an error.
func TestRun_Timeout(t *testing.T) {
	overrides := map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error){
		WorkerSupervisor: func(ctx context.Context, state State) (Delta, WorkerName, error) {
			select {
			case <-ctx.Done():
				return Delta{}, "", ctx.Err()
			case <-time.After(5 * time.Second):
				return Delta{}, WorkerGeneralAnswer, nil
			}
		},
	}
	engine, _ := newTestEngine(t, overrides, WithTurnTimeout(30*time.Millisecond))

	result, err := engine.Run(context.Background(), "thread-1", "slow question")

	require.NoError(t, err)
	assert.Contains(t, result.Answer, "timed out")
	last, ok := result.State.LastMessage()
	require.True(t, ok)
	assert.Equal(t, result.Answer, last.Content)
}

// TestRun_CheckpointFailureNonFatal tests a broken store does not abort the
// turn by default.
func TestRun_CheckpointFailureNonFatal(t *testing.T) {
	store := &failingStore{}
	engine, err := New(session.NewManager(store), stubWorkers(generalOverrides()))
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), "thread-1", "hello")

	require.NoError(t, err)
	assert.Equal(t, "the answer", result.Answer)
}

// TestRun_CheckpointFailureFatal tests the opt-in fatal mode.
func TestRun_CheckpointFailureFatal(t *testing.T) {
	store := &failingStore{}
	engine, err := New(session.NewManager(store), stubWorkers(generalOverrides()), WithCheckpointFailureFatal())
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), "thread-1", "hello")

	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, "save", sessionErr.Op)
}

// TestStream_Events tests one event per step plus a final answer event.
func TestStream_Events(t *testing.T) {
	engine, _ := newTestEngine(t, generalOverrides())

	events, err := engine.Stream(context.Background(), "thread-1", "hello")
	require.NoError(t, err)

	var collected []string
	var final string
	for evt := range events {
		if evt.Final {
			final = evt.Answer
			assert.Empty(t, evt.Err)
			continue
		}
		collected = append(collected, evt.Worker)
	}

	assert.Equal(t, []string{"supervisor", "general_answer_provider"}, collected)
	assert.Equal(t, "the answer", final)
}

// TestStream_ErrorEvent tests the final event carries the failure.
func TestStream_ErrorEvent(t *testing.T) {
	overrides := map[WorkerName]func(ctx context.Context, state State) (Delta, WorkerName, error){
		WorkerSupervisor: func(ctx context.Context, state State) (Delta, WorkerName, error) {
			return Delta{}, "", fmt.Errorf("model unreachable")
		},
	}
	engine, _ := newTestEngine(t, overrides)

	events, err := engine.Stream(context.Background(), "thread-1", "hello")
	require.NoError(t, err)

	var final *string
	for evt := range events {
		if evt.Final {
			s := evt.Err
			final = &s
		}
	}

	require.NotNil(t, final)
	assert.Contains(t, *final, "model unreachable")
}

// TestStream_EmptyInput tests validation happens before the goroutine.
func TestStream_EmptyInput(t *testing.T) {
	engine, _ := newTestEngine(t, generalOverrides())

	_, err := engine.Stream(context.Background(), "thread-1", "  ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

// failingStore is a checkpoint.Store whose saves always fail.
type failingStore struct{}

func (f *failingStore) Save(threadID string, data []byte) error {
	return errors.New("disk full")
}

func (f *failingStore) Load(threadID string) ([]byte, error) {
	return nil, checkpoint.ErrNotFound
}

func (f *failingStore) List(threadID string) ([]checkpoint.Info, error) {
	return nil, nil
}

func (f *failingStore) Delete(threadID string) error { return nil }

func (f *failingStore) Close() error { return nil }
