package crewflow

import "context"

// END is the terminal successor identifier. A worker that declares END as
// its next worker finishes the turn.
const END WorkerName = "__end__"

// WorkerName identifies a worker in the workflow graph.
type WorkerName string

// The closed set of workers.
const (
	WorkerSupervisor    WorkerName = "supervisor"
	WorkerEnhancer      WorkerName = "enhancer"
	WorkerResearcher    WorkerName = "researcher"
	WorkerCoder         WorkerName = "coder"
	WorkerValidator     WorkerName = "validator"
	WorkerFinalOutput   WorkerName = "final_output_provider"
	WorkerGeneralAnswer WorkerName = "general_answer_provider"
)

// Worker is one callable stage in the workflow graph. A worker consumes the
// shared state, produces a delta to merge, and declares the next worker.
//
// Workers must convert model and tool failures into an authored error
// message inside the delta and still declare their normal successor; the
// error return is reserved for failures that are fatal to the turn, such as
// a structured decision that cannot be parsed into a legal route.
//
// The state parameter is passed by value. Workers return changes as a
// Delta; they never mutate the state they were given.
type Worker interface {
	// Name returns the worker's identity in the transition table.
	Name() WorkerName

	// Execute runs the worker against the current state.
	Execute(ctx context.Context, state State) (Delta, WorkerName, error)
}

// WorkerFunc adapts a function to the Worker interface. Useful for stubs
// and small custom stages.
type WorkerFunc struct {
	ID WorkerName
	Fn func(ctx context.Context, state State) (Delta, WorkerName, error)
}

// Name implements Worker.
func (w WorkerFunc) Name() WorkerName { return w.ID }

// Execute implements Worker.
func (w WorkerFunc) Execute(ctx context.Context, state State) (Delta, WorkerName, error) {
	return w.Fn(ctx, state)
}
