package workers

import (
	"context"

	"github.com/calebmorris/crewflow/pkg/crewflow"
)

// FinalOutput relays the validated answer as the turn's final message. By
// the time it runs, the last message is the validator's verdict and the one
// before it is the answer that passed validation; FinalOutput repeats that
// answer verbatim. It makes no model calls, so repeated execution over the
// same state yields the same message.
type FinalOutput struct{}

// NewFinalOutput creates the final output worker.
func NewFinalOutput() *FinalOutput {
	return &FinalOutput{}
}

// Name implements crewflow.Worker.
func (f *FinalOutput) Name() crewflow.WorkerName { return crewflow.WorkerFinalOutput }

// Execute implements crewflow.Worker.
func (f *FinalOutput) Execute(ctx context.Context, state crewflow.State) (crewflow.Delta, crewflow.WorkerName, error) {
	n := state.MessageCount()
	var answer string
	switch {
	case n >= 2:
		answer = state.Messages[n-2].Content
	case n == 1:
		answer = state.Messages[0].Content
	}

	delta := crewflow.Delta{
		Messages: []crewflow.Message{{
			Role:    crewflow.RoleAssistant,
			Author:  string(crewflow.WorkerFinalOutput),
			Content: answer,
		}},
	}
	return delta, crewflow.END, nil
}
