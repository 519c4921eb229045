package workers

import (
	"context"
	"fmt"

	"github.com/calebmorris/crewflow/pkg/crewflow"
	"github.com/calebmorris/crewflow/pkg/crewflow/llm"
)

// Validator judges whether the current candidate answer addresses the
// original question. It deliberately sees only the first message (the
// question) and the last (the answer), never the intermediate chatter, and
// it is biased toward finishing: only a completely off-topic answer is sent
// back to the supervisor.
type Validator struct {
	client llm.Client
}

// NewValidator creates the validator worker.
func NewValidator(client llm.Client) *Validator {
	return &Validator{client: client}
}

// Name implements crewflow.Worker.
func (v *Validator) Name() crewflow.WorkerName { return crewflow.WorkerValidator }

// Execute implements crewflow.Worker.
func (v *Validator) Execute(ctx context.Context, state crewflow.State) (crewflow.Delta, crewflow.WorkerName, error) {
	question, ok := state.FirstMessage()
	if !ok {
		return crewflow.Delta{}, "", fmt.Errorf("no messages to validate")
	}
	answer, _ := state.LastMessage()

	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: question.Content},
		{Role: llm.RoleUser, Content: answer.Content},
	}

	var decision crewflow.ValidatorDecision
	if err := v.client.CompleteStructured(ctx, validatorPrompt, msgs, &decision); err != nil {
		return crewflow.Delta{}, "", &crewflow.DecisionError{
			Point: crewflow.WorkerValidator,
			Err:   fmt.Errorf("obtain verdict: %w", err),
		}
	}

	next, err := decision.ToRoute()
	if err != nil {
		return crewflow.Delta{}, "", err
	}

	delta := crewflow.Delta{
		Messages: []crewflow.Message{{
			Role:    crewflow.RoleUser,
			Author:  string(crewflow.WorkerValidator),
			Content: decision.Reason,
		}},
		ValidatorOutput: []string{decision.Reason},
	}
	return delta, next, nil
}
