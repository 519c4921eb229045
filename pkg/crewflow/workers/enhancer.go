package workers

import (
	"context"

	"github.com/calebmorris/crewflow/pkg/crewflow"
	"github.com/calebmorris/crewflow/pkg/crewflow/llm"
)

// Enhancer rewrites the user's request into a more precise, actionable one
// and hands control back to the supervisor. It never asks the user for
// clarification.
type Enhancer struct {
	client llm.Client
}

// NewEnhancer creates the enhancer worker.
func NewEnhancer(client llm.Client) *Enhancer {
	return &Enhancer{client: client}
}

// Name implements crewflow.Worker.
func (e *Enhancer) Name() crewflow.WorkerName { return crewflow.WorkerEnhancer }

// Execute implements crewflow.Worker.
func (e *Enhancer) Execute(ctx context.Context, state crewflow.State) (crewflow.Delta, crewflow.WorkerName, error) {
	enhanced, err := e.client.Complete(ctx, enhancerPrompt, historyMessages(state))
	if err != nil {
		delta := crewflow.Delta{Messages: []crewflow.Message{errorMessage(crewflow.WorkerEnhancer, err)}}
		return delta, crewflow.WorkerSupervisor, nil
	}

	delta := crewflow.Delta{
		Messages: []crewflow.Message{{
			Role:    crewflow.RoleUser,
			Author:  string(crewflow.WorkerEnhancer),
			Content: enhanced,
		}},
		EnhancerOutput: []string{enhanced},
	}
	return delta, crewflow.WorkerSupervisor, nil
}
