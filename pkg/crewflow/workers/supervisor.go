package workers

import (
	"context"
	"fmt"

	"github.com/calebmorris/crewflow/pkg/crewflow"
	"github.com/calebmorris/crewflow/pkg/crewflow/llm"
)

// Supervisor is the routing worker. It classifies the conversation with a
// structured decision and dispatches to one specialist. A decision that
// cannot be obtained or does not name a legal target is fatal: the
// supervisor never guesses a route.
type Supervisor struct {
	client llm.Client
}

// NewSupervisor creates the supervisor worker.
func NewSupervisor(client llm.Client) *Supervisor {
	return &Supervisor{client: client}
}

// Name implements crewflow.Worker.
func (s *Supervisor) Name() crewflow.WorkerName { return crewflow.WorkerSupervisor }

// Execute implements crewflow.Worker.
func (s *Supervisor) Execute(ctx context.Context, state crewflow.State) (crewflow.Delta, crewflow.WorkerName, error) {
	var decision crewflow.SupervisorDecision
	if err := s.client.CompleteStructured(ctx, supervisorPrompt, historyMessages(state), &decision); err != nil {
		return crewflow.Delta{}, "", &crewflow.DecisionError{
			Point: crewflow.WorkerSupervisor,
			Err:   fmt.Errorf("obtain routing decision: %w", err),
		}
	}

	next, err := decision.ToRoute()
	if err != nil {
		return crewflow.Delta{}, "", err
	}

	delta := crewflow.Delta{
		Messages: []crewflow.Message{{
			Role:    crewflow.RoleUser,
			Author:  string(crewflow.WorkerSupervisor),
			Content: decision.Reason,
		}},
		SupervisorReason: []string{decision.Reason},
	}
	return delta, next, nil
}
