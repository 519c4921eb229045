package workers

import (
	"context"

	"github.com/calebmorris/crewflow/pkg/crewflow"
	"github.com/calebmorris/crewflow/pkg/crewflow/llm"
)

// GeneralAnswer is the terminal fallback for requests no specialist fits:
// vague, impossible, or plain conversational queries. It answers directly
// and ends the turn.
type GeneralAnswer struct {
	client llm.Client
}

// NewGeneralAnswer creates the general answer worker.
func NewGeneralAnswer(client llm.Client) *GeneralAnswer {
	return &GeneralAnswer{client: client}
}

// Name implements crewflow.Worker.
func (g *GeneralAnswer) Name() crewflow.WorkerName { return crewflow.WorkerGeneralAnswer }

// Execute implements crewflow.Worker.
func (g *GeneralAnswer) Execute(ctx context.Context, state crewflow.State) (crewflow.Delta, crewflow.WorkerName, error) {
	answer, err := g.client.Complete(ctx, generalAnswerPrompt, historyMessages(state))
	if err != nil {
		delta := crewflow.Delta{Messages: []crewflow.Message{errorMessage(crewflow.WorkerGeneralAnswer, err)}}
		return delta, crewflow.END, nil
	}

	delta := crewflow.Delta{
		Messages: []crewflow.Message{{
			Role:    crewflow.RoleAssistant,
			Author:  string(crewflow.WorkerGeneralAnswer),
			Content: answer,
		}},
	}
	return delta, crewflow.END, nil
}
