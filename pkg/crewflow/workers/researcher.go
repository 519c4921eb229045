package workers

import (
	"context"

	"github.com/calebmorris/crewflow/pkg/crewflow"
	"github.com/calebmorris/crewflow/pkg/crewflow/llm"
	"github.com/calebmorris/crewflow/pkg/crewflow/tool"
)

// Researcher gathers facts with its tool set and reports findings to the
// validator. Tool and model failures degrade into an authored error message;
// the researcher always routes to the validator.
type Researcher struct {
	client    llm.Client
	tools     *tool.Set
	maxRounds int
}

// ResearcherOption configures a Researcher.
type ResearcherOption func(*Researcher)

// WithResearcherMaxRounds bounds the tool loop. Default: 5.
func WithResearcherMaxRounds(n int) ResearcherOption {
	return func(r *Researcher) {
		if n > 0 {
			r.maxRounds = n
		}
	}
}

// NewResearcher creates the researcher worker.
func NewResearcher(client llm.Client, tools *tool.Set, opts ...ResearcherOption) *Researcher {
	r := &Researcher{client: client, tools: tools, maxRounds: defaultToolRounds}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name implements crewflow.Worker.
func (r *Researcher) Name() crewflow.WorkerName { return crewflow.WorkerResearcher }

// Execute implements crewflow.Worker.
func (r *Researcher) Execute(ctx context.Context, state crewflow.State) (crewflow.Delta, crewflow.WorkerName, error) {
	system := toolPrompt(researcherPrompt, r.tools.Describe())
	answer, called, err := runToolLoop(ctx, r.client, r.tools, system, state, r.maxRounds)
	if err != nil {
		delta := crewflow.Delta{
			Messages:      []crewflow.Message{errorMessage(crewflow.WorkerResearcher, err)},
			ToolCallsMade: called,
		}
		return delta, crewflow.WorkerValidator, nil
	}

	delta := crewflow.Delta{
		Messages: []crewflow.Message{{
			Role:      crewflow.RoleUser,
			Author:    string(crewflow.WorkerResearcher),
			Content:   answer,
			ToolCalls: called,
		}},
		ResearcherOutput: []string{answer},
		ToolCallsMade:    called,
	}
	return delta, crewflow.WorkerValidator, nil
}
