package workers

import (
	"context"

	"github.com/calebmorris/crewflow/pkg/crewflow"
	"github.com/calebmorris/crewflow/pkg/crewflow/llm"
	"github.com/calebmorris/crewflow/pkg/crewflow/tool"
)

// Coder handles calculations, analysis, and code execution through its tool
// set, then reports to the validator. Like the researcher, failures degrade
// into an authored error message rather than aborting the turn.
type Coder struct {
	client    llm.Client
	tools     *tool.Set
	maxRounds int
}

// CoderOption configures a Coder.
type CoderOption func(*Coder)

// WithCoderMaxRounds bounds the tool loop. Default: 5.
func WithCoderMaxRounds(n int) CoderOption {
	return func(c *Coder) {
		if n > 0 {
			c.maxRounds = n
		}
	}
}

// NewCoder creates the coder worker.
func NewCoder(client llm.Client, tools *tool.Set, opts ...CoderOption) *Coder {
	c := &Coder{client: client, tools: tools, maxRounds: defaultToolRounds}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements crewflow.Worker.
func (c *Coder) Name() crewflow.WorkerName { return crewflow.WorkerCoder }

// Execute implements crewflow.Worker.
func (c *Coder) Execute(ctx context.Context, state crewflow.State) (crewflow.Delta, crewflow.WorkerName, error) {
	system := toolPrompt(coderPrompt, c.tools.Describe())
	answer, called, err := runToolLoop(ctx, c.client, c.tools, system, state, c.maxRounds)
	if err != nil {
		delta := crewflow.Delta{
			Messages:      []crewflow.Message{errorMessage(crewflow.WorkerCoder, err)},
			ToolCallsMade: called,
		}
		return delta, crewflow.WorkerValidator, nil
	}

	delta := crewflow.Delta{
		Messages: []crewflow.Message{{
			Role:      crewflow.RoleUser,
			Author:    string(crewflow.WorkerCoder),
			Content:   answer,
			ToolCalls: called,
		}},
		AnalystOutput: []string{answer},
		ToolCallsMade: called,
	}
	return delta, crewflow.WorkerValidator, nil
}
