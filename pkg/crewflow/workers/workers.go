// Package workers provides the built-in specialist workers: the supervisor
// router, the prompt enhancer, the tool-using researcher and coder, the
// validator, and the two terminal answer providers.
//
// Every worker follows the same failure discipline: model and tool failures
// are folded into the conversation as an authored error message and the
// worker still declares its normal successor. Only an unparseable routing
// decision is fatal to the turn.
package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calebmorris/crewflow/pkg/crewflow"
	"github.com/calebmorris/crewflow/pkg/crewflow/llm"
	"github.com/calebmorris/crewflow/pkg/crewflow/tool"
)

// defaultToolRounds bounds the tool loop inside the researcher and coder.
const defaultToolRounds = 5

// Suite returns the complete worker set backed by a single model client.
// The tool set is shared by the researcher and coder; pass an empty set to
// run without tools.
func Suite(client llm.Client, tools *tool.Set) []crewflow.Worker {
	if tools == nil {
		tools = tool.NewSet()
	}
	return []crewflow.Worker{
		NewSupervisor(client),
		NewEnhancer(client),
		NewResearcher(client, tools),
		NewCoder(client, tools),
		NewValidator(client),
		NewFinalOutput(),
		NewGeneralAnswer(client),
	}
}

// historyMessages projects the conversation state onto chat messages for a
// model request. Worker-authored messages are prefixed with the author so
// the model can follow who said what.
func historyMessages(state crewflow.State) []llm.Message {
	out := make([]llm.Message, 0, len(state.Messages))
	for _, m := range state.Messages {
		content := m.Content
		if m.Author != "" && m.Author != "user" {
			content = fmt.Sprintf("[%s] %s", m.Author, m.Content)
		}
		out = append(out, llm.Message{Role: chatRole(m.Role), Content: content})
	}
	return out
}

func chatRole(r crewflow.Role) llm.Role {
	switch r {
	case crewflow.RoleAssistant:
		return llm.RoleAssistant
	case crewflow.RoleSystem:
		return llm.RoleSystem
	default:
		return llm.RoleUser
	}
}

// errorMessage builds the degraded message a worker appends when its model
// or tool call fails but the turn should continue.
func errorMessage(worker crewflow.WorkerName, err error) crewflow.Message {
	return crewflow.Message{
		Role:    crewflow.RoleUser,
		Author:  string(worker),
		Content: fmt.Sprintf("Error: %v", err),
	}
}

// toolStep is the structured output the researcher and coder request at each
// round of their tool loop: call one tool, or commit to a final answer.
type toolStep struct {
	Action string         `json:"action" jsonschema:"title=action,enum=tool,enum=answer,description='tool' to invoke one of the available tools before answering; 'answer' to commit to the final answer." validate:"required,oneof=tool answer"`
	Tool   string         `json:"tool,omitempty" jsonschema:"title=tool,description=Name of the tool to invoke when action is 'tool'."`
	Args   map[string]any `json:"args,omitempty" jsonschema:"title=args,description=Arguments for the tool invocation."`
	Answer string         `json:"answer,omitempty" jsonschema:"title=answer,description=The final answer when action is 'answer'."`
}

// runToolLoop drives the structured tool protocol until the model commits to
// an answer or the round budget runs out. It returns the answer and every
// tool name invoked, in order. A model failure aborts the loop; tool
// failures are reported back to the model as observations and the loop
// continues.
func runToolLoop(ctx context.Context, client llm.Client, tools *tool.Set, system string, state crewflow.State, maxRounds int) (string, []string, error) {
	msgs := historyMessages(state)
	var called []string

	for round := 0; round < maxRounds; round++ {
		var step toolStep
		if err := client.CompleteStructured(ctx, system, msgs, &step); err != nil {
			return "", called, err
		}
		if step.Action != "tool" {
			return step.Answer, called, nil
		}

		t, ok := tools.Get(step.Tool)
		if !ok {
			msgs = append(msgs, llm.Message{
				Role:    llm.RoleUser,
				Content: fmt.Sprintf("Observation: no tool named %q is available. Available tools:\n%s", step.Tool, tools.Describe()),
			})
			continue
		}

		called = append(called, t.Name())
		res := t.Invoke(ctx, step.Args)
		observation := res.Content
		if !res.OK() {
			observation = fmt.Sprintf("tool %s failed: %s", t.Name(), res.Err)
		}
		args, _ := json.Marshal(step.Args)
		msgs = append(msgs,
			llm.Message{Role: llm.RoleAssistant, Content: fmt.Sprintf("Calling tool %s with %s", t.Name(), args)},
			llm.Message{Role: llm.RoleUser, Content: "Observation: " + observation},
		)
	}

	// Out of rounds: force a plain completion over everything gathered.
	msgs = append(msgs, llm.Message{
		Role:    llm.RoleUser,
		Content: "Tool budget exhausted. Answer now with the information gathered so far.",
	})
	answer, err := client.Complete(ctx, system, msgs)
	if err != nil {
		return "", called, err
	}
	return answer, called, nil
}
