package crewflow_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebmorris/crewflow/pkg/crewflow"
	"github.com/calebmorris/crewflow/pkg/crewflow/checkpoint"
	"github.com/calebmorris/crewflow/pkg/crewflow/llm"
	"github.com/calebmorris/crewflow/pkg/crewflow/session"
	"github.com/calebmorris/crewflow/pkg/crewflow/tool"
	"github.com/calebmorris/crewflow/pkg/crewflow/workers"
)

func newAcceptanceEngine(t *testing.T, client llm.Client, tools *tool.Set, opts ...crewflow.Option) *crewflow.Engine {
	t.Helper()
	sessions := session.NewManager(checkpoint.NewMemoryStore())
	engine, err := crewflow.New(sessions, workers.Suite(client, tools), opts...)
	require.NoError(t, err)
	return engine
}

func weatherToolStub() tool.Tool {
	return tool.Func{
		ID:   "weather_tool",
		Desc: "Fetches current weather for a location.",
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			loc, _ := args["location"].(string)
			return fmt.Sprintf("18C and sunny in %s", loc), nil
		},
	}
}

// TestAcceptance_ResearchFlow tests the full happy path: supervisor routes
// to the researcher, the researcher uses a tool, the validator accepts, and
// the final output provider relays the researched answer.
func TestAcceptance_ResearchFlow(t *testing.T) {
	mock := llm.NewMock()
	// supervisor decision
	mock.QueueStructured(map[string]any{"next": "researcher", "reason": "needs current facts"})
	// researcher: one tool call, then the answer
	mock.QueueStructured(map[string]any{"action": "tool", "tool": "weather_tool", "args": map[string]any{"location": "Paris"}})
	mock.QueueStructured(map[string]any{"action": "answer", "answer": "It is 18C and sunny in Paris."})
	// validator verdict
	mock.QueueStructured(map[string]any{"next": "FINISH", "reason": "answers the question"})

	engine := newAcceptanceEngine(t, mock, tool.NewSet(weatherToolStub()))

	result, err := engine.Run(context.Background(), "thread-1", "What's the weather in Paris?")

	require.NoError(t, err)
	assert.Equal(t, "It is 18C and sunny in Paris.", result.Answer)
	assert.Equal(t, 4, result.Steps)
	assert.Equal(t, []string{"weather_tool"}, result.State.ToolCallsMade)
	assert.Equal(t, []string{"It is 18C and sunny in Paris."}, result.State.ResearcherOutput)
	assert.Equal(t, []string{"needs current facts"}, result.State.SupervisorReason)
	assert.Equal(t, []string{"answers the question"}, result.State.ValidatorOutput)
}

// TestAcceptance_GeneralAnswerFlow tests the vague-request fallback path.
func TestAcceptance_GeneralAnswerFlow(t *testing.T) {
	mock := llm.NewMock()
	mock.QueueStructured(map[string]any{"next": "general_answer_provider", "reason": "no specialist fits"})
	mock.QueueCompletion("Could you tell me more about what you need?")

	engine := newAcceptanceEngine(t, mock, nil)

	result, err := engine.Run(context.Background(), "thread-1", "hmm")

	require.NoError(t, err)
	assert.Equal(t, "Could you tell me more about what you need?", result.Answer)
	assert.Equal(t, 2, result.Steps)
}

// TestAcceptance_EnhancerLoopBounded tests a turn that never converges is
// stopped by the hop limit.
func TestAcceptance_EnhancerLoopBounded(t *testing.T) {
	mock := llm.NewMock()
	// supervisor -> enhancer -> supervisor -> enhancer -> supervisor, then
	// the hop limit fires.
	mock.QueueStructured(map[string]any{"next": "enhancer", "reason": "refine"})
	mock.QueueCompletion("refined once")
	mock.QueueStructured(map[string]any{"next": "enhancer", "reason": "refine again"})
	mock.QueueCompletion("refined twice")
	mock.QueueStructured(map[string]any{"next": "enhancer", "reason": "still refining"})

	engine := newAcceptanceEngine(t, mock, nil, crewflow.WithMaxHops(5))

	_, err := engine.Run(context.Background(), "thread-1", "vague request")

	require.ErrorIs(t, err, crewflow.ErrMaxHops)
	var maxErr *crewflow.MaxHopsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 5, maxErr.Max)
}

// TestAcceptance_ResearcherDegradation tests a researcher model failure
// becomes a conversational error message and the turn still terminates.
func TestAcceptance_ResearcherDegradation(t *testing.T) {
	mock := llm.NewMock()
	mock.QueueStructured(map[string]any{"next": "researcher", "reason": "needs facts"})
	mock.QueueStructuredError(errors.New("model unavailable"))
	mock.QueueStructured(map[string]any{"next": "FINISH", "reason": "nothing more to do"})

	engine := newAcceptanceEngine(t, mock, tool.NewSet(weatherToolStub()))

	result, err := engine.Run(context.Background(), "thread-1", "What's the weather?")

	require.NoError(t, err)
	assert.Contains(t, result.Answer, "Error: model unavailable")
	assert.Empty(t, result.State.ResearcherOutput)
}

// TestAcceptance_ToolFailureDegradation tests a failing tool is reported to
// the model as an observation and the researcher still answers.
func TestAcceptance_ToolFailureDegradation(t *testing.T) {
	broken := tool.Func{
		ID:   "search_tool",
		Desc: "Searches the web.",
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("upstream 500")
		},
	}

	mock := llm.NewMock()
	mock.QueueStructured(map[string]any{"next": "researcher", "reason": "needs facts"})
	mock.QueueStructured(map[string]any{"action": "tool", "tool": "search_tool", "args": map[string]any{"query": "weather"}})
	mock.QueueStructured(map[string]any{"action": "answer", "answer": "I could not retrieve live data."})
	mock.QueueStructured(map[string]any{"next": "FINISH", "reason": "best effort"})

	engine := newAcceptanceEngine(t, mock, tool.NewSet(broken))

	result, err := engine.Run(context.Background(), "thread-1", "What's the weather?")

	require.NoError(t, err)
	assert.Equal(t, "I could not retrieve live data.", result.Answer)
	assert.Equal(t, []string{"search_tool"}, result.State.ToolCallsMade)

	// The failure reached the model as an observation.
	observed := false
	for _, call := range mock.Calls() {
		for _, m := range call.Messages {
			if m.Role == llm.RoleUser && strings.Contains(m.Content, "search_tool") && strings.Contains(m.Content, "upstream 500") {
				observed = true
			}
		}
	}
	assert.True(t, observed, "tool failure never surfaced to the model")
}

// TestAcceptance_ValidatorGarbageIsFatal tests an unparseable verdict aborts
// the turn instead of guessing a route.
func TestAcceptance_ValidatorGarbageIsFatal(t *testing.T) {
	mock := llm.NewMock()
	mock.QueueStructured(map[string]any{"next": "researcher", "reason": "needs facts"})
	mock.QueueStructured(map[string]any{"action": "answer", "answer": "some answer"})
	mock.QueueStructured(map[string]any{"next": "maybe", "reason": "confused"})

	engine := newAcceptanceEngine(t, mock, nil)

	_, err := engine.Run(context.Background(), "thread-1", "question")

	var decisionErr *crewflow.DecisionError
	require.ErrorAs(t, err, &decisionErr)
	assert.Equal(t, crewflow.WorkerValidator, decisionErr.Point)
	assert.Equal(t, "maybe", decisionErr.Raw)
}

// TestAcceptance_ValidatorRejectsOnce tests the validator can send an answer
// back and accept the second attempt.
func TestAcceptance_ValidatorRejectsOnce(t *testing.T) {
	mock := llm.NewMock()
	mock.QueueStructured(map[string]any{"next": "researcher", "reason": "needs facts"})
	mock.QueueStructured(map[string]any{"action": "answer", "answer": "off-topic rambling"})
	mock.QueueStructured(map[string]any{"next": "supervisor", "reason": "completely off-topic"})
	mock.QueueStructured(map[string]any{"next": "researcher", "reason": "try again"})
	mock.QueueStructured(map[string]any{"action": "answer", "answer": "the real answer"})
	mock.QueueStructured(map[string]any{"next": "FINISH", "reason": "on topic now"})

	engine := newAcceptanceEngine(t, mock, nil)

	result, err := engine.Run(context.Background(), "thread-1", "question")

	require.NoError(t, err)
	assert.Equal(t, "the real answer", result.Answer)
	assert.Equal(t, 6, result.Steps)
	assert.Len(t, result.State.ResearcherOutput, 2)
	assert.Len(t, result.State.ValidatorOutput, 2)
}

// TestAcceptance_MultiTurnThread tests a second turn continues on the
// accumulated conversation.
func TestAcceptance_MultiTurnThread(t *testing.T) {
	mock := llm.NewMock()
	mock.QueueStructured(map[string]any{"next": "general_answer_provider", "reason": "small talk"})
	mock.QueueCompletion("Hello!")
	mock.QueueStructured(map[string]any{"next": "general_answer_provider", "reason": "small talk again"})
	mock.QueueCompletion("Still here!")

	engine := newAcceptanceEngine(t, mock, nil)

	_, err := engine.Run(context.Background(), "thread-1", "hi")
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), "thread-1", "you there?")
	require.NoError(t, err)

	// Second turn: first turn's three messages plus this turn's three.
	assert.Equal(t, 6, result.State.MessageCount())
	first, _ := result.State.FirstMessage()
	assert.Equal(t, "hi", first.Content)
}
