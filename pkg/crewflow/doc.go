/*
Package crewflow provides a supervisor-routed multi-agent conversation
engine.

# Overview

crewflow executes conversational turns through a fixed workflow graph of
specialist workers. A supervisor classifies each request and dispatches to
one specialist; specialists report to a validator; the validator either
accepts the answer or loops back to the supervisor. Workers share an
append-only conversation state, and every step is snapshotted so a thread
survives process restarts.

The built-in worker set lives in the workers subpackage:
  - supervisor: routes to one specialist per visit
  - enhancer: rewrites vague requests, returns to the supervisor
  - researcher: gathers facts with tools, reports to the validator
  - coder: computes and analyzes with tools, reports to the validator
  - validator: accepts the answer (FINISH) or loops to the supervisor
  - final_output_provider: relays the validated answer and ends the turn
  - general_answer_provider: terminal fallback for everything else

# Basic Usage

Wire a session manager, a model client, and the worker suite:

	store := checkpoint.NewMemoryStore()
	sessions := session.NewManager(store)

	client := llm.NewAnthropic(os.Getenv("ANTHROPIC_API_KEY"), "claude-sonnet-4-20250514")
	tools := tool.NewSet(weatherTool, searchTool)

	engine, err := crewflow.New(sessions, workers.Suite(client, tools))
	if err != nil {
	    log.Fatal(err)
	}

	threadID := sessions.NewThread()
	result, err := engine.Run(ctx, threadID, "What's the weather in Paris?")
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(result.Answer)

Subsequent Run calls with the same thread id continue the conversation on
the accumulated state.

# Streaming

Stream delivers one event per executed worker, then a final event carrying
the answer:

	events, err := engine.Stream(ctx, threadID, "and tomorrow?")
	if err != nil {
	    log.Fatal(err)
	}
	for evt := range events {
	    if evt.Final {
	        fmt.Println(evt.Answer)
	        break
	    }
	    fmt.Printf("[%s] %s\n", evt.Worker, evt.Summary)
	}

# Termination

The supervisor/validator cycle is not structurally guaranteed to finish, so
every turn is bounded by a hop limit (default 25, WithMaxHops) and
optionally by a wall-clock budget (WithTurnTimeout). Exceeding the hop
limit returns a MaxHopsError; exceeding the time budget resolves the turn
to a degraded timeout answer instead of an error.

# Error Handling

Worker-level model and tool failures degrade into conversation messages and
the turn continues. Fatal errors are typed: DecisionError for an
unparseable routing decision, RouteError for a successor outside the
transition table, PanicError for a worker panic, CancellationError for
caller cancellation, SessionError for persistence failures. All support
errors.Is/errors.As through Unwrap.
*/
package crewflow
