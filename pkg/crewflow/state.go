package crewflow

// Role identifies the kind of conversation message.
type Role string

// Message roles.
const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleSystem     Role = "system"
	RoleToolResult Role = "tool-result"
)

// Message is the atomic unit of conversation. Messages are immutable once
// created; ordering is the order of creation within a thread.
type Message struct {
	// Role is the conversational role of the sender.
	Role Role `json:"role"`
	// Author is the worker that produced this message, or "user".
	Author string `json:"author"`
	// Content is the message text.
	Content string `json:"content"`
	// ToolCalls lists the names of external tools invoked while producing
	// this message, in invocation order.
	ToolCalls []string `json:"tool_calls,omitempty"`
}

// State is the shared conversation record threaded through every step of a
// turn. All fields are append-only sequences: workers extend them through
// Merge, never replace them.
//
// State is not safe for concurrent mutation. The engine guarantees that
// exactly one worker touches a thread's state at a time.
type State struct {
	// Messages is the full conversation history, append-only. The first
	// message of a turn's window is the originating user question.
	Messages []Message `json:"messages"`

	// Audit trails. Each worker appends at most one entry per visit.
	// These exist for explainability, never for control flow.
	SupervisorReason []string `json:"supervisor_reason,omitempty"`
	EnhancerOutput   []string `json:"enhancer_output,omitempty"`
	ResearcherOutput []string `json:"researcher_output,omitempty"`
	AnalystOutput    []string `json:"analyst_output,omitempty"`
	ValidatorOutput  []string `json:"validator_output,omitempty"`

	// ToolCallsMade accumulates tool names used across the whole turn.
	ToolCallsMade []string `json:"tool_calls_made,omitempty"`
}

// Delta is the partial update a worker returns from one execution. Every
// field is concatenated onto the corresponding State sequence by Merge.
type Delta struct {
	Messages         []Message `json:"messages,omitempty"`
	SupervisorReason []string  `json:"supervisor_reason,omitempty"`
	EnhancerOutput   []string  `json:"enhancer_output,omitempty"`
	ResearcherOutput []string  `json:"researcher_output,omitempty"`
	AnalystOutput    []string  `json:"analyst_output,omitempty"`
	ValidatorOutput  []string  `json:"validator_output,omitempty"`
	ToolCallsMade    []string  `json:"tool_calls_made,omitempty"`
}

// Merge applies a delta additively. Sequence fields are concatenated onto
// the end of the existing sequences; nothing is ever dropped or reordered.
// Merge is the only mutation primitive on State.
func (s *State) Merge(d Delta) {
	s.Messages = append(s.Messages, d.Messages...)
	s.SupervisorReason = append(s.SupervisorReason, d.SupervisorReason...)
	s.EnhancerOutput = append(s.EnhancerOutput, d.EnhancerOutput...)
	s.ResearcherOutput = append(s.ResearcherOutput, d.ResearcherOutput...)
	s.AnalystOutput = append(s.AnalystOutput, d.AnalystOutput...)
	s.ValidatorOutput = append(s.ValidatorOutput, d.ValidatorOutput...)
	s.ToolCallsMade = append(s.ToolCallsMade, d.ToolCallsMade...)
}

// FirstMessage returns the oldest message, typically the originating user
// question. The second return is false when the state is empty.
func (s *State) FirstMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[0], true
}

// LastMessage returns the most recently appended message, which is
// authoritative as the current candidate answer.
func (s *State) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// MessageCount returns the number of messages in the state.
func (s *State) MessageCount() int {
	return len(s.Messages)
}

// Clone returns a deep copy of the state. Checkpointing and event
// summaries use clones so later merges cannot alias persisted data.
func (s *State) Clone() State {
	out := State{
		Messages:         make([]Message, len(s.Messages)),
		SupervisorReason: cloneStrings(s.SupervisorReason),
		EnhancerOutput:   cloneStrings(s.EnhancerOutput),
		ResearcherOutput: cloneStrings(s.ResearcherOutput),
		AnalystOutput:    cloneStrings(s.AnalystOutput),
		ValidatorOutput:  cloneStrings(s.ValidatorOutput),
		ToolCallsMade:    cloneStrings(s.ToolCallsMade),
	}
	for i, m := range s.Messages {
		out.Messages[i] = m
		out.Messages[i].ToolCalls = cloneStrings(m.ToolCalls)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
