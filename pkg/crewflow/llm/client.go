// Package llm defines the model client contract the workers depend on and
// provides adapters for Anthropic, OpenAI, and Cohere backends.
//
// Workers use exactly two operations: plain completion for prose and
// structured completion for routing decisions. Structured completion is
// backed by instructor-go, which retries and validates the model's JSON
// against the target struct's schema tags.
package llm

import "context"

// Role identifies the sender of a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of model input.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client is the minimal model surface the workflow consumes.
// Implementations must be safe for concurrent use; every call is stateless.
type Client interface {
	// Complete returns the assistant's text for the conversation.
	Complete(ctx context.Context, system string, msgs []Message) (string, error)

	// CompleteStructured decodes the model's output into out, which must be
	// a pointer to a struct with json/jsonschema tags describing the
	// expected shape.
	CompleteStructured(ctx context.Context, system string, msgs []Message, out any) error
}
