package llm

import (
	"context"
	"fmt"

	"github.com/bububa/instructor-go/pkg/instructor"
	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	cohereoption "github.com/cohere-ai/cohere-go/v2/option"
)

// CohereClient is a Client backed by the Cohere chat API.
//
// Cohere's chat endpoint takes the latest user message separately from the
// rest of the history, so the adapter peels the final message off msgs and
// sends everything before it as ChatHistory.
type CohereClient struct {
	clt         *cohereclient.Client
	ins         *instructor.InstructorCohere
	model       string
	maxTokens   int
	temperature float64
}

// CohereOption configures a CohereClient.
type CohereOption func(*CohereClient)

// WithCohereMaxTokens sets the completion token limit. Default: 2048.
func WithCohereMaxTokens(n int) CohereOption {
	return func(c *CohereClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithCohereTemperature sets the sampling temperature. Default: 0.
func WithCohereTemperature(t float64) CohereOption {
	return func(c *CohereClient) {
		c.temperature = t
	}
}

// NewCohere creates a Cohere-backed client for the given model.
func NewCohere(apiKey, model string, opts ...CohereOption) *CohereClient {
	clt := cohereclient.NewClient(cohereoption.WithToken(apiKey))
	c := &CohereClient{
		clt:       clt,
		ins:       instructor.FromCohere(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(3), instructor.WithValidation()),
		model:     model,
		maxTokens: 2048,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete implements Client.
func (c *CohereClient) Complete(ctx context.Context, system string, msgs []Message) (string, error) {
	req, err := c.request(system, msgs)
	if err != nil {
		return "", err
	}
	resp, err := c.clt.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("cohere completion: %w", err)
	}
	return resp.Text, nil
}

// CompleteStructured implements Client.
func (c *CohereClient) CompleteStructured(ctx context.Context, system string, msgs []Message, out any) error {
	req, err := c.request(system, msgs)
	if err != nil {
		return err
	}
	if _, err := c.ins.Chat(ctx, req, out); err != nil {
		return fmt.Errorf("cohere structured completion: %w", err)
	}
	return nil
}

func (c *CohereClient) request(system string, msgs []Message) (*cohere.ChatRequest, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("cohere completion: no messages")
	}
	last := msgs[len(msgs)-1]
	req := &cohere.ChatRequest{
		Model:       &c.model,
		MaxTokens:   &c.maxTokens,
		Temperature: &c.temperature,
		Message:     last.Content,
	}
	if system != "" {
		req.Preamble = &system
	}
	for _, m := range msgs[:len(msgs)-1] {
		req.ChatHistory = append(req.ChatHistory, cohereMessage(m))
	}
	return req, nil
}

func cohereMessage(m Message) *cohere.Message {
	switch m.Role {
	case RoleAssistant:
		return &cohere.Message{Role: "CHATBOT", Chatbot: &cohere.ChatMessage{Message: m.Content}}
	case RoleSystem:
		return &cohere.Message{Role: "SYSTEM", System: &cohere.ChatMessage{Message: m.Content}}
	default:
		return &cohere.Message{Role: "USER", User: &cohere.ChatMessage{Message: m.Content}}
	}
}
