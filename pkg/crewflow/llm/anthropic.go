package llm

import (
	"context"
	"fmt"

	"github.com/bububa/instructor-go/pkg/instructor"
	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicClient is a Client backed by the Anthropic Messages API.
type AnthropicClient struct {
	clt         *anthropic.Client
	ins         *instructor.InstructorAnthropic
	model       string
	maxTokens   int
	temperature float32
}

// AnthropicOption configures an AnthropicClient.
type AnthropicOption func(*AnthropicClient)

// WithAnthropicMaxTokens sets the completion token limit. Default: 2048.
func WithAnthropicMaxTokens(n int) AnthropicOption {
	return func(c *AnthropicClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithAnthropicTemperature sets the sampling temperature. Default: 0.
func WithAnthropicTemperature(t float32) AnthropicOption {
	return func(c *AnthropicClient) {
		c.temperature = t
	}
}

// NewAnthropic creates an Anthropic-backed client for the given model.
func NewAnthropic(apiKey, model string, opts ...AnthropicOption) *AnthropicClient {
	clt := anthropic.NewClient(apiKey)
	c := &AnthropicClient{
		clt:       clt,
		ins:       instructor.FromAnthropic(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(3), instructor.WithValidation()),
		model:     model,
		maxTokens: 2048,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete implements Client.
func (c *AnthropicClient) Complete(ctx context.Context, system string, msgs []Message) (string, error) {
	resp, err := c.clt.CreateMessages(ctx, c.request(system, msgs))
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}
	return resp.GetFirstContentText(), nil
}

// CompleteStructured implements Client.
func (c *AnthropicClient) CompleteStructured(ctx context.Context, system string, msgs []Message, out any) error {
	if _, err := c.ins.CreateMessages(ctx, c.request(system, msgs), out); err != nil {
		return fmt.Errorf("anthropic structured completion: %w", err)
	}
	return nil
}

func (c *AnthropicClient) request(system string, msgs []Message) anthropic.MessagesRequest {
	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    system,
		MaxTokens: c.maxTokens,
	}
	if c.temperature > 0 {
		t := c.temperature
		req.Temperature = &t
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, anthropic.Message{
			Role:    anthropicRole(m.Role),
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(m.Content)},
		})
	}
	return req
}

// anthropicRole maps chat roles onto the two roles the Messages API
// accepts. System content travels in the request's System field, so
// everything that is not assistant output is user input.
func anthropicRole(r Role) anthropic.ChatRole {
	if r == RoleAssistant {
		return anthropic.RoleAssistant
	}
	return anthropic.RoleUser
}
