package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/bububa/instructor-go/pkg/instructor"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient is a Client backed by the OpenAI chat completions API.
type OpenAIClient struct {
	clt         *openai.Client
	ins         *instructor.InstructorOpenAI
	model       string
	maxTokens   int
	temperature float32
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithOpenAIMaxTokens sets the completion token limit. Default: 2048.
func WithOpenAIMaxTokens(n int) OpenAIOption {
	return func(c *OpenAIClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOpenAITemperature sets the sampling temperature. Default: 0.
func WithOpenAITemperature(t float32) OpenAIOption {
	return func(c *OpenAIClient) {
		c.temperature = t
	}
}

// NewOpenAI creates an OpenAI-backed client for the given model.
func NewOpenAI(apiKey, model string, opts ...OpenAIOption) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	clt := openai.NewClientWithConfig(cfg)
	c := &OpenAIClient{
		clt:       clt,
		ins:       instructor.FromOpenAI(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(3), instructor.WithValidation()),
		model:     model,
		maxTokens: 2048,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, system string, msgs []Message) (string, error) {
	resp, err := c.clt.CreateChatCompletion(ctx, c.request(system, msgs))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStructured implements Client.
func (c *OpenAIClient) CompleteStructured(ctx context.Context, system string, msgs []Message, out any) error {
	if _, err := c.ins.CreateChatCompletion(ctx, c.request(system, msgs), out); err != nil {
		return fmt.Errorf("openai structured completion: %w", err)
	}
	return nil
}

func (c *OpenAIClient) request(system string, msgs []Message) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:               c.model,
		Temperature:         c.temperature,
		MaxCompletionTokens: c.maxTokens,
	}
	if system != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openaiRole(m.Role),
			Content: m.Content,
		})
	}
	return req
}

func openaiRole(r Role) string {
	switch r {
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
