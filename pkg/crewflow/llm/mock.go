package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockCall records a single request made against a Mock client.
type MockCall struct {
	System     string
	Messages   []Message
	Structured bool
}

// Mock is a scriptable Client for tests. Responses are queued ahead of time
// and consumed in order; an exhausted queue is an error, not a silent default,
// so a test that makes more calls than it scripted fails loudly.
type Mock struct {
	mu          sync.Mutex
	completions []mockCompletion
	structured  []mockStructured
	calls       []MockCall
}

type mockCompletion struct {
	text string
	err  error
}

type mockStructured struct {
	value any
	err   error
}

// NewMock creates an empty Mock client.
func NewMock() *Mock {
	return &Mock{}
}

// QueueCompletion scripts the next Complete call to return text.
func (m *Mock) QueueCompletion(text string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, mockCompletion{text: text})
	return m
}

// QueueCompletionError scripts the next Complete call to fail with err.
func (m *Mock) QueueCompletionError(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, mockCompletion{err: err})
	return m
}

// QueueStructured scripts the next CompleteStructured call to fill out with
// value. The value is copied through a JSON round trip, so it must share the
// wire shape of the destination type.
func (m *Mock) QueueStructured(value any) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.structured = append(m.structured, mockStructured{value: value})
	return m
}

// QueueStructuredError scripts the next CompleteStructured call to fail.
func (m *Mock) QueueStructuredError(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.structured = append(m.structured, mockStructured{err: err})
	return m
}

// Calls returns a copy of every request made so far, in order.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Complete implements Client.
func (m *Mock) Complete(ctx context.Context, system string, msgs []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{System: system, Messages: append([]Message(nil), msgs...)})
	if len(m.completions) == 0 {
		return "", fmt.Errorf("mock: unscripted Complete call %d", len(m.calls))
	}
	next := m.completions[0]
	m.completions = m.completions[1:]
	return next.text, next.err
}

// CompleteStructured implements Client.
func (m *Mock) CompleteStructured(ctx context.Context, system string, msgs []Message, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{System: system, Messages: append([]Message(nil), msgs...), Structured: true})
	if len(m.structured) == 0 {
		return fmt.Errorf("mock: unscripted CompleteStructured call %d", len(m.calls))
	}
	next := m.structured[0]
	m.structured = m.structured[1:]
	if next.err != nil {
		return next.err
	}
	data, err := json.Marshal(next.value)
	if err != nil {
		return fmt.Errorf("mock: marshal scripted value: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("mock: unmarshal into %T: %w", out, err)
	}
	return nil
}
