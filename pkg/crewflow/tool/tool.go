// Package tool defines the contract for external capabilities that workers
// may invoke while answering, plus a named collection for lookup.
package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/calebmorris/crewflow/pkg/crewflow/registry"
)

// Result is the outcome of one tool invocation. A tool failure is data, not
// a Go error: workers fold Err into the conversation and keep going.
type Result struct {
	// Content is the tool's output on success.
	Content string `json:"content"`
	// Err is a human-readable failure description, empty on success.
	Err string `json:"error,omitempty"`
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool { return r.Err == "" }

// Tool is an external capability a worker can call during a step.
// Implementations must be safe for concurrent use.
type Tool interface {
	// Name returns the unique identifier used in tool call records.
	Name() string

	// Description explains what the tool does, phrased for a model choosing
	// between tools.
	Description() string

	// Invoke runs the tool. Failures are reported through Result.Err so the
	// caller can surface them conversationally.
	Invoke(ctx context.Context, args map[string]any) Result
}

// Func adapts a plain function to the Tool interface. A returned error or a
// panic inside the function becomes Result.Err.
type Func struct {
	ID   string
	Desc string
	Fn   func(ctx context.Context, args map[string]any) (string, error)
}

// Name implements Tool.
func (f Func) Name() string { return f.ID }

// Description implements Tool.
func (f Func) Description() string { return f.Desc }

// Invoke implements Tool.
func (f Func) Invoke(ctx context.Context, args map[string]any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Sprintf("tool %s panicked: %v", f.ID, r)}
		}
	}()
	out, err := f.Fn(ctx, args)
	if err != nil {
		return Result{Err: err.Error()}
	}
	return Result{Content: out}
}

// Set is a named collection of tools.
type Set struct {
	reg *registry.Registry[string, Tool]
}

// NewSet builds a set from the given tools. A duplicate name overwrites the
// earlier registration.
func NewSet(tools ...Tool) *Set {
	s := &Set{reg: registry.New[string, Tool]()}
	for _, t := range tools {
		s.reg.Register(t.Name(), t)
	}
	return s
}

// Get returns the named tool.
func (s *Set) Get(name string) (Tool, bool) {
	return s.reg.Get(name)
}

// Names returns the registered tool names.
func (s *Set) Names() []string {
	return s.reg.Keys()
}

// Len returns the number of registered tools.
func (s *Set) Len() int {
	return s.reg.Len()
}

// Describe renders a one-line-per-tool catalogue for inclusion in a system
// prompt, sorted by tool name.
func (s *Set) Describe() string {
	names := s.reg.Keys()
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		t, _ := s.reg.Get(name)
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	return b.String()
}
