package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mlevans/coursepilot/llm"
)

// ErrUnknownTool indicates a dispatch request for a name that was never
// registered. This is a programming-level fault: tool names reaching the
// registry come from definitions the registry itself exposed.
var ErrUnknownTool = errors.New("unknown tool")

// Registry holds available tools and dispatches invocation requests by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool under the name from its definition.
// Returns an error if the name is already taken.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Definition().Name
	if name == "" {
		return fmt.Errorf("tool definition has no name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the specs of all registered tools, ordered by name.
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Dispatch invokes the named tool with the given argument mapping and
// returns its result unchanged. Fails with ErrUnknownTool for unregistered
// names; handler failures propagate without retry.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	tool, exists := r.Get(name)
	if !exists {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return tool.Execute(ctx, args)
}
