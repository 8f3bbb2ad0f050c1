// Package tools provides the capabilities the model can invoke, and the
// registry that dispatches invocation requests by name.
//
// Information Hiding:
// - Tool execution details hidden behind the Tool interface
// - Parameter schemas hidden in implementations
// - Registry storage and lookup hidden from consumers
package tools

import (
	"context"
	"encoding/json"

	"github.com/mlevans/coursepilot/llm"
)

// Result is the outcome of a tool execution. Output is the text fed back to
// the model. Sources are human-readable attribution labels collected during
// execution; they travel with the result through the request's execution
// context instead of through the model's own output.
type Result struct {
	Output  string
	Sources []string
}

// Tool is the interface all invocable capabilities implement.
type Tool interface {
	// Definition returns the tool spec exposed to the model at call time.
	Definition() llm.ToolDefinition

	// Execute runs the tool with the model-provided argument mapping.
	// A returned error is a handler failure: recoverable from the
	// orchestrator's point of view and reported back to the model.
	Execute(ctx context.Context, args json.RawMessage) (Result, error)
}
