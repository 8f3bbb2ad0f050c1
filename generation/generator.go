// Package generation drives the model call loop: it sends the conversation
// and tool specs to the model, executes any requested tool invocations
// through the registry, feeds the results back, and returns the final answer.
//
// The loop is bounded to exactly one round of tool execution per query. After
// tool results are appended and a second model call is made, that response is
// final even if it requests tools again; this bounds latency and prevents
// runaway loops.
package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/mlevans/coursepilot/llm"
	"github.com/mlevans/coursepilot/store"
	"github.com/mlevans/coursepilot/tools"
)

// DefaultSystemPrompt instructs the model on when to search and how to answer.
const DefaultSystemPrompt = `You are an AI assistant specialized in course materials and educational content.

Tool usage:
- Use the search tool for questions about specific course content or lesson details.
- Use the outline tool for questions about course structure, lesson lists, or instructors.
- At most one tool round per question; synthesize the results into your answer.
- If a search yields no results, say so clearly and do not guess.

For general knowledge questions unrelated to the courses, answer directly
without tools. Keep answers brief and factual. Do not mention the search
process or the tools in your answer.`

// TransportError wraps a failure talking to the model service. Fatal for the
// current query; not retried here.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one generated answer, with the source
// attributions collected from tool executions during the round.
type Result struct {
	Answer  string
	Sources []string
}

// Generator orchestrates model calls and tool execution for one query at a
// time. All mutable per-request state lives on the call stack, so a single
// Generator serves concurrent queries.
type Generator struct {
	provider     llm.Provider
	registry     *tools.Registry
	systemPrompt string
}

// New creates a generator over a model provider and a tool registry.
func New(provider llm.Provider, registry *tools.Registry) *Generator {
	return &Generator{
		provider:     provider,
		registry:     registry,
		systemPrompt: DefaultSystemPrompt,
	}
}

// WithSystemPrompt overrides the default system prompt.
func (g *Generator) WithSystemPrompt(prompt string) *Generator {
	g.systemPrompt = prompt
	return g
}

// Generate answers one query. The model either answers directly or requests
// tool invocations; in the latter case all invocations of the round are
// dispatched in request order, their results appended to the conversation,
// and a second model call produces the final answer.
func (g *Generator) Generate(ctx context.Context, query string, history []llm.ChatMessage) (Result, error) {
	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.SystemMessage(g.systemPrompt))
	messages = append(messages, history...)
	messages = append(messages, llm.UserMessage(query))

	definitions := g.registry.Definitions()

	response, err := g.provider.ChatWithTools(ctx, messages, definitions)
	if err != nil {
		return Result{}, &TransportError{Err: err}
	}

	// Direct answer: no tool round needed.
	if len(response.ToolCalls) == 0 {
		return Result{Answer: response.Content}, nil
	}

	messages = append(messages, llm.ChatMessage{
		Role:      llm.RoleAssistant,
		Content:   response.Content,
		ToolCalls: response.ToolCalls,
	})

	var sources []string
	for _, call := range response.ToolCalls {
		result, err := g.registry.Dispatch(ctx, call.Name, call.Arguments)
		switch {
		case errors.Is(err, tools.ErrUnknownTool):
			// The model asked for a tool we never exposed; a
			// programming-level fault, not recoverable.
			return Result{}, err
		case errors.Is(err, store.ErrUnavailable):
			return Result{}, err
		case err != nil:
			// Handler failure: reported back into the conversation
			// so the model can still respond.
			messages = append(messages, llm.ToolResultMessage(call.ID, fmt.Sprintf("Tool execution failed: %v", err)))
		default:
			sources = append(sources, result.Sources...)
			messages = append(messages, llm.ToolResultMessage(call.ID, result.Output))
		}
	}

	final, err := g.provider.ChatWithTools(ctx, messages, definitions)
	if err != nil {
		return Result{}, &TransportError{Err: err}
	}

	// Second response is final regardless of any further tool requests.
	return Result{Answer: final.Content, Sources: sources}, nil
}
