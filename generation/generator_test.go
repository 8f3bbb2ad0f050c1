package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mlevans/coursepilot/llm"
	"github.com/mlevans/coursepilot/tools"
)

// scriptedProvider returns canned responses in order and records every call.
type scriptedProvider struct {
	responses []llm.Response
	errs      []error
	calls     [][]llm.ChatMessage
	toolSpecs [][]llm.ToolDefinition
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-1" }

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.ChatMessage) (llm.Response, error) {
	return p.ChatWithTools(ctx, messages, nil)
}

func (p *scriptedProvider) ChatWithTools(_ context.Context, messages []llm.ChatMessage, specs []llm.ToolDefinition) (llm.Response, error) {
	call := len(p.calls)
	p.calls = append(p.calls, append([]llm.ChatMessage(nil), messages...))
	p.toolSpecs = append(p.toolSpecs, specs)

	if call < len(p.errs) && p.errs[call] != nil {
		return llm.Response{}, p.errs[call]
	}
	if call >= len(p.responses) {
		return llm.Response{}, fmt.Errorf("unexpected call %d", call)
	}
	return p.responses[call], nil
}

// stubTool returns a fixed result or error.
type stubTool struct {
	name    string
	result  tools.Result
	err     error
	lastArg json.RawMessage
}

func (t *stubTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{Name: t.name, Description: "stub", Parameters: map[string]interface{}{"type": "object"}}
}

func (t *stubTool) Execute(_ context.Context, args json.RawMessage) (tools.Result, error) {
	t.lastArg = args
	return t.result, t.err
}

func newRegistry(t *testing.T, toolList ...tools.Tool) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	for _, tool := range toolList {
		if err := r.Register(tool); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	return r
}

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func TestGenerateDirectAnswer(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Response{{Content: "Paris is the capital of France."}},
	}
	g := New(provider, newRegistry(t))

	result, err := g.Generate(context.Background(), "What's the capital of France?", nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Answer != "Paris is the capital of France." {
		t.Errorf("unexpected answer %q", result.Answer)
	}
	if len(result.Sources) != 0 {
		t.Errorf("direct answer must have no sources, got %v", result.Sources)
	}
	if len(provider.calls) != 1 {
		t.Errorf("expected exactly 1 model call, got %d", len(provider.calls))
	}
}

func TestGenerateToolRound(t *testing.T) {
	search := &stubTool{
		name: "search_course_content",
		result: tools.Result{
			Output:  "[Intro to X - Lesson 2]\nTopic: Loops",
			Sources: []string{"Intro to X - Lesson 2"},
		},
	}
	provider := &scriptedProvider{
		responses: []llm.Response{
			{ToolCalls: []llm.ToolCall{toolCall("tc-1", "search_course_content", `{"query":"loops"}`)}},
			{Content: "Lesson 2 covers loops."},
		},
	}
	g := New(provider, newRegistry(t, search))

	result, err := g.Generate(context.Background(), "What is covered in lesson 2?", nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Answer != "Lesson 2 covers loops." {
		t.Errorf("unexpected answer %q", result.Answer)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "Intro to X - Lesson 2" {
		t.Errorf("unexpected sources %v", result.Sources)
	}
	if string(search.lastArg) != `{"query":"loops"}` {
		t.Errorf("tool received wrong arguments: %s", search.lastArg)
	}

	if len(provider.calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(provider.calls))
	}
	second := provider.calls[1]
	last := second[len(second)-1]
	if last.Role != llm.RoleTool || last.ToolCallID != "tc-1" {
		t.Errorf("tool result not appended with correlation ID: %+v", last)
	}
	if !strings.Contains(last.Content, "Topic: Loops") {
		t.Errorf("tool output not fed back to the model: %q", last.Content)
	}
}

func TestGenerateSingleRoundBound(t *testing.T) {
	search := &stubTool{name: "search_course_content", result: tools.Result{Output: "nothing"}}
	provider := &scriptedProvider{
		responses: []llm.Response{
			{ToolCalls: []llm.ToolCall{toolCall("tc-1", "search_course_content", `{}`)}},
			// The second response asks for tools again; it must be
			// treated as final.
			{
				Content:   "Here is what I found.",
				ToolCalls: []llm.ToolCall{toolCall("tc-2", "search_course_content", `{}`)},
			},
		},
	}
	g := New(provider, newRegistry(t, search))

	result, err := g.Generate(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Answer != "Here is what I found." {
		t.Errorf("unexpected answer %q", result.Answer)
	}
	if len(provider.calls) != 2 {
		t.Errorf("second tool request must not trigger a third call; got %d calls", len(provider.calls))
	}
}

func TestGenerateMultipleToolCallsInOneRound(t *testing.T) {
	search := &stubTool{name: "search_course_content", result: tools.Result{Output: "content", Sources: []string{"A - Lesson 1"}}}
	outline := &stubTool{name: "get_course_outline", result: tools.Result{Output: "outline", Sources: []string{"A"}}}
	provider := &scriptedProvider{
		responses: []llm.Response{
			{ToolCalls: []llm.ToolCall{
				toolCall("tc-1", "search_course_content", `{}`),
				toolCall("tc-2", "get_course_outline", `{}`),
			}},
			{Content: "combined answer"},
		},
	}
	g := New(provider, newRegistry(t, search, outline))

	result, err := g.Generate(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.Sources) != 2 {
		t.Errorf("expected sources from both invocations, got %v", result.Sources)
	}

	// Both results are appended, in request order, before the final call.
	second := provider.calls[1]
	n := len(second)
	if second[n-2].ToolCallID != "tc-1" || second[n-1].ToolCallID != "tc-2" {
		t.Errorf("tool results out of order: %+v", second[n-2:])
	}
}

func TestGenerateTransportErrorFatal(t *testing.T) {
	provider := &scriptedProvider{
		errs: []error{fmt.Errorf("connection refused")},
	}
	g := New(provider, newRegistry(t))

	_, err := g.Generate(context.Background(), "question", nil)
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %v", err)
	}

	// Second-call failures are fatal too.
	search := &stubTool{name: "search_course_content", result: tools.Result{Output: "x"}}
	provider = &scriptedProvider{
		responses: []llm.Response{
			{ToolCalls: []llm.ToolCall{toolCall("tc-1", "search_course_content", `{}`)}},
		},
		errs: []error{nil, fmt.Errorf("rate limited")},
	}
	g = New(provider, newRegistry(t, search))
	if _, err := g.Generate(context.Background(), "question", nil); !errors.As(err, &transport) {
		t.Errorf("expected TransportError on second call, got %v", err)
	}
}

func TestGenerateHandlerFailureRecovered(t *testing.T) {
	broken := &stubTool{name: "search_course_content", err: fmt.Errorf("index corrupted")}
	provider := &scriptedProvider{
		responses: []llm.Response{
			{ToolCalls: []llm.ToolCall{toolCall("tc-1", "search_course_content", `{}`)}},
			{Content: "I could not search the materials."},
		},
	}
	g := New(provider, newRegistry(t, broken))

	result, err := g.Generate(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("handler failure must not abort the query: %v", err)
	}
	if result.Answer != "I could not search the materials." {
		t.Errorf("unexpected answer %q", result.Answer)
	}

	second := provider.calls[1]
	last := second[len(second)-1]
	if last.Role != llm.RoleTool || !strings.Contains(last.Content, "Tool execution failed") {
		t.Errorf("handler error not surfaced as tool result: %+v", last)
	}
}

func TestGenerateUnknownToolFatal(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Response{
			{ToolCalls: []llm.ToolCall{toolCall("tc-1", "not_registered", `{}`)}},
		},
	}
	g := New(provider, newRegistry(t))

	_, err := g.Generate(context.Background(), "question", nil)
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestGenerateIncludesHistoryAndSystemPrompt(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.Response{{Content: "answer"}},
	}
	g := New(provider, newRegistry(t)).WithSystemPrompt("custom prompt")

	history := []llm.ChatMessage{
		llm.UserMessage("earlier question"),
		llm.AssistantMessage("earlier answer"),
	}
	if _, err := g.Generate(context.Background(), "new question", history); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	sent := provider.calls[0]
	if len(sent) != 4 {
		t.Fatalf("expected system + 2 history + user, got %d messages", len(sent))
	}
	if sent[0].Role != llm.RoleSystem || sent[0].Content != "custom prompt" {
		t.Errorf("system prompt not first: %+v", sent[0])
	}
	if sent[3].Content != "new question" {
		t.Errorf("query not last: %+v", sent[3])
	}
}
