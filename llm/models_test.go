package llm

import (
	"encoding/json"
	"testing"
)

func TestMessageConstructors(t *testing.T) {
	if m := SystemMessage("be helpful"); m.Role != RoleSystem || m.Content != "be helpful" {
		t.Errorf("unexpected system message: %+v", m)
	}
	if m := UserMessage("hi"); m.Role != RoleUser {
		t.Errorf("unexpected user message: %+v", m)
	}
	if m := AssistantMessage("hello"); m.Role != RoleAssistant {
		t.Errorf("unexpected assistant message: %+v", m)
	}
	m := ToolResultMessage("call-1", "result text")
	if m.Role != RoleTool || m.ToolCallID != "call-1" || m.Content != "result text" {
		t.Errorf("unexpected tool result message: %+v", m)
	}
}

func TestConvertToOpenAIMessagesToolRound(t *testing.T) {
	args := json.RawMessage(`{"query":"loops"}`)
	messages := []ChatMessage{
		SystemMessage("prompt"),
		UserMessage("question"),
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "tc-1", Name: "search", Arguments: args}}},
		ToolResultMessage("tc-1", "found it"),
	}

	converted := convertToOpenAIMessages(messages)
	if len(converted) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(converted))
	}
	if len(converted[2].ToolCalls) != 1 {
		t.Fatalf("expected assistant tool call to survive conversion")
	}
	if converted[2].ToolCalls[0].Function.Name != "search" {
		t.Errorf("tool call name lost: %+v", converted[2].ToolCalls[0])
	}
	if converted[3].ToolCallID != "tc-1" {
		t.Errorf("tool result correlation lost: %+v", converted[3])
	}
}

func TestConvertToAnthropicMessagesExtractsSystem(t *testing.T) {
	messages := []ChatMessage{
		SystemMessage("answer about courses"),
		UserMessage("what is lesson 2 about?"),
	}

	converted, system := convertToAnthropicMessages(messages)
	if system != "answer about courses" {
		t.Errorf("system prompt not extracted, got %q", system)
	}
	if len(converted) != 1 {
		t.Errorf("expected system message removed from conversation, got %d messages", len(converted))
	}
}

func TestConvertToAnthropicToolsRequired(t *testing.T) {
	defs := []ToolDefinition{{
		Name:        "search_course_content",
		Description: "search",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string"},
			},
			"required": []string{"query"},
		},
	}}

	converted := convertToAnthropicTools(defs)
	if len(converted) != 1 || converted[0].OfTool == nil {
		t.Fatalf("unexpected conversion result: %+v", converted)
	}
	if got := converted[0].OfTool.InputSchema.Required; len(got) != 1 || got[0] != "query" {
		t.Errorf("required fields lost: %v", got)
	}
}
