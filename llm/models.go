// Package llm provides the model service abstraction and shared message types.
package llm

import "encoding/json"

// Message roles. Tool results travel as RoleTool messages correlated by
// ToolCallID; each provider converts them to its own wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage is one entry in a conversation sent to the model.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // assistant messages that request tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // tool result messages
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition describes a tool exposed to the model at call time.
// Parameters is a JSON Schema object.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// ToolResultMessage creates a tool result message correlated to a tool call.
func ToolResultMessage(toolCallID, content string) ChatMessage {
	return ChatMessage{Role: RoleTool, ToolCallID: toolCallID, Content: content}
}

// Response is what a provider returns for one model call. The model either
// answers directly (Content, no ToolCalls) or requests tool invocations;
// callers must dispatch over that variant rather than assume one shape.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     *TokenUsage
}

// TokenUsage contains token accounting for a single model call.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}
