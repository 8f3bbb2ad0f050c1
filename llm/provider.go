// Provider interface - the abstract interface for model services.
// Each implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific tool-call encoding

package llm

import "context"

// Provider defines the abstract interface for model providers.
// Implementations hide provider-specific wire formats while exposing a
// consistent chat interface with optional tool calling.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the model identifier in use.
	Model() string

	// Chat sends a chat completion request without tools.
	Chat(ctx context.Context, messages []ChatMessage) (Response, error)

	// ChatWithTools sends a chat completion request with tool definitions.
	// The model may respond with tool calls in Response.ToolCalls.
	ChatWithTools(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (Response, error)
}
