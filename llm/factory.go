// Provider factory - creates configured providers by name.

package llm

import (
	"fmt"
	"os"
	"strings"
)

// ProviderType represents supported model providers.
type ProviderType int

const (
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic ProviderType = iota
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// Default model identifiers per provider.
const (
	ModelAnthropicDefault = "claude-sonnet-4-20250514"
	ModelOpenAIDefault    = "gpt-4o"
	ModelGeminiDefault    = "gemini-2.0-flash"
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderAnthropic:
		return "anthropic"
	case ProviderOpenAI:
		return "openai"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderAnthropic:
		return ModelAnthropicDefault
	case ProviderOpenAI:
		return ModelOpenAIDefault
	case ProviderGemini:
		return ModelGeminiDefault
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive, with aliases).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// New creates a provider of the given type with an explicit API key.
// An empty model selects the provider default.
func New(providerType ProviderType, apiKey, model string, maxTokens uint32, temperature float32) (Provider, error) {
	if model == "" {
		model = providerType.DefaultModel()
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}

	switch providerType {
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderGemini:
		return NewGeminiProvider(apiKey, model, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", providerType)
	}
}

// FromEnv creates a provider of the given type, reading the API key from
// the provider's environment variable.
func FromEnv(providerType ProviderType, model string, maxTokens uint32, temperature float32) (Provider, error) {
	envVar := providerType.EnvVar()
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", providerType, envVar)
	}
	return New(providerType, apiKey, model, maxTokens, temperature)
}
