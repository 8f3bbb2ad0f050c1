package llm

import "testing"

func TestParseProviderType(t *testing.T) {
	tests := []struct {
		input   string
		want    ProviderType
		wantErr bool
	}{
		{"anthropic", ProviderAnthropic, false},
		{"claude", ProviderAnthropic, false},
		{"OpenAI", ProviderOpenAI, false},
		{"gpt", ProviderOpenAI, false},
		{"gemini", ProviderGemini, false},
		{"google", ProviderGemini, false},
		{"mistral", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseProviderType(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseProviderType(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseProviderType(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestProviderTypeDefaults(t *testing.T) {
	for _, p := range []ProviderType{ProviderAnthropic, ProviderOpenAI, ProviderGemini} {
		if p.DefaultModel() == "" {
			t.Errorf("%s: missing default model", p)
		}
		if p.EnvVar() == "" {
			t.Errorf("%s: missing API key env var", p)
		}
	}
}

func TestFromEnvMissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	if _, err := FromEnv(ProviderAnthropic, "", 0, 0); err == nil {
		t.Error("expected error when API key env var is unset")
	}
}

func TestNewUsesDefaultModel(t *testing.T) {
	provider, err := New(ProviderAnthropic, "test-key", "", 0, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if provider.Model() != ModelAnthropicDefault {
		t.Errorf("expected default model %q, got %q", ModelAnthropicDefault, provider.Model())
	}
	if provider.Name() != "anthropic" {
		t.Errorf("expected provider name 'anthropic', got %q", provider.Name())
	}
}
