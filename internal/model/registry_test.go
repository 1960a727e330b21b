package model

import (
	"testing"

	"github.com/soochol/flowmart/internal/config"
)

func TestBuildLLM(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.ProviderConfig
		wantOK   bool
		wantName string
	}{
		{"openai", config.ProviderConfig{Type: "openai", APIKey: "k"}, true, "openai"},
		{"anthropic", config.ProviderConfig{Type: "anthropic", APIKey: "k"}, true, "anthropic"},
		{"gemini", config.ProviderConfig{Type: "gemini", APIKey: "k"}, true, "gemini"},
		{"ollama", config.ProviderConfig{Type: "custom", URL: "http://localhost:11434/v1"}, true, "ollama"},
		{"unknown", config.ProviderConfig{Type: "custom"}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm, ok := BuildLLM(tt.name, tt.cfg)
			if ok != tt.wantOK {
				t.Fatalf("BuildLLM ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && llm.Name() != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, llm.Name())
			}
		})
	}
}

func TestDefaultModel(t *testing.T) {
	if got := DefaultModel("openai"); got != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %q", got)
	}
	for _, typ := range []string{"anthropic", "gemini"} {
		if DefaultModel(typ) == "" {
			t.Errorf("expected a default model for %s", typ)
		}
	}
	if got := DefaultModel("custom"); got != "" {
		t.Errorf("expected no default for custom, got %q", got)
	}
}
