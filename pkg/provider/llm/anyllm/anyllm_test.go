package anyllm

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/lexora/pkg/provider/llm"
)

func TestParams(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		req        llm.CompletionRequest
		wantMsgs   int
		wantSystem string // substring of the first message; empty means none
		wantTemp   bool
		wantMax    int
	}{
		{
			name: "system prompt leads",
			req: llm.CompletionRequest{
				SystemPrompt: "You are a translator.",
				Messages:     []llm.Message{{Role: llm.RoleUser, Content: "check out"}},
				MaxTokens:    256,
			},
			wantMsgs:   2,
			wantSystem: "You are a translator.",
			wantMax:    256,
		},
		{
			name: "no empty system message",
			req: llm.CompletionRequest{
				Messages:    []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
				Temperature: 0.3,
			},
			wantMsgs: 1,
			wantTemp: true,
		},
		{
			name: "json hint appended",
			req: llm.CompletionRequest{
				SystemPrompt: "Annotate.",
				Messages:     []llm.Message{{Role: llm.RoleUser, Content: "配信"}},
				JSON:         true,
			},
			wantMsgs:   2,
			wantSystem: jsonHint,
		},
		{
			name: "json hint alone",
			req: llm.CompletionRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "配信"}},
				JSON:     true,
			},
			wantMsgs:   2,
			wantSystem: jsonHint,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Provider{model: "llama3", name: "ollama"}
			params := p.params(tt.req)

			if params.Model != "llama3" {
				t.Errorf("model = %q", params.Model)
			}
			if len(params.Messages) != tt.wantMsgs {
				t.Fatalf("messages = %d, want %d", len(params.Messages), tt.wantMsgs)
			}
			first := params.Messages[0]
			if tt.wantSystem != "" {
				if first.Role != anyllmlib.RoleSystem || !strings.Contains(fmt.Sprint(first.Content), tt.wantSystem) {
					t.Errorf("first message = %+v, want system containing %q", first, tt.wantSystem)
				}
			} else if first.Role == anyllmlib.RoleSystem {
				t.Errorf("unexpected system message %+v", first)
			}
			if (params.Temperature != nil) != tt.wantTemp {
				t.Errorf("temperature = %v, want set %v", params.Temperature, tt.wantTemp)
			}
			if tt.wantMax > 0 && (params.MaxTokens == nil || *params.MaxTokens != tt.wantMax) {
				t.Errorf("max tokens = %v, want %d", params.MaxTokens, tt.wantMax)
			}
			if tt.wantMax == 0 && params.MaxTokens != nil {
				t.Errorf("max tokens = %d, want unset", *params.MaxTokens)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	t.Parallel()
	tests := []struct {
		model   string
		context int
		output  int
	}{
		{"gpt-4o-mini", 128_000, 16_384},
		{"claude-3-5-haiku-latest", 200_000, 8_192},
		{"CLAUDE-3-5-SONNET", 200_000, 8_192},
		{"gemini-2.0-flash", 1_048_576, 8_192},
		{"gemini-1.5-pro", 2_097_152, 8_192},
		{"deepseek-chat", 64_000, 8_192},
		{"qwen2.5:7b", 32_768, 4_096},
		{"llama3.1:8b", 8_192, 2_048},
		{"totally-unknown", 8_192, 2_048},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p := &Provider{model: tt.model}
			caps := p.Capabilities()
			if caps.ContextWindow != tt.context || caps.MaxOutputTokens != tt.output {
				t.Errorf("caps = %+v, want context %d output %d", caps, tt.context, tt.output)
			}
		})
	}
}

func TestBackends(t *testing.T) {
	t.Parallel()
	got := Backends()
	if !slices.IsSorted(got) {
		t.Errorf("Backends() not sorted: %v", got)
	}
	for _, want := range []string{"anthropic", "gemini", "ollama", "openai"} {
		if !slices.Contains(got, want) {
			t.Errorf("Backends() = %v, missing %q", got, want)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		model   string
		opts    []anyllmlib.Option
		wantErr string
	}{
		{name: "openai with key", backend: "openai", model: "gpt-4o", opts: []anyllmlib.Option{anyllmlib.WithAPIKey("sk-test")}},
		{name: "anthropic with key", backend: "Anthropic", model: "claude-3-5-haiku-latest", opts: []anyllmlib.Option{anyllmlib.WithAPIKey("sk-ant-test")}},
		{name: "gemini with key", backend: "gemini", model: "gemini-2.0-flash", opts: []anyllmlib.Option{anyllmlib.WithAPIKey("g-test")}},
		{name: "ollama needs no key", backend: "ollama", model: "llama3"},
		{name: "empty model", backend: "openai", wantErr: "model must not be empty"},
		{name: "unknown backend", backend: "fakecloud", model: "m", wantErr: "unsupported backend"},
		{name: "empty backend", backend: "", model: "m", wantErr: "unsupported backend"},
		{name: "openai without key", backend: "openai", model: "gpt-4o", wantErr: "create openai backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "")
			p, err := New(tt.backend, tt.model, tt.opts...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if p.model != tt.model || p.name != strings.ToLower(tt.backend) {
				t.Errorf("provider = %s/%s", p.name, p.model)
			}
		})
	}
}
