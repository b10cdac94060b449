package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// LLMClient is the interface every text model implementation satisfies.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// ErrEmptyResponse is returned when a model answers with no usable text,
// including replies withheld by a safety filter.
var ErrEmptyResponse = errors.New("model returned no text")

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderCommand   = "command"
	ProviderMock      = "mock"
)

// Config selects and configures one text model provider.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Command     string
	MaxTokens   int
	Temperature float64
}

// NewClient builds the LLMClient named by cfg.Provider.
func NewClient(ctx context.Context, cfg Config) (LLMClient, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "":
		model := cfg.Model
		if model == "" {
			model = "gemini-2.0-flash"
		}
		slog.Info("question synthesis using Gemini", "model", model)
		return NewGeminiClient(ctx, cfg.APIKey, model, cfg.MaxTokens, cfg.Temperature)
	case ProviderAnthropic:
		model := cfg.Model
		if model == "" {
			model = "claude-sonnet-4-5"
		}
		slog.Info("question synthesis using Anthropic", "model", model)
		return NewAnthropicClient(cfg.APIKey, model, cfg.MaxTokens, cfg.Temperature)
	case ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		slog.Info("question synthesis using OpenAI", "model", model, "base_url", cfg.BaseURL)
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, model, cfg.MaxTokens, cfg.Temperature)
	case ProviderCommand:
		if cfg.Command == "" {
			return nil, fmt.Errorf("command provider needs a command path")
		}
		slog.Info("question synthesis using local command", "command", cfg.Command)
		return NewCommandClient(cfg.Command), nil
	case ProviderMock:
		slog.Info("question synthesis using mock data")
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// ── MockClient: Local Development ─────────────────────────

// MockClient answers every request with a well-formed question built from the
// first words of the prompt text.
type MockClient struct {
	Reply string
	Err   error
	calls atomic.Int64
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	reply := m.Reply
	if reply == "" {
		reply = buildMockReply(systemPrompt, userPrompt)
	}
	return &LLMResponse{
		Content:      reply,
		PromptTokens: len(strings.Fields(systemPrompt + " " + userPrompt)),
		OutputTokens: len(strings.Fields(reply)),
	}, nil
}

// Calls returns how many times Generate ran.
func (m *MockClient) Calls() int {
	return int(m.calls.Load())
}

// buildMockReply echoes the theme back for theme prompts and writes a canned
// question for everything else.
func buildMockReply(systemPrompt, userPrompt string) string {
	if systemPrompt == ThemeSystemPrompt() {
		theme := strings.TrimPrefix(userPrompt, "Theme:")
		if i := strings.Index(theme, "\n"); i >= 0 {
			theme = theme[:i]
		}
		return strings.TrimSpace(theme)
	}
	return buildMockQuestion(userPrompt)
}

func buildMockQuestion(userPrompt string) string {
	subject := "this article"
	if i := strings.Index(userPrompt, "Text:"); i >= 0 {
		words := strings.Fields(userPrompt[i+len("Text:"):])
		if len(words) > 0 {
			subject = strings.Join(words[:min(len(words), 4)], " ")
		}
	}
	return fmt.Sprintf(`Question: [Mock] Which statement about "%s" is supported by the text?
A) [Mock] It is described in the text.
B) [Mock] It is never mentioned.
C) [Mock] It is a fictional invention.
D) [Mock] It is contradicted by the text.
Correct Answer: A`, subject)
}
