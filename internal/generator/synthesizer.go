package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/calibration-game/backend/internal/models"
)

const DefaultTimeout = 30 * time.Second

// SynthesisError wraps any failure to produce a question from a document.
type SynthesisError struct {
	Title string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize question from %q: %v", e.Title, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Synthesizer turns a candidate document into a trivia question with one
// model call. It keeps no state between calls.
type Synthesizer struct {
	llm     LLMClient
	timeout time.Duration
}

func NewSynthesizer(llm LLMClient, timeout time.Duration) *Synthesizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Synthesizer{llm: llm, timeout: timeout}
}

// Synthesize sends at most contextLength characters of the summary to the
// model and parses the reply.
func (s *Synthesizer) Synthesize(ctx context.Context, doc *models.CandidateDocument, theme string, contextLength int) (*models.TriviaQuestion, error) {
	text := Truncate(doc.Summary, contextLength)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.llm.Generate(callCtx, QuestionSystemPrompt(), BuildQuestionPrompt(text, theme))
	if err != nil {
		return nil, &SynthesisError{Title: doc.Title, Err: err}
	}

	parsed, err := ParseQuestion(resp.Content)
	if err != nil {
		return nil, &SynthesisError{Title: doc.Title, Err: err}
	}

	slog.Info("question synthesized",
		"title", doc.Title,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.PromptTokens,
		"output_tokens", resp.OutputTokens,
	)

	return &models.TriviaQuestion{
		Prompt:        parsed.Prompt,
		Options:       parsed.Options,
		CorrectLetter: parsed.CorrectLetter,
		SourceTitle:   doc.Title,
		SourceURL:     doc.URL,
		Theme:         strings.TrimSpace(theme),
	}, nil
}

// NormalizeTheme asks the model for a concise search query for theme. Any
// failure returns theme unchanged.
func (s *Synthesizer) NormalizeTheme(ctx context.Context, theme string) string {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return theme
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.llm.Generate(callCtx, ThemeSystemPrompt(), BuildThemePrompt(theme))
	if err != nil {
		slog.Warn("theme normalization failed, using raw theme", "theme", theme, "error", err)
		return theme
	}

	query := cleanQuery(resp.Content)
	if query == "" {
		return theme
	}
	if query != theme {
		slog.Info("theme normalized", "theme", theme, "query", query)
	}
	return query
}

func cleanQuery(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "Search query:")
	s = strings.Trim(strings.TrimSpace(s), "\"'`.!?")
	s = strings.TrimSpace(s)
	if len([]rune(s)) > 100 {
		return ""
	}
	return s
}

// Truncate cuts s to at most n runes. n <= 0 leaves s untouched.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
