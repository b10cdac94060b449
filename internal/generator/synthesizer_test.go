package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/calibration-game/backend/internal/models"
)

type slowClient struct{}

func (slowClient) Generate(ctx context.Context, _, _ string) (*LLMResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type recordingClient struct {
	userPrompt string
	reply      string
}

func (r *recordingClient) Generate(_ context.Context, _, userPrompt string) (*LLMResponse, error) {
	r.userPrompt = userPrompt
	return &LLMResponse{Content: r.reply}, nil
}

func testDoc() *models.CandidateDocument {
	return &models.CandidateDocument{
		Title:   "Seine",
		URL:     "https://en.wikipedia.org/wiki/Seine",
		Summary: "The Seine is a river in northern France that flows through Paris.",
	}
}

func TestSynthesize(t *testing.T) {
	client := &recordingClient{reply: wellFormed}
	s := NewSynthesizer(client, time.Second)

	q, err := s.Synthesize(context.Background(), testDoc(), "rivers", 3000)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if q.SourceTitle != "Seine" || q.SourceURL != "https://en.wikipedia.org/wiki/Seine" {
		t.Errorf("source not carried over: %+v", q)
	}
	if q.CorrectText() != "The Seine" {
		t.Errorf("expected correct text The Seine, got %q", q.CorrectText())
	}
	if q.Theme != "rivers" {
		t.Errorf("expected theme rivers, got %q", q.Theme)
	}
}

func TestSynthesizeTruncatesContext(t *testing.T) {
	client := &recordingClient{reply: wellFormed}
	s := NewSynthesizer(client, time.Second)

	doc := testDoc()
	doc.Summary = strings.Repeat("é", 50) + "TAIL"

	if _, err := s.Synthesize(context.Background(), doc, "", 50); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if strings.Contains(client.userPrompt, "TAIL") {
		t.Error("summary should be truncated to the context budget")
	}
	if !strings.Contains(client.userPrompt, strings.Repeat("é", 50)) {
		t.Error("truncation must keep whole runes")
	}
}

func TestSynthesizeParseFailure(t *testing.T) {
	s := NewSynthesizer(&recordingClient{reply: "I cannot help with that."}, time.Second)

	_, err := s.Synthesize(context.Background(), testDoc(), "", 3000)
	var se *SynthesisError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SynthesisError, got %T", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected wrapped *ParseError, got %v", err)
	}
}

func TestSynthesizeTimeout(t *testing.T) {
	s := NewSynthesizer(slowClient{}, 20*time.Millisecond)

	_, err := s.Synthesize(context.Background(), testDoc(), "", 3000)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNormalizeTheme(t *testing.T) {
	s := NewSynthesizer(&recordingClient{reply: "\"Age of Sail\".\nBecause ships."}, time.Second)
	if got := s.NormalizeTheme(context.Background(), "old sailing ships"); got != "Age of Sail" {
		t.Errorf("expected Age of Sail, got %q", got)
	}
}

func TestNormalizeThemeFallsBack(t *testing.T) {
	mock := NewMockClient()
	mock.Err = errors.New("quota exceeded")
	s := NewSynthesizer(mock, time.Second)

	if got := s.NormalizeTheme(context.Background(), " jazz "); got != "jazz" {
		t.Errorf("expected raw theme on failure, got %q", got)
	}

	empty := NewSynthesizer(&recordingClient{reply: "   "}, time.Second)
	if got := empty.NormalizeTheme(context.Background(), "jazz"); got != "jazz" {
		t.Errorf("expected raw theme on empty reply, got %q", got)
	}

	if got := s.NormalizeTheme(context.Background(), "  "); got != "" {
		t.Errorf("expected empty theme to stay empty, got %q", got)
	}
}

func TestMockClientProducesParsableQuestion(t *testing.T) {
	resp, err := NewMockClient().Generate(context.Background(), QuestionSystemPrompt(), BuildQuestionPrompt("Otters are mammals.", ""))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if _, err := ParseQuestion(resp.Content); err != nil {
		t.Fatalf("mock reply should parse, got: %v", err)
	}
}

func TestMockClientEchoesTheme(t *testing.T) {
	s := NewSynthesizer(NewMockClient(), time.Second)
	if got := s.NormalizeTheme(context.Background(), "french rivers"); got != "french rivers" {
		t.Errorf("expected mock to keep the theme, got %q", got)
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{Provider: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := NewClient(context.Background(), Config{Provider: ProviderAnthropic}); err == nil {
		t.Fatal("expected error for missing API key")
	}
	c, err := NewClient(context.Background(), Config{Provider: ProviderMock})
	if err != nil {
		t.Fatalf("expected mock client, got: %v", err)
	}
	if _, ok := c.(*MockClient); !ok {
		t.Errorf("expected *MockClient, got %T", c)
	}
}
