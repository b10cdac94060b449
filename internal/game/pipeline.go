package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/calibration-game/backend/internal/models"
	"github.com/calibration-game/backend/internal/settings"
	"github.com/calibration-game/backend/internal/wiki"
)

// MaxSynthesisAttempts bounds how many (document, synthesis) pairs one
// question request may try.
const MaxSynthesisAttempts = 3

type DocumentSource interface {
	Find(ctx context.Context, req wiki.Request) (*models.CandidateDocument, error)
}

type QuestionSynthesizer interface {
	Synthesize(ctx context.Context, doc *models.CandidateDocument, theme string, contextLength int) (*models.TriviaQuestion, error)
	NormalizeTheme(ctx context.Context, theme string) string
}

// Pipeline sources a document and turns it into a question. It writes no
// state of its own.
type Pipeline struct {
	source DocumentSource
	synth  QuestionSynthesizer
}

func NewPipeline(source DocumentSource, synth QuestionSynthesizer) *Pipeline {
	return &Pipeline{source: source, synth: synth}
}

// Produce returns a fresh question. A synthesis failure discards the document
// and the next attempt sources a new one.
func (p *Pipeline) Produce(ctx context.Context, gs settings.GameSettings, theme string) (*models.TriviaQuestion, error) {
	theme = strings.TrimSpace(theme)
	query := theme
	if theme != "" && gs.NormalizeTheme {
		query = p.synth.NormalizeTheme(ctx, theme)
	}

	req := wiki.Request{
		Strategy:    gs.Strategy,
		Theme:       query,
		Keywords:    gs.SearchKeywords,
		Categories:  gs.TargetCategories,
		ResultLimit: gs.ResultLimit,
		MinWords:    gs.MinSummaryWords,
	}

	var lastErr error
	for attempt := 1; attempt <= MaxSynthesisAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := p.source.Find(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			slog.Warn("no document for question", "attempt", attempt, "theme", theme, "error", err)
			// The theme pool is fixed by its search; searching again finds the same pages.
			if errors.Is(err, wiki.ErrNoContentForTheme) {
				break
			}
			continue
		}

		q, err := p.synth.Synthesize(ctx, doc, theme, gs.ContextLength)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			slog.Warn("question synthesis failed, discarding document", "attempt", attempt, "title", doc.Title, "error", err)
			continue
		}
		return q, nil
	}

	return nil, &ContentUnavailableError{Theme: theme, Err: lastErr}
}
