package wiki

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/calibration-game/backend/internal/models"
)

// MaxAttempts bounds how many candidate titles one Find call evaluates.
const MaxAttempts = 5

var (
	ErrNoDocument        = errors.New("no usable encyclopedia page found")
	ErrNoContentForTheme = errors.New("no usable encyclopedia page found for theme")
)

// API is the subset of the MediaWiki client the source depends on.
type API interface {
	RandomTitle(ctx context.Context) (string, error)
	Search(ctx context.Context, query string, limit int) ([]string, error)
	CategoryMembers(ctx context.Context, category string, limit int) ([]string, error)
	Page(ctx context.Context, title string) (*Page, error)
}

// Request describes how to pick a page. A non-empty Theme overrides Strategy.
type Request struct {
	Strategy    string
	Theme       string
	Keywords    []string
	Categories  []string
	ResultLimit int
	MinWords    int
}

// Source finds pages fit for question synthesis.
type Source struct {
	api     API
	intn    func(n int) int
	shuffle func(n int, swap func(i, j int))
}

func NewSource(api API) *Source {
	return &Source{api: api, intn: rand.IntN, shuffle: rand.Shuffle}
}

// Find returns the first candidate that passes every filter, evaluating at
// most MaxAttempts distinct titles.
func (s *Source) Find(ctx context.Context, req Request) (*models.CandidateDocument, error) {
	theme := strings.TrimSpace(req.Theme)
	limit := req.ResultLimit
	if limit <= 0 {
		limit = 20
	}

	var pool []string
	if theme != "" {
		titles, err := s.api.Search(ctx, theme, limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("theme search failed", "theme", theme, "error", err)
			return nil, ErrNoContentForTheme
		}
		pool = append(pool, titles...)
		s.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}

	seen := make(map[string]bool)
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var title string
		if theme != "" {
			if len(pool) == 0 {
				break
			}
			title, pool = pool[0], pool[1:]
		} else {
			t, err := s.pickTitle(ctx, req, limit)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				slog.Warn("title selection failed", "attempt", attempt, "error", err)
				continue
			}
			title = t
		}

		if seen[title] {
			slog.Debug("duplicate candidate title", "attempt", attempt, "title", title)
			continue
		}
		seen[title] = true

		page, err := s.api.Page(ctx, title)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("page fetch failed", "attempt", attempt, "title", title, "error", err)
			continue
		}

		if reason := RejectReason(page, req.MinWords); reason != "" {
			slog.Info("candidate rejected", "attempt", attempt, "title", title, "reason", reason)
			continue
		}

		return &models.CandidateDocument{
			Title:        page.Title,
			URL:          page.URL,
			Summary:      page.Summary,
			SectionCount: page.SectionCount,
		}, nil
	}

	if theme != "" {
		return nil, ErrNoContentForTheme
	}
	return nil, ErrNoDocument
}

// pickTitle selects one title with the configured strategy. Search and
// category fall back to a random title when they produce nothing.
func (s *Source) pickTitle(ctx context.Context, req Request, limit int) (string, error) {
	var titles []string
	var err error

	switch req.Strategy {
	case "search":
		if len(req.Keywords) == 0 {
			break
		}
		kw := req.Keywords[s.intn(len(req.Keywords))]
		titles, err = s.api.Search(ctx, kw, limit)
		if err != nil {
			slog.Warn("keyword search failed, falling back to random", "keyword", kw, "error", err)
		}
	case "category":
		if len(req.Categories) == 0 {
			break
		}
		cat := req.Categories[s.intn(len(req.Categories))]
		titles, err = s.api.CategoryMembers(ctx, cat, limit)
		if err != nil {
			slog.Warn("category listing failed, falling back to random", "category", cat, "error", err)
		}
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if len(titles) > 0 {
		return titles[s.intn(len(titles))], nil
	}
	return s.api.RandomTitle(ctx)
}

// RejectReason reports why a page cannot be used, or "" when it can.
func RejectReason(page *Page, minWords int) string {
	if page == nil || !page.Exists {
		return "missing"
	}
	if IsDisambiguation(page.Title, page.Summary) {
		return "disambiguation"
	}
	words := len(strings.Fields(page.Summary))
	if IsStub(page.SectionCount, words, minWords) {
		return "stub"
	}
	if words < minWords {
		return "summary too short"
	}
	return ""
}

func IsDisambiguation(title, summary string) bool {
	return strings.Contains(strings.ToLower(summary), "may refer to:") ||
		strings.HasSuffix(strings.ToLower(strings.TrimSpace(title)), "(disambiguation)")
}

// IsStub flags articles with at most one top-level section and a summary
// shorter than max(10, minWords/2) words.
func IsStub(sections, words, minWords int) bool {
	return sections <= 1 && words < max(10, minWords/2)
}
