package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/calibration-game/backend/internal/models"
)

// EventLog is the append-only record of answered questions and finished games.
type EventLog interface {
	// RecordTurn stores one response and, when the answer ended a game, its
	// summary. Both are written or neither is.
	RecordTurn(ctx context.Context, rec *models.ResponseRecord, summary *models.GameSummary) error
	Leaderboard(ctx context.Context, theme string, limit int) ([]models.LeaderboardEntry, error)
	ThemeStats(ctx context.Context, limit int) ([]models.ThemeStats, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Event Log ───────────────────────────────────────────

func (s *Store) RecordTurn(ctx context.Context, rec *models.ResponseRecord, summary *models.GameSummary) error {
	options, err := json.Marshal(rec.AnswerOptions)
	if err != nil {
		return fmt.Errorf("encode answer options: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record turn: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO responses (user_id, wiki_page_title, wiki_page_url, question_text, answer_options,
		                        correct_answer, user_answer, user_confidence, is_correct, brier_score, points, theme)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at`,
		rec.UserID, rec.WikiPageTitle, rec.WikiPageURL, rec.QuestionText, options,
		rec.CorrectAnswer, rec.UserAnswer, rec.Confidence, rec.IsCorrect, rec.BrierScore, rec.Points, rec.Theme,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}

	if summary != nil {
		err = tx.QueryRowContext(ctx,
			`INSERT INTO game_summaries (user_id, theme, final_score, average_brier, question_count)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, completed_at`,
			summary.UserID, summary.Theme, summary.FinalScore, summary.AverageBrier, summary.QuestionCount,
		).Scan(&summary.ID, &summary.CompletedAt)
		if err != nil {
			return fmt.Errorf("insert game summary: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record turn: %w", err)
	}
	return nil
}

// ── Leaderboard ─────────────────────────────────────────

func (s *Store) Leaderboard(ctx context.Context, theme string, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.user_id,
		        COUNT(*),
		        COUNT(*) FILTER (WHERE r.is_correct),
		        COALESCE(SUM(r.points), 0),
		        COALESCE(AVG(r.brier_score), 0),
		        (SELECT COUNT(*) FROM game_summaries g
		          WHERE g.user_id = r.user_id AND ($1 = '' OR g.theme = $1)),
		        ROW_NUMBER() OVER (ORDER BY SUM(r.points) DESC) AS rank
		 FROM responses r
		 WHERE ($1 = '' OR r.theme = $1)
		 GROUP BY r.user_id
		 ORDER BY SUM(r.points) DESC
		 LIMIT $2`,
		theme, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Answered, &e.Correct, &e.TotalPoints, &e.AverageBrier, &e.GamesFinished, &e.Rank); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ThemeStats(ctx context.Context, limit int) ([]models.ThemeStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT theme,
		        COUNT(*),
		        AVG(CASE WHEN is_correct THEN 1.0 ELSE 0.0 END),
		        AVG(brier_score)
		 FROM responses
		 WHERE theme <> ''
		 GROUP BY theme
		 ORDER BY COUNT(*) DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get theme stats: %w", err)
	}
	defer rows.Close()

	var out []models.ThemeStats
	for rows.Next() {
		var t models.ThemeStats
		if err := rows.Scan(&t.Theme, &t.Answered, &t.Accuracy, &t.AverageBrier); err != nil {
			return nil, fmt.Errorf("scan theme stats: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ── In-memory ───────────────────────────────────────────

// MemoryEventLog is the event log used when no database is configured.
type MemoryEventLog struct {
	mu        sync.Mutex
	responses []models.ResponseRecord
	summaries []models.GameSummary
}

func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{}
}

func (m *MemoryEventLog) RecordTurn(_ context.Context, rec *models.ResponseRecord, summary *models.GameSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = int64(len(m.responses) + 1)
	m.responses = append(m.responses, *rec)
	if summary != nil {
		summary.ID = int64(len(m.summaries) + 1)
		m.summaries = append(m.summaries, *summary)
	}
	return nil
}

func (m *MemoryEventLog) Responses() []models.ResponseRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ResponseRecord{}, m.responses...)
}

func (m *MemoryEventLog) Summaries() []models.GameSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.GameSummary{}, m.summaries...)
}

func (m *MemoryEventLog) Leaderboard(_ context.Context, theme string, limit int) ([]models.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byUser := make(map[string]*models.LeaderboardEntry)
	brierSums := make(map[string]float64)
	for _, r := range m.responses {
		if theme != "" && r.Theme != theme {
			continue
		}
		e, ok := byUser[r.UserID]
		if !ok {
			e = &models.LeaderboardEntry{UserID: r.UserID}
			byUser[r.UserID] = e
		}
		e.Answered++
		if r.IsCorrect {
			e.Correct++
		}
		e.TotalPoints += r.Points
		brierSums[r.UserID] += r.BrierScore
	}
	for _, g := range m.summaries {
		if e, ok := byUser[g.UserID]; ok && (theme == "" || g.Theme == theme) {
			e.GamesFinished++
		}
	}

	entries := make([]models.LeaderboardEntry, 0, len(byUser))
	for id, e := range byUser {
		e.AverageBrier = brierSums[id] / float64(e.Answered)
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (m *MemoryEventLog) ThemeStats(_ context.Context, limit int) ([]models.ThemeStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type agg struct {
		n, hits int
		brier   float64
	}
	byTheme := make(map[string]*agg)
	for _, r := range m.responses {
		if r.Theme == "" {
			continue
		}
		a, ok := byTheme[r.Theme]
		if !ok {
			a = &agg{}
			byTheme[r.Theme] = a
		}
		a.n++
		if r.IsCorrect {
			a.hits++
		}
		a.brier += r.BrierScore
	}

	out := make([]models.ThemeStats, 0, len(byTheme))
	for theme, a := range byTheme {
		out = append(out, models.ThemeStats{
			Theme:        theme,
			Answered:     a.n,
			Accuracy:     float64(a.hits) / float64(a.n),
			AverageBrier: a.brier / float64(a.n),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Answered != out[j].Answered {
			return out[i].Answered > out[j].Answered
		}
		return out[i].Theme < out[j].Theme
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
