package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/calibration-game/backend/internal/models"
	"github.com/calibration-game/backend/internal/session"
	"github.com/calibration-game/backend/internal/settings"
)

// SettingsSource yields the typed settings for one request.
type SettingsSource interface {
	Load(ctx context.Context) settings.GameSettings
}

// QuestionProducer runs the sourcing and synthesis pipeline.
type QuestionProducer interface {
	Produce(ctx context.Context, gs settings.GameSettings, theme string) (*models.TriviaQuestion, error)
}

// Service loads a player's GameState, applies one operation and saves it back.
type Service struct {
	sessions session.Store
	settings SettingsSource
	pipeline QuestionProducer
	events   EventLog
	now      func() time.Time
}

func NewService(sessions session.Store, settings SettingsSource, pipeline QuestionProducer, events EventLog) *Service {
	return &Service{
		sessions: sessions,
		settings: settings,
		pipeline: pipeline,
		events:   events,
		now:      time.Now,
	}
}

// FetchQuestion produces a question and makes it the pending one. theme
// overrides the game's theme for this question when set. On failure the
// state is left untouched.
func (s *Service) FetchQuestion(ctx context.Context, playerID, theme string) (*models.TriviaQuestion, error) {
	st, err := s.sessions.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if st.HasPending() {
		return nil, ErrQuestionPending
	}

	theme = strings.TrimSpace(theme)
	if theme == "" {
		theme = st.Theme
	}

	gs := s.settings.Load(ctx)
	q, err := s.pipeline.Produce(ctx, gs, theme)
	if err != nil {
		return nil, err
	}

	if err := Offer(st, q); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, playerID, st); err != nil {
		return nil, err
	}

	slog.Info("question offered", "player", playerID, "title", q.SourceTitle, "theme", theme)
	return q, nil
}

// SubmitAnswer scores the pending question. The event log write happens after
// the state is saved and its failure never changes the result.
func (s *Service) SubmitAnswer(ctx context.Context, playerID, answer string, confidence int) (*models.SubmitAnswerResponse, error) {
	st, err := s.sessions.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}

	gs := s.settings.Load(ctx)
	turn, err := Answer(st, answer, confidence, gs)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, playerID, st); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &models.ResponseRecord{
		UserID:        playerID,
		WikiPageTitle: turn.Question.SourceTitle,
		WikiPageURL:   turn.Question.SourceURL,
		QuestionText:  turn.Question.Prompt,
		AnswerOptions: turn.Question.Options,
		CorrectAnswer: turn.Question.CorrectLetter,
		UserAnswer:    turn.Answer,
		Confidence:    confidence,
		IsCorrect:     turn.Correct,
		BrierScore:    turn.Brier,
		Points:        turn.Points,
		Theme:         turn.Question.Theme,
		CreatedAt:     now,
	}
	if turn.Summary != nil {
		turn.Summary.UserID = playerID
		turn.Summary.CompletedAt = now
	}
	if err := s.events.RecordTurn(ctx, rec, turn.Summary); err != nil {
		slog.Error("event log write failed", "player", playerID, "title", rec.WikiPageTitle, "error", err)
	}

	result := "incorrect"
	if turn.Correct {
		result = "correct"
	}
	if turn.Summary != nil {
		slog.Info("game finished", "player", playerID, "score", turn.Summary.FinalScore, "avg_brier", turn.Summary.AverageBrier)
	}

	return &models.SubmitAnswerResponse{
		Result:            result,
		Correct:           turn.Correct,
		CorrectAnswer:     turn.Question.CorrectLetter,
		CorrectAnswerText: turn.Question.CorrectText(),
		BrierScore:        turn.Brier,
		Points:            turn.Points,
		Stats:             Stats(st, gs.GameLength),
		GameEnded:         turn.Summary != nil,
		Summary:           turn.Summary,
	}, nil
}

// StartNewGame resets the current game and sets its theme.
func (s *Service) StartNewGame(ctx context.Context, playerID, theme string) (*models.StatsView, error) {
	st, err := s.sessions.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := StartGame(st, theme); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, playerID, st); err != nil {
		return nil, err
	}
	v := Stats(st, s.settings.Load(ctx).GameLength)
	return &v, nil
}

// AbandonQuestion drops the pending question so a new one can be requested.
func (s *Service) AbandonQuestion(ctx context.Context, playerID string) error {
	st, err := s.sessions.Load(ctx, playerID)
	if err != nil {
		return err
	}
	if err := Abandon(st); err != nil {
		return err
	}
	return s.sessions.Save(ctx, playerID, st)
}

func (s *Service) Stats(ctx context.Context, playerID string) (*models.StatsView, error) {
	st, err := s.sessions.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	v := Stats(st, s.settings.Load(ctx).GameLength)
	return &v, nil
}

// Calibration charts the player's forecasts. bins <= 0 uses the configured
// bucket count.
func (s *Service) Calibration(ctx context.Context, playerID, scope string, bins int) (*CalibrationView, error) {
	st, err := s.sessions.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if bins <= 0 {
		bins = s.settings.Load(ctx).CalibrationBins
	}
	v := Calibration(st, scope, bins)
	return &v, nil
}

func (s *Service) Leaderboard(ctx context.Context, theme string, limit int) (*models.LeaderboardResponse, error) {
	theme = strings.TrimSpace(theme)
	entries, err := s.events.Leaderboard(ctx, theme, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	themes, err := s.events.ThemeStats(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	if themes == nil {
		themes = []models.ThemeStats{}
	}
	return &models.LeaderboardResponse{Theme: theme, Entries: entries, Themes: themes}, nil
}
