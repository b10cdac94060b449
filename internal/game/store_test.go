package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calibration-game/backend/internal/models"
)

func testRecord() *models.ResponseRecord {
	return &models.ResponseRecord{
		UserID:        "anon:1",
		WikiPageTitle: "Seine",
		WikiPageURL:   "https://en.wikipedia.org/wiki/Seine",
		QuestionText:  "Which river flows through Paris?",
		AnswerOptions: map[string]string{"A": "Rhine", "B": "Seine", "C": "Loire", "D": "Danube"},
		CorrectAnswer: "B",
		UserAnswer:    "B",
		Confidence:    80,
		IsCorrect:     true,
		BrierScore:    0.04,
		Points:        82,
		Theme:         "rivers",
	}
}

func TestStoreRecordTurn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO responses`).
		WithArgs("anon:1", "Seine", "https://en.wikipedia.org/wiki/Seine", "Which river flows through Paris?",
			sqlmock.AnyArg(), "B", "B", 80, true, 0.04, 82.0, "rivers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(17, created))
	mock.ExpectCommit()

	rec := testRecord()
	require.NoError(t, NewStore(db).RecordTurn(context.Background(), rec, nil))
	assert.Equal(t, int64(17), rec.ID)
	assert.Equal(t, created, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRecordTurnWithSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO responses`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))
	mock.ExpectQuery(`INSERT INTO game_summaries`).
		WithArgs("anon:1", "rivers", 420.5, 0.12, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "completed_at"}).AddRow(3, now))
	mock.ExpectCommit()

	summary := &models.GameSummary{UserID: "anon:1", Theme: "rivers", FinalScore: 420.5, AverageBrier: 0.12, QuestionCount: 10}
	require.NoError(t, NewStore(db).RecordTurn(context.Background(), testRecord(), summary))
	assert.Equal(t, int64(3), summary.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRecordTurnRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO responses`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
	mock.ExpectQuery(`INSERT INTO game_summaries`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = NewStore(db).RecordTurn(context.Background(), testRecord(), &models.GameSummary{UserID: "anon:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert game summary")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreLeaderboard(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT r.user_id`).
		WithArgs("rivers", 10).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "answered", "correct", "points", "brier", "games", "rank"}).
			AddRow("user:1", 12, 9, 540.5, 0.11, 1, 1).
			AddRow("anon:2", 4, 1, -120.0, 0.41, 0, 2))

	entries, err := NewStore(db).Leaderboard(context.Background(), "rivers", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.LeaderboardEntry{
		Rank: 1, UserID: "user:1", Answered: 12, Correct: 9, TotalPoints: 540.5, AverageBrier: 0.11, GamesFinished: 1,
	}, entries[0])
	assert.Equal(t, 2, entries[1].Rank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreThemeStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT theme`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"theme", "answered", "accuracy", "brier"}).
			AddRow("rivers", 30, 0.6, 0.2))

	stats, err := NewStore(db).ThemeStats(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "rivers", stats[0].Theme)
	assert.Equal(t, 30, stats[0].Answered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryEventLogLeaderboard(t *testing.T) {
	log := NewMemoryEventLog()
	ctx := context.Background()

	add := func(user, theme string, correct bool, points float64) {
		rec := &models.ResponseRecord{UserID: user, Theme: theme, IsCorrect: correct, Points: points, BrierScore: 0.1}
		require.NoError(t, log.RecordTurn(ctx, rec, nil))
	}
	add("a", "rivers", true, 50)
	add("b", "rivers", true, 80)
	add("a", "jazz", true, 60)
	require.NoError(t, log.RecordTurn(ctx,
		&models.ResponseRecord{UserID: "a", Theme: "jazz", Points: -10},
		&models.GameSummary{UserID: "a", Theme: "jazz"}))

	all, err := log.Leaderboard(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].UserID)
	assert.Equal(t, 100.0, all[0].TotalPoints)
	assert.Equal(t, 1, all[0].GamesFinished)

	rivers, err := log.Leaderboard(ctx, "rivers", 1)
	require.NoError(t, err)
	require.Len(t, rivers, 1)
	assert.Equal(t, "b", rivers[0].UserID)
	assert.Equal(t, 0, rivers[0].GamesFinished)

	themes, err := log.ThemeStats(ctx, 10)
	require.NoError(t, err)
	require.Len(t, themes, 2)
	assert.Equal(t, "jazz", themes[0].Theme)
	assert.Equal(t, 0.5, themes[0].Accuracy)
}
