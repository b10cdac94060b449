package models

import (
	"encoding/json"
	"time"
)

// GameStateVersion is bumped whenever the stored GameState shape changes.
const GameStateVersion = 2

// GameState is the per-session play state. It is owned by exactly one session
// and is passed explicitly to every operation that reads or mutates it.
type GameState struct {
	Version int `json:"version"`

	// Pending is the single question awaiting an answer, if any.
	Pending *TriviaQuestion `json:"pending,omitempty"`

	// Current game.
	Theme           string    `json:"theme"`
	GameAnswered    int       `json:"game_answered"`
	GameScore       float64   `json:"game_score"`
	GameBrierScores []float64 `json:"game_brier_scores"`
	GameConfidences []int     `json:"game_confidences"`
	GameOutcomes    []bool    `json:"game_outcomes"`

	// Lifetime of the session.
	GamesPlayed        int       `json:"games_played"`
	CompletedScores    []float64 `json:"completed_scores"`
	TotalAnswered      int       `json:"total_answered"`
	TotalCorrect       int       `json:"total_correct"`
	SessionBrierScores []float64 `json:"session_brier_scores"`
	SessionConfidences []int     `json:"session_confidences"`
	SessionOutcomes    []bool    `json:"session_outcomes"`
}

// NewGameState returns an empty state in the AwaitingQuestion phase.
func NewGameState() *GameState {
	return &GameState{
		Version:            GameStateVersion,
		GameBrierScores:    []float64{},
		GameConfidences:    []int{},
		GameOutcomes:       []bool{},
		CompletedScores:    []float64{},
		SessionBrierScores: []float64{},
		SessionConfidences: []int{},
		SessionOutcomes:    []bool{},
	}
}

// Normalize upgrades a state decoded from an older or partial shape: nil lists
// become empty, parallel lists are trimmed to a common length and counters are
// never negative.
func (s *GameState) Normalize() {
	if s.GameBrierScores == nil {
		s.GameBrierScores = []float64{}
	}
	if s.GameConfidences == nil {
		s.GameConfidences = []int{}
	}
	if s.GameOutcomes == nil {
		s.GameOutcomes = []bool{}
	}
	if s.CompletedScores == nil {
		s.CompletedScores = []float64{}
	}
	if s.SessionBrierScores == nil {
		s.SessionBrierScores = []float64{}
	}
	if s.SessionConfidences == nil {
		s.SessionConfidences = []int{}
	}
	if s.SessionOutcomes == nil {
		s.SessionOutcomes = []bool{}
	}

	if n := min(len(s.GameConfidences), len(s.GameOutcomes)); len(s.GameConfidences) != len(s.GameOutcomes) {
		s.GameConfidences = s.GameConfidences[:n]
		s.GameOutcomes = s.GameOutcomes[:n]
	}
	if n := min(len(s.SessionConfidences), len(s.SessionOutcomes)); len(s.SessionConfidences) != len(s.SessionOutcomes) {
		s.SessionConfidences = s.SessionConfidences[:n]
		s.SessionOutcomes = s.SessionOutcomes[:n]
	}

	// v1 states kept no session-wide calibration lists; seed them from the
	// current game so the session chart is not empty after an upgrade.
	if s.Version < 2 && len(s.SessionConfidences) == 0 && len(s.GameConfidences) > 0 {
		s.SessionConfidences = append([]int{}, s.GameConfidences...)
		s.SessionOutcomes = append([]bool{}, s.GameOutcomes...)
		s.SessionBrierScores = append([]float64{}, s.GameBrierScores...)
	}

	s.GameAnswered = max(s.GameAnswered, 0)
	s.GamesPlayed = max(s.GamesPlayed, 0)
	s.TotalAnswered = max(s.TotalAnswered, 0)
	s.TotalCorrect = min(max(s.TotalCorrect, 0), s.TotalAnswered)
	s.Version = GameStateVersion
}

// HasPending reports whether the state is in the QuestionPending phase.
func (s *GameState) HasPending() bool {
	return s.Pending != nil
}

// ResetGame clears per-game counters. Lifetime counters are untouched.
func (s *GameState) ResetGame() {
	s.GameAnswered = 0
	s.GameScore = 0
	s.GameBrierScores = []float64{}
	s.GameConfidences = []int{}
	s.GameOutcomes = []bool{}
}

// ── Persisted Records ─────────────────────────────────────

// ResponseRecord is one answered question as written to the event log.
type ResponseRecord struct {
	ID            int64             `json:"id"`
	UserID        string            `json:"user_id"`
	WikiPageTitle string            `json:"wiki_page_title"`
	WikiPageURL   string            `json:"wiki_page_url"`
	QuestionText  string            `json:"question_text"`
	AnswerOptions map[string]string `json:"answer_options"`
	CorrectAnswer string            `json:"correct_answer"`
	UserAnswer    string            `json:"user_answer"`
	Confidence    int               `json:"user_confidence"`
	IsCorrect     bool              `json:"is_correct"`
	BrierScore    float64           `json:"brier_score"`
	Points        float64           `json:"points"`
	Theme         string            `json:"theme"`
	CreatedAt     time.Time         `json:"created_at"`
}

// GameSummary is written once when a game reaches its configured length.
type GameSummary struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	Theme         string    `json:"theme"`
	FinalScore    float64   `json:"final_score"`
	AverageBrier  float64   `json:"average_brier"`
	QuestionCount int       `json:"question_count"`
	CompletedAt   time.Time `json:"completed_at"`
}

// ── Request / Response Types ──────────────────────────────

// SubmitAnswerRequest keeps confidence raw so both 75 and "75" are accepted.
type SubmitAnswerRequest struct {
	Answer     *string         `json:"answer"`
	Confidence json.RawMessage `json:"confidence"`
}

type NewGameRequest struct {
	Theme string `json:"theme"`
}

// StatsView is the read model of a GameState returned to the player.
type StatsView struct {
	TotalAnswered    int       `json:"total_answered"`
	TotalCorrect     int       `json:"total_correct"`
	Accuracy         float64   `json:"accuracy"`
	AverageBrier     float64   `json:"average_brier"`
	GameAnswered     int       `json:"game_answered"`
	GameLength       int       `json:"game_length"`
	GameScore        float64   `json:"game_score"`
	GameAverageBrier float64   `json:"game_average_brier"`
	Theme            string    `json:"theme"`
	GamesPlayed      int       `json:"games_played"`
	CompletedScores  []float64 `json:"completed_scores"`
	QuestionPending  bool      `json:"question_pending"`
}

type SubmitAnswerResponse struct {
	Result            string       `json:"result"`
	Correct           bool         `json:"correct"`
	CorrectAnswer     string       `json:"correct_answer"`
	CorrectAnswerText string       `json:"correct_answer_text"`
	BrierScore        float64      `json:"brier_score"`
	Points            float64      `json:"points"`
	Stats             StatsView    `json:"new_stats"`
	GameEnded         bool         `json:"game_ended"`
	Summary           *GameSummary `json:"game_summary,omitempty"`
}

type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"user_id"`
	Answered      int     `json:"answered"`
	Correct       int     `json:"correct"`
	TotalPoints   float64 `json:"total_points"`
	AverageBrier  float64 `json:"average_brier"`
	GamesFinished int     `json:"games_finished"`
}

type ThemeStats struct {
	Theme        string  `json:"theme"`
	Answered     int     `json:"answered"`
	Accuracy     float64 `json:"accuracy"`
	AverageBrier float64 `json:"average_brier"`
}

type LeaderboardResponse struct {
	Theme   string             `json:"theme,omitempty"`
	Entries []LeaderboardEntry `json:"entries"`
	Themes  []ThemeStats       `json:"themes"`
}
