package game

import (
	"strings"

	"github.com/calibration-game/backend/internal/calibration"
	"github.com/calibration-game/backend/internal/models"
	"github.com/calibration-game/backend/internal/scoring"
	"github.com/calibration-game/backend/internal/settings"
)

// Turn is the result of applying one answer to a GameState.
type Turn struct {
	Question *models.TriviaQuestion
	Answer   string
	Correct  bool
	Brier    float64
	Points   float64
	// Summary is set when this answer completed the game.
	Summary *models.GameSummary
}

// Offer moves the state from AwaitingQuestion to QuestionPending.
func Offer(st *models.GameState, q *models.TriviaQuestion) error {
	if st.HasPending() {
		return ErrQuestionPending
	}
	st.Pending = q
	return nil
}

// Answer scores the pending question and moves the state back to
// AwaitingQuestion. Nothing is mutated when an error is returned.
func Answer(st *models.GameState, answer string, confidence int, gs settings.GameSettings) (*Turn, error) {
	if !st.HasPending() {
		return nil, ErrNoPendingQuestion
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, &ValidationError{Field: "answer", Message: "is required"}
	}
	if confidence < 0 || confidence > 100 {
		return nil, &ValidationError{Field: "confidence", Message: "must be an integer between 0 and 100"}
	}

	q := st.Pending
	correct := answer == q.CorrectLetter
	brier := scoring.BrierScore(confidence, correct)
	points := scoring.Points(confidence, correct, gs.Coefficients)

	st.GameAnswered++
	st.GameScore = scoring.Round(st.GameScore+points, 2)
	st.GameBrierScores = append(st.GameBrierScores, brier)
	st.GameConfidences = append(st.GameConfidences, confidence)
	st.GameOutcomes = append(st.GameOutcomes, correct)

	st.TotalAnswered++
	if correct {
		st.TotalCorrect++
	}
	st.SessionBrierScores = append(st.SessionBrierScores, brier)
	st.SessionConfidences = append(st.SessionConfidences, confidence)
	st.SessionOutcomes = append(st.SessionOutcomes, correct)
	st.Pending = nil

	turn := &Turn{Question: q, Answer: answer, Correct: correct, Brier: brier, Points: points}

	if st.GameAnswered >= gs.GameLength {
		turn.Summary = &models.GameSummary{
			Theme:         st.Theme,
			FinalScore:    st.GameScore,
			AverageBrier:  scoring.MeanBrier(st.GameBrierScores),
			QuestionCount: st.GameAnswered,
		}
		st.CompletedScores = append(st.CompletedScores, st.GameScore)
		st.GamesPlayed++
		st.ResetGame()
	}
	return turn, nil
}

// StartGame resets the per-game counters and sets the theme. Lifetime
// counters are kept. A game cut short counts as played; a game that just
// completed was already counted by Answer.
func StartGame(st *models.GameState, theme string) error {
	if st.HasPending() {
		return ErrQuestionPending
	}
	if st.GameAnswered > 0 {
		st.GamesPlayed++
	}
	st.ResetGame()
	st.Theme = strings.TrimSpace(theme)
	return nil
}

// Abandon drops the pending question without scoring it.
func Abandon(st *models.GameState) error {
	if !st.HasPending() {
		return ErrNoPendingQuestion
	}
	st.Pending = nil
	return nil
}

// Stats builds the read model for a state.
func Stats(st *models.GameState, gameLength int) models.StatsView {
	v := models.StatsView{
		TotalAnswered:    st.TotalAnswered,
		TotalCorrect:     st.TotalCorrect,
		AverageBrier:     scoring.Round(scoring.MeanBrier(st.SessionBrierScores), 4),
		GameAnswered:     st.GameAnswered,
		GameLength:       gameLength,
		GameScore:        st.GameScore,
		GameAverageBrier: scoring.Round(scoring.MeanBrier(st.GameBrierScores), 4),
		Theme:            st.Theme,
		GamesPlayed:      st.GamesPlayed,
		CompletedScores:  append([]float64{}, st.CompletedScores...),
		QuestionPending:  st.HasPending(),
	}
	if st.TotalAnswered > 0 {
		v.Accuracy = scoring.Round(float64(st.TotalCorrect)/float64(st.TotalAnswered), 4)
	}
	return v
}

const (
	ScopeSession = "session"
	ScopeGame    = "game"
)

// CalibrationView is the reliability chart for one scope of a state.
type CalibrationView struct {
	Scope   string              `json:"scope"`
	Bins    int                 `json:"bins"`
	Points  []calibration.Point `json:"points"`
	Summary calibration.Summary `json:"summary"`
}

// Calibration charts the session or current-game forecasts of a state.
func Calibration(st *models.GameState, scope string, bins int) CalibrationView {
	confs, outs := st.SessionConfidences, st.SessionOutcomes
	if scope == ScopeGame {
		confs, outs = st.GameConfidences, st.GameOutcomes
	} else {
		scope = ScopeSession
	}
	bins = calibration.NormalizeBins(bins)
	return CalibrationView{
		Scope:   scope,
		Bins:    bins,
		Points:  calibration.Chart(confs, outs, bins),
		Summary: calibration.Summarize(confs, outs),
	}
}
