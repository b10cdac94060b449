package game

import (
	"errors"
	"fmt"
)

var (
	ErrQuestionPending   = errors.New("a question is already pending, answer or abandon it first")
	ErrNoPendingQuestion = errors.New("no question is pending")
)

// ValidationError rejects a submission before any state is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ContentUnavailableError means no question could be produced right now. The
// caller may retry.
type ContentUnavailableError struct {
	Theme string
	Err   error
}

func (e *ContentUnavailableError) Error() string {
	if e.Theme != "" {
		return fmt.Sprintf("Could not find suitable content for the theme %q. Try a broader or different theme.", e.Theme)
	}
	return "Could not generate a trivia question right now. Please try again."
}

func (e *ContentUnavailableError) Unwrap() error { return e.Err }
