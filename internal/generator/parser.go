package generator

import (
	"fmt"
	"strings"
)

const (
	questionPrefix = "Question:"
	answerPrefix   = "Correct Answer:"
)

var optionPrefixes = []string{"A)", "B)", "C)", "D)"}

// ParsedQuestion is a model reply that passed every structural check.
type ParsedQuestion struct {
	Prompt        string
	Options       map[string]string
	CorrectLetter string
}

// ParseError explains why a model reply could not be turned into a question.
type ParseError struct {
	Reason string
	Lines  []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse question: %s", e.Reason)
}

// ParseQuestion reads the line format requested by BuildQuestionPrompt.
//
// Blank lines are dropped and the rest trimmed. The first line must start with
// "Question:". Options are searched in strict A, B, C, D order; lines that do
// not carry the next expected prefix are skipped. After the fourth option the
// first "Correct Answer:" line decides the answer, and its letter must name one
// of the options.
func ParseQuestion(text string) (*ParsedQuestion, error) {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	fail := func(format string, args ...any) (*ParsedQuestion, error) {
		return nil, &ParseError{Reason: fmt.Sprintf(format, args...), Lines: lines}
	}

	if len(lines) == 0 {
		return fail("empty reply")
	}
	if !strings.HasPrefix(lines[0], questionPrefix) {
		return fail("first line does not start with %q", questionPrefix)
	}
	prompt := strings.TrimSpace(strings.TrimPrefix(lines[0], questionPrefix))
	if prompt == "" {
		return fail("question text is empty")
	}

	options := make(map[string]string, len(optionPrefixes))
	found := 0
	i := 1
	for ; found < len(optionPrefixes) && i < len(lines); i++ {
		prefix := optionPrefixes[found]
		if strings.HasPrefix(lines[i], prefix) {
			options[prefix[:1]] = strings.TrimSpace(strings.TrimPrefix(lines[i], prefix))
			found++
		}
	}
	if found < len(optionPrefixes) {
		return fail("found %d of 4 options", found)
	}

	seen := make(map[string]string, len(options))
	for _, p := range optionPrefixes {
		letter := p[:1]
		opt := options[letter]
		if opt == "" {
			return fail("option %s is empty", letter)
		}
		key := strings.ToLower(opt)
		if other, dup := seen[key]; dup {
			return fail("options %s and %s are identical", other, letter)
		}
		seen[key] = letter
	}

	correct := ""
	for ; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], answerPrefix) {
			correct = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(lines[i], answerPrefix)))
			break
		}
	}
	if correct == "" {
		return fail("%q line missing after the options", answerPrefix)
	}
	if _, ok := options[correct]; !ok {
		return fail("correct answer %q is not one of the options", correct)
	}

	return &ParsedQuestion{Prompt: prompt, Options: options, CorrectLetter: correct}, nil
}
