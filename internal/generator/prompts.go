package generator

import (
	"fmt"
	"strings"
)

const questionSystemPrompt = `You write multiple-choice trivia questions for a calibration game. Players answer and state how confident they are, so each question must have exactly one answer that the source text supports and three plausible but wrong alternatives. Never rely on outside knowledge and never add commentary.`

const questionFormat = `Format the output *exactly* like this, with each part on a new line:

Question: [Your question here]
A) [Choice A]
B) [Choice B]
C) [Choice C]
D) [Choice D]
Correct Answer: [Correct Letter (A, B, C, or D)]`

// QuestionSystemPrompt returns the fixed system instruction for synthesis.
func QuestionSystemPrompt() string {
	return questionSystemPrompt
}

// BuildQuestionPrompt asks for one question about text. When theme is set the
// question is steered toward it, as long as the text supports that angle.
func BuildQuestionPrompt(text, theme string) string {
	var b strings.Builder
	b.WriteString("Create a multiple-choice trivia question based *only* on the following text. ")
	b.WriteString("The question should be specific, answerable from the text, and not require outside knowledge. ")
	b.WriteString("Provide the question, 4 distinct answer choices (A, B, C, D) where only one is correct according to the text, and indicate the correct answer letter. ")
	if theme = strings.TrimSpace(theme); theme != "" {
		fmt.Fprintf(&b, "The player chose the theme %q; if the text allows it, ask about the aspect most related to that theme. ", theme)
	}
	b.WriteString(questionFormat)
	b.WriteString("\n\nText:\n")
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}

const themeSystemPrompt = `You turn a trivia player's free-text theme into a short encyclopedia search query. Reply with the query only: two to five words, no quotes, no punctuation at the end, no explanation.`

func ThemeSystemPrompt() string {
	return themeSystemPrompt
}

func BuildThemePrompt(theme string) string {
	return fmt.Sprintf("Theme: %s\nSearch query:", theme)
}
