package models

// OptionLetters lists the option keys of a trivia question in display order.
var OptionLetters = []string{"A", "B", "C", "D"}

// CandidateDocument is an encyclopedia page that passed the usability filters.
// It lives only for one fetch-validate-synthesize cycle.
type CandidateDocument struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Summary      string `json:"summary"`
	SectionCount int    `json:"section_count"`
}

type TriviaQuestion struct {
	Prompt        string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectLetter string            `json:"correct_answer_letter"`
	SourceTitle   string            `json:"wiki_page_title"`
	SourceURL     string            `json:"wiki_page_url"`
	Theme         string            `json:"theme,omitempty"`
}

// CorrectText returns the text of the correct option.
func (q TriviaQuestion) CorrectText() string {
	return q.Options[q.CorrectLetter]
}

// ── Response Types ────────────────────────────────────────

// QuestionResponse is what the player sees; the correct letter is withheld.
type QuestionResponse struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	WikiPageTitle string            `json:"wiki_page_title"`
	WikiPageURL   string            `json:"wiki_page_url"`
	Theme         string            `json:"theme,omitempty"`
}

func NewQuestionResponse(q *TriviaQuestion) QuestionResponse {
	return QuestionResponse{
		Question:      q.Prompt,
		Options:       q.Options,
		WikiPageTitle: q.SourceTitle,
		WikiPageURL:   q.SourceURL,
		Theme:         q.Theme,
	}
}
