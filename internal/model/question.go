package model

// Question represents a single multiple-choice question. Immutable once
// loaded; the choice order is the display order.
type Question struct {
	ID       int            `json:"id"`
	Question string         `json:"question"`
	Answers  []AnswerChoice `json:"answers"`
}

// AnswerChoice is one selectable option of a question.
type AnswerChoice struct {
	ID     int    `json:"id"`
	Answer string `json:"answer"`
}
