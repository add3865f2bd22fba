package model

// WritingQuestionID is the reserved sentinel question id for the writing
// task. The essay travels through the same student_answers array as the
// multiple-choice records, with the full text in place of a choice id.
const WritingQuestionID = 999

// AnswerRecord is one captured (question, selected choice) pair. At most one
// record exists per question id; re-selecting overwrites.
type AnswerRecord struct {
	QuestionID int `json:"question_id"`
	AnswerID   int `json:"answer_id"`
}

// WritingAnswer is the synthetic record carrying the writing-task text.
type WritingAnswer struct {
	QuestionID int    `json:"question_id"`
	AnswerID   string `json:"answer_id"`
}

// AnswersSnapshot is the persisted shape of the in-progress answer set and
// the base of the final submission. StudentAnswerID is the answer id of the
// last-inserted record, by insertion order. Timestamp is the session start
// in Unix milliseconds; Duration is elapsed wall clock since then, MM:SS.
type AnswersSnapshot struct {
	StudentID       int            `json:"student_id"`
	StudentAnswerID int            `json:"student_answer_id"`
	StudentAnswers  []AnswerRecord `json:"student_answers"`
	Duration        string         `json:"duration"`
	Timestamp       int64          `json:"timestamp"`
}

// SubmissionPayload is the assembled final submission: every multiple-choice
// record in insertion order plus the synthetic writing record. The element
// type is heterogeneous on the wire (int answer ids, one string), hence []any.
type SubmissionPayload struct {
	StudentID       int    `json:"student_id"`
	StudentAnswerID int    `json:"student_answer_id"`
	Duration        string `json:"duration"`
	Timestamp       int64  `json:"timestamp"`
	StudentAnswers  []any  `json:"student_answers"`
}
