package model

// StudentProfile is the intake form payload for student creation.
// All fields are required; the profile is not retained after the backend
// assigns session identifiers.
type StudentProfile struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
	Age   int    `json:"age" validate:"required,gt=0"`
}

// SessionIdentifiers are assigned by the backend on student creation and
// persisted for the lifetime of one test session.
type SessionIdentifiers struct {
	StudentID       string `json:"id"`
	SetQuestion     string `json:"set_question"`
	StudentAnswerID string `json:"student_answer_id"`
}
