package config

// StorageKeyStruct groups the persisted-state key names. The backend assigns
// session identifiers on student creation; the remaining keys hold in-progress
// test state that survives a client restart.
type StorageKeyStruct struct {
	StudentID       string
	SetQuestion     string
	StudentAnswerID string
	TimerRemaining  string
	TestAnswers     string
	WritingTask     string
}

var StorageKey = &StorageKeyStruct{
	StudentID:       "student_id",
	SetQuestion:     "set_question",
	StudentAnswerID: "student_answer_id",
	TimerRemaining:  "test_timer_remaining",
	TestAnswers:     "test_answers",
	WritingTask:     "writing_task",
}
