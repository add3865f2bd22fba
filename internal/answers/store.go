package answers

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/placement-client/internal/config"
	"github.com/stemsi/placement-client/internal/model"
	"github.com/stemsi/placement-client/internal/storage"
	"github.com/stemsi/placement-client/internal/timer"
)

// Store holds the in-memory question → selected choice map, persisted as a
// full snapshot after every change. Insertion order is preserved: the id of
// the last-inserted record becomes student_answer_id on submission. Single
// writer assumed (one screen at a time).
type Store struct {
	store storage.Store
	log   zerolog.Logger

	order    []int
	selected map[int]int
	// start is the session start instant, captured on construction and
	// overridden by a restored snapshot's timestamp. Used only to compute
	// elapsed duration at persist time.
	start time.Time
}

func New(store storage.Store, log zerolog.Logger) *Store {
	return &Store{
		store:    store,
		log:      log.With().Str("component", "answer_store").Logger(),
		selected: make(map[int]int),
		start:    time.Now(),
	}
}

// restoreRecord mirrors the persisted record shape with optional fields, so
// entries missing either id can be skipped instead of defaulting to zero.
type restoreRecord struct {
	QuestionID *int `json:"question_id"`
	AnswerID   *int `json:"answer_id"`
}

type restoreSnapshot struct {
	StudentAnswers []restoreRecord `json:"student_answers"`
	Timestamp      int64           `json:"timestamp"`
}

// Restore repopulates the store from the persisted snapshot, preserving the
// stored insertion order. Malformed entries are skipped; a wholly malformed
// payload is logged and leaves the store empty rather than failing the
// caller.
func (s *Store) Restore(ctx context.Context) {
	raw, ok, err := s.store.Get(ctx, config.StorageKey.TestAnswers)
	if err != nil {
		s.log.Warn().Err(err).Msg("Answer restore failed")
		return
	}
	if !ok {
		return
	}

	var snapshot restoreSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.log.Error().Err(err).Msg("Corrupt answer snapshot, starting empty")
		return
	}

	s.order = s.order[:0]
	s.selected = make(map[int]int)

	for _, rec := range snapshot.StudentAnswers {
		if rec.QuestionID == nil || *rec.QuestionID == 0 || rec.AnswerID == nil {
			continue
		}
		if _, exists := s.selected[*rec.QuestionID]; !exists {
			s.order = append(s.order, *rec.QuestionID)
		}
		s.selected[*rec.QuestionID] = *rec.AnswerID
	}

	if snapshot.Timestamp != 0 {
		s.start = time.UnixMilli(snapshot.Timestamp)
	}
}

// Select records the choice for a question, overwriting any previous choice
// (last-write-wins, no multi-select), and persists the full snapshot.
func (s *Store) Select(ctx context.Context, questionID, answerID int) {
	if _, exists := s.selected[questionID]; !exists {
		s.order = append(s.order, questionID)
	}
	s.selected[questionID] = answerID

	if err := s.persist(ctx); err != nil {
		s.log.Warn().Err(err).Int("question_id", questionID).Msg("Answer persist failed")
	}
}

// IsSelected reports whether answerID is the stored choice for questionID.
func (s *Store) IsSelected(questionID, answerID int) bool {
	v, ok := s.selected[questionID]
	return ok && v == answerID
}

// Len returns the number of answered questions.
func (s *Store) Len() int {
	return len(s.order)
}

// Snapshot builds the submission-base payload: records in insertion order,
// student_answer_id from the last-inserted record (0 when empty), elapsed
// duration since session start as MM:SS, and the start timestamp.
func (s *Store) Snapshot(ctx context.Context) model.AnswersSnapshot {
	records := make([]model.AnswerRecord, 0, len(s.order))
	for _, q := range s.order {
		records = append(records, model.AnswerRecord{QuestionID: q, AnswerID: s.selected[q]})
	}

	lastAnswerID := 0
	if len(records) > 0 {
		lastAnswerID = records[len(records)-1].AnswerID
	}

	elapsed := int(time.Since(s.start).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	return model.AnswersSnapshot{
		StudentID:       s.studentID(ctx),
		StudentAnswerID: lastAnswerID,
		StudentAnswers:  records,
		Duration:        timer.Format(elapsed),
		Timestamp:       s.start.UnixMilli(),
	}
}

// persist serializes the full snapshot under test_answers.
func (s *Store) persist(ctx context.Context) error {
	raw, err := json.Marshal(s.Snapshot(ctx))
	if err != nil {
		return err
	}
	return s.store.Set(ctx, config.StorageKey.TestAnswers, string(raw))
}

// studentID reads the persisted student id, 0 when absent or non-numeric.
func (s *Store) studentID(ctx context.Context) int {
	raw, ok, err := s.store.Get(ctx, config.StorageKey.StudentID)
	if err != nil || !ok {
		return 0
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return id
}
