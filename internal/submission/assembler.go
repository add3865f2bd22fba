package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/placement-client/internal/config"
	"github.com/stemsi/placement-client/internal/model"
	"github.com/stemsi/placement-client/internal/storage"
)

// ErrNoAnswers reports a finish attempt without a persisted answer snapshot:
// the test must be completed before the writing task can be submitted.
var ErrNoAnswers = errors.New("no answers found, complete the test first")

// Submitter is the backend operation the assembler consumes.
type Submitter interface {
	SubmitAnswers(ctx context.Context, payload model.SubmissionPayload) error
}

// Assembler merges the persisted answer snapshot with the writing-task text
// into one submission and owns the post-submit cleanup.
type Assembler struct {
	api   Submitter
	store storage.Store
	log   zerolog.Logger
}

func NewAssembler(api Submitter, store storage.Store, log zerolog.Logger) *Assembler {
	return &Assembler{
		api:   api,
		store: store,
		log:   log.With().Str("component", "submission").Logger(),
	}
}

// Assemble loads the persisted answer snapshot and appends the synthetic
// writing record. Returns ErrNoAnswers when no snapshot exists; no network
// call happens here.
func (a *Assembler) Assemble(ctx context.Context, writingText string) (model.SubmissionPayload, error) {
	raw, ok, err := a.store.Get(ctx, config.StorageKey.TestAnswers)
	if err != nil {
		return model.SubmissionPayload{}, fmt.Errorf("read answers: %w", err)
	}
	if !ok {
		return model.SubmissionPayload{}, ErrNoAnswers
	}

	var snapshot model.AnswersSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return model.SubmissionPayload{}, fmt.Errorf("parse answers: %w", err)
	}

	records := make([]any, 0, len(snapshot.StudentAnswers)+1)
	for _, rec := range snapshot.StudentAnswers {
		records = append(records, rec)
	}
	records = append(records, model.WritingAnswer{
		QuestionID: model.WritingQuestionID,
		AnswerID:   writingText,
	})

	return model.SubmissionPayload{
		StudentID:       snapshot.StudentID,
		StudentAnswerID: snapshot.StudentAnswerID,
		Duration:        snapshot.Duration,
		Timestamp:       snapshot.Timestamp,
		StudentAnswers:  records,
	}, nil
}

// Submit performs exactly one submission call. On confirmed success the three
// persisted test keys are cleared; on failure nothing is touched so the user
// can retry.
func (a *Assembler) Submit(ctx context.Context, payload model.SubmissionPayload) error {
	if err := a.api.SubmitAnswers(ctx, payload); err != nil {
		a.log.Error().Err(err).Msg("Submission failed")
		return fmt.Errorf("submit answers: %w", err)
	}

	for _, key := range []string{
		config.StorageKey.TestAnswers,
		config.StorageKey.WritingTask,
		config.StorageKey.TimerRemaining,
	} {
		if err := a.store.Remove(ctx, key); err != nil {
			a.log.Warn().Err(err).Str("key", key).Msg("Post-submit cleanup failed")
		}
	}

	a.log.Info().Int("student_id", payload.StudentID).Msg("Answers submitted")
	return nil
}
