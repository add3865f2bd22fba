package intake

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/placement-client/internal/config"
	"github.com/stemsi/placement-client/internal/model"
	"github.com/stemsi/placement-client/internal/storage"
	"github.com/stemsi/placement-client/internal/validator"
)

// ValidationError carries the field-level messages of a rejected profile.
// It blocks submission locally; no network call and no state mutation happen.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile: %d field(s)", len(e.Fields))
}

// StudentCreator is the backend operation the intake consumes.
type StudentCreator interface {
	CreateStudent(ctx context.Context, profile model.StudentProfile) (*model.SessionIdentifiers, error)
}

// Intake collects the student profile, registers it with the backend and
// seeds the session identifiers the downstream screens require.
type Intake struct {
	api   StudentCreator
	store storage.Store
	log   zerolog.Logger
}

func New(api StudentCreator, store storage.Store, log zerolog.Logger) *Intake {
	return &Intake{
		api:   api,
		store: store,
		log:   log.With().Str("component", "intake").Logger(),
	}
}

// Submit validates the profile, creates the student and persists the
// assigned session identifiers. Returns *ValidationError for rejected input.
func (i *Intake) Submit(ctx context.Context, profile model.StudentProfile) (*model.SessionIdentifiers, error) {
	if fields := validator.Struct(profile); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	ids, err := i.api.CreateStudent(ctx, profile)
	if err != nil {
		i.log.Error().Err(err).Msg("Student creation failed")
		return nil, fmt.Errorf("create student: %w", err)
	}

	seeds := map[string]string{
		config.StorageKey.StudentID:       ids.StudentID,
		config.StorageKey.SetQuestion:     ids.SetQuestion,
		config.StorageKey.StudentAnswerID: ids.StudentAnswerID,
	}
	for key, value := range seeds {
		if err := i.store.Set(ctx, key, value); err != nil {
			return nil, fmt.Errorf("seed %s: %w", key, err)
		}
	}

	i.log.Info().Str("student_id", ids.StudentID).Msg("Student created")
	return ids, nil
}
