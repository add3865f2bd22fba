package draft

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/placement-client/internal/config"
	"github.com/stemsi/placement-client/internal/storage"
)

// Store persists the writing-task free text. Last write wins, single writer
// assumed; no versioning.
type Store struct {
	store storage.Store
	log   zerolog.Logger
}

func New(store storage.Store, log zerolog.Logger) *Store {
	return &Store{
		store: store,
		log:   log.With().Str("component", "draft_store").Logger(),
	}
}

// Load returns the persisted text, or the empty string when none exists.
func (s *Store) Load(ctx context.Context) string {
	text, ok, err := s.store.Get(ctx, config.StorageKey.WritingTask)
	if err != nil {
		s.log.Warn().Err(err).Msg("Draft load failed")
		return ""
	}
	if !ok {
		return ""
	}
	return text
}

// Save persists text unconditionally, overwriting prior content.
func (s *Store) Save(ctx context.Context, text string) {
	if err := s.store.Set(ctx, config.StorageKey.WritingTask, text); err != nil {
		s.log.Warn().Err(err).Msg("Draft save failed")
	}
}
