package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/placement-client/internal/config"
)

// Store is the persisted key-value state layer shared by the timer, the
// answer store and the draft store. Values written through Set must be
// visible to a later Get across client restarts. Keys are plain strings;
// a single writer is assumed (one test session at a time).
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open creates the Store selected by the configured backend.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	switch cfg.StorageBackend {
	case "file":
		return OpenFile(cfg.StateFile, log)
	case "sqlite":
		return OpenSQLite(ctx, cfg.StateDB, log)
	case "redis":
		return OpenRedis(ctx, cfg.RedisURL, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
