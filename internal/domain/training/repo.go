package training

import "context"

// Repository persists per-user training configurations.
type Repository interface {
	// Get returns the stored config, a corruption flag when the stored blob
	// could not be parsed, or nil when nothing is stored.
	Get(ctx context.Context, userID string) (cfg *Config, corrupt bool, err error)
	// Put replaces the stored config atomically.
	Put(ctx context.Context, userID string, cfg *Config) error
	// Backup preserves an unparsable blob under a timestamped key so the
	// slot can be reset without losing evidence.
	Backup(ctx context.Context, userID string) error
}
