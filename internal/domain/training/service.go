package training

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medscribe/medscribe/pkg/markdownx"
)

// Service owns the training configuration lifecycle: load-time repair,
// validated saves, and the baseline-note FIFO.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Load returns the user's configuration, repairing invalid specialty or note
// type keys and capping baseline notes. A corrupted stored blob is backed up
// under a timestamped key, then replaced with defaults; Load never fails on
// bad stored state.
func (s *Service) Load(ctx context.Context, userID string) (*Config, error) {
	cfg, corrupt, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load training config: %w", err)
	}

	if corrupt {
		s.logger.Warn().Str("user_id", userID).Msg("training config unparsable, resetting to defaults")
		if err := s.repo.Backup(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("could not back up corrupt training config")
		}
		cfg = DefaultConfig()
		if err := s.repo.Put(ctx, userID, cfg); err != nil {
			return nil, fmt.Errorf("reset training config: %w", err)
		}
		return cfg, nil
	}

	if cfg == nil {
		return DefaultConfig(), nil
	}

	cfg.normalize()
	return cfg, nil
}

// Save validates and persists the specialty selection. The same invariants as
// Load apply before the write, so an invalid pair is never stored. Baseline
// notes are owned by AddBaselineNote/RemoveBaselineNote; a save carries the
// stored list forward no matter what the caller passes.
func (s *Service) Save(ctx context.Context, userID string, cfg *Config) error {
	current, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	cfg.BaselineNotes = current.BaselineNotes
	cfg.normalize()
	if err := s.repo.Put(ctx, userID, cfg); err != nil {
		return fmt.Errorf("save training config: %w", err)
	}
	return nil
}

// AddBaselineNote sanitizes and appends an example note, evicting the oldest
// entry beyond the cap. The author must be an identified user.
func (s *Service) AddBaselineNote(ctx context.Context, userID, author, text string) (*BaselineNote, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("baseline note text is required")
	}
	if strings.TrimSpace(author) == "" {
		return nil, fmt.Errorf("baseline note author is required")
	}

	cfg, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	note := BaselineNote{
		ID:        uuid.NewString(),
		Text:      markdownx.Strip(text),
		Specialty: cfg.Specialty,
		NoteType:  cfg.NoteType,
		Author:    author,
		CreatedAt: time.Now().UTC(),
	}

	cfg.BaselineNotes = append(cfg.BaselineNotes, note)
	if len(cfg.BaselineNotes) > MaxBaselineNotes {
		cfg.BaselineNotes = cfg.BaselineNotes[len(cfg.BaselineNotes)-MaxBaselineNotes:]
	}

	if err := s.repo.Put(ctx, userID, cfg); err != nil {
		return nil, fmt.Errorf("save baseline note: %w", err)
	}
	return &note, nil
}

// RemoveBaselineNote filters the note out by id. An absent id is a no-op.
func (s *Service) RemoveBaselineNote(ctx context.Context, userID, noteID string) error {
	cfg, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}

	kept := cfg.BaselineNotes[:0]
	for _, n := range cfg.BaselineNotes {
		if n.ID != noteID {
			kept = append(kept, n)
		}
	}
	cfg.BaselineNotes = kept

	if err := s.repo.Put(ctx, userID, cfg); err != nil {
		return fmt.Errorf("remove baseline note: %w", err)
	}
	return nil
}
