package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medscribe/medscribe/internal/platform/tablestore"
)

const partition = "training"

type repoStore struct {
	store tablestore.Store
}

// NewRepo creates a Repository over the table store.
func NewRepo(store tablestore.Store) Repository {
	return &repoStore{store: store}
}

func (r *repoStore) Get(ctx context.Context, userID string) (*Config, bool, error) {
	e, err := r.store.Get(ctx, partition, userID)
	if errors.Is(err, tablestore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	cfg := &Config{}
	if err := e.Decode(cfg); err != nil {
		return nil, true, nil
	}
	return cfg, false, nil
}

func (r *repoStore) Put(ctx context.Context, userID string, cfg *Config) error {
	e, err := tablestore.Marshal(partition, userID, cfg)
	if err != nil {
		return fmt.Errorf("encode training config: %w", err)
	}
	return r.store.Upsert(ctx, e)
}

func (r *repoStore) Backup(ctx context.Context, userID string) error {
	e, err := r.store.Get(ctx, partition, userID)
	if err != nil {
		return err
	}
	backup := &tablestore.Entity{
		PartitionKey: partition,
		RowKey:       fmt.Sprintf("%s.corrupt.%d", userID, time.Now().UTC().Unix()),
		Data:         e.Data,
	}
	return r.store.Upsert(ctx, backup)
}
