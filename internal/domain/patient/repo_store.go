package patient

import (
	"context"
	"fmt"

	"github.com/medscribe/medscribe/internal/platform/tablestore"
)

const partition = "patient"

type repoStore struct {
	store tablestore.Store
}

// NewRepo creates a Repository over the table store.
func NewRepo(store tablestore.Store) Repository {
	return &repoStore{store: store}
}

func (r *repoStore) Create(ctx context.Context, p *Patient) error {
	e, err := tablestore.Marshal(partition, p.ID, p)
	if err != nil {
		return fmt.Errorf("encode patient: %w", err)
	}
	return r.store.Create(ctx, e)
}

func (r *repoStore) GetByID(ctx context.Context, id string) (*Patient, error) {
	e, err := r.store.Get(ctx, partition, id)
	if err != nil {
		return nil, err
	}
	p := &Patient{}
	if err := e.Decode(p); err != nil {
		return nil, fmt.Errorf("decode patient %s: %w", id, err)
	}
	return p, nil
}

func (r *repoStore) List(ctx context.Context, limit int) ([]*Patient, error) {
	entities, err := r.store.List(ctx, partition, limit)
	if err != nil {
		return nil, err
	}
	patients := make([]*Patient, 0, len(entities))
	for _, e := range entities {
		p := &Patient{}
		if err := e.Decode(p); err != nil {
			continue
		}
		patients = append(patients, p)
	}
	return patients, nil
}

func (r *repoStore) Update(ctx context.Context, p *Patient) error {
	e, err := tablestore.Marshal(partition, p.ID, p)
	if err != nil {
		return fmt.Errorf("encode patient: %w", err)
	}
	return r.store.Upsert(ctx, e)
}

func (r *repoStore) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, partition, id)
}
