package visit

import (
	"context"
	"errors"
	"fmt"

	"github.com/medscribe/medscribe/internal/platform/tablestore"
)

// Visits live in per-patient partitions so a patient's documentation can be
// listed and deleted as a unit. A flat index partition maps visit id back to
// the owning patient for lookups that only carry the visit id.
const indexPartition = "visit_index"

func partitionFor(patientID string) string {
	return "visit:" + patientID
}

type indexEntry struct {
	PatientID string `json:"patient_id"`
}

type repoStore struct {
	store tablestore.Store
}

// NewRepo creates a Repository over the table store.
func NewRepo(store tablestore.Store) Repository {
	return &repoStore{store: store}
}

func (r *repoStore) Create(ctx context.Context, v *Visit) error {
	e, err := tablestore.Marshal(partitionFor(v.PatientID), v.ID, v)
	if err != nil {
		return fmt.Errorf("encode visit: %w", err)
	}
	if err := r.store.Create(ctx, e); err != nil {
		return err
	}
	idx, err := tablestore.Marshal(indexPartition, v.ID, indexEntry{PatientID: v.PatientID})
	if err != nil {
		return fmt.Errorf("encode visit index: %w", err)
	}
	return r.store.Upsert(ctx, idx)
}

func (r *repoStore) GetByID(ctx context.Context, id string) (*Visit, error) {
	patientID, err := r.resolvePatient(ctx, id)
	if err != nil {
		return nil, err
	}
	e, err := r.store.Get(ctx, partitionFor(patientID), id)
	if err != nil {
		return nil, err
	}
	v := &Visit{}
	if err := e.Decode(v); err != nil {
		return nil, fmt.Errorf("decode visit %s: %w", id, err)
	}
	return v, nil
}

func (r *repoStore) ListByPatient(ctx context.Context, patientID string, limit int) ([]*Visit, error) {
	entities, err := r.store.List(ctx, partitionFor(patientID), limit)
	if err != nil {
		return nil, err
	}
	visits := make([]*Visit, 0, len(entities))
	for _, e := range entities {
		v := &Visit{}
		if err := e.Decode(v); err != nil {
			continue
		}
		visits = append(visits, v)
	}
	return visits, nil
}

func (r *repoStore) Update(ctx context.Context, v *Visit) error {
	e, err := tablestore.Marshal(partitionFor(v.PatientID), v.ID, v)
	if err != nil {
		return fmt.Errorf("encode visit: %w", err)
	}
	return r.store.Upsert(ctx, e)
}

func (r *repoStore) Delete(ctx context.Context, id string) error {
	patientID, err := r.resolvePatient(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, partitionFor(patientID), id); err != nil {
		return err
	}
	return r.store.Delete(ctx, indexPartition, id)
}

func (r *repoStore) DeleteForPatient(ctx context.Context, patientID string) (int, error) {
	// Drain index rows in list-sized batches; the partition delete below is
	// the authoritative removal of the visits themselves. Any store error is
	// terminal so a failing backend cannot keep the cascade spinning.
	removed := 0
	for {
		entities, err := r.store.List(ctx, partitionFor(patientID), tablestore.MaxListLimit)
		if err != nil {
			return removed, err
		}
		if len(entities) == 0 {
			break
		}
		for _, e := range entities {
			if err := r.store.Delete(ctx, indexPartition, e.RowKey); err != nil && !errors.Is(err, tablestore.ErrNotFound) {
				return removed, err
			}
			if err := r.store.Delete(ctx, partitionFor(patientID), e.RowKey); err != nil {
				if errors.Is(err, tablestore.ErrNotFound) {
					continue
				}
				return removed, err
			}
			removed++
		}
	}
	n, err := r.store.DeletePartition(ctx, partitionFor(patientID))
	return removed + n, err
}

func (r *repoStore) resolvePatient(ctx context.Context, visitID string) (string, error) {
	e, err := r.store.Get(ctx, indexPartition, visitID)
	if err != nil {
		return "", err
	}
	var idx indexEntry
	if err := e.Decode(&idx); err != nil {
		return "", fmt.Errorf("decode visit index %s: %w", visitID, err)
	}
	return idx.PatientID, nil
}
