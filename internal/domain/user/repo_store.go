package user

import (
	"context"
	"fmt"

	"github.com/medscribe/medscribe/internal/platform/tablestore"
)

const partition = "user"

type repoStore struct {
	store tablestore.Store
}

// NewRepo creates a Repository over the table store.
func NewRepo(store tablestore.Store) Repository {
	return &repoStore{store: store}
}

func (r *repoStore) Create(ctx context.Context, u *User) error {
	e, err := tablestore.Marshal(partition, Key(u.Username), u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return r.store.Create(ctx, e)
}

func (r *repoStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	e, err := r.store.Get(ctx, partition, Key(username))
	if err != nil {
		return nil, err
	}
	u := &User{}
	if err := e.Decode(u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", username, err)
	}
	return u, nil
}

func (r *repoStore) List(ctx context.Context, limit int) ([]*User, error) {
	entities, err := r.store.List(ctx, partition, limit)
	if err != nil {
		return nil, err
	}
	users := make([]*User, 0, len(entities))
	for _, e := range entities {
		u := &User{}
		if err := e.Decode(u); err != nil {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *repoStore) Update(ctx context.Context, u *User) error {
	e, err := tablestore.Marshal(partition, Key(u.Username), u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return r.store.Upsert(ctx, e)
}
