package user

import "context"

// Repository persists user accounts keyed by lower-cased username.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, limit int) ([]*User, error)
	Update(ctx context.Context, u *User) error
}
