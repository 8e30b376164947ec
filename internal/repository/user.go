package repository

import (
	"context"

	"papertrail/internal/model"
)

// UserRepository persists user accounts. Users are immutable after creation.
type UserRepository interface {
	// Create inserts a new user record and returns the stored user.
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// FindByEmail returns the user with the given email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID returns the user with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.User, error)
}
