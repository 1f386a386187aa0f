package repository

import (
	"context"

	"clubhouse/internal/domain"
)

// UserRepository defines persistence operations for User entities.
// Lookups return ErrNotFound when no row matches.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateRoles(ctx context.Context, id int64, isMember, isAdmin bool) error
}
