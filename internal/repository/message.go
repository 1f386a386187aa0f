package repository

import (
	"context"

	"clubhouse/internal/domain"
)

// MessageRepository defines persistence operations for Message entities.
type MessageRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, message *domain.Message) (int64, error)
	ListWithAuthors(ctx context.Context) ([]domain.MessageWithAuthor, error)
	// DeleteByID reports whether a row was actually removed.
	DeleteByID(ctx context.Context, id int64) (bool, error)
}
