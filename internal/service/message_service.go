package service

import (
	"context"
	"errors"
	"strings"

	"clubhouse/internal/domain"
	"clubhouse/internal/repository"
)

// ErrEmptyMessage is returned when a message is missing its title or text.
var ErrEmptyMessage = errors.New("title and text are required")

// MessageService describes board operations.
type MessageService interface {
	List(ctx context.Context) ([]domain.MessageWithAuthor, error)
	Create(ctx context.Context, userID int64, title, text string) (*domain.Message, error)
	Delete(ctx context.Context, id int64) error
}

type messageService struct {
	messages repository.MessageRepository
}

func NewMessageService(messages repository.MessageRepository) MessageService {
	return &messageService{messages: messages}
}

func (s *messageService) List(ctx context.Context) ([]domain.MessageWithAuthor, error) {
	return s.messages.ListWithAuthors(ctx)
}

func (s *messageService) Create(ctx context.Context, userID int64, title, text string) (*domain.Message, error) {
	title = strings.TrimSpace(title)
	text = strings.TrimSpace(text)
	if title == "" || text == "" {
		return nil, ErrEmptyMessage
	}

	message := &domain.Message{
		UserID: userID,
		Title:  title,
		Text:   text,
	}
	if _, err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// Delete removes the message if present. A missing id is treated the same
// as a successful delete.
func (s *messageService) Delete(ctx context.Context, id int64) error {
	_, err := s.messages.DeleteByID(ctx, id)
	return err
}
