package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clubhouse/internal/domain"
)

const createMessagesTable = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	text TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createMessagesTable); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	return nil
}

func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) (int64, error) {
	message.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO messages (user_id, title, text, created_at)
VALUES (?, ?, ?, ?)`,
		message.UserID,
		message.Title,
		message.Text,
		message.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("message last insert id: %w", err)
	}
	message.ID = id
	return id, nil
}

func (r *MessageRepository) ListWithAuthors(ctx context.Context) ([]domain.MessageWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT m.id, m.user_id, m.title, m.text, m.created_at, u.first_name, u.last_name
FROM messages m
JOIN users u ON u.id = m.user_id
ORDER BY m.created_at DESC, m.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.MessageWithAuthor
	for rows.Next() {
		var m domain.MessageWithAuthor
		if err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.Title,
			&m.Text,
			&m.CreatedAt,
			&m.AuthorFirstName,
			&m.AuthorLastName,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete message: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("message rows affected: %w", err)
	}
	return affected > 0, nil
}
