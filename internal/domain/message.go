package domain

import "time"

// Message is a board post. Messages are never edited after creation;
// only admins may remove them.
type Message struct {
	ID        int64
	UserID    int64
	Title     string
	Text      string
	CreatedAt time.Time
}

// MessageWithAuthor joins a message with the display fields of the
// user who wrote it, for rendering the board.
type MessageWithAuthor struct {
	Message
	AuthorFirstName string
	AuthorLastName  string
}

// AuthorName returns the author's display name. Value receiver so templates
// can call it on range elements.
func (m MessageWithAuthor) AuthorName() string {
	return m.AuthorFirstName + " " + m.AuthorLastName
}
