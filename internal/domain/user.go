package domain

import "time"

// User represents a registered account. Role flags only ever move from
// false to true; nothing in the application demotes a user.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsMember     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}