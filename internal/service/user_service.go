package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"clubhouse/internal/domain"
	"clubhouse/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	// Both rejection reasons below match it via errors.Is, so callers can render
	// a single unified message while tests and logs keep the distinction.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownAccount is returned when no account exists for the email.
	ErrUnknownAccount = fmt.Errorf("%w: no such account", ErrInvalidCredentials)
	// ErrWrongPassword is returned when the password does not match the stored hash.
	ErrWrongPassword = fmt.Errorf("%w: bad credentials", ErrInvalidCredentials)

	// ErrUserAlreadyExists is returned when signing up with a registered email.
	ErrUserAlreadyExists = errors.New("user already exists with this email")
	// ErrPasswordMismatch is returned when the two signup password fields differ.
	ErrPasswordMismatch = errors.New("passwords don't match")
	// ErrMissingFields is returned when a required signup field is blank.
	ErrMissingFields = errors.New("all fields are required")
)

// UserService describes account lifecycle and role operations.
type UserService interface {
	Signup(ctx context.Context, email, firstName, lastName, password, confirm string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Upgrade(ctx context.Context, userID int64, secret string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users      repository.UserRepository
	memberPass string
	adminPass  string
}

func NewUserService(users repository.UserRepository, memberPass, adminPass string) UserService {
	return &userService{
		users:      users,
		memberPass: strings.TrimSpace(memberPass),
		adminPass:  strings.TrimSpace(adminPass),
	}
}

func (s *userService) Signup(ctx context.Context, email, firstName, lastName, password, confirm string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	if email == "" || firstName == "" || lastName == "" || password == "" {
		return nil, ErrMissingFields
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hash),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrUnknownAccount
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}

	return sanitizeUser(user), nil
}

// Upgrade promotes the user's role flags when the submitted secret matches a
// configured phrase. The admin phrase grants both flags; an unrecognized
// secret changes nothing and is not an error. Never demotes.
func (s *userService) Upgrade(ctx context.Context, userID int64, secret string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	secret = strings.TrimSpace(secret)
	isMember, isAdmin := user.IsMember, user.IsAdmin
	switch {
	case s.adminPass != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(s.adminPass)) == 1:
		isMember, isAdmin = true, true
	case s.memberPass != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(s.memberPass)) == 1:
		isMember = true
	}

	if isMember != user.IsMember || isAdmin != user.IsAdmin {
		if err := s.users.UpdateRoles(ctx, userID, isMember, isAdmin); err != nil {
			return nil, err
		}
		user.IsMember, user.IsAdmin = isMember, isAdmin
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsMember:  user.IsMember,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
