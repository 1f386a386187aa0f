package session

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"clubhouse/internal/domain"
	"clubhouse/internal/repository"
	"clubhouse/internal/service"
)

const cookieName = "clubhouse_session"

// Manager maps a signed cookie to a single user identity. Establish issues a
// fresh token (new jti) every time, so re-authentication never reuses a prior
// session. Restore is read-only and idempotent.
type Manager struct {
	users  service.UserService
	secret []byte
	ttl    time.Duration
}

func NewManager(users service.UserService, secret string, ttl time.Duration) *Manager {
	return &Manager{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Establish issues a session token for the user and sets it as an HttpOnly
// cookie, replacing any cookie from an earlier authentication.
func (m *Manager) Establish(c *gin.Context, user *domain.User) error {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, token, int(m.ttl/time.Second), "/", "", false, true)
	return nil
}

// Restore resolves the request's session cookie to a user. A missing,
// malformed, expired, or tampered cookie yields no identity, as does a
// token for a user that no longer exists; none of these are errors. Only
// a store failure during the lookup is reported.
func (m *Manager) Restore(c *gin.Context) (*domain.User, error) {
	token, err := c.Cookie(cookieName)
	if err != nil || token == "" {
		return nil, nil
	}

	userID, err := m.parseSubject(token)
	if err != nil {
		return nil, nil
	}

	user, err := m.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// stale session for a vanished account, drop it silently
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Terminate clears the session cookie. Safe to call with no session present.
func (m *Manager) Terminate(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, "", -1, "/", "", false, true)
}

func (m *Manager) parseSubject(tokenString string) (int64, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return 0, errors.New("missing subject")
	}
	return strconv.ParseInt(subject, 10, 64)
}
