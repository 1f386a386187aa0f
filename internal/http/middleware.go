package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"clubhouse/internal/domain"
)

// identityKey is the gin context key holding the restored identity.
// Set once per request by resolveIdentity and never mutated afterwards.
const identityKey = "currentUser"

// resolveIdentity restores the session identity, if any, before any route
// handler runs. A store failure during restore is the one case that aborts
// the request.
func (h *Handler) resolveIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.sessions.Restore(c)
		if err != nil {
			h.logger.Errorf("restore session: %v", err)
			h.renderServerError(c)
			c.Abort()
			return
		}
		if user != nil {
			c.Set(identityKey, user)
		}
		c.Next()
	}
}

// currentUser returns the request's identity, or nil for an anonymous visitor.
func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	user, ok := v.(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// Guards. Each is total over a possibly-absent identity: absence is an
// ordinary deny, never a fault. The first failing guard in a chain aborts
// the request with a redirect.

func requireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func requireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) != nil {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

func requireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !(user.IsMember || user.IsAdmin) {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsAdmin {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Info("request")
	}
}
