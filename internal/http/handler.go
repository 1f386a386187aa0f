package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"clubhouse/internal/service"
	"clubhouse/internal/session"
	"clubhouse/web"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	messages service.MessageService
	sessions *session.Manager
	logger   *logrus.Logger
}

func NewHandler(users service.UserService, messages service.MessageService, sessions *session.Manager, logger *logrus.Logger) *Handler {
	return &Handler{
		users:    users,
		messages: messages,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(web.Templates())
	router.StaticFS("/static", http.FS(web.Static()))

	router.Use(requestLogger(h.logger))
	router.Use(h.resolveIdentity())

	router.GET("/", h.home)
	router.GET("/signup", requireAnonymous(), h.showSignup)
	router.POST("/signup", h.signup)
	router.GET("/login", requireAnonymous(), h.showLogin)
	router.POST("/login", h.login)
	router.GET("/signout", h.signout)

	router.GET("/membership", requireAuthenticated(), h.showMembership)
	router.POST("/membership", requireAuthenticated(), h.membership)

	router.GET("/messages/new", requireMember(), h.showNewMessage)
	router.POST("/messages/new", requireMember(), h.createMessage)

	router.DELETE("/messages/:id", requireAdmin(), h.deleteMessage)
	// HTML forms cannot send DELETE, so the rendered delete button posts here.
	router.POST("/messages/:id/delete", requireAdmin(), h.deleteMessage)
}

// render injects the request identity into every view explicitly; templates
// never see ambient state.
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CurrentUser"] = currentUser(c)
	c.HTML(status, name, data)
}

func (h *Handler) renderServerError(c *gin.Context) {
	h.render(c, http.StatusInternalServerError, "errors/500", nil)
}

func (h *Handler) home(c *gin.Context) {
	messages, err := h.messages.List(c.Request.Context())
	if err != nil {
		h.logger.Errorf("list messages: %v", err)
		h.renderServerError(c)
		return
	}
	h.render(c, http.StatusOK, "messages/index", gin.H{"Messages": messages})
}

func (h *Handler) showSignup(c *gin.Context) {
	h.render(c, http.StatusOK, "auth/signup", nil)
}

func (h *Handler) signup(c *gin.Context) {
	user, err := h.users.Signup(
		c.Request.Context(),
		c.PostForm("email"),
		c.PostForm("firstName"),
		c.PostForm("lastName"),
		c.PostForm("password1"),
		c.PostForm("password2"),
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists),
			errors.Is(err, service.ErrPasswordMismatch),
			errors.Is(err, service.ErrMissingFields):
			h.render(c, http.StatusBadRequest, "auth/signup", gin.H{"Error": err.Error()})
		default:
			h.logger.Errorf("signup: %v", err)
			h.renderServerError(c)
		}
		return
	}

	if err := h.sessions.Establish(c, user); err != nil {
		h.logger.Errorf("establish session: %v", err)
		h.renderServerError(c)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) showLogin(c *gin.Context) {
	h.render(c, http.StatusOK, "auth/login", nil)
}

func (h *Handler) login(c *gin.Context) {
	user, err := h.users.Authenticate(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// one message for both rejection reasons, nothing to enumerate
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}
		h.logger.Errorf("login: %v", err)
		h.renderServerError(c)
		return
	}

	if err := h.sessions.Establish(c, user); err != nil {
		h.logger.Errorf("establish session: %v", err)
		h.renderServerError(c)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) signout(c *gin.Context) {
	h.sessions.Terminate(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) showMembership(c *gin.Context) {
	h.render(c, http.StatusOK, "membership/new", nil)
}

func (h *Handler) membership(c *gin.Context) {
	user := currentUser(c)
	if _, err := h.users.Upgrade(c.Request.Context(), user.ID, c.PostForm("secret")); err != nil {
		h.logger.Errorf("membership upgrade: %v", err)
		h.renderServerError(c)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) showNewMessage(c *gin.Context) {
	h.render(c, http.StatusOK, "messages/new", nil)
}

func (h *Handler) createMessage(c *gin.Context) {
	user := currentUser(c)
	_, err := h.messages.Create(c.Request.Context(), user.ID, c.PostForm("title"), c.PostForm("text"))
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			h.render(c, http.StatusBadRequest, "messages/new", gin.H{"Error": err.Error()})
			return
		}
		h.logger.Errorf("create message: %v", err)
		h.renderServerError(c)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) deleteMessage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		// malformed id, nothing to delete
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	// deleting an id that is already gone counts as success
	if err := h.messages.Delete(c.Request.Context(), id); err != nil {
		h.logger.Errorf("delete message: %v", err)
		h.renderServerError(c)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}
