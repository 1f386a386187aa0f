package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhouse/internal/domain"
	"clubhouse/internal/repository"
	"clubhouse/internal/service"
	"clubhouse/internal/session"
)

type memUserRepo struct {
	byID   map[int64]*domain.User
	nextID int64
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[int64]*domain.User)}
}

func (r *memUserRepo) Init(ctx context.Context) error { return nil }

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) (int64, error) {
	for _, existing := range r.byID {
		if existing.Email == user.Email {
			return 0, repository.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	clone := *user
	r.byID[user.ID] = &clone
	return user.ID, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) UpdateRoles(ctx context.Context, id int64, isMember, isAdmin bool) error {
	user, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsMember = isMember
	user.IsAdmin = isAdmin
	return nil
}

type memMessageRepo struct {
	byID   map[int64]*domain.Message
	nextID int64
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{byID: make(map[int64]*domain.Message)}
}

func (r *memMessageRepo) Init(ctx context.Context) error { return nil }

func (r *memMessageRepo) Create(ctx context.Context, message *domain.Message) (int64, error) {
	r.nextID++
	message.ID = r.nextID
	clone := *message
	r.byID[message.ID] = &clone
	return message.ID, nil
}

func (r *memMessageRepo) ListWithAuthors(ctx context.Context) ([]domain.MessageWithAuthor, error) {
	var out []domain.MessageWithAuthor
	for _, m := range r.byID {
		out = append(out, domain.MessageWithAuthor{Message: *m, AuthorFirstName: "Test", AuthorLastName: "Author"})
	}
	return out, nil
}

func (r *memMessageRepo) DeleteByID(ctx context.Context, id int64) (bool, error) {
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

type testApp struct {
	router   *gin.Engine
	users    *memUserRepo
	messages *memMessageRepo
	sessions *session.Manager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := newMemUserRepo()
	messages := newMemMessageRepo()
	userSvc := service.NewUserService(users, "member", "admin")
	messageSvc := service.NewMessageService(messages)
	sessions := session.NewManager(userSvc, "test-secret", time.Hour)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	router := gin.New()
	NewHandler(userSvc, messageSvc, sessions, logger).RegisterRoutes(router)

	return &testApp{router: router, users: users, messages: messages, sessions: sessions}
}

func (a *testApp) do(t *testing.T, method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func signupForm(email string) url.Values {
	return url.Values{
		"email":     {email},
		"firstName": {"Ada"},
		"lastName":  {"Lovelace"},
		"password1": {"secret123"},
		"password2": {"secret123"},
	}
}

// signup registers a user and returns the established session cookie.
func (a *testApp) signup(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := a.do(t, http.MethodPost, "/signup", signupForm(email))
	require.Equal(t, http.StatusSeeOther, w.Code)
	for _, cookie := range w.Result().Cookies() {
		if cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("signup did not establish a session")
	return nil
}

// promote runs the membership upgrade for the session's user.
func (a *testApp) promote(t *testing.T, cookie *http.Cookie, secret string) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/membership", url.Values{"secret": {secret}}, cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)
}

func TestHomeIsPublic(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Messages")
}

func TestSignupScenario(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/signup", signupForm("a@x.com"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.NotEmpty(t, w.Result().Cookies(), "signup must establish a session")

	// same email again is a validation failure, not a crash
	w = app.do(t, http.MethodPost, "/signup", signupForm("a@x.com"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
	assert.Len(t, app.users.byID, 1)
}

func TestSignupPasswordMismatch(t *testing.T) {
	app := newTestApp(t)

	form := signupForm("a@x.com")
	form.Set("password2", "different")
	w := app.do(t, http.MethodPost, "/signup", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "don&#39;t match")
	assert.Empty(t, app.users.byID)
}

func TestLoginScenario(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "a@x.com")

	t.Run("correct credentials redirect home", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/login", url.Values{
			"email":    {"a@x.com"},
			"password": {"secret123"},
		})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		assert.NotEmpty(t, w.Result().Cookies())
	})

	t.Run("wrong password redirects back to login", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/login", url.Values{
			"email":    {"a@x.com"},
			"password": {"wrong"},
		})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		assert.Empty(t, w.Result().Cookies(), "rejection must not establish a session")
	})

	t.Run("unknown email gets the same redirect", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/login", url.Values{
			"email":    {"nobody@x.com"},
			"password": {"secret123"},
		})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})
}

func TestSignout(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signup(t, "a@x.com")

	w := app.do(t, http.MethodGet, "/signout", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "signout must clear the session cookie")
}

func TestGuards(t *testing.T) {
	app := newTestApp(t)

	plain := app.signup(t, "plain@x.com")
	member := app.signup(t, "member@x.com")
	app.promote(t, member, "member")
	admin := app.signup(t, "admin@x.com")
	app.promote(t, admin, "admin")

	t.Run("membership form requires authentication", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/membership", nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))

		w = app.do(t, http.MethodGet, "/membership", nil, plain)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("signup form is for anonymous visitors", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/signup", nil, plain)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))

		w = app.do(t, http.MethodGet, "/signup", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("composer requires membership", func(t *testing.T) {
		for name, cookie := range map[string]*http.Cookie{"anonymous": nil, "non-member": plain} {
			var w *httptest.ResponseRecorder
			if cookie == nil {
				w = app.do(t, http.MethodGet, "/messages/new", nil)
			} else {
				w = app.do(t, http.MethodGet, "/messages/new", nil, cookie)
			}
			assert.Equal(t, http.StatusSeeOther, w.Code, name)
			assert.Equal(t, "/", w.Header().Get("Location"), name)
		}

		for name, cookie := range map[string]*http.Cookie{"member": member, "admin": admin} {
			w := app.do(t, http.MethodGet, "/messages/new", nil, cookie)
			assert.Equal(t, http.StatusOK, w.Code, name)
		}
	})

	t.Run("delete requires admin", func(t *testing.T) {
		for name, cookie := range map[string]*http.Cookie{"plain": plain, "member": member} {
			w := app.do(t, http.MethodDelete, "/messages/1", nil, cookie)
			assert.Equal(t, http.StatusSeeOther, w.Code, name)
			assert.Equal(t, "/", w.Header().Get("Location"), name)
		}

		w := app.do(t, http.MethodDelete, "/messages/1", nil)
		assert.Equal(t, http.StatusSeeOther, w.Code, "anonymous delete is denied, not a fault")
		assert.Equal(t, "/", w.Header().Get("Location"))
	})
}

func TestMembershipUpgradeScenario(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signup(t, "a@x.com")

	app.promote(t, cookie, "admin")

	user, err := app.users.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.True(t, user.IsMember, "admin secret grants membership too")
}

func TestMembershipUnknownSecretIsNoOp(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signup(t, "a@x.com")

	app.promote(t, cookie, "open sesame")

	user, err := app.users.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, user.IsMember)
	assert.False(t, user.IsAdmin)
}

func TestCreateMessage(t *testing.T) {
	app := newTestApp(t)
	member := app.signup(t, "member@x.com")
	app.promote(t, member, "member")

	w := app.do(t, http.MethodPost, "/messages/new", url.Values{
		"title": {"Hello"},
		"text":  {"First post"},
	}, member)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	require.Len(t, app.messages.byID, 1)

	user, err := app.users.GetByEmail(context.Background(), "member@x.com")
	require.NoError(t, err)
	for _, m := range app.messages.byID {
		assert.Equal(t, user.ID, m.UserID, "message is associated with its author")
	}
}

func TestCreateMessageDeniedForNonMember(t *testing.T) {
	app := newTestApp(t)
	plain := app.signup(t, "plain@x.com")

	w := app.do(t, http.MethodPost, "/messages/new", url.Values{
		"title": {"Hello"},
		"text":  {"First post"},
	}, plain)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Empty(t, app.messages.byID, "denied request must create nothing")
}

func TestAdminDeletesExactlyOneMessage(t *testing.T) {
	app := newTestApp(t)
	admin := app.signup(t, "admin@x.com")
	app.promote(t, admin, "admin")

	first := &domain.Message{UserID: 1, Title: "first", Text: "x"}
	second := &domain.Message{UserID: 1, Title: "second", Text: "y"}
	_, err := app.messages.Create(context.Background(), first)
	require.NoError(t, err)
	_, err = app.messages.Create(context.Background(), second)
	require.NoError(t, err)

	w := app.do(t, http.MethodDelete, "/messages/1", nil, admin)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.NotContains(t, app.messages.byID, int64(1))
	assert.Contains(t, app.messages.byID, int64(2))
}

func TestAdminDeleteMissingMessageIsSilent(t *testing.T) {
	app := newTestApp(t)
	admin := app.signup(t, "admin@x.com")
	app.promote(t, admin, "admin")

	w := app.do(t, http.MethodDelete, "/messages/999", nil, admin)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestDeleteFormPostAlias(t *testing.T) {
	app := newTestApp(t)
	admin := app.signup(t, "admin@x.com")
	app.promote(t, admin, "admin")

	msg := &domain.Message{UserID: 1, Title: "bye", Text: "x"}
	_, err := app.messages.Create(context.Background(), msg)
	require.NoError(t, err)

	w := app.do(t, http.MethodPost, "/messages/1/delete", nil, admin)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Empty(t, app.messages.byID)
}

func TestStaleSessionIsAnonymous(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signup(t, "a@x.com")

	// the account disappears out from under the session
	app.users.byID = map[int64]*domain.User{}

	w := app.do(t, http.MethodGet, "/membership", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}
