package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergency-response/internal/middleware"
	"emergency-response/internal/models"
	"emergency-response/internal/repository"
	"emergency-response/internal/services"
	"emergency-response/web"
)

type stubBackend struct {
	reply string
	err   error
}

func (s stubBackend) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	return s.reply, s.err
}

func withSession(r *http.Request) *http.Request {
	session := &models.Session{ID: uuid.New(), Username: "admin", CreatedAt: time.Now()}
	return r.WithContext(context.WithValue(r.Context(), middleware.SessionKey, session))
}

func newPages(t *testing.T) *Renderer {
	t.Helper()
	pages, err := NewRenderer(web.FS)
	require.NoError(t, err)
	return pages
}

// ─── Chat Handler Tests ───

func TestChatHandler_Success(t *testing.T) {
	h := NewChatHandler(services.NewChatService(stubBackend{reply: "hi there"}))

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hello"}`)))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"reply":"hi there"}`, rr.Body.String())
}

func TestChatHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		session    bool
		body       string
		backend    stubBackend
		wantStatus int
		wantError  string
	}{
		{"no session", false, `{"message":"hello"}`, stubBackend{reply: "x"}, http.StatusUnauthorized, "Unauthorized"},
		{"no session with bad body", false, `not json`, stubBackend{reply: "x"}, http.StatusUnauthorized, "Unauthorized"},
		{"empty message", true, `{"message":""}`, stubBackend{reply: "x"}, http.StatusBadRequest, "Message is required"},
		{"whitespace message", true, `{"message":"   "}`, stubBackend{reply: "x"}, http.StatusBadRequest, "Message is required"},
		{"missing field", true, `{}`, stubBackend{reply: "x"}, http.StatusBadRequest, "Message is required"},
		{"invalid json", true, `{"message":`, stubBackend{reply: "x"}, http.StatusBadRequest, "Message is required"},
		{"non-string message", true, `{"message":42}`, stubBackend{reply: "x"}, http.StatusBadRequest, "Message is required"},
		{"backend failure", true, `{"message":"hello"}`, stubBackend{err: errors.New("decode failed")}, http.StatusInternalServerError, "Unexpected error while generating response."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewChatHandler(services.NewChatService(tc.backend))

			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tc.body))
			if tc.session {
				req = withSession(req)
			}
			rr := httptest.NewRecorder()
			h.Chat(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)

			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tc.wantError, body.Error)
		})
	}
}

// ─── Dashboard Handler Tests ───

func TestDashboardHandler_Data(t *testing.T) {
	h := NewDashboardHandler(newPages(t))

	rr := httptest.NewRecorder()
	h.Data(rr, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"success","message":"Emergency Response System is running"}`, rr.Body.String())
}

func TestDashboardHandler_HomeShowsUsername(t *testing.T) {
	h := NewDashboardHandler(newPages(t))

	rr := httptest.NewRecorder()
	h.Home(rr, withSession(httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "admin")
}

// ─── Auth Handler Tests ───

type recordingSockets struct {
	closed []uuid.UUID
}

func (s *recordingSockets) CloseSession(sessionID uuid.UUID) {
	s.closed = append(s.closed, sessionID)
}

func newAuthHandler(t *testing.T) (*AuthHandler, *middleware.SessionAuth) {
	h, sessions, _ := newAuthHandlerWithSockets(t)
	return h, sessions
}

func newAuthHandlerWithSockets(t *testing.T) (*AuthHandler, *middleware.SessionAuth, *recordingSockets) {
	t.Helper()
	verifier, err := services.NewStaticVerifier("admin", "password")
	require.NoError(t, err)
	sessions := middleware.NewSessionAuth("test-secret", repository.NewMemorySessionRepo(), false)
	sockets := &recordingSockets{}
	return NewAuthHandler(services.NewAuthService(verifier), sessions, newPages(t), sockets), sessions, sockets
}

func postForm(username, password string) *http.Request {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestAuthHandler_LoginSuccess(t *testing.T) {
	h, sessions := newAuthHandler(t)

	rr := httptest.NewRecorder()
	h.Login(rr, postForm("admin", "password"))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	session, ok := sessions.Current(req)
	require.True(t, ok)
	assert.Equal(t, "admin", session.Username)
}

func TestAuthHandler_LoginFailureRerendersForm(t *testing.T) {
	h, _ := newAuthHandler(t)

	rr := httptest.NewRecorder()
	h.Login(rr, postForm("admin", "wrong"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Result().Cookies())
	assert.Contains(t, rr.Body.String(), "Invalid username or password.")
}

func TestAuthHandler_LoginPageRedirectsWhenSignedIn(t *testing.T) {
	h, _ := newAuthHandler(t)

	rr := httptest.NewRecorder()
	h.LoginPage(rr, withSession(httptest.NewRequest(http.MethodGet, "/login", nil)))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	rr = httptest.NewRecorder()
	h.LoginPage(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="username"`)
}

func TestAuthHandler_LogoutAlwaysRedirects(t *testing.T) {
	h, _ := newAuthHandler(t)

	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodGet, "/logout", nil))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestAuthHandler_LogoutClosesSessionSockets(t *testing.T) {
	h, _, sockets := newAuthHandlerWithSockets(t)

	req := withSession(httptest.NewRequest(http.MethodGet, "/logout", nil))
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	require.Len(t, sockets.closed, 1)
	assert.Equal(t, middleware.GetSession(req.Context()).ID, sockets.closed[0])

	// Anonymous logout has no sockets to close.
	h.Logout(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/logout", nil))
	assert.Len(t, sockets.closed, 1)
}
