package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"emergency-response/internal/models"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionCookieName is the cookie carrying the signed session reference.
const SessionCookieName = "session"

// SessionStore is the server-side record of live sessions.
type SessionStore interface {
	Create(ctx context.Context, username string) (*models.Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionAuth issues and checks session cookies. The cookie holds an HS256
// token whose "sid" claim points at a record in the store, so deleting the
// record revokes the cookie.
type SessionAuth struct {
	Secret []byte
	store  SessionStore
	secure bool
}

func NewSessionAuth(secret string, store SessionStore, secure bool) *SessionAuth {
	return &SessionAuth{Secret: []byte(secret), store: store, secure: secure}
}

// Start creates a session for username and sets the cookie on w.
func (a *SessionAuth) Start(w http.ResponseWriter, r *http.Request, username string) (*models.Session, error) {
	session, err := a.store.Create(r.Context(), username)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{
		"sid": session.ID.String(),
		"sub": session.Username,
		"iat": session.CreatedAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	if err != nil {
		a.store.Delete(r.Context(), session.ID)
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

// End forgets the session referenced by the request cookie, if any, and
// clears the cookie. It never fails from the caller's point of view.
func (a *SessionAuth) End(w http.ResponseWriter, r *http.Request) {
	if id, err := a.sessionID(r); err == nil {
		a.store.Delete(r.Context(), id)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Current resolves the request cookie to a live session.
func (a *SessionAuth) Current(r *http.Request) (*models.Session, bool) {
	id, err := a.sessionID(r)
	if err != nil {
		return nil, false
	}
	session, err := a.store.GetByID(r.Context(), id)
	if err != nil {
		return nil, false
	}
	return session, true
}

func (a *SessionAuth) sessionID(r *http.Request) (uuid.UUID, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return uuid.Nil, errors.New("no session cookie")
	}

	token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.Secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, errors.New("invalid session claims")
	}

	sid, ok := claims["sid"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing session id")
	}
	return uuid.Parse(sid)
}

// Middleware attaches the current session, when there is one, to the request
// context. Requests without a session pass through untouched.
func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session, ok := a.Current(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), SessionKey, session))
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePage sends visitors without a session to the login page.
func RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSession(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPI rejects requests without a session with 401.
func RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSession(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSession extracts the session from request context, nil when anonymous.
func GetSession(ctx context.Context) *models.Session {
	session, _ := ctx.Value(SessionKey).(*models.Session)
	return session
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: message})
}
