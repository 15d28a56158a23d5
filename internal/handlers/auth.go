package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"emergency-response/internal/middleware"
	"emergency-response/internal/models"
	"emergency-response/internal/services"
)

// sessionSockets closes long-lived connections opened under a session.
type sessionSockets interface {
	CloseSession(sessionID uuid.UUID)
}

type AuthHandler struct {
	authService *services.AuthService
	sessions    *middleware.SessionAuth
	pages       *Renderer
	sockets     sessionSockets
}

func NewAuthHandler(authService *services.AuthService, sessions *middleware.SessionAuth, pages *Renderer, sockets sessionSockets) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions, pages: pages, sockets: sockets}
}

type loginView struct {
	Error    string
	Username string
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetSession(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.pages.Render(w, r, http.StatusOK, "login.html", loginView{})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.pages.Render(w, r, http.StatusBadRequest, "login.html", loginView{Error: "Invalid form submission."})
		return
	}

	req := models.LoginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}

	username, err := h.authService.Login(r.Context(), req)
	if err != nil {
		var unauthorized *services.UnauthorizedError
		if !errors.As(err, &unauthorized) {
			log.Printf("[%s] login failed: %v", r.Header.Get(middleware.RequestIDHeader), err)
			h.pages.Render(w, r, http.StatusInternalServerError, "login.html", loginView{Error: "Sign-in is unavailable right now."})
			return
		}
		if middleware.GetSession(r.Context()) != nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		h.pages.Render(w, r, http.StatusOK, "login.html", loginView{Error: unauthorized.Message, Username: req.Username})
		return
	}

	if _, err := h.sessions.Start(w, r, username); err != nil {
		log.Printf("[%s] failed to start session: %v", r.Header.Get(middleware.RequestIDHeader), err)
		h.pages.Render(w, r, http.StatusInternalServerError, "login.html", loginView{Error: "Sign-in is unavailable right now."})
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(w, r)
	if session := middleware.GetSession(r.Context()); session != nil && h.sockets != nil {
		h.sockets.CloseSession(session.ID)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := services.ToErrorResponse(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[%s] %s %s: %v", r.Header.Get(middleware.RequestIDHeader), r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, body)
}
