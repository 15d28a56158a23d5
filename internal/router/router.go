package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"emergency-response/internal/handlers"
	"emergency-response/internal/middleware"
	"emergency-response/internal/websocket"
)

func New(
	sessions *middleware.SessionAuth,
	authHandler *handlers.AuthHandler,
	dashboardHandler *handlers.DashboardHandler,
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
	staticFS fs.FS,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(sessions.Middleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// ──── Pages ────
	r.With(middleware.RequirePage).Get("/", dashboardHandler.Home)
	r.Get("/login", authHandler.LoginPage)
	r.Post("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)

	// ──── API ────
	r.Route("/api", func(r chi.Router) {
		r.Get("/data", dashboardHandler.Data)

		// The chat service answers anonymous callers with 401 itself.
		r.Post("/chat", chatHandler.Chat)

		r.With(middleware.RequireAPI).Get("/chat/ws", wsHub.HandleWebSocket)
	})

	return r
}
