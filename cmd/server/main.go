package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emergency-response/internal/config"
	"emergency-response/internal/database"
	"emergency-response/internal/handlers"
	"emergency-response/internal/middleware"
	"emergency-response/internal/repository"
	"emergency-response/internal/router"
	"emergency-response/internal/services"
	"emergency-response/internal/websocket"
	"emergency-response/web"
)

func main() {
	log.Println("🚀 Starting Emergency Response System...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Session Store ────
	var sessionStore middleware.SessionStore
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		sessionStore = repository.NewRedisSessionRepo(redisClient, cfg.SessionTTL)
		log.Println("✓ Redis session store connected")
	} else {
		sessionStore = repository.NewMemorySessionRepo()
		log.Println("✓ In-memory session store ready")
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = randomSecret()
		log.Println("  SESSION_SECRET not set: sessions will not survive a restart")
	}
	sessions := middleware.NewSessionAuth(secret, sessionStore, cfg.IsProduction())

	// ──── Step 3: Completion Backend ────
	var backend services.CompletionBackend
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		gemini, err := services.NewGeminiBackend(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.BackendTimeout)
		if err != nil {
			log.Fatalf("✗ Gemini client initialization failed: %v", err)
		}
		defer gemini.Close()
		backend = gemini
		log.Printf("✓ Gemini backend initialized (model %s)", cfg.GeminiModel)
	case config.ProviderOllama:
		backend = services.NewOllamaClient(cfg.Ollama)
		log.Printf("✓ Ollama backend at %s (model %s)", cfg.Ollama.BaseURL, cfg.Ollama.Model)
	default:
		log.Fatalf("✗ Unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	// ──── Initialize Services ────
	verifier, err := services.NewStaticVerifier(cfg.AuthUsername, cfg.AuthPassword)
	if err != nil {
		log.Fatalf("✗ Credential setup failed: %v", err)
	}
	authService := services.NewAuthService(verifier)
	chatService := services.NewChatService(backend)

	// ──── Initialize Handlers ────
	pages, err := handlers.NewRenderer(web.FS)
	if err != nil {
		log.Fatalf("✗ Template loading failed: %v", err)
	}
	wsHub := websocket.NewHub(chatService, sessionStore)
	authHandler := handlers.NewAuthHandler(authService, sessions, pages, wsHub)
	dashboardHandler := handlers.NewDashboardHandler(pages)
	chatHandler := handlers.NewChatHandler(chatService)

	// ──── Step 4: Start HTTP Server ────
	r := router.New(sessions, authHandler, dashboardHandler, chatHandler, wsHub, web.Static())

	// WriteTimeout must outlast the backend timeout or slow replies get cut off.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Fatalf("✗ Listen failed: %v", err)
	}

	log.Printf("✓ Emergency Response System ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/chat/ws", cfg.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := serve(server, ln, wsHub, sigChan); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

// serve runs server on ln until stop fires, then closes the chat sockets and
// drains in-flight requests. It returns only once Shutdown has finished, so
// deferred closes in main never run under live requests.
func serve(server *http.Server, ln net.Listener, hub *websocket.Hub, stop <-chan os.Signal) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-stop

		log.Printf("Shutting down... closing %d chat socket(s)", hub.Count())
		hub.CloseAll()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := server.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	<-shutdownDone
	return nil
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("✗ Failed to generate session secret: %v", err)
	}
	return hex.EncodeToString(b)
}
