package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"emergency-response/internal/middleware"
	"emergency-response/internal/models"
	"emergency-response/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub serves the chat assistant over WebSocket. Each text frame {"message"}
// gets exactly one answer frame: {"reply"} or {"error","details"}. The
// session is looked up again for every frame, so a socket dies with its
// session.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	chat        *services.ChatService
	sessions    middleware.SessionStore
}

func NewHub(chat *services.ChatService, sessions middleware.SessionStore) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		chat:        chat,
		sessions:    sessions,
	}
}

// HandleWebSocket must sit behind middleware.RequireAPI.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(session.ID, conn)
	defer h.unregisterConnection(session.ID, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		// Frames that are not JSON are answered like a missing message.
		var req models.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			req = models.ChatRequest{}
		}

		current, err := h.sessions.GetByID(r.Context(), session.ID)
		if err != nil {
			conn.WriteJSON(models.ErrorResponse{Error: "Unauthorized"})
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session ended"),
				time.Now().Add(time.Second))
			return
		}

		var out interface{}
		resp, err := h.chat.Chat(r.Context(), current, req)
		if err != nil {
			_, out = services.ToErrorResponse(err)
		} else {
			out = resp
		}

		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}

func (h *Hub) registerConnection(sessionID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[sessionID] = append(h.connections[sessionID], conn)
	log.Printf("WebSocket connected: session %s (total: %d)", sessionID, len(h.connections[sessionID]))
}

func (h *Hub) unregisterConnection(sessionID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[sessionID]
	for i, c := range conns {
		if c == conn {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[sessionID]) == 0 {
		delete(h.connections, sessionID)
	}

	log.Printf("WebSocket disconnected: session %s", sessionID)
}

// Count returns the number of open chat sockets.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, conns := range h.connections {
		n += len(conns)
	}
	return n
}

// CloseSession closes every socket opened under sessionID. Called on logout.
func (h *Hub) CloseSession(sessionID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	closeConns(h.connections[sessionID], websocket.ClosePolicyViolation, "session ended")
}

// CloseAll sends a going-away close frame to every open socket. Used on
// shutdown; the read loops then exit and unregister themselves.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conns := range h.connections {
		closeConns(conns, websocket.CloseGoingAway, "server shutting down")
	}
}

func closeConns(conns []*websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	deadline := time.Now().Add(time.Second)
	for _, conn := range conns {
		conn.WriteControl(websocket.CloseMessage, msg, deadline)
	}
}
