package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/taskfuchs/server/services"
)

// WebSocketHandler upgrades connections into the hub.
type WebSocketHandler struct {
	authService *services.AuthService
	hub         *services.Hub
}

func NewWebSocketHandler(authService *services.AuthService, hub *services.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		authService: authService,
		hub:         hub,
	}
}

// Handle upgrades the HTTP connection to a WebSocket connection. The token
// arrives as a query parameter because browsers cannot set headers on
// websocket upgrades.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Missing token")
		return
	}

	claims, err := h.authService.VerifyJWT(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // CORS policy is enforced at the router level
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	// A user may hold several connections at once (tabs, devices); each
	// gets its own client.
	client := &services.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: claims.UserID,
	}

	h.hub.Register(client)
	log.Printf("WebSocket client registered: %s", claims.UserID)

	go client.WritePump()
	go client.ReadPump()
}
