package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope for every WebSocket message.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocketHandler pushes job progress, terminal outcomes, PDF readiness,
// and language changes to connected browser clients.
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	eventService     interfaces.EventService
	serverInstanceID string // Unique ID generated on startup - clients use to detect server restart
}

func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized")

	if eventService != nil {
		h.subscribeToEvents()
	}

	return h
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	h.sendHello(conn)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	// Read messages from client (keep connection alive)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// sendHello sends the server instance ID so clients can detect restarts and
// clear stale poll state.
func (h *WebSocketHandler) sendHello(conn *websocket.Conn) {
	msg := WSMessage{
		Type: "hello",
		Payload: map[string]string{
			"server_instance_id": h.serverInstanceID,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal hello message")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()

	if mutex != nil {
		mutex.Lock()
		conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()
	}
}

// Broadcast sends a message to all connected clients.
func (h *WebSocketHandler) Broadcast(msgType string, payload interface{}) {
	msg := WSMessage{
		Type:    msgType,
		Payload: payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msgType).Msg("Failed to marshal WebSocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("type", msgType).Msg("Failed to send message to client")
		}
	}
}

// subscribeToEvents relays bus events to the browser.
func (h *WebSocketHandler) subscribeToEvents() {
	relay := func(eventType interfaces.EventType, msgType string) {
		h.eventService.Subscribe(eventType, func(ctx context.Context, event interfaces.Event) error {
			h.Broadcast(msgType, event.Payload)
			return nil
		})
	}

	relay(interfaces.EventJobProgress, "job_progress")
	relay(interfaces.EventJobCompleted, "job_completed")
	relay(interfaces.EventJobFailed, "job_failed")
	relay(interfaces.EventPDFReady, "pdf_ready")
	relay(interfaces.EventChartSubmitted, "chart_submitted")
	relay(interfaces.EventLanguageChanged, "language_changed")
}
