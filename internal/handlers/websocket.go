package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Dashboards are served from other origins
	},
}

// WSMessage is the envelope pushed to connected clients
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocketHandler streams refresh events to connected clients
type WebSocketHandler struct {
	logger  arbor.ILogger
	refresh RefreshTrigger
	clients map[*websocket.Conn]*sync.Mutex
	mu      sync.RWMutex
}

// NewWebSocketHandler subscribes the handler to the refresh events it forwards.
// refresh supplies the status sent on connect and may be nil.
func NewWebSocketHandler(eventService interfaces.EventService, refresh RefreshTrigger, logger arbor.ILogger) (*WebSocketHandler, error) {
	h := &WebSocketHandler{
		logger:  logger,
		refresh: refresh,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}

	if eventService != nil {
		for _, eventType := range []interfaces.EventType{interfaces.EventSyncCompleted, interfaces.EventFieldConfigChanged} {
			if err := eventService.Subscribe(eventType, h.forwardEvent); err != nil {
				return nil, fmt.Errorf("failed to subscribe websocket to %s: %w", eventType, err)
			}
		}
	}

	return h, nil
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	// Clear the deadline inherited from the HTTP server's read timeout
	_ = conn.SetReadDeadline(time.Time{})

	mutex := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = mutex
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", clientCount).Msg("WebSocket client connected")

	h.sendStatus(r.Context(), conn, mutex)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Int("clients", remaining).Msg("WebSocket client disconnected")
	}()

	// Read until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WebSocketHandler) forwardEvent(ctx context.Context, event interfaces.Event) error {
	h.broadcast(WSMessage{
		Type:    string(event.Type),
		Payload: event.Payload,
	})
	return nil
}

func (h *WebSocketHandler) sendStatus(ctx context.Context, conn *websocket.Conn, mutex *sync.Mutex) {
	if h.refresh == nil {
		return
	}

	report, err := h.refresh.LastReport(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read last sync report for websocket status")
	}

	data, err := json.Marshal(WSMessage{
		Type: "status",
		Payload: map[string]interface{}{
			"mode":        h.refresh.Mode(),
			"last_report": report,
		},
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal status message")
		return
	}

	if err := writeMessage(conn, mutex, data); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send status to client")
	}
}

func (h *WebSocketHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal websocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn, mutex := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, mutex)
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		if err := writeMessage(conn, mutexes[i], data); err != nil {
			h.logger.Warn().Err(err).Str("type", msg.Type).Msg("Failed to send message to client")
		}
	}
}

func writeMessage(conn *websocket.Conn, mutex *sync.Mutex, data []byte) error {
	mutex.Lock()
	defer mutex.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
