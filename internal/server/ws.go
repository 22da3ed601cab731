package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jhendrix/echo/internal/app"
	"github.com/jhendrix/echo/internal/detector"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler pushes accepted arrows to WebSocket clients. It is
// event-driven off the detection listener rather than polling the
// camera itself.
type EventsHandler struct {
	app     *app.App
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	events  chan detector.Detection
}

// NewEventsHandler creates a new EventsHandler and registers it as a
// detection listener on the given app.
func NewEventsHandler(a *app.App) *EventsHandler {
	h := &EventsHandler{
		app:     a,
		clients: make(map[*websocket.Conn]bool),
		events:  make(chan detector.Detection, 16),
	}
	a.OnDetection(h.enqueue)
	go h.writeLoop()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// enqueue hands a detection to the writer goroutine. Detection cycles
// can overlap (poller tick and POST /api/detect); a full queue drops
// the event, which the polling endpoints still expose.
func (h *EventsHandler) enqueue(det detector.Detection) {
	select {
	case h.events <- det:
	default:
	}
}

// writeLoop is the only goroutine that writes to client connections;
// a websocket connection supports at most one concurrent writer.
func (h *EventsHandler) writeLoop() {
	for det := range h.events {
		h.broadcast(det)
	}
}

// broadcast sends a detection result to all connected clients.
func (h *EventsHandler) broadcast(det detector.Detection) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(map[string]any{
		"new_arrows":   det.Accepted,
		"total_arrows": det.Total,
		"timestamp":    time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	for conn := range h.clients {
		conn.WriteMessage(websocket.TextMessage, msg)
	}
}
