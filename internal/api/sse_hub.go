package api

import (
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"resultsdash/internal"
)

// Event types streamed to the browser
const (
	EventMap     = "map"
	EventHistory = "history"
	EventState   = "state"
)

const keepAlive = 30 * time.Second

// SSEClient represents a connected SSE client
type SSEClient struct {
	SessionID string
	Channel   chan DashboardEvent
}

// DashboardEvent is one server to browser message. Seq increases across the hub, so a client can
// tell the order events were broadcast in.
type DashboardEvent struct {
	SessionID string                 `json:"session_id"`
	EventType string                 `json:"event_type"`
	Seq       uint64                 `json:"seq"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// SSEHub fans dashboard events out to the browser tabs of each session
type SSEHub struct {
	clients    map[string]map[chan DashboardEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan DashboardEvent
	done       chan struct{}
	closeOnce  sync.Once
	seq        atomic.Uint64
	log        *internal.Logger
}

// NewSSEHub creates a new SSE hub
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &SSEHub{
		clients:    make(map[string]map[chan DashboardEvent]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan DashboardEvent, 256),
		done:       make(chan struct{}),
		log:        logger.With("sse"),
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.SessionID] == nil {
				h.clients[client.SessionID] = make(map[chan DashboardEvent]bool)
			}
			h.clients[client.SessionID][client.Channel] = true
			h.log.Debug("client registered for session %s (total clients: %d)",
				client.SessionID, len(h.clients[client.SessionID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.SessionID]; exists {
				delete(clients, client.Channel)
				h.log.Debug("client unregistered from session %s (remaining clients: %d)",
					client.SessionID, len(clients))
				if len(clients) == 0 {
					delete(h.clients, client.SessionID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.SessionID] {
				select {
				case clientChan <- event:
				default:
					h.log.Warn("client channel full for session %s, skipping %s event",
						event.SessionID, event.EventType)
				}
			}
			h.clientsMu.RUnlock()

		case <-h.done:
			return
		}
	}
}

// Broadcast sends an event to all clients listening to a session
func (h *SSEHub) Broadcast(sessionID, eventType string, data map[string]interface{}) {
	event := DashboardEvent{
		SessionID: sessionID,
		EventType: eventType,
		Seq:       h.seq.Add(1),
		Data:      data,
		Timestamp: time.Now(),
	}
	select {
	case h.broadcast <- event:
	case <-h.done:
	default:
		h.log.Warn("broadcast channel full, dropping %s event", eventType)
	}
}

// Close stops the hub. Open streams end on their next event or keep-alive.
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// HandleSSE streams a session's events. The session comes from the session_id query parameter or
// the value a preceding handler stored under "session_id".
func (h *SSEHub) HandleSSE(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = c.GetString("session_id")
	}
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id parameter required"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientChan := make(chan DashboardEvent, 32)

	select {
	case h.register <- SSEClient{SessionID: sessionID, Channel: clientChan}:
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SSE hub registration failed"})
		return
	}

	defer func() {
		select {
		case h.unregister <- SSEClient{SessionID: sessionID, Channel: clientChan}:
		case <-h.done:
		}
	}()

	// an initial comment lets the browser know the stream is open
	c.Writer.WriteString(": connected\n\n")
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-clientChan:
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.log.Error("failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.EventType, string(eventJSON))
			return true

		case <-time.After(keepAlive):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false

		case <-h.done:
			return false
		}
	})
}

// GetActiveSessions returns sessions with active SSE clients
func (h *SSEHub) GetActiveSessions() []string {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	sessions := make([]string, 0, len(h.clients))
	for sessionID := range h.clients {
		sessions = append(sessions, sessionID)
	}
	return sessions
}

// GetClientCount returns the number of active clients for a session
func (h *SSEHub) GetClientCount(sessionID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[sessionID])
}

// Engine returns a gin engine serving the hub at /events, behind the given middleware
func (h *SSEHub) Engine(mode string, middleware ...gin.HandlerFunc) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.Use(middleware...)
	engine.GET("/events", h.HandleSSE)
	return engine
}
