package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"InmoCRM/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

// InboxEvent is pushed to every connected CRM client when the webhook
// persists a new inbound message.
type InboxEvent struct {
	Type           string `json:"type"` // "message"
	ConversationID uint   `json:"conversation_id"`
	Phone          string `json:"phone"`
	ContactName    string `json:"contact_name"`
	Content        string `json:"content"`
	Direction      string `json:"direction"`
	Timestamp      int64  `json:"timestamp"`
}

// InboxHub fans inbox events out to connected websocket clients. Slow
// clients get dropped instead of blocking the webhook path.
type InboxHub struct {
	mu      sync.RWMutex
	clients map[string]chan []byte
}

func NewInboxHub() *InboxHub {
	return &InboxHub{clients: make(map[string]chan []byte)}
}

func (h *InboxHub) add(id string, ch chan []byte) {
	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()
}

func (h *InboxHub) remove(id string) {
	h.mu.Lock()
	if ch, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(ch)
	}
	h.mu.Unlock()
}

// Broadcast sends an event to all clients without blocking the caller.
func (h *InboxHub) Broadcast(ev InboxEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[ws] marshal event: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.clients {
		select {
		case ch <- data:
		default:
			log.Printf("[ws] client %s too slow, skipping event", id)
		}
	}
}

// ClientCount reports connected clients, used by tests and the health route.
func (h *InboxHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// InboxWS upgrades an authenticated connection and streams inbox events.
// Auth rides on ?token=JWT because browsers cannot set headers on websocket
// handshakes.
func InboxWS(hub *InboxHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := strings.TrimSpace(c.Query("token"))
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "missing token query"})
			return
		}
		if _, _, err := middleware.ParseToken(tokenStr); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": err.Error()})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade error: %v", err)
			return
		}

		id := uuid.NewString()
		send := make(chan []byte, 32)
		hub.add(id, send)
		log.Printf("[ws] client %s connected", id)

		// writer: events + keepalive pings
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			defer conn.Close()
			for {
				select {
				case data, ok := <-send:
					if !ok {
						_ = conn.WriteMessage(websocket.CloseMessage, nil)
						return
					}
					if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
						return
					}
				case <-ticker.C:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
						return
					}
				}
			}
		}()

		// reader: only pongs and close frames are expected
		conn.SetReadLimit(1 << 16)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		hub.remove(id)
		log.Printf("[ws] client %s disconnected", id)
	}
}
