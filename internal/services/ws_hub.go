package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"moodsync/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// PongWait is how long a listener may stay silent before its read fails
	PongWait = 60 * time.Second

	writeWait  = 10 * time.Second
	pingPeriod = (PongWait * 9) / 10
	sendBuffer = 16
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// listener owns one connection; only its writer goroutine writes to conn
type listener struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub fans stored check-ins out to every live history view.
// Broadcast never waits on a connection: a listener whose buffer is full
// is dropped.
type Hub struct {
	mu         sync.RWMutex
	nextID     int
	listeners  map[int]*listener
	writeWait  time.Duration
	pingPeriod time.Duration
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		listeners:  make(map[int]*listener),
		writeWait:  writeWait,
		pingPeriod: pingPeriod,
	}
}

// Register adds a listener, starts its writer and returns its handle for Unregister
func (h *Hub) Register(conn *websocket.Conn) int {
	l := &listener{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners[id] = l
	h.mu.Unlock()

	go h.writePump(id, l)

	log.Debug().Int("listener", id).Msg("WebSocket listener registered")
	return id
}

// Unregister closes and removes a listener
func (h *Hub) Unregister(id int) {
	h.mu.Lock()
	l, exists := h.listeners[id]
	delete(h.listeners, id)
	h.mu.Unlock()

	if exists {
		close(l.done)
		l.conn.Close()
		log.Debug().Int("listener", id).Msg("WebSocket listener unregistered")
	}
}

// Count returns the number of live listeners
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Broadcast queues a message for all listeners, dropping the ones that
// cannot keep up
func (h *Hub) Broadcast(message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	var slow []int
	h.mu.RLock()
	for id, l := range h.listeners {
		select {
		case l.send <- data:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		log.Warn().Int("listener", id).Msg("Dropping slow WebSocket listener")
		h.Unregister(id)
	}
	return nil
}

// NotifyCheckInCreated announces a stored check-in
func (h *Hub) NotifyCheckInCreated(c *models.CheckIn) error {
	return h.Broadcast(WSMessage{Type: "checkin_created", Data: c})
}

func (h *Hub) writePump(id int, l *listener) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-l.send:
			l.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := l.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Int("listener", id).Msg("Dropping WebSocket listener")
				h.Unregister(id)
				return
			}
		case <-ticker.C:
			l.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Unregister(id)
				return
			}
		case <-l.done:
			return
		}
	}
}
