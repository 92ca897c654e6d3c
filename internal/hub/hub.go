// Package hub provides connection management for run-watch WebSocket clients.
package hub

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

// Connection represents a single WebSocket watcher.
type Connection struct {
	ID    string
	RunID string
	Conn  *websocket.Conn
	Send  chan []byte
	hub   *Hub
}

// Hub manages all watcher connections, indexed by the run they watch.
type Hub struct {
	connections map[string]*Connection
	runs        map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *RunMessage

	mu sync.RWMutex
}

// RunMessage is used to broadcast a frame to every watcher of a run.
type RunMessage struct {
	RunID string
	Data  []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		runs:        make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *RunMessage, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if h.runs[conn.RunID] == nil {
				h.runs[conn.RunID] = make(map[string]bool)
			}
			h.runs[conn.RunID][conn.ID] = true
			h.mu.Unlock()
			log.Printf("INFO: watcher registered: %s (run: %s)", conn.ID, conn.RunID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				if h.runs[conn.RunID] != nil {
					delete(h.runs[conn.RunID], conn.ID)
					if len(h.runs[conn.RunID]) == 0 {
						delete(h.runs, conn.RunID)
					}
				}
				close(conn.Send)
			}
			h.mu.Unlock()
			log.Printf("INFO: watcher unregistered: %s", conn.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for connID := range h.runs[msg.RunID] {
				if conn, exists := h.connections[connID]; exists {
					select {
					case conn.Send <- msg.Data:
					default:
						// Buffer full, drop the watcher
						log.Printf("WARN: watcher %s buffer full, closing", connID)
						go h.Unregister(conn)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NewConnection creates a watcher connection for a run and registers it.
func (h *Hub) NewConnection(ws *websocket.Conn, runID string) *Connection {
	conn := &Connection{
		ID:    uuid.New().String(),
		RunID: runID,
		Conn:  ws,
		Send:  make(chan []byte, sendBuffer),
		hub:   h,
	}
	h.register <- conn
	return conn
}

// Unregister removes a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToRun sends a frame to every watcher of the given run.
func (h *Hub) BroadcastToRun(runID string, data []byte) {
	h.broadcast <- &RunMessage{RunID: runID, Data: data}
}

// WatcherCount reports how many connections are watching a run.
func (h *Hub) WatcherCount(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.runs[runID])
}

// WritePump pumps frames from the hub to the WebSocket connection. Runs until
// the Send channel closes or a write fails.
func (c *Connection) WritePump() {
	defer c.Conn.Close()
	for data := range c.Send {
		c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
