package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// MsgError is sent when the server cannot deliver an event
const MsgError MessageType = "error"

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Connection is one live client following a quiz session. A respondent may
// follow the same session from several tabs.
type Connection struct {
	SessionID string
	Send      chan []byte
	Hub       *Hub
}

// NewConnection creates a connection with a buffered send queue
func NewConnection(hub *Hub, sessionID string) *Connection {
	return &Connection{SessionID: sessionID, Send: make(chan []byte, 256), Hub: hub}
}

type envelope struct {
	sessionID string
	data      []byte
	close     bool
}

// Hub fans session events out to the connections following each session
type Hub struct {
	conns map[string]map[*Connection]struct{}
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan envelope
	done       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once

	logger *zap.Logger
}

// NewHub creates a hub and starts its dispatch loop
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan envelope, 256),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id := range h.conns {
				h.dropSession(id)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SessionID] == nil {
				h.conns[conn.SessionID] = make(map[*Connection]struct{})
			}
			h.conns[conn.SessionID][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("client connected", zap.String("session", conn.SessionID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.conns[conn.SessionID]; ok {
				if _, ok := set[conn]; ok {
					delete(set, conn)
					close(conn.Send)
					if len(set) == 0 {
						delete(h.conns, conn.SessionID)
					}
					h.logger.Debug("client disconnected", zap.String("session", conn.SessionID))
				}
			}
			h.mu.Unlock()

		case env := <-h.broadcast:
			if env.close {
				h.mu.Lock()
				h.dropSession(env.sessionID)
				h.mu.Unlock()
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[env.sessionID] {
				select {
				case conn.Send <- env.data:
				default:
					h.logger.Warn("client send buffer full, dropping event", zap.String("session", env.sessionID))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// dropSession closes every connection of a session; caller holds mu
func (h *Hub) dropSession(id string) {
	for conn := range h.conns[id] {
		close(conn.Send)
	}
	delete(h.conns, id)
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Notify sends an event to every client following a session (implements
// service.Notifier)
func (h *Hub) Notify(sessionID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode event payload", zap.String("type", msgType), zap.Error(err))
		data, _ = json.Marshal(map[string]string{"error": "event could not be encoded"})
		msgType = string(MsgError)
	}
	msg, _ := json.Marshal(&Message{Type: MessageType(msgType), Payload: data})
	h.send(envelope{sessionID: sessionID, data: msg})
}

// CloseSession disconnects every client of a finished session (implements
// service.Notifier)
func (h *Hub) CloseSession(sessionID string) {
	h.send(envelope{sessionID: sessionID, close: true})
}

// Connections returns how many clients follow a session
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionID])
}

// Stop closes all connections and ends the dispatch loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	<-h.stopped
}

func (h *Hub) send(env envelope) {
	select {
	case h.broadcast <- env:
	case <-h.done:
	}
}
