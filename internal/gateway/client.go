package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/zor/internal/logging"
)

// ErrClientClosed is returned when sending to a closed subscriber.
var ErrClientClosed = errors.New("client connection closed")

const writeWait = 5 * time.Second

// Client is a subscriber on the admin event stream.
type Client struct {
	ConnID      string
	RemoteAddr  string
	Socket      *websocket.Conn
	ConnectedAt time.Time

	mu     sync.Mutex
	closed bool
	log    *logging.Logger
}

// NewClient wraps an upgraded WebSocket connection.
func NewClient(conn *websocket.Conn, remoteAddr string, log *logging.Logger) *Client {
	return &Client{
		ConnID:      uuid.New().String(),
		RemoteAddr:  remoteAddr,
		Socket:      conn,
		ConnectedAt: time.Now(),
		log:         log,
	}
}

// Send sends a frame to the client. Thread-safe.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Socket.WriteJSON(frame)
}

// SendEvent sends a named event with payload.
func (c *Client) SendEvent(event string, payload any, seq int64) error {
	f, err := NewEvent(event, payload, seq)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.Socket.Close()
}

// ClientRegistry manages connected subscribers.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client // connID → Client
	log     *logging.Logger
}

// NewClientRegistry creates an empty client registry.
func NewClientRegistry(log *logging.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Add registers a connected client.
func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ConnID] = c
	r.log.Info().Str("connId", c.ConnID).Str("remote", c.RemoteAddr).Msg("event subscriber connected")
}

// Remove unregisters a client by connection ID.
func (r *ClientRegistry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, connID)
	r.log.Info().Str("connId", connID).Msg("event subscriber disconnected")
}

// Count returns the number of connected clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast sends an event frame to all connected clients.
func (r *ClientRegistry) Broadcast(event string, payload any, seq int64) {
	f, err := NewEvent(event, payload, seq)
	if err != nil {
		r.log.Warn().Err(err).Str("event", event).Msg("encoding broadcast failed")
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if err := c.Send(f); err != nil {
			r.log.Warn().Err(err).Str("connId", c.ConnID).Msg("broadcast send failed")
		}
	}
}

// CloseAll closes all connected clients.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		c.Close()
		delete(r.clients, id)
	}
}
