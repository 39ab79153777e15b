package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"go-photo-gallery/internal/logging"
)

const writeWait = 5 * time.Second

// EventType names a backup pipeline event pushed to admin clients.
type EventType string

const (
	SnapshotWritten EventType = "snapshot_written"
	SyncSucceeded   EventType = "sync_succeeded"
	SyncFailed      EventType = "sync_failed"
	RestoreFinished EventType = "restore_finished"
)

// Event is one message on the status feed.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Client is one connected admin session.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Manager tracks connected clients and fans events out to all of them.
type Manager struct {
	clients    map[*Client]struct{}
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once
	upgrader   websocket.Upgrader
}

func NewManager() *Manager {
	m := &Manager{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	go m.run()
	return m
}

func (m *Manager) run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = struct{}{}
			m.mu.Unlock()
		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				client.conn.Close()
			}
			m.mu.Unlock()
		case <-m.done:
			m.mu.Lock()
			for client := range m.clients {
				client.conn.Close()
				delete(m.clients, client)
			}
			m.mu.Unlock()
			return
		}
	}
}

// Close disconnects every client and stops the manager.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Serve upgrades the request and keeps the connection registered until the
// peer goes away. Messages from the client are ignored.
func (m *Manager) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	client := &Client{conn: conn}

	select {
	case m.register <- client:
	case <-m.done:
		conn.Close()
		return nil
	}
	defer func() {
		select {
		case m.unregister <- client:
		case <-m.done:
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// Publish sends an event to every connected client. Slow or broken clients
// are dropped.
func (m *Manager) Publish(eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: EventType(eventType), Timestamp: time.Now().UTC(), Data: data})
	if err != nil {
		logging.With("websocket").Error().Err(err).Msg("failed to encode event")
		return
	}

	m.mu.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for client := range m.clients {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	for _, client := range clients {
		if err := client.write(payload); err != nil {
			logging.With("websocket").Debug().Err(err).Msg("dropping client")
			go func(c *Client) {
				select {
				case m.unregister <- c:
				case <-m.done:
				}
			}(client)
		}
	}
}
