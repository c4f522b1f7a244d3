package websocket

import (
	"sync"

	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/internal/metrics"
	"github.com/OldStager01/pool-occupancy/pkg/config"
)

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	settings   Settings
	metrics    *metrics.Metrics
}

func NewHub(cfg *config.WebSocketConfig, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, defaultBroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		settings:   NewSettings(cfg),
		metrics:    m,
	}
}

func (h *Hub) Settings() Settings {
	return h.settings
}

// Run serves registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
			h.metrics.SetWebSocketClients(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetWebSocketClients(count)
			logger.Infof("WebSocket client connected (total: %d)", count)

		case client := <-h.unregister:
			h.remove(client)
			logger.Infof("WebSocket client disconnected (total: %d)", h.ClientCount())

		case message := <-h.broadcast:
			h.deliver(message, func(*Client) bool { return true })
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closeSend()
	}
	count := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetWebSocketClients(count)
}

// deliver sends message to every matching client. Clients that cannot keep up
// are dropped rather than stalling the hub.
func (h *Hub) deliver(message []byte, match func(*Client) bool) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.clients {
		if !match(client) {
			continue
		}
		if !client.trySend(message) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		logger.WithWeek(client.WeekID()).Warn("WebSocket client too slow, disconnecting")
		h.remove(client)
	}
}

func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

// BroadcastToWeek sends message only to clients subscribed to weekID.
func (h *Hub) BroadcastToWeek(weekID string, message []byte) {
	h.deliver(message, func(c *Client) bool { return c.WeekID() == weekID })
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Full reports whether the connection limit has been reached.
func (h *Hub) Full() bool {
	return h.settings.MaxConnections > 0 && h.ClientCount() >= h.settings.MaxConnections
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.closeSend()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
