package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/pkg/models"
	"github.com/OldStager01/pool-occupancy/pkg/validation"
)

// SnapshotFunc returns the current summary of a week, sent to a client as soon as
// it subscribes.
type SnapshotFunc func(ctx context.Context, weekID string) (*models.WeekSummary, error)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	snapshot SnapshotFunc
	weekID   string
	mu       sync.RWMutex
	sendMu   sync.Mutex
	closed   bool
}

type IncomingMessage struct {
	Type   string `json:"type"`
	WeekID string `json:"week_id,omitempty"`
}

func NewClient(hub *Hub, conn *websocket.Conn, weekID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.settings.ClientBuffer),
		weekID: weekID,
	}
}

func (c *Client) WeekID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.weekID
}

func (c *Client) setWeekID(weekID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.weekID
	c.weekID = weekID
	return old
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	s := c.hub.settings
	c.conn.SetReadLimit(s.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(s.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(s.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("malformed message")
			continue
		}
		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	s := c.hub.settings
	ticker := time.NewTicker(s.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame keeps clients free of framing logic.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case "subscribe":
		weekID := validation.SanitizeString(msg.WeekID)
		if err := validation.ValidateWeekID(weekID); err != nil {
			c.sendError(err.Error())
			return
		}
		c.setWeekID(weekID)
		logger.WithWeek(weekID).Info("Client subscribed")
		c.queue(NewSubscriptionMessage("subscribed", weekID).JSON())
		c.sendSnapshot(weekID)
	case "unsubscribe":
		old := c.setWeekID("")
		logger.WithWeek(old).Info("Client unsubscribed")
		c.queue(NewSubscriptionMessage("unsubscribed", old).JSON())
	case "ping":
		c.queue(NewMessage(MessageTypePong, c.WeekID(), nil).JSON())
	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}

func (c *Client) sendSnapshot(weekID string) {
	if c.snapshot == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary, err := c.snapshot(ctx, weekID)
	if err != nil {
		logger.WithWeek(weekID).Warnf("Failed to load snapshot: %v", err)
		c.sendError("failed to load week")
		return
	}
	c.queue(NewMessage(MessageTypeSummary, weekID, summary).JSON())
}

func (c *Client) sendError(reason string) {
	c.queue(NewMessage(MessageTypeError, c.WeekID(), ErrorData{Message: reason}).JSON())
}

func (c *Client) queue(data []byte) {
	if data == nil {
		return
	}
	if !c.trySend(data) {
		logger.Warn("Client send channel full, dropping message")
	}
}

// trySend never blocks. It fails when the buffer is full or the client was closed.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ServeWebSocket upgrades the request and subscribes the client to the week_id
// query parameter, if given.
func ServeWebSocket(hub *Hub, snapshot SnapshotFunc) gin.HandlerFunc {
	s := hub.settings
	upgrader := websocket.Upgrader{
		ReadBufferSize:  s.ReadBufferSize,
		WriteBufferSize: s.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(c *gin.Context) {
		weekID := c.Query("week_id")
		if weekID != "" {
			if err := validation.ValidateWeekID(weekID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		if hub.Full() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many websocket connections"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(hub, conn, weekID)
		client.snapshot = snapshot
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()

		if weekID != "" {
			client.sendSnapshot(weekID)
		}
	}
}
