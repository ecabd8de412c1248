package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP requests and pumps messages between clients and the hub
type Handler struct {
	hub    *Hub
	logger *logging.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub:    hub,
		logger: logging.NewLogger("trading-service", "websocket-handler"),
	}
}

// HandleWebSocket handles WebSocket connection upgrades
func (h *Handler) HandleWebSocket(c *gin.Context) {
	if !h.hub.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "websocket hub is not running"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	client := &Client{
		ID:       uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		channels: make(map[string]bool),
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)

	h.logger.Info("Client connected", map[string]interface{}{
		"client_id":   client.ID,
		"remote_addr": c.Request.RemoteAddr,
	})
}

// readPump reads subscription requests until the connection fails
func (h *Handler) readPump(client *Client) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic in readPump", map[string]interface{}{
				"client_id": client.ID,
				"panic":     r,
			})
		}
		h.cleanupClient(client)
		h.logger.Info("Client disconnected", map[string]interface{}{"client_id": client.ID})
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket unexpected close", map[string]interface{}{
					"client_id": client.ID,
					"error":     err.Error(),
				})
			}
			return
		}
		h.handleSubscriptionMessage(client, message)
	}
}

// writePump writes hub messages and keepalive pings to the connection
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the hub closed the channel
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug("Failed to write message", map[string]interface{}{
					"client_id": client.ID,
					"error":     err.Error(),
				})
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleSubscriptionMessage processes subscribe and unsubscribe requests.
// Channels are "orders" or "orders:<mint>".
func (h *Handler) handleSubscriptionMessage(client *Client, message []byte) {
	var subMsg SubscriptionMessage
	if err := json.Unmarshal(message, &subMsg); err != nil {
		h.sendError(client, "Invalid message format")
		return
	}
	if subMsg.Type == "" {
		h.sendError(client, "Message type is required")
		return
	}
	if !validChannel(subMsg.Channel) {
		h.sendError(client, "Unknown channel")
		return
	}

	switch subMsg.Type {
	case "subscribe":
		if !h.hub.subscribe(client, subMsg.Channel) {
			return
		}
		h.confirm(client, subMsg.Channel, "subscribed")
	case "unsubscribe":
		h.hub.unsubscribe(client, subMsg.Channel)
		h.confirm(client, subMsg.Channel, "unsubscribed")
	default:
		h.sendError(client, "Unknown message type")
	}
}

func validChannel(channel string) bool {
	if channel == ChannelOrders {
		return true
	}
	return strings.HasPrefix(channel, mintChannelPrefix) && len(channel) > len(mintChannelPrefix)
}

func (h *Handler) confirm(client *Client, channel, status string) {
	payload := newMessage("subscription_confirmed", channel, map[string]string{
		"status":  status,
		"channel": channel,
	})
	if !h.hub.reply(client, payload) {
		h.cleanupClient(client)
	}
}

func (h *Handler) sendError(client *Client, errorMsg string) {
	payload := newMessage("error", "", map[string]string{"error": errorMsg})
	if !h.hub.reply(client, payload) {
		h.cleanupClient(client)
	}
}

// cleanupClient queues the client for removal and closes its connection
func (h *Handler) cleanupClient(client *Client) {
	select {
	case h.hub.unregister <- client:
	default:
		h.logger.Warn("Hub unregister queue full", map[string]interface{}{"client_id": client.ID})
	}
	client.conn.Close()
}
