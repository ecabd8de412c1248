package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

const (
	// ChannelOrders receives every order lifecycle event
	ChannelOrders = "orders"

	// mint channels are "orders:<mint>"
	mintChannelPrefix = "orders:"

	sendBufferSize = 256
)

// MintChannel returns the channel carrying events for one mint
func MintChannel(mint string) string {
	return mintChannelPrefix + mint
}

// Message is the envelope written to clients
type Message struct {
	Type      string      `json:"type"`
	Channel   string      `json:"channel,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionMessage is a client subscribe or unsubscribe request
type SubscriptionMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

func newMessage(msgType, channel string, data interface{}) []byte {
	payload, err := json.Marshal(&Message{
		Type:      msgType,
		Channel:   channel,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return nil
	}
	return payload
}

// Client is one websocket connection
type Client struct {
	ID       string
	conn     *websocket.Conn
	send     chan []byte
	channels map[string]bool
}

type broadcast struct {
	channels []string
	payload  []byte
}

// Hub tracks clients and their channel subscriptions and fans order events
// out to them. All membership changes go through the Run loop.
type Hub struct {
	clients       map[*Client]bool
	subscriptions map[string]map[*Client]bool
	mutex         sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcast

	running  atomic.Bool
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	logger   *logging.Logger
}

// NewHub creates a hub; call Run to start it
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client, sendBufferSize),
		broadcast:     make(chan broadcast, sendBufferSize),
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
		logger:        logging.NewLogger("trading-service", "websocket-hub"),
	}
}

// Run processes registrations and broadcasts until Shutdown
func (h *Hub) Run() {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case <-h.stopChan:
			h.logger.Info("WebSocket hub received stop signal")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mutex.Unlock()

	h.logger.Debug("Client registered", map[string]interface{}{
		"client_id":     client.ID,
		"total_clients": count,
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	if !h.clients[client] {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	for channel := range client.channels {
		h.removeSubscriber(channel, client)
	}
	count := len(h.clients)
	close(client.send)
	h.mutex.Unlock()

	h.logger.Debug("Client unregistered", map[string]interface{}{
		"client_id":     client.ID,
		"total_clients": count,
	})
}

// removeSubscriber requires h.mutex
func (h *Hub) removeSubscriber(channel string, client *Client) {
	subscribers := h.subscriptions[channel]
	if subscribers == nil {
		return
	}
	delete(subscribers, client)
	if len(subscribers) == 0 {
		delete(h.subscriptions, channel)
	}
}

func (h *Hub) subscribe(client *Client, channel string) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if !h.clients[client] {
		return false
	}
	client.channels[channel] = true
	if h.subscriptions[channel] == nil {
		h.subscriptions[channel] = make(map[*Client]bool)
	}
	h.subscriptions[channel][client] = true
	return true
}

func (h *Hub) unsubscribe(client *Client, channel string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(client.channels, channel)
	h.removeSubscriber(channel, client)
}

// deliver sends one payload to every subscriber of any of the channels.
// A client whose buffer is full is dropped.
func (h *Hub) deliver(msg broadcast) {
	h.mutex.RLock()
	targets := make(map[*Client]bool)
	for _, channel := range msg.channels {
		for client := range h.subscriptions[channel] {
			targets[client] = true
		}
	}
	h.mutex.RUnlock()

	for client := range targets {
		select {
		case client.send <- msg.payload:
		default:
			h.logger.Warn("Client send buffer full, removing client", map[string]interface{}{
				"client_id": client.ID,
			})
			h.unregisterClient(client)
		}
	}
}

// Publish broadcasts an order event to the orders channel and the mint's channel
func (h *Hub) Publish(ctx context.Context, event *models.OrderEvent) error {
	if event == nil {
		return fmt.Errorf("order event cannot be nil")
	}
	if !h.running.Load() {
		return fmt.Errorf("websocket hub is not running")
	}

	payload := newMessage(event.Type, ChannelOrders, event)
	if payload == nil {
		return fmt.Errorf("failed to marshal order event for %s", event.Mint)
	}

	msg := broadcast{
		channels: []string{ChannelOrders, MintChannel(event.Mint)},
		payload:  payload,
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("websocket broadcast queue full")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// GetChannelSubscriberCount returns the number of subscribers of channel
func (h *Hub) GetChannelSubscriberCount(channel string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subscriptions[channel])
}

// IsRunning reports whether the Run loop is active
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// GetHealthStatus returns the hub's health status
func (h *Hub) GetHealthStatus() map[string]interface{} {
	h.mutex.RLock()
	clientCount := len(h.clients)
	channelCount := len(h.subscriptions)
	totalSubscriptions := 0
	for _, subscribers := range h.subscriptions {
		totalSubscriptions += len(subscribers)
	}
	h.mutex.RUnlock()

	return map[string]interface{}{
		"running":             h.running.Load(),
		"client_count":        clientCount,
		"channel_count":       channelCount,
		"total_subscriptions": totalSubscriptions,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	}
}

// Shutdown stops the Run loop and disconnects every client
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() { close(h.stopChan) })
	if h.running.Load() {
		select {
		case <-h.done:
		case <-time.After(5 * time.Second):
			h.logger.Warn("Timeout waiting for hub to stop, forcing shutdown")
		}
	}

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.subscriptions = make(map[string]map[*Client]bool)
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn == nil {
			continue
		}
		client.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"),
			time.Now().Add(time.Second))
		client.conn.Close()
	}

	h.logger.Info("WebSocket hub shutdown complete", map[string]interface{}{
		"disconnected_clients": len(clients),
	})
}

// reply queues a payload for one client. It holds the read lock so the
// send channel cannot be closed underneath it.
func (h *Hub) reply(client *Client, payload []byte) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}
