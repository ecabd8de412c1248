package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

var _ interfaces.EventPublisher = (*Hub)(nil)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	deadline := time.Now().Add(time.Second)
	for !hub.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("hub did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Cleanup(hub.Shutdown)
	return hub
}

func startServer(t *testing.T, hub *Hub) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", NewHandler(hub).HandleWebSocket)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	return msg
}

func subscribe(t *testing.T, conn *websocket.Conn, channel string) {
	t.Helper()
	if err := conn.WriteJSON(SubscriptionMessage{Type: "subscribe", Channel: channel}); err != nil {
		t.Fatalf("Failed to send subscription message: %v", err)
	}
	response := readMessage(t, conn)
	if response.Type != "subscription_confirmed" || response.Channel != channel {
		t.Fatalf("Expected confirmation for %s, got %+v", channel, response)
	}
}

func TestWebSocketSubscription(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, startServer(t, hub))

	subscribe(t, conn, ChannelOrders)

	if hub.GetClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.GetClientCount())
	}
	if hub.GetChannelSubscriberCount(ChannelOrders) != 1 {
		t.Errorf("Expected 1 subscriber, got %d", hub.GetChannelSubscriberCount(ChannelOrders))
	}
}

func TestPublishReachesOrdersAndMintChannels(t *testing.T) {
	hub := startHub(t)
	url := startServer(t, hub)

	all := dial(t, url)
	subscribe(t, all, ChannelOrders)
	mint := dial(t, url)
	subscribe(t, mint, MintChannel("Mint111"))
	other := dial(t, url)
	subscribe(t, other, MintChannel("Mint222"))

	event := &models.OrderEvent{
		Type:      models.OrderEventSold,
		Mint:      "Mint111",
		Platform:  models.PlatformPumpFun,
		Status:    models.OrderStatusSold,
		Signature: "Sig111",
		Timestamp: time.Now(),
	}
	if err := hub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	for _, conn := range []*websocket.Conn{all, mint} {
		msg := readMessage(t, conn)
		if msg.Type != models.OrderEventSold {
			t.Errorf("Expected %s, got %s", models.OrderEventSold, msg.Type)
		}
		data, _ := json.Marshal(msg.Data)
		var decoded models.OrderEvent
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Failed to decode order event: %v", err)
		}
		if decoded.Mint != "Mint111" || decoded.Signature != "Sig111" {
			t.Errorf("Unexpected order event: %+v", decoded)
		}
	}

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Error("Subscriber of another mint should not receive the event")
	}
}

func TestInvalidRequestsGetErrors(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, startServer(t, hub))

	requests := []string{
		`not json`,
		`{"channel": "orders"}`,
		`{"type": "subscribe", "channel": "trades"}`,
		`{"type": "subscribe", "channel": "orders:"}`,
		`{"type": "ping", "channel": "orders"}`,
	}
	for _, request := range requests {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(request)); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
		if msg := readMessage(t, conn); msg.Type != "error" {
			t.Errorf("Expected error for %s, got %s", request, msg.Type)
		}
	}
	if hub.GetChannelSubscriberCount(ChannelOrders) != 0 {
		t.Error("Invalid requests must not subscribe")
	}
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, startServer(t, hub))

	subscribe(t, conn, MintChannel("Mint111"))
	if err := conn.WriteJSON(SubscriptionMessage{Type: "unsubscribe", Channel: MintChannel("Mint111")}); err != nil {
		t.Fatalf("Failed to send unsubscribe: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != "subscription_confirmed" {
		t.Errorf("Expected confirmation, got %s", msg.Type)
	}
	if hub.GetChannelSubscriberCount(MintChannel("Mint111")) != 0 {
		t.Error("Client should not be subscribed after unsubscribe")
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected 0 clients, got %d", hub.GetClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := startHub(t)
	client := &Client{ID: "slow", send: make(chan []byte, 1), channels: make(map[string]bool)}
	hub.register <- client
	for hub.GetClientCount() != 1 {
		time.Sleep(5 * time.Millisecond)
	}
	if !hub.subscribe(client, ChannelOrders) {
		t.Fatal("Expected subscribe to succeed")
	}

	hub.deliver(broadcast{channels: []string{ChannelOrders}, payload: []byte("a")})
	hub.deliver(broadcast{channels: []string{ChannelOrders}, payload: []byte("b")})

	if hub.GetClientCount() != 0 {
		t.Errorf("Expected slow client to be removed, got %d clients", hub.GetClientCount())
	}
	if <-client.send == nil {
		t.Error("Expected the first payload to be buffered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed")
	}
}

func TestPublishRequiresRunningHub(t *testing.T) {
	hub := NewHub()
	if err := hub.Publish(context.Background(), &models.OrderEvent{Mint: "M"}); err == nil {
		t.Error("Expected error before Run")
	}
	if err := hub.Publish(context.Background(), nil); err == nil {
		t.Error("Expected error for nil event")
	}
}

func TestHandlerRejectsWhenHubStopped(t *testing.T) {
	hub := NewHub()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", NewHandler(hub).HandleWebSocket)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if recorder.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", recorder.Code)
	}
}

func TestHealthStatus(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, startServer(t, hub))
	subscribe(t, conn, ChannelOrders)
	subscribe(t, conn, MintChannel("Mint111"))

	status := hub.GetHealthStatus()
	if status["running"] != true || status["client_count"] != 1 {
		t.Errorf("Unexpected status: %v", status)
	}
	if status["channel_count"] != 2 || status["total_subscriptions"] != 2 {
		t.Errorf("Unexpected subscription status: %v", status)
	}
}
