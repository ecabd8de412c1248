package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/codec"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

type chanHandler struct {
	messages chan *models.ServerMessage
}

func newChanHandler() *chanHandler {
	return &chanHandler{messages: make(chan *models.ServerMessage, 16)}
}

func (h *chanHandler) Dispatch(ctx context.Context, msg *models.ServerMessage) {
	h.messages <- msg
}

func (h *chanHandler) next(t *testing.T) *models.ServerMessage {
	t.Helper()
	select {
	case msg := <-h.messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message dispatched")
		return nil
	}
}

type frameMetrics struct {
	mutex  sync.Mutex
	frames map[string]int
}

func (m *frameMetrics) RecordFrame(outcome string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.frames[outcome]++
}
func (m *frameMetrics) RecordControlMessage(string)                      {}
func (m *frameMetrics) RecordEvent(string, time.Duration)                {}
func (m *frameMetrics) RecordBuyAttempt(string, string)                  {}
func (m *frameMetrics) RecordSellAttempt(string, string)                 {}
func (m *frameMetrics) RecordRedisOperation(string, time.Duration, bool) {}
func (m *frameMetrics) RecordOrders(string, int)                         {}

func (m *frameMetrics) count(outcome string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.frames[outcome]
}

func heartbeatFrame(timestamp uint64) []byte {
	inner := protowire.AppendTag(nil, 1, protowire.VarintType)
	inner = protowire.AppendVarint(inner, timestamp)
	outer := protowire.AppendTag(nil, 4, protowire.BytesType)
	outer = protowire.AppendBytes(outer, inner)
	return codec.AppendFrame(nil, outer)
}

// malformedFrame declares a five byte event but carries one
func malformedFrame() []byte {
	return codec.AppendFrame(nil, []byte{0x12, 0x05, 0x01})
}

func runClient(t *testing.T, client *Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("client did not stop")
		}
	})
}

func testConfig(endpoint string) Config {
	config := DefaultConfig(endpoint)
	config.ReconnectDelay = 10 * time.Millisecond
	config.MaxReconnectDelay = 40 * time.Millisecond
	return config
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		network  string
		address  string
		wantErr  bool
	}{
		{"unix:///tmp/events.sock", "unix", "/tmp/events.sock", false},
		{"tcp://127.0.0.1:9000", "tcp", "127.0.0.1:9000", false},
		{"unix://", "", "", true},
		{"tcp://", "", "", true},
		{"udp://127.0.0.1:9000", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			network, address, err := parseEndpoint(tt.endpoint)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.network, network)
			assert.Equal(t, tt.address, address)
		})
	}
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(DefaultConfig("tcp://127.0.0.1:1"), nil, nil)
	assert.Error(t, err)
	_, err = NewClient(DefaultConfig("bogus"), newChanHandler(), nil)
	assert.Error(t, err)
}

func TestClientReassemblesChunkedFrames(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	var stream []byte
	stream = append(stream, heartbeatFrame(1)...)
	stream = append(stream, malformedFrame()...)
	stream = append(stream, heartbeatFrame(1<<60)...)

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		// one byte per write to force partial reads
		for _, b := range stream {
			if _, err := conn.Write([]byte{b}); err != nil {
				return
			}
		}
		time.Sleep(time.Second)
	}()

	handler := newChanHandler()
	metrics := &frameMetrics{frames: map[string]int{}}
	client, err := NewClient(testConfig("tcp://"+listener.Addr().String()), handler, metrics)
	require.NoError(t, err)
	runClient(t, client)

	first := handler.next(t)
	require.NotNil(t, first.Heartbeat)
	assert.Equal(t, uint64(1), first.Heartbeat.Timestamp)

	second := handler.next(t)
	require.NotNil(t, second.Heartbeat)
	assert.Equal(t, uint64(1<<60), second.Heartbeat.Timestamp)

	assert.Equal(t, 2, metrics.count(FrameOK))
	assert.Equal(t, 1, metrics.count(FrameMalformed))
	assert.Equal(t, uint64(1), client.GetStats()["malformed_frames"])
}

func TestClientReconnectsAfterOversizedPrefix(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		first, err := listener.Accept()
		if err != nil {
			return
		}
		corrupt := binary.BigEndian.AppendUint32(nil, codec.MaxFrameSize+1)
		first.Write(append(corrupt, heartbeatFrame(7)...))

		second, err := listener.Accept()
		if err != nil {
			first.Close()
			return
		}
		defer second.Close()
		second.Write(heartbeatFrame(8))
		time.Sleep(time.Second)
		first.Close()
	}()

	handler := newChanHandler()
	metrics := &frameMetrics{frames: map[string]int{}}
	client, err := NewClient(testConfig("tcp://"+listener.Addr().String()), handler, metrics)
	require.NoError(t, err)
	runClient(t, client)

	msg := handler.next(t)
	require.NotNil(t, msg.Heartbeat)
	assert.Equal(t, uint64(8), msg.Heartbeat.Timestamp, "bytes after a corrupt prefix are discarded")
	assert.Equal(t, 1, metrics.count(FrameOversized))
	assert.GreaterOrEqual(t, client.GetStats()["reconnects"], uint64(1))
}

func TestClientRetriesDialWithBackoff(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write(heartbeatFrame(3))
		time.Sleep(time.Second)
	}()

	handler := newChanHandler()
	client, err := NewClient(testConfig("tcp://"+listener.Addr().String()), handler, nil)
	require.NoError(t, err)

	var attempts int32
	realDial := client.dial
	client.dial = func(ctx context.Context, network, address string) (net.Conn, error) {
		if atomic.AddInt32(&attempts, 1) <= 2 {
			return nil, errors.New("connection refused")
		}
		return realDial(ctx, network, address)
	}
	runClient(t, client)

	msg := handler.next(t)
	require.NotNil(t, msg.Heartbeat)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestClientOverUnixSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.sock")
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write(heartbeatFrame(42))
		time.Sleep(time.Second)
	}()

	handler := newChanHandler()
	client, err := NewClient(testConfig("unix://"+path), handler, nil)
	require.NoError(t, err)
	runClient(t, client)

	msg := handler.next(t)
	require.NotNil(t, msg.Heartbeat)
	assert.Equal(t, uint64(42), msg.Heartbeat.Timestamp)
	assert.Eventually(t, client.Connected, time.Second, 5*time.Millisecond)
}

func TestRunReturnsOnCancel(t *testing.T) {
	client, err := NewClient(testConfig("tcp://127.0.0.1:1"), newChanHandler(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNextDelay(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextDelay(time.Second, 30*time.Second))
	assert.Equal(t, 30*time.Second, nextDelay(20*time.Second, 30*time.Second))
}
