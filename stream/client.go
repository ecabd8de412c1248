package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/codec"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// Frame outcomes recorded in metrics
const (
	FrameOK        = "ok"
	FrameMalformed = "malformed"
	FrameOversized = "oversized"
)

// Handler receives every decoded top-level message in arrival order
type Handler interface {
	Dispatch(ctx context.Context, msg *models.ServerMessage)
}

// Config holds stream client settings
type Config struct {
	// Endpoint is unix:///path/to.sock or tcp://host:port
	Endpoint string
	// ReconnectDelay is the initial delay before a reconnect attempt
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential backoff
	MaxReconnectDelay time.Duration
	// ReadBufferSize is the size of a single socket read
	ReadBufferSize int
}

// DefaultConfig returns settings for endpoint with 1s..30s backoff
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:          endpoint,
		ReconnectDelay:    time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadBufferSize:    64 * 1024,
	}
}

// Client reads length-prefixed frames from the event socket and hands decoded
// messages to a Handler. Frames are decoded and dispatched on the Run goroutine.
type Client struct {
	config  Config
	network string
	address string
	handler Handler
	metrics interfaces.MetricsRecorder
	dial    func(ctx context.Context, network, address string) (net.Conn, error)

	mutex sync.Mutex
	conn  net.Conn

	frames     uint64
	malformed  uint64
	reconnects uint64

	logger      *logging.Logger
	categorizer *logging.ErrorCategorizer
}

// NewClient validates the endpoint. metrics may be nil.
func NewClient(config Config, handler Handler, metrics interfaces.MetricsRecorder) (*Client, error) {
	if handler == nil {
		return nil, fmt.Errorf("stream handler cannot be nil")
	}
	network, address, err := parseEndpoint(config.Endpoint)
	if err != nil {
		return nil, err
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = time.Second
	}
	if config.MaxReconnectDelay < config.ReconnectDelay {
		config.MaxReconnectDelay = config.ReconnectDelay
	}
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = 64 * 1024
	}

	logger := logging.NewLogger("trading-service", "stream")
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &Client{
		config:      config,
		network:     network,
		address:     address,
		handler:     handler,
		metrics:     metrics,
		dial:        dialer.DialContext,
		logger:      logger,
		categorizer: logging.NewErrorCategorizer(logger),
	}, nil
}

func parseEndpoint(endpoint string) (string, string, error) {
	switch {
	case strings.HasPrefix(endpoint, "unix://"):
		if path := strings.TrimPrefix(endpoint, "unix://"); path != "" {
			return "unix", path, nil
		}
	case strings.HasPrefix(endpoint, "tcp://"):
		if addr := strings.TrimPrefix(endpoint, "tcp://"); addr != "" {
			return "tcp", addr, nil
		}
	}
	return "", "", fmt.Errorf("invalid stream endpoint %q", endpoint)
}

// Run connects and reads until ctx is cancelled, reconnecting with
// exponential backoff. It returns nil on cancellation.
func (c *Client) Run(ctx context.Context) error {
	delay := c.config.ReconnectDelay

	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := c.dial(ctx, c.network, c.address)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.categorizer.Report(err, "stream", "connect", map[string]interface{}{
				"endpoint": c.config.Endpoint,
				"retry_in": delay.String(),
			})
			if !c.wait(ctx, delay) {
				return nil
			}
			delay = nextDelay(delay, c.config.MaxReconnectDelay)
			continue
		}

		c.logger.SystemEvent("stream_connected", map[string]interface{}{"endpoint": c.config.Endpoint})
		delay = c.config.ReconnectDelay

		err = c.readLoop(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		atomic.AddUint64(&c.reconnects, 1)
		c.categorizer.Report(err, "stream", "read", map[string]interface{}{"endpoint": c.config.Endpoint})
		if !c.wait(ctx, delay) {
			return nil
		}
	}
}

// readLoop owns conn until it fails or ctx ends
func (c *Client) readLoop(ctx context.Context, conn net.Conn) error {
	c.setConn(conn)
	defer c.setConn(nil)
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	decoder := codec.NewFrameDecoder()
	buf := make([]byte, c.config.ReadBufferSize)

	for {
		n, readErr := conn.Read(buf)
		if n > 0 {
			decoder.Feed(buf[:n])
			if err := c.drain(ctx, decoder); err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return fmt.Errorf("stream closed by peer: %w", readErr)
			}
			return readErr
		}
	}
}

// drain dispatches every complete frame. A malformed payload is dropped; an
// oversized prefix means the stream is out of sync and is returned.
func (c *Client) drain(ctx context.Context, decoder *codec.FrameDecoder) error {
	for {
		payload, ok, err := decoder.Next()
		if err != nil {
			c.recordFrame(FrameOversized)
			return err
		}
		if !ok {
			return nil
		}

		msg, err := codec.DecodeFrame(payload)
		if err != nil {
			atomic.AddUint64(&c.malformed, 1)
			c.recordFrame(FrameMalformed)
			c.categorizer.Report(err, "codec", "decode_frame", map[string]interface{}{"size": len(payload)})
			continue
		}

		atomic.AddUint64(&c.frames, 1)
		c.recordFrame(FrameOK)
		c.handler.Dispatch(ctx, msg)
	}
}

// Close drops the current connection; Run reconnects unless its ctx is done
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Connected reports whether a connection is currently open
func (c *Client) Connected() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.conn != nil
}

// GetStats returns stream counters
func (c *Client) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"endpoint":         c.config.Endpoint,
		"connected":        c.Connected(),
		"frames":           atomic.LoadUint64(&c.frames),
		"malformed_frames": atomic.LoadUint64(&c.malformed),
		"reconnects":       atomic.LoadUint64(&c.reconnects),
	}
}

func (c *Client) setConn(conn net.Conn) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.conn = conn
}

func (c *Client) recordFrame(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordFrame(outcome)
	}
}

func (c *Client) wait(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextDelay(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
