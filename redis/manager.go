package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// Key layout and expiries shared with other instances of the service
const (
	orderKeyPrefix     = "order:"
	globalBuyTimeKey   = "global_buy_time"
	recentBlockhashKey = "recent_blockhash"

	OrderTTL     = 24 * time.Hour
	BlockhashTTL = 60 * time.Second
)

var (
	// ErrOrderNotFound is returned when no order exists for a mint
	ErrOrderNotFound = errors.New("order not found")
	// ErrSnapshotNotFound is returned when no snapshot exists for a mint
	ErrSnapshotNotFound = errors.New("trade snapshot not found")
	// ErrInvalidTransition is returned for a status change the lifecycle forbids
	ErrInvalidTransition = errors.New("invalid order status transition")

	errNotConnected = errors.New("redis client not connected")
)

// Manager is the Redis-backed order store, lock store and blockhash cache
type Manager struct {
	client  *redis.Client
	options *redis.Options

	errorHandler   *ErrorHandler
	circuitBreaker *CircuitBreaker
	metrics        interfaces.MetricsRecorder
	logger         *logging.Logger

	releaseLockScript *redis.Script
}

// NewManager creates a manager from a redis:// URL. The connection is opened by Connect.
func NewManager(url string, poolSize int) (*Manager, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if poolSize > 0 {
		options.PoolSize = poolSize
		options.MinIdleConns = poolSize / 4
	}
	options.DialTimeout = 5 * time.Second
	options.ReadTimeout = 3 * time.Second
	options.WriteTimeout = 3 * time.Second
	options.PoolTimeout = 4 * time.Second
	// retries are owned by the error handler
	options.MaxRetries = -1

	manager := &Manager{
		options:        options,
		circuitBreaker: NewCircuitBreaker(5, 30*time.Second),
		logger:         logging.NewLogger("trading-service", "redis"),
	}
	manager.errorHandler = NewErrorHandler(manager.circuitBreaker, DefaultRetryConfig())

	// compare-and-delete so a token never removes another holder's lock
	manager.releaseLockScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)

	return manager, nil
}

// SetMetrics attaches a recorder for operation latency
func (m *Manager) SetMetrics(recorder interfaces.MetricsRecorder) {
	m.metrics = recorder
}

// Connect opens the client and verifies it with PING
func (m *Manager) Connect(ctx context.Context) error {
	return m.errorHandler.ExecuteWithRetry(ctx, "connect", func() error {
		client := redis.NewClient(m.options)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		m.client = client

		m.logger.SystemEvent("redis_connected", map[string]interface{}{
			"addr":      m.options.Addr,
			"pool_size": m.options.PoolSize,
		})
		return nil
	})
}

// Close closes the Redis connection
func (m *Manager) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

// Ping tests the Redis connection
func (m *Manager) Ping(ctx context.Context) error {
	return m.exec(ctx, "ping", func() error {
		return m.client.Ping(ctx).Err()
	})
}

// GetCircuitBreakerState returns the current state of the circuit breaker
func (m *Manager) GetCircuitBreakerState() CircuitBreakerState {
	return m.circuitBreaker.GetState()
}

// exec runs fn through the retrying error handler and records the outcome
func (m *Manager) exec(ctx context.Context, operation string, fn func() error) error {
	if m.client == nil {
		return errNotConnected
	}

	start := time.Now()
	err := m.errorHandler.ExecuteWithRetry(ctx, operation, fn)
	m.observe(ctx, operation, start, err)
	return err
}

// once runs fn a single time with no retry, for lock operations
func (m *Manager) once(ctx context.Context, operation string, fn func() error) error {
	if m.client == nil {
		return errNotConnected
	}

	start := time.Now()
	err := fn()
	m.observe(ctx, operation, start, err)
	return err
}

func (m *Manager) observe(ctx context.Context, operation string, start time.Time, err error) {
	success := err == nil || isStoreAnswer(err)
	duration := time.Since(start)
	if m.metrics != nil {
		m.metrics.RecordRedisOperation(operation, duration, success)
	}
	m.logger.RedisOperation(operation, logging.GetTraceID(ctx), duration, success, err)
}

// isStoreAnswer reports errors that describe data rather than an unhealthy store
func isStoreAnswer(err error) bool {
	return errors.Is(err, redis.Nil) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrSnapshotNotFound) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, models.ErrOrderExists) ||
		errors.Is(err, models.ErrNotSellable)
}
