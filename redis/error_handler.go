package redis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState int

const (
	CircuitBreakerClosed CircuitBreakerState = iota
	CircuitBreakerOpen
	CircuitBreakerHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitBreakerOpen:
		return "open"
	case CircuitBreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreaker stops hammering Redis after repeated failures
type CircuitBreaker struct {
	mutex           sync.Mutex
	state           CircuitBreakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	maxFailures     int
	resetTimeout    time.Duration
	logger          *logging.Logger
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:        CircuitBreakerClosed,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		logger:       logging.NewLogger("trading-service", "redis-circuit-breaker"),
	}
}

// Execute executes a function with circuit breaker protection
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}

	err := fn()
	cb.recordResult(err)
	return err
}

// allow moves an expired open breaker to half-open and admits the probe
func (cb *CircuitBreaker) allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state != CircuitBreakerOpen {
		return true
	}
	if time.Since(cb.lastFailureTime) < cb.resetTimeout {
		return false
	}
	cb.state = CircuitBreakerHalfOpen
	cb.successCount = 0
	cb.logger.Info("Circuit breaker moved to half-open state")
	return true
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if err != nil {
		if isStoreAnswer(err) {
			return
		}
		cb.failureCount++
		cb.lastFailureTime = time.Now()

		switch cb.state {
		case CircuitBreakerClosed:
			if cb.failureCount >= cb.maxFailures {
				cb.state = CircuitBreakerOpen
				cb.logger.Warn("Circuit breaker opened", map[string]interface{}{"failures": cb.failureCount})
			}
		case CircuitBreakerHalfOpen:
			cb.state = CircuitBreakerOpen
			cb.logger.Warn("Circuit breaker reopened after failure in half-open state")
		}
		return
	}

	cb.successCount++
	switch cb.state {
	case CircuitBreakerClosed:
		cb.failureCount = 0
	case CircuitBreakerHalfOpen:
		if cb.successCount >= 3 {
			cb.state = CircuitBreakerClosed
			cb.failureCount = 0
			cb.successCount = 0
			cb.logger.Info("Circuit breaker closed after successful operations")
		}
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	JitterEnabled   bool
	RetryableErrors []error
}

// DefaultRetryConfig returns three retries with exponential backoff
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:    3,
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
		RetryableErrors: []error{
			redis.TxFailedErr,
		},
	}
}

// ErrorHandler handles Redis errors with retry logic and circuit breaker
type ErrorHandler struct {
	circuitBreaker *CircuitBreaker
	retryConfig    *RetryConfig
	logger         *logging.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(circuitBreaker *CircuitBreaker, retryConfig *RetryConfig) *ErrorHandler {
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	}

	return &ErrorHandler{
		circuitBreaker: circuitBreaker,
		retryConfig:    retryConfig,
		logger:         logging.NewLogger("trading-service", "redis-error-handler"),
	}
}

// ExecuteWithRetry executes a function with retry logic and circuit breaker protection
func (eh *ErrorHandler) ExecuteWithRetry(ctx context.Context, operation string, fn func() error) error {
	return eh.circuitBreaker.Execute(func() error {
		return eh.retryWithBackoff(ctx, operation, fn)
	})
}

func (eh *ErrorHandler) retryWithBackoff(ctx context.Context, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= eh.retryConfig.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				eh.logger.Info("Redis operation succeeded after retry", map[string]interface{}{
					"operation": operation,
					"retries":   attempt,
				})
			}
			return nil
		}

		lastErr = err
		if !eh.isRetryableError(err) {
			return err
		}
		if attempt == eh.retryConfig.MaxRetries {
			break
		}

		delay := eh.calculateDelay(attempt)
		eh.logger.Warn("Redis operation failed, retrying", map[string]interface{}{
			"operation": operation,
			"attempt":   attempt + 1,
			"delay":     delay.String(),
			"error":     err.Error(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("redis operation '%s' failed after %d attempts: %w",
		operation, eh.retryConfig.MaxRetries+1, lastErr)
}

func (eh *ErrorHandler) isRetryableError(err error) bool {
	if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
		return false
	}
	if isNetworkError(err) || isTimeoutError(err) || isConnectionError(err) {
		return true
	}
	for _, retryableErr := range eh.retryConfig.RetryableErrors {
		if errors.Is(err, retryableErr) {
			return true
		}
	}
	return false
}

func (eh *ErrorHandler) calculateDelay(attempt int) time.Duration {
	delay := float64(eh.retryConfig.BaseDelay) * math.Pow(eh.retryConfig.BackoffFactor, float64(attempt))
	if delay > float64(eh.retryConfig.MaxDelay) {
		delay = float64(eh.retryConfig.MaxDelay)
	}
	if eh.retryConfig.JitterEnabled {
		delay += rand.Float64() * 0.1 * delay
	}
	return time.Duration(delay)
}

func isNetworkError(err error) bool {
	return containsAny(err, "connection refused", "network is unreachable", "no route to host", "broken pipe", "i/o timeout")
}

func isTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || containsAny(err, "timeout", "deadline exceeded")
}

func isConnectionError(err error) bool {
	return containsAny(err,
		"connection closed",
		"connection reset",
		"connection lost",
		"connection aborted",
		"redis: connection pool timeout",
	)
}

func containsAny(err error, needles ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, n := range needles {
		if strings.Contains(msg, n) {
			return true
		}
	}
	return false
}
