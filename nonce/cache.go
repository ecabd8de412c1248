package nonce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// ErrNonceUnavailable is returned when the nonce account cannot be read or
// nonce mode is off. The cached value is left untouched.
var ErrNonceUnavailable = errors.New("durable nonce unavailable")

// Nonce account layout: version(4) state(4) authority(32) nonce(32) fee(8)
const (
	accountSize = 80
	nonceStart  = 40
	nonceEnd    = 72

	defaultAttempts   = 5
	defaultRetryDelay = 1500 * time.Millisecond
)

// AccountFetcher reads raw account data. A missing account returns nil data.
type AccountFetcher interface {
	AccountData(ctx context.Context, pubkey string) ([]byte, error)
}

// Cache holds the current durable nonce. Refresh waits for the on-chain
// value to advance past the cached one.
type Cache struct {
	mutex   sync.RWMutex
	current *models.NonceInfo

	fetcher    AccountFetcher
	account    string
	enabled    bool
	attempts   int
	retryDelay time.Duration

	// lifecycle of RefreshAsync goroutines
	lifecycle sync.Mutex
	closed    bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	logger *logging.Logger
}

// NewCache creates a nonce cache for account. Nonce mode is on only when
// enabled is set and account is non-empty.
func NewCache(fetcher AccountFetcher, account string, enabled bool) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		fetcher:    fetcher,
		account:    account,
		enabled:    enabled && account != "",
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logging.NewLogger("trading-service", "nonce"),
	}
}

// Enabled reports whether durable nonce mode is on
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Initialize loads the first value when nonce mode is on
func (c *Cache) Initialize(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	info, err := c.Refresh(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("Durable nonce loaded", map[string]interface{}{
		"nonce_account": info.NonceAccount,
		"nonce":         info.CurrentNonce,
	})
	return nil
}

// Cached returns a copy of the current value without blocking on RPC
func (c *Cache) Cached() *models.NonceInfo {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.current == nil {
		return nil
	}
	info := *c.current
	return &info
}

// Refresh reads the nonce account until the value differs from the cached
// one, up to the attempt limit, then stores and returns the last value read.
// Only a failure of the first read is returned.
func (c *Cache) Refresh(ctx context.Context) (*models.NonceInfo, error) {
	if !c.enabled {
		return nil, ErrNonceUnavailable
	}

	previous := ""
	if cached := c.Cached(); cached != nil {
		previous = cached.CurrentNonce
	}

	var latest string
	for attempt := 1; attempt <= c.attempts; attempt++ {
		value, err := c.fetch(ctx)
		if err != nil {
			if attempt == 1 {
				return nil, err
			}
			// keep the value already read
			c.logger.Warn("Durable nonce re-read failed", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			break
		}
		latest = value
		if value != previous || attempt == c.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}

	if latest == previous {
		c.logger.Debug("Durable nonce unchanged after retries", map[string]interface{}{
			"attempts": c.attempts,
			"nonce":    latest,
		})
	}

	info := &models.NonceInfo{NonceAccount: c.account, CurrentNonce: latest}
	c.mutex.Lock()
	c.current = info
	c.mutex.Unlock()

	result := *info
	return &result, nil
}

func (c *Cache) fetch(ctx context.Context) (string, error) {
	data, err := c.fetcher.AccountData(ctx, c.account)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNonceUnavailable, err)
	}
	if data == nil {
		return "", fmt.Errorf("%w: account %s not found", ErrNonceUnavailable, c.account)
	}
	if len(data) != accountSize {
		return "", fmt.Errorf("%w: account data is %d bytes, want %d", ErrNonceUnavailable, len(data), accountSize)
	}
	return base58.Encode(data[nonceStart:nonceEnd]), nil
}

// RefreshAsync refreshes in a tracked goroutine. It is a no-op after Close.
func (c *Cache) RefreshAsync() {
	if !c.enabled {
		return
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.closed {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.Refresh(c.ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("Async nonce refresh failed", map[string]interface{}{"error": err.Error()})
		}
	}()
}

// Close cancels in-flight refreshes and waits for them to exit
func (c *Cache) Close() error {
	c.lifecycle.Lock()
	c.closed = true
	c.cancel()
	c.lifecycle.Unlock()

	c.wg.Wait()
	return nil
}
