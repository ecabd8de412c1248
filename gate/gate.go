package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
)

const (
	// LockKey is shared by every instance competing to buy
	LockKey = "buy_lock"
	// LockTTL bounds how long a crashed holder can block buys
	LockTTL = 30 * time.Second
)

// Gate combines a distributed lock with a minimum interval between buys.
// At most one buy is in flight across all DEX integrations.
type Gate struct {
	store       interfaces.LockStore
	minInterval int64 // seconds
	failOpen    bool
	now         func() time.Time
	logger      *logging.Logger
	categorizer *logging.ErrorCategorizer
}

// New creates a gate. With failOpen a store error counts as granted.
func New(store interfaces.LockStore, minIntervalSeconds int, failOpen bool) *Gate {
	logger := logging.NewLogger("trading-service", "buy-gate")
	return &Gate{
		store:       store,
		minInterval: int64(minIntervalSeconds),
		failOpen:    failOpen,
		now:         time.Now,
		logger:      logger,
		categorizer: logging.NewErrorCategorizer(logger),
	}
}

// TryAcquire checks the interval, takes the lock and records the buy time.
// The returned token must be passed to Release. A fail-open grant carries an
// empty token.
func (g *Gate) TryAcquire(ctx context.Context) (bool, string, error) {
	nowMs := g.now().UnixMilli()

	last, found, err := g.store.GetGlobalBuyTime(ctx)
	if err != nil {
		return g.storeFailure("read_buy_time", err)
	}
	if found && (nowMs-last)/1000 < g.minInterval {
		g.logger.Debug("Buy rate limited", map[string]interface{}{
			"since_last_ms": nowMs - last,
			"min_interval":  g.minInterval,
		})
		return false, "", nil
	}

	token := uuid.NewString()
	acquired, err := g.store.AcquireLock(ctx, LockKey, token, LockTTL)
	if err != nil {
		return g.storeFailure("acquire_lock", err)
	}
	if !acquired {
		g.logger.Debug("Buy lock held by another attempt")
		return false, "", nil
	}

	if err := g.store.SetGlobalBuyTime(ctx, nowMs); err != nil {
		// the lock is ours, so keep the grant; the interval check degrades
		g.categorizer.Report(err, "gate", "record_buy_time", nil)
	}

	return true, token, nil
}

// Release drops the lock if token still owns it. An empty token is a no-op.
func (g *Gate) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	released, err := g.store.ReleaseLock(ctx, LockKey, token)
	if err != nil {
		g.categorizer.Report(err, "gate", "release_lock", nil)
		return fmt.Errorf("failed to release buy lock: %w", err)
	}
	if !released {
		g.logger.Warn("Buy lock already expired or taken over")
	}
	return nil
}

func (g *Gate) storeFailure(operation string, err error) (bool, string, error) {
	g.categorizer.Report(err, "gate", operation, map[string]interface{}{"fail_open": g.failOpen})
	if g.failOpen {
		return true, "", nil
	}
	return false, "", fmt.Errorf("buy gate %s: %w", operation, err)
}
