package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// GetGlobalBuyTime returns the epoch ms of the last granted buy, if any
func (m *Manager) GetGlobalBuyTime(ctx context.Context) (int64, bool, error) {
	var (
		value int64
		found bool
	)
	err := m.exec(ctx, "get_global_buy_time", func() error {
		raw, err := m.client.Get(ctx, globalBuyTimeKey).Result()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		value, err = strconv.ParseInt(raw, 10, 64)
		found = err == nil
		return err
	})
	return value, found, err
}

// SetGlobalBuyTime records the time of a granted buy
func (m *Manager) SetGlobalBuyTime(ctx context.Context, epochMs int64) error {
	return m.exec(ctx, "set_global_buy_time", func() error {
		return m.client.Set(ctx, globalBuyTimeKey, epochMs, OrderTTL).Err()
	})
}

// AcquireLock runs SET key token NX EX ttl once
func (m *Manager) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	var acquired bool
	err := m.once(ctx, "acquire_lock", func() error {
		var err error
		acquired, err = m.client.SetNX(ctx, key, token, ttl).Result()
		return err
	})
	return acquired, err
}

// ReleaseLock deletes key only if it still holds token
func (m *Manager) ReleaseLock(ctx context.Context, key, token string) (bool, error) {
	var released bool
	err := m.once(ctx, "release_lock", func() error {
		n, err := m.releaseLockScript.Run(ctx, m.client, []string{key}, token).Int64()
		released = n == 1
		return err
	})
	return released, err
}

// SetRecentBlockhash caches the blockhash for param builders
func (m *Manager) SetRecentBlockhash(ctx context.Context, blockhash string) error {
	return m.exec(ctx, "set_recent_blockhash", func() error {
		return m.client.Set(ctx, recentBlockhashKey, blockhash, BlockhashTTL).Err()
	})
}

// GetRecentBlockhash returns the cached blockhash or "" when none is cached
func (m *Manager) GetRecentBlockhash(ctx context.Context) (string, error) {
	var blockhash string
	err := m.exec(ctx, "get_recent_blockhash", func() error {
		var err error
		blockhash, err = m.client.Get(ctx, recentBlockhashKey).Result()
		if errors.Is(err, redis.Nil) {
			blockhash = ""
			return nil
		}
		return err
	})
	return blockhash, err
}
