package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

const testLockKey = "buy_lock"

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	manager, err := NewManager("redis://"+mr.Addr(), 4)
	require.NoError(t, err)
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { manager.Close() })
	return manager, mr
}

func TestNewManagerRejectsBadURL(t *testing.T) {
	_, err := NewManager("not a url", 1)
	assert.Error(t, err)
}

func TestOperationsRequireConnect(t *testing.T) {
	manager, err := NewManager("redis://localhost:6379", 1)
	require.NoError(t, err)

	_, err = manager.GetOrder(context.Background(), "mint")
	assert.ErrorIs(t, err, errNotConnected)
}

func TestOrderLifecycle(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	order := models.NewOrder("Mint111", models.PlatformPumpFun, time.Now())
	require.NoError(t, manager.CreateOrder(ctx, order))
	assert.True(t, mr.Exists("order:Mint111"))
	assert.Equal(t, OrderTTL, mr.TTL("order:Mint111"))

	got, err := manager.GetOrder(ctx, "Mint111")
	require.NoError(t, err)
	assert.Equal(t, order, got)

	require.NoError(t, manager.UpdateOrderStatus(ctx, "Mint111", models.OrderStatusBought))
	require.NoError(t, manager.UpdateOrderStatus(ctx, "Mint111", models.OrderStatusSelling))
	require.NoError(t, manager.UpdateOrderStatus(ctx, "Mint111", models.OrderStatusSold))

	got, err = manager.GetOrder(ctx, "Mint111")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusSold, got.Status)

	require.NoError(t, manager.DeleteOrder(ctx, "Mint111"))
	_, err = manager.GetOrder(ctx, "Mint111")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateOrderStatusRejectsInvalidTransition(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.CreateOrder(ctx, models.NewOrder("M", models.PlatformPumpSwap, time.Now())))
	err := manager.UpdateOrderStatus(ctx, "M", models.OrderStatusSold)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = manager.UpdateOrderStatus(ctx, "missing", models.OrderStatusBought)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// answers about data never trip the breaker
	assert.Equal(t, CircuitBreakerClosed, manager.GetCircuitBreakerState())
}

func TestCreateOrderKeepsLiveOrder(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	live := models.NewOrder("M", models.PlatformPumpFun, time.Now())
	live.Status = models.OrderStatusBought
	live.TokenAmount = 777
	require.NoError(t, manager.CreateOrder(ctx, live))

	err := manager.CreateOrder(ctx, models.NewOrder("M", models.PlatformPumpFun, time.Now()))
	assert.ErrorIs(t, err, models.ErrOrderExists)

	got, err := manager.GetOrder(ctx, "M")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusBought, got.Status)
	assert.Equal(t, int64(777), got.TokenAmount)

	require.NoError(t, manager.UpdateOrderStatus(ctx, "M", models.OrderStatusSelling))
	require.NoError(t, manager.UpdateOrderStatus(ctx, "M", models.OrderStatusSold))
	require.NoError(t, manager.CreateOrder(ctx, models.NewOrder("M", models.PlatformPumpFun, time.Now())))

	got, err = manager.GetOrder(ctx, "M")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusBuying, got.Status, "a sold order may be bought again")
	assert.Equal(t, CircuitBreakerClosed, manager.GetCircuitBreakerState())
}

func TestMarkSellingChecksBalanceInTransaction(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	order := models.NewOrder("M", models.PlatformPumpFun, time.Now())
	order.Status = models.OrderStatusBought
	require.NoError(t, manager.CreateOrder(ctx, order))

	_, err := manager.MarkSelling(ctx, "M")
	assert.ErrorIs(t, err, models.ErrNotSellable)
	got, err := manager.GetOrder(ctx, "M")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusBought, got.Status)

	require.NoError(t, manager.SetTokenAmount(ctx, "M", 250))
	marked, err := manager.MarkSelling(ctx, "M")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusSelling, marked.Status)
	assert.Equal(t, int64(250), marked.TokenAmount)

	_, err = manager.MarkSelling(ctx, "M")
	assert.ErrorIs(t, err, models.ErrNotSellable, "a second sell loses")
	_, err = manager.MarkSelling(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRollbackPreservesBalanceAndPrice(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	order := models.NewOrder("M", models.PlatformPumpFun, time.Now())
	order.Status = models.OrderStatusBought
	order.TokenAmount = 1234
	order.Price = 0.5
	require.NoError(t, manager.CreateOrder(ctx, order))

	require.NoError(t, manager.UpdateOrderStatus(ctx, "M", models.OrderStatusSelling))
	require.NoError(t, manager.UpdateOrderStatus(ctx, "M", models.OrderStatusBought))

	got, err := manager.GetOrder(ctx, "M")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusBought, got.Status)
	assert.Equal(t, int64(1234), got.TokenAmount)
	assert.Equal(t, 0.5, got.Price)
}

func TestApplyFill(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.ApplyFill(ctx, "absent", true, 10, 1.0), "absent order is a no-op")
	_, err := manager.GetOrder(ctx, "absent")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	require.NoError(t, manager.CreateOrder(ctx, models.NewOrder("M", models.PlatformPumpFun, time.Now())))
	require.NoError(t, manager.ApplyFill(ctx, "M", true, 1000, 0.25))
	require.NoError(t, manager.ApplyFill(ctx, "M", false, 400, 0.3))

	got, err := manager.GetOrder(ctx, "M")
	require.NoError(t, err)
	assert.Equal(t, int64(600), got.TokenAmount)
	assert.Equal(t, 0.3, got.Price)
	assert.Equal(t, models.OrderStatusBuying, got.Status)

	require.NoError(t, manager.SetTokenAmount(ctx, "M", 42))
	got, err = manager.GetOrder(ctx, "M")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.TokenAmount)
}

func TestListOrdersSkipsUnreadable(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	for _, mint := range []string{"A", "B", "C"} {
		require.NoError(t, manager.CreateOrder(ctx, models.NewOrder(mint, models.PlatformPumpFun, time.Now())))
	}
	require.NoError(t, mr.Set("order:broken", "{"))
	require.NoError(t, mr.Set("pumpfun_token:A", "{}"))

	orders, err := manager.ListOrders(ctx)
	require.NoError(t, err)

	mints := make([]string, 0, len(orders))
	for _, o := range orders {
		mints = append(mints, o.Mint)
	}
	assert.ElementsMatch(t, []string{"A", "B", "C"}, mints)
}

func TestSnapshots(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()
	event := &models.PumpSwapBuyEvent{Pool: "Pool1", BaseMint: "Base", QuoteMint: "M"}

	updated, err := manager.UpdateSnapshotIfExists(ctx, models.PlatformPumpSwap, "M", event)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.False(t, mr.Exists("pumpswap_token:M"))

	_, err = manager.GetSnapshot(ctx, models.PlatformPumpSwap, "M")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, manager.SaveSnapshot(ctx, models.PlatformPumpSwap, "M", event))
	assert.Equal(t, OrderTTL, mr.TTL("pumpswap_token:M"))

	event.Pool = "Pool2"
	updated, err = manager.UpdateSnapshotIfExists(ctx, models.PlatformPumpSwap, "M", event)
	require.NoError(t, err)
	assert.True(t, updated)

	raw, err := manager.GetSnapshot(ctx, models.PlatformPumpSwap, "M")
	require.NoError(t, err)
	var stored models.PumpSwapBuyEvent
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, "Pool2", stored.Pool)

	require.NoError(t, manager.DeleteSnapshot(ctx, models.PlatformPumpSwap, "M"))
	assert.False(t, mr.Exists("pumpswap_token:M"))
}

func TestSnapshotKeys(t *testing.T) {
	assert.Equal(t, "pumpfun_token:X", snapshotKey(models.PlatformPumpFun, "X"))
	assert.Equal(t, "pumpswap_token:X", snapshotKey(models.PlatformPumpSwap, "X"))
	assert.Equal(t, "meteora_damm_v2_token:X", snapshotKey(models.PlatformMeteoraDammV2, "X"))
}

func TestGlobalBuyTime(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	_, found, err := manager.GetGlobalBuyTime(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, manager.SetGlobalBuyTime(ctx, 1_700_000_000_123))
	value, found, err := manager.GetGlobalBuyTime(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1_700_000_000_123), value)
	assert.Equal(t, OrderTTL, mr.TTL("global_buy_time"))
}

func TestLockCompareAndDelete(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	ok, err := manager.AcquireLock(ctx, testLockKey, "token-a", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, mr.TTL(testLockKey))

	ok, err = manager.AcquireLock(ctx, testLockKey, "token-b", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	released, err := manager.ReleaseLock(ctx, testLockKey, "token-b")
	require.NoError(t, err)
	assert.False(t, released)
	holder, err := mr.Get(testLockKey)
	require.NoError(t, err)
	assert.Equal(t, "token-a", holder)

	released, err = manager.ReleaseLock(ctx, testLockKey, "token-a")
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, mr.Exists(testLockKey))
}

func TestLockExclusiveUnderContention(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	const n = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := manager.AcquireLock(ctx, testLockKey, string(rune('a'+i)), time.Minute)
			if err == nil && ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, granted)
}

func TestRecentBlockhash(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	hash, err := manager.GetRecentBlockhash(ctx)
	require.NoError(t, err)
	assert.Empty(t, hash)

	require.NoError(t, manager.SetRecentBlockhash(ctx, "Hash111"))
	assert.Equal(t, BlockhashTTL, mr.TTL("recent_blockhash"))

	mr.FastForward(61 * time.Second)
	hash, err = manager.GetRecentBlockhash(ctx)
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(2, 20*time.Millisecond)
	boom := errors.New("connection refused")

	assert.Error(t, cb.Execute(func() error { return boom }))
	assert.Error(t, cb.Execute(func() error { return boom }))
	assert.Equal(t, CircuitBreakerOpen, cb.GetState())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)

	time.Sleep(30 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, cb.Execute(func() error { return nil }))
	}
	assert.Equal(t, CircuitBreakerClosed, cb.GetState())
}

func TestErrorHandlerRetriesTransientErrors(t *testing.T) {
	handler := NewErrorHandler(NewCircuitBreaker(10, time.Second), &RetryConfig{
		MaxRetries:    3,
		BaseDelay:     time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2,
	})

	calls := 0
	err := handler.ExecuteWithRetry(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("read tcp: i/o timeout")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = handler.ExecuteWithRetry(context.Background(), "op", func() error {
		calls++
		return errors.New("WRONGTYPE Operation against a key")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "non-transient errors are not retried")

	calls = 0
	err = handler.ExecuteWithRetry(context.Background(), "op", func() error {
		calls++
		return errors.New("connection reset by peer")
	})
	assert.Error(t, err)
	assert.Equal(t, 4, calls)
}
