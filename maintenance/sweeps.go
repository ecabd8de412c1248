package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/worker"
)

// Sweep intervals
const (
	SellTimerInterval        = time.Second
	ReconcileInterval        = 10 * time.Second
	BlockhashRefreshInterval = 5 * time.Second
	DefaultSellDelay         = 10 * time.Second
)

// OrderLister is the store view the sweeps need
type OrderLister interface {
	ListOrders(ctx context.Context) ([]*models.Order, error)
}

// SellTimer sells Bought orders once they reach the configured age
type SellTimer struct {
	store   OrderLister
	seller  interfaces.OrderSeller
	pool    interfaces.WorkerPool
	metrics interfaces.MetricsRecorder
	delay   time.Duration
	now     func() time.Time
	logger  *logging.Logger
}

// NewSellTimer creates the auto-sell sweep. With a nil pool sells run inline;
// metrics may be nil.
func NewSellTimer(store OrderLister, seller interfaces.OrderSeller, pool interfaces.WorkerPool, metrics interfaces.MetricsRecorder, delay time.Duration) *SellTimer {
	if delay <= 0 {
		delay = DefaultSellDelay
	}
	return &SellTimer{
		store:   store,
		seller:  seller,
		pool:    pool,
		metrics: metrics,
		delay:   delay,
		now:     time.Now,
		logger:  logging.NewLogger("trading-service", "maintenance").WithOperation("auto_sell"),
	}
}

func (t *SellTimer) Name() string { return "auto_sell" }

// RunCycle queues a sell for every due order and refreshes the order gauges
func (t *SellTimer) RunCycle(ctx context.Context) error {
	orders, err := t.store.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	counts := map[models.OrderStatus]int{
		models.OrderStatusBuying:  0,
		models.OrderStatusBought:  0,
		models.OrderStatusSelling: 0,
		models.OrderStatusSold:    0,
	}
	now := t.now()
	due := 0
	for _, order := range orders {
		counts[order.Status]++
		if !order.Sellable() || order.Age(now) < t.delay {
			continue
		}
		due++
		t.sell(ctx, order.Mint)
	}

	if t.metrics != nil {
		for status, count := range counts {
			t.metrics.RecordOrders(string(status), count)
		}
	}
	if due > 0 {
		t.logger.MaintenanceEvent("sells_queued", logging.GetTraceID(ctx), map[string]interface{}{"count": due})
	}
	return nil
}

func (t *SellTimer) sell(ctx context.Context, mint string) {
	run := func() {
		if err := t.seller.SellOrder(context.WithoutCancel(ctx), mint); err != nil {
			t.logger.Warn("Auto-sell failed", map[string]interface{}{"mint": mint, "error": err.Error()})
		}
	}
	if t.pool == nil {
		run()
		return
	}
	if err := t.pool.Submit(run); err != nil {
		level := t.logger.Warn
		if errors.Is(err, worker.ErrQueueFull) {
			level = t.logger.Debug
		}
		level("Auto-sell not queued", map[string]interface{}{"mint": mint, "error": err.Error()})
	}
}

// BalanceSource returns SPL token balances by mint for an owner
type BalanceSource interface {
	TokenBalances(ctx context.Context, owner string) (map[string]int64, error)
}

// BalanceStore is the store view the reconciler needs
type BalanceStore interface {
	OrderLister
	SetTokenAmount(ctx context.Context, mint string, amount int64) error
}

// Reconciler fills in token_amount for Bought orders whose fill was never seen
type Reconciler struct {
	store     BalanceStore
	chain     BalanceSource
	owner     string
	publisher interfaces.EventPublisher
	logger    *logging.Logger
}

// NewReconciler creates the balance sweep for wallet owner. publisher may be nil.
func NewReconciler(store BalanceStore, chain BalanceSource, owner string, publisher interfaces.EventPublisher) *Reconciler {
	return &Reconciler{
		store:     store,
		chain:     chain,
		owner:     owner,
		publisher: publisher,
		logger:    logging.NewLogger("trading-service", "maintenance").WithOperation("reconcile"),
	}
}

func (r *Reconciler) Name() string { return "reconcile" }

// RunCycle fetches the wallet balances once and applies them to every
// Bought order still at zero. A failed order does not stop the rest.
func (r *Reconciler) RunCycle(ctx context.Context) error {
	orders, err := r.store.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	var pending []*models.Order
	for _, order := range orders {
		if order.Status == models.OrderStatusBought && order.TokenAmount == 0 {
			pending = append(pending, order)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	balances, err := r.chain.TokenBalances(ctx, r.owner)
	if err != nil {
		return fmt.Errorf("fetch token balances: %w", err)
	}

	synced, failed := 0, 0
	for _, order := range pending {
		balance := balances[order.Mint]
		if balance <= 0 {
			continue
		}
		if err := r.store.SetTokenAmount(ctx, order.Mint, balance); err != nil {
			failed++
			r.logger.Warn("Failed to set token amount", map[string]interface{}{
				"mint":    order.Mint,
				"balance": balance,
				"error":   err.Error(),
			})
			continue
		}
		synced++
		r.publish(ctx, order, balance)
	}

	r.logger.MaintenanceEvent("reconciled", logging.GetTraceID(ctx), map[string]interface{}{
		"pending": len(pending),
		"synced":  synced,
		"failed":  failed,
	})
	return nil
}

func (r *Reconciler) publish(ctx context.Context, order *models.Order, balance int64) {
	if r.publisher == nil {
		return
	}
	synced := *order
	synced.TokenAmount = balance
	event := &models.OrderEvent{
		Type:      models.OrderEventBalanceSynced,
		Mint:      order.Mint,
		Platform:  order.Platform,
		Status:    order.Status,
		Order:     &synced,
		Timestamp: time.Now(),
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("Failed to publish balance sync", map[string]interface{}{"mint": order.Mint, "error": err.Error()})
	}
}

// BlockhashRefresher is the blockhash cache writer
type BlockhashRefresher interface {
	Refresh(ctx context.Context) (string, error)
}

// BlockhashSweep keeps the shared recent blockhash warm
type BlockhashSweep struct {
	refresher BlockhashRefresher
}

// NewBlockhashSweep creates the blockhash refresh sweep
func NewBlockhashSweep(refresher BlockhashRefresher) *BlockhashSweep {
	return &BlockhashSweep{refresher: refresher}
}

func (b *BlockhashSweep) Name() string { return "blockhash_refresh" }

func (b *BlockhashSweep) RunCycle(ctx context.Context) error {
	_, err := b.refresher.Refresh(ctx)
	return err
}
