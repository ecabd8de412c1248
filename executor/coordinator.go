package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/dex"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/dispatcher"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/worker"
)

// ErrNotSellable is returned by SellOrder for an order that is not Bought or
// holds no tokens
var ErrNotSellable = models.ErrNotSellable

// Buy and sell outcomes recorded in metrics
const (
	outcomeGated     = "gated"
	outcomeHeld      = "held"
	outcomeQueueFull = "queue_full"
	outcomeError     = "error"
	outcomeRejected  = "rejected"
	outcomeSuccess   = "success"
)

// Coordinator turns interpreted trades into buy attempts and runs sells
type Coordinator struct {
	store     interfaces.OrderStore
	gate      interfaces.BuyGate
	proxy     interfaces.TradeProxy
	nonce     interfaces.NonceProvider
	params    *ParamBuilder
	pool      interfaces.WorkerPool
	publisher interfaces.EventPublisher
	metrics   interfaces.MetricsRecorder

	botAddress string
	now        func() time.Time

	logger      *logging.Logger
	categorizer *logging.ErrorCategorizer
}

// Dependencies groups the collaborators of a Coordinator. Publisher and
// Metrics may be nil.
type Dependencies struct {
	Store     interfaces.OrderStore
	Gate      interfaces.BuyGate
	Proxy     interfaces.TradeProxy
	Nonce     interfaces.NonceProvider
	Params    *ParamBuilder
	Pool      interfaces.WorkerPool
	Publisher interfaces.EventPublisher
	Metrics   interfaces.MetricsRecorder
}

// NewCoordinator creates a coordinator for the bot wallet botAddress
func NewCoordinator(deps Dependencies, botAddress string) *Coordinator {
	logger := logging.NewLogger("trading-service", "executor")
	return &Coordinator{
		store:       deps.Store,
		gate:        deps.Gate,
		proxy:       deps.Proxy,
		nonce:       deps.Nonce,
		params:      deps.Params,
		pool:        deps.Pool,
		publisher:   deps.Publisher,
		metrics:     deps.Metrics,
		botAddress:  botAddress,
		now:         time.Now,
		logger:      logger,
		categorizer: logging.NewErrorCategorizer(logger),
	}
}

// HandleEvent refreshes state for one dispatched event and queues a buy for
// buy-direction fills. It never blocks on the proxy.
func (c *Coordinator) HandleEvent(ctx context.Context, event *dispatcher.Event) {
	if event == nil || event.Raw == nil {
		return
	}

	trade, snapshot, ok := dex.Interpret(event.Raw)
	if !ok {
		c.logger.Debug("Event without interpreter", map[string]interface{}{"kind": event.Kind})
		return
	}

	if _, err := c.store.UpdateSnapshotIfExists(ctx, trade.Platform, trade.Mint, snapshot); err != nil {
		c.categorizer.Report(err, "executor", "update_snapshot", map[string]interface{}{"mint": trade.Mint})
	}

	if c.botAddress != "" && trade.User == c.botAddress {
		if err := c.store.ApplyFill(ctx, trade.Mint, trade.IsBuy, trade.TokenAmount, trade.Price); err != nil {
			c.categorizer.Report(err, "executor", "apply_fill", map[string]interface{}{"mint": trade.Mint})
		}
	}

	if !trade.IsBuy {
		return
	}

	buyCtx := logging.TraceableContext(context.WithoutCancel(ctx))
	err := c.pool.Submit(func() { c.buy(buyCtx, trade, snapshot) })
	if err != nil {
		if errors.Is(err, worker.ErrQueueFull) {
			c.logger.Debug("Buy dropped, worker queue full", map[string]interface{}{"mint": trade.Mint})
			c.recordBuy(trade.Platform, outcomeQueueFull)
			return
		}
		c.categorizer.Report(err, "executor", "submit_buy", map[string]interface{}{"mint": trade.Mint})
	}
}

// buy runs one gated buy round trip
func (c *Coordinator) buy(ctx context.Context, trade models.Trade, snapshot interface{}) {
	logger := c.logger.WithTraceID(logging.GetTraceID(ctx)).WithToken(trade.Mint)

	// an open position is never bought over; CreateOrder enforces the same
	// rule against a racing buy
	if existing, err := c.store.GetOrder(ctx, trade.Mint); err == nil && existing.Live() {
		logger.Debug("Buy skipped, order already open", map[string]interface{}{"status": existing.Status})
		c.recordBuy(trade.Platform, outcomeHeld)
		return
	}

	granted, token, err := c.gate.TryAcquire(ctx)
	if err != nil {
		c.categorizer.Report(err, "executor", "acquire_gate", map[string]interface{}{"mint": trade.Mint})
		c.recordBuy(trade.Platform, outcomeError)
		return
	}
	if !granted {
		c.recordBuy(trade.Platform, outcomeGated)
		return
	}
	defer func() {
		if err := c.gate.Release(context.WithoutCancel(ctx), token); err != nil {
			logger.Warn("Failed to release buy gate", map[string]interface{}{"error": err.Error()})
		}
	}()

	dexParams, err := DexParams(snapshot, true)
	if err != nil {
		c.categorizer.Report(err, "executor", "build_dex_params", map[string]interface{}{"mint": trade.Mint})
		c.recordBuy(trade.Platform, outcomeError)
		return
	}
	tradeParams, err := c.params.BuyParams(ctx, trade.Platform, trade.Mint)
	if err != nil {
		c.categorizer.Report(err, "executor", "build_buy_params", map[string]interface{}{"mint": trade.Mint})
		c.recordBuy(trade.Platform, outcomeError)
		return
	}

	order := models.NewOrder(trade.Mint, trade.Platform, c.now())
	if err := c.store.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, models.ErrOrderExists) {
			logger.Debug("Buy skipped, order opened concurrently", map[string]interface{}{"error": err.Error()})
			c.recordBuy(trade.Platform, outcomeHeld)
			return
		}
		c.categorizer.Report(err, "executor", "create_order", map[string]interface{}{"mint": trade.Mint})
		c.recordBuy(trade.Platform, outcomeError)
		return
	}
	if err := c.store.SaveSnapshot(ctx, trade.Platform, trade.Mint, snapshot); err != nil {
		c.categorizer.Report(err, "executor", "save_snapshot", map[string]interface{}{"mint": trade.Mint})
	}
	c.publish(ctx, &models.OrderEvent{Type: models.OrderEventCreated, Mint: trade.Mint, Platform: trade.Platform, Status: models.OrderStatusBuying})

	resp, err := c.proxy.Buy(ctx, dexParams, tradeParams)
	c.refreshNonce()

	if err == nil && resp.Confirmed() {
		if err := c.store.UpdateOrderStatus(ctx, trade.Mint, models.OrderStatusBought); err != nil {
			c.categorizer.Report(err, "executor", "mark_bought", map[string]interface{}{"mint": trade.Mint})
			c.recordBuy(trade.Platform, outcomeError)
			return
		}
		logger.TradeEvent(trade.Mint, "buy", true, map[string]interface{}{
			"platform":  trade.Platform,
			"signature": resp.Signature,
		})
		c.publish(ctx, &models.OrderEvent{Type: models.OrderEventBought, Mint: trade.Mint, Platform: trade.Platform, Status: models.OrderStatusBought, Signature: resp.Signature})
		c.recordBuy(trade.Platform, outcomeSuccess)
		return
	}

	message := failureMessage(resp, err)
	if err != nil {
		c.categorizer.Report(err, "proxy", "buy", map[string]interface{}{"mint": trade.Mint})
	}
	logger.TradeEvent(trade.Mint, "buy", false, map[string]interface{}{"platform": trade.Platform, "message": message})

	if err := c.store.DeleteOrder(ctx, trade.Mint); err != nil {
		c.categorizer.Report(err, "executor", "delete_order", map[string]interface{}{"mint": trade.Mint})
	}
	if err := c.store.DeleteSnapshot(ctx, trade.Platform, trade.Mint); err != nil {
		c.categorizer.Report(err, "executor", "delete_snapshot", map[string]interface{}{"mint": trade.Mint})
	}
	c.publish(ctx, &models.OrderEvent{Type: models.OrderEventBuyFailed, Mint: trade.Mint, Platform: trade.Platform, Message: message})

	if err != nil {
		c.recordBuy(trade.Platform, outcomeError)
	} else {
		c.recordBuy(trade.Platform, outcomeRejected)
	}
}

// SellOrder sells the full balance of mint. The sellable check and the move
// to Selling are one store transaction, so of concurrent calls for the same
// mint only one proceeds; the others get ErrNotSellable.
func (c *Coordinator) SellOrder(ctx context.Context, mint string) error {
	order, err := c.store.MarkSelling(ctx, mint)
	if err != nil {
		if errors.Is(err, ErrNotSellable) {
			return err
		}
		return fmt.Errorf("mark selling: %w", err)
	}
	c.publish(ctx, &models.OrderEvent{Type: models.OrderEventSelling, Mint: mint, Platform: order.Platform, Status: models.OrderStatusSelling})

	resp, err := c.sell(ctx, order)
	if err == nil && resp.Confirmed() {
		if err := c.store.UpdateOrderStatus(ctx, mint, models.OrderStatusSold); err != nil {
			c.categorizer.Report(err, "executor", "mark_sold", map[string]interface{}{"mint": mint})
			c.recordSell(order.Platform, outcomeError)
			return fmt.Errorf("mark sold: %w", err)
		}
		c.logger.TradeEvent(mint, "sell", true, map[string]interface{}{
			"platform":     order.Platform,
			"token_amount": order.TokenAmount,
			"signature":    resp.Signature,
		})
		c.publish(ctx, &models.OrderEvent{Type: models.OrderEventSold, Mint: mint, Platform: order.Platform, Status: models.OrderStatusSold, Signature: resp.Signature})
		c.recordSell(order.Platform, outcomeSuccess)
		return nil
	}

	message := failureMessage(resp, err)
	c.logger.TradeEvent(mint, "sell", false, map[string]interface{}{"platform": order.Platform, "message": message})

	if rbErr := c.store.UpdateOrderStatus(ctx, mint, models.OrderStatusBought); rbErr != nil {
		c.categorizer.Report(rbErr, "executor", "rollback_sell", map[string]interface{}{"mint": mint})
	} else {
		c.publish(ctx, &models.OrderEvent{Type: models.OrderEventSellRolledBack, Mint: mint, Platform: order.Platform, Status: models.OrderStatusBought, Message: message})
	}

	if err != nil {
		c.recordSell(order.Platform, outcomeError)
		return fmt.Errorf("sell %s: %w", mint, err)
	}
	c.recordSell(order.Platform, outcomeRejected)
	return fmt.Errorf("sell %s rejected: %s", mint, message)
}

// sell builds params from the freshest snapshot and calls the proxy
func (c *Coordinator) sell(ctx context.Context, order *models.Order) (*models.TradeResponse, error) {
	raw, err := c.store.GetSnapshot(ctx, order.Platform, order.Mint)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	snapshot, err := decodeSnapshot(order.Platform, raw)
	if err != nil {
		return nil, err
	}
	dexParams, err := DexParams(snapshot, false)
	if err != nil {
		return nil, err
	}
	tradeParams, err := c.params.SellParams(ctx, order.Platform, order.Mint, order.TokenAmount)
	if err != nil {
		return nil, err
	}

	resp, err := c.proxy.Sell(ctx, dexParams, tradeParams)
	c.refreshNonce()
	if err != nil {
		c.categorizer.Report(err, "proxy", "sell", map[string]interface{}{"mint": order.Mint})
	}
	return resp, err
}

func (c *Coordinator) refreshNonce() {
	if c.nonce != nil && c.nonce.Enabled() {
		c.nonce.RefreshAsync()
	}
}

func (c *Coordinator) publish(ctx context.Context, event *models.OrderEvent) {
	if c.publisher == nil {
		return
	}
	event.Timestamp = c.now()
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("Failed to publish order event", map[string]interface{}{
			"type":  event.Type,
			"mint":  event.Mint,
			"error": err.Error(),
		})
	}
}

func (c *Coordinator) recordBuy(platform models.Platform, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordBuyAttempt(string(platform), outcome)
	}
}

func (c *Coordinator) recordSell(platform models.Platform, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordSellAttempt(string(platform), outcome)
	}
}

func failureMessage(resp *models.TradeResponse, err error) string {
	switch {
	case err != nil:
		return err.Error()
	case resp == nil:
		return "empty proxy response"
	case resp.Message != "":
		return resp.Message
	case resp.Success:
		return "proxy reported success without a signature"
	}
	return "proxy rejected the trade"
}
