package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

func orderKey(mint string) string {
	return orderKeyPrefix + mint
}

// snapshotKey is e.g. pumpswap_token:{mint}
func snapshotKey(platform models.Platform, mint string) string {
	return fmt.Sprintf("%s_token:%s", platform, mint)
}

// CreateOrder writes a new order with the 24h expiry. It only replaces an
// absent or Sold order; a live one yields models.ErrOrderExists.
func (m *Manager) CreateOrder(ctx context.Context, order *models.Order) error {
	data, err := order.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize order: %w", err)
	}

	key := orderKey(order.Mint)
	return m.exec(ctx, "create_order", func() error {
		return m.client.Watch(ctx, func(tx *redis.Tx) error {
			existing, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return err
			default:
				current, err := models.OrderFromJSON(existing)
				if err == nil && current.Live() {
					return fmt.Errorf("%w: %s is %s", models.ErrOrderExists, order.Mint, current.Status)
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, OrderTTL)
				return nil
			})
			return err
		}, key)
	})
}

// GetOrder loads an order. A missing order yields ErrOrderNotFound.
func (m *Manager) GetOrder(ctx context.Context, mint string) (*models.Order, error) {
	var order *models.Order
	err := m.exec(ctx, "get_order", func() error {
		data, err := m.client.Get(ctx, orderKey(mint)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrOrderNotFound
			}
			return err
		}
		order, err = models.OrderFromJSON(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus moves an order to status if the lifecycle allows it
func (m *Manager) UpdateOrderStatus(ctx context.Context, mint string, status models.OrderStatus) error {
	return m.modifyOrder(ctx, "update_order_status", mint, func(order *models.Order) error {
		if !models.CanTransition(order.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
		}
		order.Status = status
		return nil
	})
}

// MarkSelling moves a sellable order to Selling and returns the order as
// written, so the balance sold is the one checked.
func (m *Manager) MarkSelling(ctx context.Context, mint string) (*models.Order, error) {
	var marked models.Order
	err := m.modifyOrder(ctx, "mark_selling", mint, func(order *models.Order) error {
		if !order.Sellable() {
			return fmt.Errorf("%w: %s has status %s and %d tokens", models.ErrNotSellable, mint, order.Status, order.TokenAmount)
		}
		order.Status = models.OrderStatusSelling
		marked = *order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &marked, nil
}

// ApplyFill adjusts the balance by a fill on the bot's own account and records
// the price. It is a no-op when no order exists for the mint.
func (m *Manager) ApplyFill(ctx context.Context, mint string, isBuy bool, tokenAmount uint64, price float64) error {
	err := m.modifyOrder(ctx, "apply_fill", mint, func(order *models.Order) error {
		if isBuy {
			order.TokenAmount += int64(tokenAmount)
		} else {
			order.TokenAmount -= int64(tokenAmount)
		}
		order.Price = price
		return nil
	})
	if errors.Is(err, ErrOrderNotFound) {
		return nil
	}
	return err
}

// SetTokenAmount overwrites the balance, used by reconciliation
func (m *Manager) SetTokenAmount(ctx context.Context, mint string, amount int64) error {
	return m.modifyOrder(ctx, "set_token_amount", mint, func(order *models.Order) error {
		order.TokenAmount = amount
		return nil
	})
}

// modifyOrder is an optimistic read-modify-write on one order key. A write
// racing between the read and the update aborts the transaction with
// TxFailedErr, which the error handler retries against the fresh value.
func (m *Manager) modifyOrder(ctx context.Context, operation, mint string, mutate func(*models.Order) error) error {
	key := orderKey(mint)
	return m.exec(ctx, operation, func() error {
		return m.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrOrderNotFound
				}
				return err
			}
			order, err := models.OrderFromJSON(data)
			if err != nil {
				return err
			}
			if err := mutate(order); err != nil {
				return err
			}
			updated, err := order.ToJSON()
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, OrderTTL)
				return nil
			})
			return err
		}, key)
	})
}

// DeleteOrder removes an order
func (m *Manager) DeleteOrder(ctx context.Context, mint string) error {
	return m.exec(ctx, "delete_order", func() error {
		return m.client.Del(ctx, orderKey(mint)).Err()
	})
}

// ListOrders scans every order key. Entries that fail to parse are skipped.
func (m *Manager) ListOrders(ctx context.Context) ([]*models.Order, error) {
	var orders []*models.Order
	err := m.exec(ctx, "list_orders", func() error {
		orders = orders[:0]
		iter := m.client.Scan(ctx, 0, orderKeyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			data, err := m.client.Get(ctx, iter.Val()).Bytes()
			if err != nil {
				// expired between SCAN and GET
				if errors.Is(err, redis.Nil) {
					continue
				}
				return err
			}
			order, err := models.OrderFromJSON(data)
			if err != nil {
				m.logger.Warn("Skipping unreadable order", map[string]interface{}{
					"key":   iter.Val(),
					"error": err.Error(),
				})
				continue
			}
			orders = append(orders, order)
		}
		return iter.Err()
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// SaveSnapshot stores the latest raw event for a position
func (m *Manager) SaveSnapshot(ctx context.Context, platform models.Platform, mint string, snapshot interface{}) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	return m.exec(ctx, "save_snapshot", func() error {
		return m.client.Set(ctx, snapshotKey(platform, mint), data, OrderTTL).Err()
	})
}

// UpdateSnapshotIfExists overwrites a snapshot only when one is already stored.
// It reports whether the write happened.
func (m *Manager) UpdateSnapshotIfExists(ctx context.Context, platform models.Platform, mint string, snapshot interface{}) (bool, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return false, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	var updated bool
	err = m.exec(ctx, "update_snapshot", func() error {
		var err error
		updated, err = m.client.SetXX(ctx, snapshotKey(platform, mint), data, OrderTTL).Result()
		return err
	})
	return updated, err
}

// GetSnapshot returns the stored snapshot JSON or ErrSnapshotNotFound
func (m *Manager) GetSnapshot(ctx context.Context, platform models.Platform, mint string) (json.RawMessage, error) {
	var data []byte
	err := m.exec(ctx, "get_snapshot", func() error {
		var err error
		data, err = m.client.Get(ctx, snapshotKey(platform, mint)).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSnapshotNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// DeleteSnapshot removes a snapshot
func (m *Manager) DeleteSnapshot(ctx context.Context, platform models.Platform, mint string) error {
	return m.exec(ctx, "delete_snapshot", func() error {
		return m.client.Del(ctx, snapshotKey(platform, mint)).Err()
	})
}
