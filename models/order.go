package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// OrderStatus is the lifecycle state of a position
type OrderStatus string

const (
	OrderStatusBuying  OrderStatus = "Buying"
	OrderStatusBought  OrderStatus = "Bought"
	OrderStatusSelling OrderStatus = "Selling"
	OrderStatusSold    OrderStatus = "Sold"
)

// Platform names the DEX integration that owns an order
type Platform string

const (
	PlatformPumpFun       Platform = "pumpfun"
	PlatformPumpSwap      Platform = "pumpswap"
	PlatformMeteoraDammV2 Platform = "meteora_damm_v2"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformPumpFun, PlatformPumpSwap, PlatformMeteoraDammV2:
		return true
	}
	return false
}

// Order is one tracked position, keyed by mint
type Order struct {
	Mint        string      `json:"mint"`
	TokenAmount int64       `json:"token_amount"`
	Price       float64     `json:"price"`
	CreatedAt   int64       `json:"created_at"` // epoch ms
	Status      OrderStatus `json:"status"`
	Platform    Platform    `json:"platform"`
}

// NewOrder returns an order in Buying with zero balance and price.
func NewOrder(mint string, platform Platform, now time.Time) *Order {
	return &Order{
		Mint:      mint,
		CreatedAt: now.UnixMilli(),
		Status:    OrderStatusBuying,
		Platform:  platform,
	}
}

// Age returns how long ago the order entered Buying.
func (o *Order) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(o.CreatedAt))
}

var (
	// ErrNotSellable is returned when an order is not Bought or holds no tokens
	ErrNotSellable = errors.New("order is not sellable")
	// ErrOrderExists is returned when creating over an order that is not Sold
	ErrOrderExists = errors.New("order already exists")
)

// Live reports whether the order still holds or is acquiring a position
func (o *Order) Live() bool {
	return o.Status != OrderStatusSold
}

// Sellable reports whether the order may move from Bought to Selling.
func (o *Order) Sellable() bool {
	return o.Status == OrderStatusBought && o.TokenAmount != 0
}

// ToJSON serializes the order
func (o *Order) ToJSON() ([]byte, error) {
	return json.Marshal(o)
}

// OrderFromJSON deserializes an order
func OrderFromJSON(data []byte) (*Order, error) {
	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return &order, nil
}

// validTransitions lists allowed status moves. Selling -> Bought is the rollback.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusBuying:  {OrderStatusBought},
	OrderStatusBought:  {OrderStatusSelling},
	OrderStatusSelling: {OrderStatusSold, OrderStatusBought},
}

// CanTransition reports whether from -> to is a legal lifecycle step. Staying
// in the same status is not a step, so a second Bought -> Selling loses.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Trade is the normalized view of a DEX fill produced by an interpreter
type Trade struct {
	Platform    Platform `json:"platform"`
	Mint        string   `json:"mint"`
	IsBuy       bool     `json:"is_buy"`
	SolAmount   uint64   `json:"sol_amount"`
	TokenAmount uint64   `json:"token_amount"`
	Price       float64  `json:"price"`
	User        string   `json:"user,omitempty"`
}

// NonceInfo is the cached durable nonce for transaction building
type NonceInfo struct {
	NonceAccount string `json:"nonce_account"`
	CurrentNonce string `json:"current_nonce"`
}

// LookupTableAccount is an address lookup table passed to the proxy
type LookupTableAccount struct {
	Key       string   `json:"key"`
	Addresses []string `json:"addresses"`
}

// LatencyInfo is the receipt latency sample for one event
type LatencyInfo struct {
	GrpcRecvUs   int64   `json:"grpc_recv_us"`
	ClientRecvUs int64   `json:"client_recv_us"`
	LatencyUs    int64   `json:"latency_us"`
	LatencyMs    float64 `json:"latency_ms"`
}

// OrderEvent is a lifecycle notification published to Kafka and websocket clients
type OrderEvent struct {
	Type      string      `json:"type"`
	Mint      string      `json:"mint"`
	Platform  Platform    `json:"platform"`
	Status    OrderStatus `json:"status,omitempty"`
	Signature string      `json:"signature,omitempty"`
	Message   string      `json:"message,omitempty"`
	Order     *Order      `json:"order,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Lifecycle event types
const (
	OrderEventCreated        = "order_created"
	OrderEventBought         = "order_bought"
	OrderEventBuyFailed      = "order_buy_failed"
	OrderEventSelling        = "order_selling"
	OrderEventSold           = "order_sold"
	OrderEventSellRolledBack = "order_sell_rolled_back"
	OrderEventBalanceSynced  = "order_balance_synced"
)
