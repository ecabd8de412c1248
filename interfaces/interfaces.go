package interfaces

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// OrderStore defines the Redis-backed order and snapshot operations
type OrderStore interface {
	// Connection management
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Order lifecycle
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, mint string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, mint string, status models.OrderStatus) error
	MarkSelling(ctx context.Context, mint string) (*models.Order, error)
	ApplyFill(ctx context.Context, mint string, isBuy bool, tokenAmount uint64, price float64) error
	SetTokenAmount(ctx context.Context, mint string, amount int64) error
	DeleteOrder(ctx context.Context, mint string) error
	ListOrders(ctx context.Context) ([]*models.Order, error)

	// Latest raw DEX event per (platform, mint)
	SaveSnapshot(ctx context.Context, platform models.Platform, mint string, snapshot interface{}) error
	UpdateSnapshotIfExists(ctx context.Context, platform models.Platform, mint string, snapshot interface{}) (bool, error)
	GetSnapshot(ctx context.Context, platform models.Platform, mint string) (json.RawMessage, error)
	DeleteSnapshot(ctx context.Context, platform models.Platform, mint string) error
}

// LockStore is the subset of Redis the buy gate needs
type LockStore interface {
	GetGlobalBuyTime(ctx context.Context) (int64, bool, error)
	SetGlobalBuyTime(ctx context.Context, epochMs int64) error
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) (bool, error)
}

// BlockhashStore caches the recent blockhash shared by param builders
type BlockhashStore interface {
	SetRecentBlockhash(ctx context.Context, blockhash string) error
	GetRecentBlockhash(ctx context.Context) (string, error)
}

// BuyGate serializes buy attempts across the process fleet
type BuyGate interface {
	TryAcquire(ctx context.Context) (granted bool, token string, err error)
	Release(ctx context.Context, token string) error
}

// NonceProvider supplies the cached durable nonce
type NonceProvider interface {
	Enabled() bool
	Cached() *models.NonceInfo
	RefreshAsync()
}

// BlockhashProvider returns a recent blockhash for transaction building
type BlockhashProvider interface {
	RecentBlockhash(ctx context.Context) (string, error)
}

// LookupTableProvider returns the address lookup table, or nil when none is configured
type LookupTableProvider interface {
	LookupTable() *models.LookupTableAccount
}

// ChainClient defines the Solana RPC calls the service makes
type ChainClient interface {
	LatestBlockhash(ctx context.Context) (string, error)
	AccountData(ctx context.Context, pubkey string) ([]byte, error)
	TokenBalances(ctx context.Context, owner string) (map[string]int64, error)
	LookupTable(ctx context.Context, pubkey string) (*models.LookupTableAccount, error)
}

// TradeProxy is the HTTP execution proxy that signs and submits transactions
type TradeProxy interface {
	Buy(ctx context.Context, dex models.DexParams, params *models.TradeParams) (*models.TradeResponse, error)
	Sell(ctx context.Context, dex models.DexParams, params *models.TradeParams) (*models.TradeResponse, error)
	Health(ctx context.Context) (*models.HealthResponse, error)
}

// EventPublisher receives order lifecycle notifications
type EventPublisher interface {
	Publish(ctx context.Context, event *models.OrderEvent) error
}

// WorkerPool defines worker pool operations
type WorkerPool interface {
	Initialize(maxWorkers int) error
	Submit(job func()) error
	GetWorkerCount() int
	Shutdown(ctx context.Context) error
}

// OrderSeller triggers a sell for a single mint
type OrderSeller interface {
	SellOrder(ctx context.Context, mint string) error
}

// MetricsRecorder captures service metrics
type MetricsRecorder interface {
	RecordFrame(outcome string)
	RecordControlMessage(kind string)
	RecordEvent(kind string, latency time.Duration)
	RecordBuyAttempt(platform, outcome string)
	RecordSellAttempt(platform, outcome string)
	RecordRedisOperation(operation string, duration time.Duration, success bool)
	RecordOrders(status string, count int)
}
