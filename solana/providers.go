package solana

import (
	"context"
	"fmt"
	"sync"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// LookupTableLoader fetches a lookup table by address
type LookupTableLoader interface {
	LookupTable(ctx context.Context, pubkey string) (*models.LookupTableAccount, error)
}

// LookupTableProvider holds the lookup table loaded at startup
type LookupTableProvider struct {
	mutex  sync.RWMutex
	table  *models.LookupTableAccount
	logger *logging.Logger
}

// NewLookupTableProvider creates an empty provider
func NewLookupTableProvider() *LookupTableProvider {
	return &LookupTableProvider{
		logger: logging.NewLogger("trading-service", "lookup-table"),
	}
}

// Initialize loads the first configured table. No accounts leaves the provider empty.
func (p *LookupTableProvider) Initialize(ctx context.Context, loader LookupTableLoader, accounts []string) error {
	if len(accounts) == 0 {
		return nil
	}

	table, err := loader.LookupTable(ctx, accounts[0])
	if err != nil {
		return fmt.Errorf("failed to load lookup table: %w", err)
	}

	p.mutex.Lock()
	p.table = table
	p.mutex.Unlock()

	p.logger.Info("Address lookup table loaded", map[string]interface{}{
		"key":       table.Key,
		"addresses": len(table.Addresses),
	})
	return nil
}

// LookupTable returns the loaded table or nil
func (p *LookupTableProvider) LookupTable() *models.LookupTableAccount {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.table
}

// BlockhashFetcher returns a fresh blockhash from the chain
type BlockhashFetcher interface {
	LatestBlockhash(ctx context.Context) (string, error)
}

// BlockhashProvider serves the cached blockhash and falls back to RPC
type BlockhashProvider struct {
	cache   interfaces.BlockhashStore
	fetcher BlockhashFetcher
	logger  *logging.Logger
}

// NewBlockhashProvider creates a provider over cache and fetcher
func NewBlockhashProvider(cache interfaces.BlockhashStore, fetcher BlockhashFetcher) *BlockhashProvider {
	return &BlockhashProvider{
		cache:   cache,
		fetcher: fetcher,
		logger:  logging.NewLogger("trading-service", "blockhash"),
	}
}

// RecentBlockhash returns the cached value, or fetches one when the cache is empty or unreachable
func (p *BlockhashProvider) RecentBlockhash(ctx context.Context) (string, error) {
	hash, err := p.cache.GetRecentBlockhash(ctx)
	if err == nil && hash != "" {
		return hash, nil
	}
	if err != nil {
		p.logger.Warn("Blockhash cache read failed, falling back to RPC", map[string]interface{}{"error": err.Error()})
	}
	return p.fetcher.LatestBlockhash(ctx)
}

// Refresh fetches a new blockhash and stores it in the cache
func (p *BlockhashProvider) Refresh(ctx context.Context) (string, error) {
	hash, err := p.fetcher.LatestBlockhash(ctx)
	if err != nil {
		return "", err
	}
	if err := p.cache.SetRecentBlockhash(ctx, hash); err != nil {
		return "", fmt.Errorf("failed to cache blockhash: %w", err)
	}
	return hash, nil
}
