package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/nonce"
)

// pumpFunTotalSupply is the fixed supply of every bonding curve token (1e9 tokens, 6 decimals)
const pumpFunTotalSupply = 1_000_000_000_000_000

// Settings are the trading knobs shared by every platform
type Settings struct {
	BuyAmountSOL float64
	SlippageBps  int
	BotAddress   string
	GasFee       models.GasFeeStrategy
}

// ParamBuilder assembles the trade params sent alongside the DEX params
type ParamBuilder struct {
	settings  Settings
	nonce     interfaces.NonceProvider
	blockhash interfaces.BlockhashProvider
	lookup    interfaces.LookupTableProvider
}

// NewParamBuilder creates a builder. lookup may be nil.
func NewParamBuilder(settings Settings, nonceProvider interfaces.NonceProvider, blockhash interfaces.BlockhashProvider, lookup interfaces.LookupTableProvider) *ParamBuilder {
	return &ParamBuilder{
		settings:  settings,
		nonce:     nonceProvider,
		blockhash: blockhash,
		lookup:    lookup,
	}
}

// BuyParams returns trade params for spending the configured SOL amount on mint
func (b *ParamBuilder) BuyParams(ctx context.Context, platform models.Platform, mint string) (*models.TradeParams, error) {
	params, err := b.common(ctx, platform, mint)
	if err != nil {
		return nil, err
	}
	params.AmountSol = b.settings.BuyAmountSOL
	return params, nil
}

// SellParams returns trade params for selling tokenAmount of mint and closing the token account
func (b *ParamBuilder) SellParams(ctx context.Context, platform models.Platform, mint string, tokenAmount int64) (*models.TradeParams, error) {
	params, err := b.common(ctx, platform, mint)
	if err != nil {
		return nil, err
	}
	params.AmountTokens = tokenAmount
	params.CloseOutputTokenAta = true
	return params, nil
}

func (b *ParamBuilder) common(ctx context.Context, platform models.Platform, mint string) (*models.TradeParams, error) {
	params := &models.TradeParams{
		Mint:           mint,
		SlippageBps:    b.settings.SlippageBps,
		TokenType:      tokenType(platform),
		GasFeeStrategy: b.settings.GasFee,
	}

	if b.nonce != nil && b.nonce.Enabled() {
		info := b.nonce.Cached()
		if info == nil {
			return nil, nonce.ErrNonceUnavailable
		}
		params.DurableNonce = info
	} else {
		if b.blockhash == nil {
			return nil, errors.New("no blockhash source configured")
		}
		hash, err := b.blockhash.RecentBlockhash(ctx)
		if err != nil {
			return nil, fmt.Errorf("recent blockhash: %w", err)
		}
		if hash == "" {
			return nil, errors.New("recent blockhash: empty value")
		}
		params.RecentBlockhash = hash
	}

	if b.lookup != nil {
		params.AddressLookupTableAccount = b.lookup.LookupTable()
	}
	return params, nil
}

// tokenType is SOL on the bonding curve and WSOL on the AMMs
func tokenType(platform models.Platform) string {
	if platform == models.PlatformPumpFun {
		return models.TokenTypeSOL
	}
	return models.TokenTypeWSOL
}

// pumpSwapPool holds the pool fields shared by PumpSwap buy and sell events,
// under the names both events and the proxy use
type pumpSwapPool struct {
	Pool                      string `json:"pool"`
	BaseMint                  string `json:"base_mint"`
	QuoteMint                 string `json:"quote_mint"`
	PoolBaseTokenAccount      string `json:"pool_base_token_account"`
	PoolQuoteTokenAccount     string `json:"pool_quote_token_account"`
	PoolBaseTokenReserves     uint64 `json:"pool_base_token_reserves"`
	PoolQuoteTokenReserves    uint64 `json:"pool_quote_token_reserves"`
	CoinCreatorVaultAta       string `json:"coin_creator_vault_ata"`
	CoinCreatorVaultAuthority string `json:"coin_creator_vault_authority"`
}

func (p *pumpSwapPool) params() models.PumpSwapParams {
	return models.PumpSwapParams{
		Pool:                      p.Pool,
		BaseMint:                  p.BaseMint,
		QuoteMint:                 p.QuoteMint,
		PoolBaseTokenAccount:      p.PoolBaseTokenAccount,
		PoolQuoteTokenAccount:     p.PoolQuoteTokenAccount,
		PoolBaseTokenReserves:     p.PoolBaseTokenReserves,
		PoolQuoteTokenReserves:    p.PoolQuoteTokenReserves,
		CoinCreatorVaultAta:       p.CoinCreatorVaultAta,
		CoinCreatorVaultAuthority: p.CoinCreatorVaultAuthority,
	}
}

// decodeSnapshot turns a stored snapshot back into the event type DexParams accepts
func decodeSnapshot(platform models.Platform, raw json.RawMessage) (interface{}, error) {
	var target interface{}
	switch platform {
	case models.PlatformPumpFun:
		target = &models.PumpFunTradeEvent{}
	case models.PlatformPumpSwap:
		target = &pumpSwapPool{}
	case models.PlatformMeteoraDammV2:
		target = &models.MeteoraDammV2SwapEvent{}
	default:
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode %s snapshot: %w", platform, err)
	}
	return target, nil
}

// DexParams builds the DEX-specific half of a proxy request from a snapshot
func DexParams(snapshot interface{}, isBuy bool) (models.DexParams, error) {
	switch ev := snapshot.(type) {
	case *models.PumpFunTradeEvent:
		return models.PumpFunParams{
			BondingCurveAccount:       ev.BondingCurve,
			VirtualTokenReserves:      ev.VirtualTokenReserves,
			VirtualSolReserves:        ev.VirtualSolReserves,
			RealTokenReserves:         ev.RealTokenReserves,
			RealSolReserves:           ev.RealSolReserves,
			TokenTotalSupply:          pumpFunTotalSupply,
			Complete:                  false,
			Creator:                   ev.Creator,
			AssociatedBondingCurve:    ev.AssociatedBondingCurve,
			CreatorVault:              ev.CreatorVault,
			CloseTokenAccountWhenSell: !isBuy,
		}, nil
	case *models.PumpSwapBuyEvent:
		pool := pumpSwapPool{
			Pool: ev.Pool, BaseMint: ev.BaseMint, QuoteMint: ev.QuoteMint,
			PoolBaseTokenAccount: ev.PoolBaseTokenAccount, PoolQuoteTokenAccount: ev.PoolQuoteTokenAccount,
			PoolBaseTokenReserves: ev.PoolBaseTokenReserves, PoolQuoteTokenReserves: ev.PoolQuoteTokenReserves,
			CoinCreatorVaultAta: ev.CoinCreatorVaultAta, CoinCreatorVaultAuthority: ev.CoinCreatorVaultAuthority,
		}
		return pool.params(), nil
	case *models.PumpSwapSellEvent:
		pool := pumpSwapPool{
			Pool: ev.Pool, BaseMint: ev.BaseMint, QuoteMint: ev.QuoteMint,
			PoolBaseTokenAccount: ev.PoolBaseTokenAccount, PoolQuoteTokenAccount: ev.PoolQuoteTokenAccount,
			PoolBaseTokenReserves: ev.PoolBaseTokenReserves, PoolQuoteTokenReserves: ev.PoolQuoteTokenReserves,
			CoinCreatorVaultAta: ev.CoinCreatorVaultAta, CoinCreatorVaultAuthority: ev.CoinCreatorVaultAuthority,
		}
		return pool.params(), nil
	case *pumpSwapPool:
		return ev.params(), nil
	case *models.MeteoraDammV2SwapEvent:
		return models.MeteoraDammV2Params{
			Pool:          ev.Pool,
			TokenAVault:   ev.TokenAVault,
			TokenBVault:   ev.TokenBVault,
			TokenAMint:    ev.TokenAMint,
			TokenBMint:    ev.TokenBMint,
			TokenAProgram: ev.TokenAProgram,
			TokenBProgram: ev.TokenBProgram,
		}, nil
	}
	return nil, fmt.Errorf("no DEX params for snapshot type %T", snapshot)
}
