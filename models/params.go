package models

import "encoding/json"

// GasFeeStrategy is sent as gas_fee_strategy. Exactly one of the two shapes is
// populated, selected by StrategyType.
type GasFeeStrategy struct {
	StrategyType string `json:"strategy_type"`

	GlobalCULimit uint64  `json:"global_cu_limit,omitempty"`
	GlobalCUPrice uint64  `json:"global_cu_price,omitempty"`
	GlobalBuyTip  float64 `json:"global_buy_tip,omitempty"`
	GlobalSellTip float64 `json:"global_sell_tip,omitempty"`

	CULimit     uint64  `json:"cu_limit,omitempty"`
	HighCUPrice uint64  `json:"high_cu_price,omitempty"`
	LowBuyTip   float64 `json:"low_buy_tip,omitempty"`
	LowSellTip  float64 `json:"low_sell_tip,omitempty"`
	LowCUPrice  uint64  `json:"low_cu_price,omitempty"`
	HighBuyTip  float64 `json:"high_buy_tip,omitempty"`
	HighSellTip float64 `json:"high_sell_tip,omitempty"`
}

const (
	GasStrategyGlobal  = "global"
	GasStrategyHighLow = "high_low"
)

// MarshalJSON emits only the fields of the selected strategy so zero tips stay explicit.
func (g GasFeeStrategy) MarshalJSON() ([]byte, error) {
	if g.StrategyType == GasStrategyHighLow {
		return json.Marshal(map[string]interface{}{
			"strategy_type": g.StrategyType,
			"cu_limit":      g.CULimit,
			"high_cu_price": g.HighCUPrice,
			"low_buy_tip":   g.LowBuyTip,
			"low_sell_tip":  g.LowSellTip,
			"low_cu_price":  g.LowCUPrice,
			"high_buy_tip":  g.HighBuyTip,
			"high_sell_tip": g.HighSellTip,
		})
	}
	return json.Marshal(map[string]interface{}{
		"strategy_type":   GasStrategyGlobal,
		"global_cu_limit": g.GlobalCULimit,
		"global_cu_price": g.GlobalCUPrice,
		"global_buy_tip":  g.GlobalBuyTip,
		"global_sell_tip": g.GlobalSellTip,
	})
}

// TradeParams are the transaction-context fields common to every DEX
type TradeParams struct {
	Mint                      string              `json:"mint"`
	AmountSol                 float64             `json:"amount_sol,omitempty"`
	AmountTokens              int64               `json:"amount_tokens,omitempty"`
	SlippageBps               int                 `json:"slippage_bps"`
	TokenType                 string              `json:"token_type"`
	GasFeeStrategy            GasFeeStrategy      `json:"gas_fee_strategy"`
	RecentBlockhash           string              `json:"recent_blockhash,omitempty"`
	DurableNonce              *NonceInfo          `json:"durable_nonce,omitempty"`
	AddressLookupTableAccount *LookupTableAccount `json:"address_lookup_table_account,omitempty"`
	CloseOutputTokenAta       bool                `json:"close_output_token_ata,omitempty"`
}

// Token types understood by the proxy
const (
	TokenTypeSOL  = "SOL"
	TokenTypeWSOL = "WSOL"
)

// DexParams is implemented by the per-DEX parameter structs.
type DexParams interface {
	DexType() string
}

type PumpFunParams struct {
	BondingCurveAccount       string `json:"bonding_curve_account"`
	VirtualTokenReserves      uint64 `json:"virtual_token_reserves"`
	VirtualSolReserves        uint64 `json:"virtual_sol_reserves"`
	RealTokenReserves         uint64 `json:"real_token_reserves"`
	RealSolReserves           uint64 `json:"real_sol_reserves"`
	TokenTotalSupply          uint64 `json:"token_total_supply"`
	Complete                  bool   `json:"complete"`
	Creator                   string `json:"creator"`
	AssociatedBondingCurve    string `json:"associated_bonding_curve"`
	CreatorVault              string `json:"creator_vault"`
	CloseTokenAccountWhenSell bool   `json:"close_token_account_when_sell"`
}

func (PumpFunParams) DexType() string { return "PumpFun" }

type PumpSwapParams struct {
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

func (PumpSwapParams) DexType() string { return "PumpSwap" }

type MeteoraDammV2Params struct {
	Pool          string `json:"pool"`
	TokenAVault   string `json:"token_a_vault"`
	TokenBVault   string `json:"token_b_vault"`
	TokenAMint    string `json:"token_a_mint"`
	TokenBMint    string `json:"token_b_mint"`
	TokenAProgram string `json:"token_a_program"`
	TokenBProgram string `json:"token_b_program"`
}

func (MeteoraDammV2Params) DexType() string { return "MeteoraDammV2" }

// TradeResponse is the proxy's answer to buy and sell
type TradeResponse struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Message   string `json:"message"`
}

// Confirmed reports a successful trade that produced a signature.
func (r *TradeResponse) Confirmed() bool {
	return r != nil && r.Success && r.Signature != ""
}

// HealthResponse is returned by the proxy's /health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
