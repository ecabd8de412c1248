package models

// EventKind identifies which DexEvent variant a frame carried
type EventKind string

const (
	KindUnknown                      EventKind = ""
	KindPumpFunTrade                 EventKind = "PumpFunTrade"
	KindPumpFunCreate                EventKind = "PumpFunCreate"
	KindPumpFunMigrate               EventKind = "PumpFunMigrate"
	KindPumpSwapBuy                  EventKind = "PumpSwapBuy"
	KindPumpSwapSell                 EventKind = "PumpSwapSell"
	KindPumpSwapCreatePool           EventKind = "PumpSwapCreatePool"
	KindPumpSwapLiquidityAdded       EventKind = "PumpSwapLiquidityAdded"
	KindPumpSwapLiquidityRemoved     EventKind = "PumpSwapLiquidityRemoved"
	KindRaydiumClmmSwap              EventKind = "RaydiumClmmSwap"
	KindRaydiumAmmV4Swap             EventKind = "RaydiumAmmV4Swap"
	KindOrcaWhirlpoolSwap            EventKind = "OrcaWhirlpoolSwap"
	KindMeteoraPoolsSwap             EventKind = "MeteoraPoolsSwap"
	KindMeteoraDammV2Swap            EventKind = "MeteoraDammV2Swap"
	KindMeteoraDammV2AddLiquidity    EventKind = "MeteoraDammV2AddLiquidity"
	KindMeteoraDammV2RemoveLiquidity EventKind = "MeteoraDammV2RemoveLiquidity"
	KindMeteoraDammV2CreatePosition  EventKind = "MeteoraDammV2CreatePosition"
	KindMeteoraDammV2ClosePosition   EventKind = "MeteoraDammV2ClosePosition"
)

// EventMetadata is attached to every DEX event by the stream producer
type EventMetadata struct {
	Signature   string `json:"signature"`
	Slot        uint64 `json:"slot"`
	TxIndex     uint64 `json:"tx_index"`
	BlockTimeUs int64  `json:"block_time_us"`
	GrpcRecvUs  int64  `json:"grpc_recv_us,omitempty"`
}

// DexEvent is the decoded event envelope. Exactly one payload pointer is set.
type DexEvent struct {
	EventType string    `json:"event_type"`
	Kind      EventKind `json:"kind"`

	PumpFunTrade                 *PumpFunTradeEvent                 `json:"pumpfun_trade,omitempty"`
	PumpFunCreate                *PumpFunCreateEvent                `json:"pumpfun_create,omitempty"`
	PumpFunMigrate               *PumpFunMigrateEvent               `json:"pumpfun_migrate,omitempty"`
	PumpSwapBuy                  *PumpSwapBuyEvent                  `json:"pumpswap_buy,omitempty"`
	PumpSwapSell                 *PumpSwapSellEvent                 `json:"pumpswap_sell,omitempty"`
	PumpSwapCreatePool           *PumpSwapCreatePoolEvent           `json:"pumpswap_create_pool,omitempty"`
	PumpSwapLiquidityAdded       *PumpSwapLiquidityEvent            `json:"pumpswap_liquidity_added,omitempty"`
	PumpSwapLiquidityRemoved     *PumpSwapLiquidityEvent            `json:"pumpswap_liquidity_removed,omitempty"`
	RaydiumClmmSwap              *RaydiumClmmSwapEvent              `json:"raydium_clmm_swap,omitempty"`
	RaydiumAmmV4Swap             *RaydiumAmmV4SwapEvent             `json:"raydium_amm_v4_swap,omitempty"`
	OrcaWhirlpoolSwap            *OrcaWhirlpoolSwapEvent            `json:"orca_whirlpool_swap,omitempty"`
	MeteoraPoolsSwap             *MeteoraPoolsSwapEvent             `json:"meteora_pools_swap,omitempty"`
	MeteoraDammV2Swap            *MeteoraDammV2SwapEvent            `json:"meteora_damm_v2_swap,omitempty"`
	MeteoraDammV2AddLiquidity    *MeteoraDammV2LiquidityEvent       `json:"meteora_damm_v2_add_liquidity,omitempty"`
	MeteoraDammV2RemoveLiquidity *MeteoraDammV2LiquidityEvent       `json:"meteora_damm_v2_remove_liquidity,omitempty"`
	MeteoraDammV2CreatePosition  *MeteoraDammV2PositionEvent        `json:"meteora_damm_v2_create_position,omitempty"`
	MeteoraDammV2ClosePosition   *MeteoraDammV2PositionEvent        `json:"meteora_damm_v2_close_position,omitempty"`
}

// Payload returns the populated variant and its metadata.
func (e *DexEvent) Payload() (interface{}, *EventMetadata) {
	switch {
	case e.PumpFunTrade != nil:
		return e.PumpFunTrade, e.PumpFunTrade.Metadata
	case e.PumpFunCreate != nil:
		return e.PumpFunCreate, e.PumpFunCreate.Metadata
	case e.PumpFunMigrate != nil:
		return e.PumpFunMigrate, e.PumpFunMigrate.Metadata
	case e.PumpSwapBuy != nil:
		return e.PumpSwapBuy, e.PumpSwapBuy.Metadata
	case e.PumpSwapSell != nil:
		return e.PumpSwapSell, e.PumpSwapSell.Metadata
	case e.PumpSwapCreatePool != nil:
		return e.PumpSwapCreatePool, e.PumpSwapCreatePool.Metadata
	case e.PumpSwapLiquidityAdded != nil:
		return e.PumpSwapLiquidityAdded, e.PumpSwapLiquidityAdded.Metadata
	case e.PumpSwapLiquidityRemoved != nil:
		return e.PumpSwapLiquidityRemoved, e.PumpSwapLiquidityRemoved.Metadata
	case e.RaydiumClmmSwap != nil:
		return e.RaydiumClmmSwap, e.RaydiumClmmSwap.Metadata
	case e.RaydiumAmmV4Swap != nil:
		return e.RaydiumAmmV4Swap, e.RaydiumAmmV4Swap.Metadata
	case e.OrcaWhirlpoolSwap != nil:
		return e.OrcaWhirlpoolSwap, e.OrcaWhirlpoolSwap.Metadata
	case e.MeteoraPoolsSwap != nil:
		return e.MeteoraPoolsSwap, e.MeteoraPoolsSwap.Metadata
	case e.MeteoraDammV2Swap != nil:
		return e.MeteoraDammV2Swap, e.MeteoraDammV2Swap.Metadata
	case e.MeteoraDammV2AddLiquidity != nil:
		return e.MeteoraDammV2AddLiquidity, e.MeteoraDammV2AddLiquidity.Metadata
	case e.MeteoraDammV2RemoveLiquidity != nil:
		return e.MeteoraDammV2RemoveLiquidity, e.MeteoraDammV2RemoveLiquidity.Metadata
	case e.MeteoraDammV2CreatePosition != nil:
		return e.MeteoraDammV2CreatePosition, e.MeteoraDammV2CreatePosition.Metadata
	case e.MeteoraDammV2ClosePosition != nil:
		return e.MeteoraDammV2ClosePosition, e.MeteoraDammV2ClosePosition.Metadata
	}
	return nil, nil
}

type PumpFunTradeEvent struct {
	Metadata               *EventMetadata `json:"metadata,omitempty"`
	Mint                   string         `json:"mint"`
	SolAmount              uint64         `json:"sol_amount"`
	TokenAmount            uint64         `json:"token_amount"`
	IsBuy                  bool           `json:"is_buy"`
	IsCreatedBuy           bool           `json:"is_created_buy"`
	User                   string         `json:"user"`
	Timestamp              int64          `json:"timestamp"`
	VirtualSolReserves     uint64         `json:"virtual_sol_reserves"`
	VirtualTokenReserves   uint64         `json:"virtual_token_reserves"`
	RealSolReserves        uint64         `json:"real_sol_reserves"`
	RealTokenReserves      uint64         `json:"real_token_reserves"`
	FeeRecipient           string         `json:"fee_recipient"`
	FeeBasisPoints         uint64         `json:"fee_basis_points"`
	Fee                    uint64         `json:"fee"`
	Creator                string         `json:"creator"`
	CreatorFeeBasisPoints  uint64         `json:"creator_fee_basis_points"`
	CreatorFee             uint64         `json:"creator_fee"`
	TrackVolume            bool           `json:"track_volume"`
	TotalUnclaimedTokens   uint64         `json:"total_unclaimed_tokens"`
	TotalClaimedTokens     uint64         `json:"total_claimed_tokens"`
	CurrentSolVolume       uint64         `json:"current_sol_volume"`
	LastUpdateTimestamp    int64          `json:"last_update_timestamp"`
	BondingCurve           string         `json:"bonding_curve"`
	AssociatedBondingCurve string         `json:"associated_bonding_curve"`
	CreatorVault           string         `json:"creator_vault"`
}

type PumpFunCreateEvent struct {
	Metadata             *EventMetadata `json:"metadata,omitempty"`
	Name                 string         `json:"name"`
	Symbol               string         `json:"symbol"`
	URI                  string         `json:"uri"`
	Mint                 string         `json:"mint"`
	BondingCurve         string         `json:"bonding_curve"`
	User                 string         `json:"user"`
	Creator              string         `json:"creator"`
	Timestamp            int64          `json:"timestamp"`
	VirtualTokenReserves uint64         `json:"virtual_token_reserves"`
	VirtualSolReserves   uint64         `json:"virtual_sol_reserves"`
	RealTokenReserves    uint64         `json:"real_token_reserves"`
	TokenTotalSupply     uint64         `json:"token_total_supply"`
}

type PumpFunMigrateEvent struct {
	Metadata         *EventMetadata `json:"metadata,omitempty"`
	User             string         `json:"user"`
	Mint             string         `json:"mint"`
	MintAmount       uint64         `json:"mint_amount"`
	SolAmount        uint64         `json:"sol_amount"`
	PoolMigrationFee uint64         `json:"pool_migration_fee"`
	BondingCurve     string         `json:"bonding_curve"`
	Timestamp        int64          `json:"timestamp"`
	Pool             string         `json:"pool"`
}

// PumpSwapBuyEvent: the user receives base_amount_out base tokens for quote tokens.
type PumpSwapBuyEvent struct {
	Metadata                         *EventMetadata `json:"metadata,omitempty"`
	Timestamp                        int64          `json:"timestamp"`
	BaseAmountOut                    uint64         `json:"base_amount_out"`
	MaxQuoteAmountIn                 uint64         `json:"max_quote_amount_in"`
	UserBaseTokenReserves            uint64         `json:"user_base_token_reserves"`
	UserQuoteTokenReserves           uint64         `json:"user_quote_token_reserves"`
	PoolBaseTokenReserves            uint64         `json:"pool_base_token_reserves"`
	PoolQuoteTokenReserves           uint64         `json:"pool_quote_token_reserves"`
	QuoteAmountIn                    uint64         `json:"quote_amount_in"`
	LpFeeBasisPoints                 uint64         `json:"lp_fee_basis_points"`
	LpFee                            uint64         `json:"lp_fee"`
	ProtocolFeeBasisPoints           uint64         `json:"protocol_fee_basis_points"`
	ProtocolFee                      uint64         `json:"protocol_fee"`
	QuoteAmountInWithLpFee           uint64         `json:"quote_amount_in_with_lp_fee"`
	UserQuoteAmountIn                uint64         `json:"user_quote_amount_in"`
	Pool                             string         `json:"pool"`
	User                             string         `json:"user"`
	UserBaseTokenAccount             string         `json:"user_base_token_account"`
	UserQuoteTokenAccount            string         `json:"user_quote_token_account"`
	ProtocolFeeRecipient             string         `json:"protocol_fee_recipient"`
	ProtocolFeeRecipientTokenAccount string         `json:"protocol_fee_recipient_token_account"`
	CoinCreator                      string         `json:"coin_creator"`
	CoinCreatorFeeBasisPoints        uint64         `json:"coin_creator_fee_basis_points"`
	CoinCreatorFee                   uint64         `json:"coin_creator_fee"`
	TrackVolume                      bool           `json:"track_volume"`
	TotalUnclaimedTokens             uint64         `json:"total_unclaimed_tokens"`
	TotalClaimedTokens               uint64         `json:"total_claimed_tokens"`
	CurrentSolVolume                 uint64         `json:"current_sol_volume"`
	LastUpdateTimestamp              int64          `json:"last_update_timestamp"`
	BaseMint                         string         `json:"base_mint"`
	QuoteMint                        string         `json:"quote_mint"`
	PoolBaseTokenAccount             string         `json:"pool_base_token_account"`
	PoolQuoteTokenAccount            string         `json:"pool_quote_token_account"`
	CoinCreatorVaultAta              string         `json:"coin_creator_vault_ata"`
	CoinCreatorVaultAuthority        string         `json:"coin_creator_vault_authority"`
	BaseTokenProgram                 string         `json:"base_token_program"`
	QuoteTokenProgram                string         `json:"quote_token_program"`
}

// PumpSwapSellEvent: the user gives base_amount_in base tokens for quote tokens.
type PumpSwapSellEvent struct {
	Metadata                         *EventMetadata `json:"metadata,omitempty"`
	Timestamp                        int64          `json:"timestamp"`
	BaseAmountIn                     uint64         `json:"base_amount_in"`
	MinQuoteAmountOut                uint64         `json:"min_quote_amount_out"`
	UserBaseTokenReserves            uint64         `json:"user_base_token_reserves"`
	UserQuoteTokenReserves           uint64         `json:"user_quote_token_reserves"`
	PoolBaseTokenReserves            uint64         `json:"pool_base_token_reserves"`
	PoolQuoteTokenReserves           uint64         `json:"pool_quote_token_reserves"`
	QuoteAmountOut                   uint64         `json:"quote_amount_out"`
	LpFeeBasisPoints                 uint64         `json:"lp_fee_basis_points"`
	LpFee                            uint64         `json:"lp_fee"`
	ProtocolFeeBasisPoints           uint64         `json:"protocol_fee_basis_points"`
	ProtocolFee                      uint64         `json:"protocol_fee"`
	QuoteAmountOutWithoutLpFee       uint64         `json:"quote_amount_out_without_lp_fee"`
	UserQuoteAmountOut               uint64         `json:"user_quote_amount_out"`
	Pool                             string         `json:"pool"`
	User                             string         `json:"user"`
	UserBaseTokenAccount             string         `json:"user_base_token_account"`
	UserQuoteTokenAccount            string         `json:"user_quote_token_account"`
	ProtocolFeeRecipient             string         `json:"protocol_fee_recipient"`
	ProtocolFeeRecipientTokenAccount string         `json:"protocol_fee_recipient_token_account"`
	CoinCreator                      string         `json:"coin_creator"`
	CoinCreatorFeeBasisPoints        uint64         `json:"coin_creator_fee_basis_points"`
	CoinCreatorFee                   uint64         `json:"coin_creator_fee"`
	BaseMint                         string         `json:"base_mint"`
	QuoteMint                        string         `json:"quote_mint"`
	PoolBaseTokenAccount             string         `json:"pool_base_token_account"`
	PoolQuoteTokenAccount            string         `json:"pool_quote_token_account"`
	CoinCreatorVaultAta              string         `json:"coin_creator_vault_ata"`
	CoinCreatorVaultAuthority        string         `json:"coin_creator_vault_authority"`
	BaseTokenProgram                 string         `json:"base_token_program"`
	QuoteTokenProgram                string         `json:"quote_token_program"`
}

type PumpSwapCreatePoolEvent struct {
	Metadata          *EventMetadata `json:"metadata,omitempty"`
	Timestamp         int64          `json:"timestamp"`
	Index             uint32         `json:"index"`
	Creator           string         `json:"creator"`
	BaseMint          string         `json:"base_mint"`
	QuoteMint         string         `json:"quote_mint"`
	BaseMintDecimals  uint32         `json:"base_mint_decimals"`
	QuoteMintDecimals uint32         `json:"quote_mint_decimals"`
	BaseAmountIn      uint64         `json:"base_amount_in"`
	QuoteAmountIn     uint64         `json:"quote_amount_in"`
	PoolBaseAmount    uint64         `json:"pool_base_amount"`
	PoolQuoteAmount   uint64         `json:"pool_quote_amount"`
	MinimumLiquidity  uint64         `json:"minimum_liquidity"`
	InitialLiquidity  uint64         `json:"initial_liquidity"`
	LpTokenAmountOut  uint64         `json:"lp_token_amount_out"`
	PoolBump          uint32         `json:"pool_bump"`
	Pool              string         `json:"pool"`
	LpMint            string         `json:"lp_mint"`
	CoinCreator       string         `json:"coin_creator"`
}

// PumpSwapLiquidityEvent covers both deposit and withdraw. LpTokenAmount,
// BaseAmount and QuoteAmount hold the in/out side matching the event kind.
type PumpSwapLiquidityEvent struct {
	Metadata               *EventMetadata `json:"metadata,omitempty"`
	Timestamp              int64          `json:"timestamp"`
	LpTokenAmount          uint64         `json:"lp_token_amount"`
	PoolBaseTokenReserves  uint64         `json:"pool_base_token_reserves"`
	PoolQuoteTokenReserves uint64         `json:"pool_quote_token_reserves"`
	BaseAmount             uint64         `json:"base_amount"`
	QuoteAmount            uint64         `json:"quote_amount"`
	LpMintSupply           uint64         `json:"lp_mint_supply"`
	Pool                   string         `json:"pool"`
	User                   string         `json:"user"`
}

type RaydiumClmmSwapEvent struct {
	Metadata      *EventMetadata `json:"metadata,omitempty"`
	PoolState     string         `json:"pool_state"`
	Sender        string         `json:"sender"`
	TokenAccount0 string         `json:"token_account_0"`
	TokenAccount1 string         `json:"token_account_1"`
	Amount0       uint64         `json:"amount_0"`
	TransferFee0  uint64         `json:"transfer_fee_0"`
	Amount1       uint64         `json:"amount_1"`
	TransferFee1  uint64         `json:"transfer_fee_1"`
	ZeroForOne    bool           `json:"zero_for_one"`
	SqrtPriceX64  uint64         `json:"sqrt_price_x64"`
	Liquidity     uint64         `json:"liquidity"`
	Tick          int32          `json:"tick"`
}

type RaydiumAmmV4SwapEvent struct {
	Metadata                    *EventMetadata `json:"metadata,omitempty"`
	AmountIn                    uint64         `json:"amount_in"`
	MinimumAmountOut            uint64         `json:"minimum_amount_out"`
	MaxAmountIn                 uint64         `json:"max_amount_in"`
	AmountOut                   uint64         `json:"amount_out"`
	Amm                         string         `json:"amm"`
	PoolCoinTokenAccount        string         `json:"pool_coin_token_account"`
	PoolPcTokenAccount          string         `json:"pool_pc_token_account"`
	UserSourceTokenAccount      string         `json:"user_source_token_account"`
	UserDestinationTokenAccount string         `json:"user_destination_token_account"`
	UserSourceOwner             string         `json:"user_source_owner"`
}

type OrcaWhirlpoolSwapEvent struct {
	Metadata          *EventMetadata `json:"metadata,omitempty"`
	Whirlpool         string         `json:"whirlpool"`
	AToB              bool           `json:"a_to_b"`
	PreSqrtPrice      uint64         `json:"pre_sqrt_price"`
	PostSqrtPrice     uint64         `json:"post_sqrt_price"`
	InputAmount       uint64         `json:"input_amount"`
	OutputAmount      uint64         `json:"output_amount"`
	InputTransferFee  uint64         `json:"input_transfer_fee"`
	OutputTransferFee uint64         `json:"output_transfer_fee"`
	LpFee             uint64         `json:"lp_fee"`
	ProtocolFee       uint64         `json:"protocol_fee"`
}

type MeteoraPoolsSwapEvent struct {
	Metadata  *EventMetadata `json:"metadata,omitempty"`
	InAmount  uint64         `json:"in_amount"`
	OutAmount uint64         `json:"out_amount"`
	TradeFee  uint64         `json:"trade_fee"`
	AdminFee  uint64         `json:"admin_fee"`
	HostFee   uint64         `json:"host_fee"`
}

// Meteora DAMM v2 trade directions
const (
	TradeDirectionAToB uint32 = 0
	TradeDirectionBToA uint32 = 1
)

type MeteoraDammV2SwapEvent struct {
	Metadata         *EventMetadata `json:"metadata,omitempty"`
	Pool             string         `json:"pool"`
	TradeDirection   uint32         `json:"trade_direction"`
	HasReferral      bool           `json:"has_referral"`
	AmountIn         uint64         `json:"amount_in"`
	MinimumAmountOut uint64         `json:"minimum_amount_out"`
	OutputAmount     uint64         `json:"output_amount"`
	NextSqrtPrice    uint64         `json:"next_sqrt_price"`
	LpFee            uint64         `json:"lp_fee"`
	ProtocolFee      uint64         `json:"protocol_fee"`
	PartnerFee       uint64         `json:"partner_fee"`
	ReferralFee      uint64         `json:"referral_fee"`
	ActualAmountIn   uint64         `json:"actual_amount_in"`
	CurrentTimestamp uint64         `json:"current_timestamp"`
	TokenAVault      string         `json:"token_a_vault"`
	TokenBVault      string         `json:"token_b_vault"`
	TokenAMint       string         `json:"token_a_mint"`
	TokenBMint       string         `json:"token_b_mint"`
	TokenAProgram    string         `json:"token_a_program"`
	TokenBProgram    string         `json:"token_b_program"`
}

type MeteoraDammV2LiquidityEvent struct {
	Metadata       *EventMetadata `json:"metadata,omitempty"`
	Pool           string         `json:"pool"`
	Position       string         `json:"position"`
	Owner          string         `json:"owner"`
	LiquidityDelta uint64         `json:"liquidity_delta"`
	TokenAAmount   uint64         `json:"token_a_amount"`
	TokenBAmount   uint64         `json:"token_b_amount"`
}

type MeteoraDammV2PositionEvent struct {
	Metadata        *EventMetadata `json:"metadata,omitempty"`
	Pool            string         `json:"pool"`
	Owner           string         `json:"owner"`
	Position        string         `json:"position"`
	PositionNftMint string         `json:"position_nft_mint"`
}

// ServerAck, ServerError and ServerHeartbeat are control messages on the stream.
type ServerAck struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
}

type ServerError struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

type ServerHeartbeat struct {
	Timestamp        uint64 `json:"timestamp"`
	ConnectedClients uint32 `json:"connected_clients"`
}

// ServerMessage is the top-level frame payload. At most one field is set.
type ServerMessage struct {
	Ack       *ServerAck
	Event     *DexEvent
	Error     *ServerError
	Heartbeat *ServerHeartbeat
}
