package codec

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// DexEvent oneof field numbers; field 1 is event_type
var dexEventKinds = map[protowire.Number]models.EventKind{
	2:  models.KindPumpFunTrade,
	3:  models.KindPumpFunCreate,
	4:  models.KindPumpFunMigrate,
	5:  models.KindPumpSwapBuy,
	6:  models.KindPumpSwapSell,
	7:  models.KindPumpSwapCreatePool,
	8:  models.KindPumpSwapLiquidityAdded,
	9:  models.KindPumpSwapLiquidityRemoved,
	10: models.KindRaydiumClmmSwap,
	11: models.KindRaydiumAmmV4Swap,
	12: models.KindOrcaWhirlpoolSwap,
	13: models.KindMeteoraPoolsSwap,
	14: models.KindMeteoraDammV2Swap,
	15: models.KindMeteoraDammV2AddLiquidity,
	16: models.KindMeteoraDammV2RemoveLiquidity,
	17: models.KindMeteoraDammV2CreatePosition,
	18: models.KindMeteoraDammV2ClosePosition,
}

func decodeDexEvent(c *Cursor) (*models.DexEvent, error) {
	de := &models.DexEvent{}
	err := c.fields(func(num protowire.Number, typ protowire.Type) error {
		if num == 1 {
			return c.stringField(num, typ, &de.EventType)
		}
		kind, ok := dexEventKinds[num]
		if !ok {
			return c.Skip(num, typ)
		}
		return c.message(num, typ, func(c *Cursor) error {
			// a later oneof member replaces an earlier one
			*de = models.DexEvent{EventType: de.EventType, Kind: kind}
			return decodeVariant(c, de)
		})
	})
	if err != nil {
		return nil, err
	}
	return de, nil
}

func decodeVariant(c *Cursor, de *models.DexEvent) error {
	var err error
	switch de.Kind {
	case models.KindPumpFunTrade:
		de.PumpFunTrade, err = decodePumpFunTrade(c)
	case models.KindPumpFunCreate:
		de.PumpFunCreate, err = decodePumpFunCreate(c)
	case models.KindPumpFunMigrate:
		de.PumpFunMigrate, err = decodePumpFunMigrate(c)
	case models.KindPumpSwapBuy:
		de.PumpSwapBuy, err = decodePumpSwapBuy(c)
	case models.KindPumpSwapSell:
		de.PumpSwapSell, err = decodePumpSwapSell(c)
	case models.KindPumpSwapCreatePool:
		de.PumpSwapCreatePool, err = decodePumpSwapCreatePool(c)
	case models.KindPumpSwapLiquidityAdded, models.KindPumpSwapLiquidityRemoved:
		var ev *models.PumpSwapLiquidityEvent
		ev, err = decodePumpSwapLiquidity(c)
		if de.Kind == models.KindPumpSwapLiquidityAdded {
			de.PumpSwapLiquidityAdded = ev
		} else {
			de.PumpSwapLiquidityRemoved = ev
		}
	case models.KindRaydiumClmmSwap:
		de.RaydiumClmmSwap, err = decodeRaydiumClmmSwap(c)
	case models.KindRaydiumAmmV4Swap:
		de.RaydiumAmmV4Swap, err = decodeRaydiumAmmV4Swap(c)
	case models.KindOrcaWhirlpoolSwap:
		de.OrcaWhirlpoolSwap, err = decodeOrcaWhirlpoolSwap(c)
	case models.KindMeteoraPoolsSwap:
		de.MeteoraPoolsSwap, err = decodeMeteoraPoolsSwap(c)
	case models.KindMeteoraDammV2Swap:
		de.MeteoraDammV2Swap, err = decodeMeteoraDammV2Swap(c)
	case models.KindMeteoraDammV2AddLiquidity, models.KindMeteoraDammV2RemoveLiquidity:
		var ev *models.MeteoraDammV2LiquidityEvent
		ev, err = decodeMeteoraDammV2Liquidity(c)
		if de.Kind == models.KindMeteoraDammV2AddLiquidity {
			de.MeteoraDammV2AddLiquidity = ev
		} else {
			de.MeteoraDammV2RemoveLiquidity = ev
		}
	case models.KindMeteoraDammV2CreatePosition, models.KindMeteoraDammV2ClosePosition:
		var ev *models.MeteoraDammV2PositionEvent
		ev, err = decodeMeteoraDammV2Position(c)
		if de.Kind == models.KindMeteoraDammV2CreatePosition {
			de.MeteoraDammV2CreatePosition = ev
		} else {
			de.MeteoraDammV2ClosePosition = ev
		}
	}
	return err
}

func decodePumpFunTrade(c *Cursor) (*models.PumpFunTradeEvent, error) {
	ev := &models.PumpFunTradeEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.stringField(num, typ, &ev.Mint)
		case 3:
			return c.uint64Field(num, typ, &ev.SolAmount)
		case 4:
			return c.uint64Field(num, typ, &ev.TokenAmount)
		case 5:
			return c.boolField(num, typ, &ev.IsBuy)
		case 6:
			return c.boolField(num, typ, &ev.IsCreatedBuy)
		case 7:
			return c.stringField(num, typ, &ev.User)
		case 8:
			return c.int64Field(num, typ, &ev.Timestamp)
		case 9:
			return c.uint64Field(num, typ, &ev.VirtualSolReserves)
		case 10:
			return c.uint64Field(num, typ, &ev.VirtualTokenReserves)
		case 11:
			return c.uint64Field(num, typ, &ev.RealSolReserves)
		case 12:
			return c.uint64Field(num, typ, &ev.RealTokenReserves)
		case 13:
			return c.stringField(num, typ, &ev.FeeRecipient)
		case 14:
			return c.uint64Field(num, typ, &ev.FeeBasisPoints)
		case 15:
			return c.uint64Field(num, typ, &ev.Fee)
		case 16:
			return c.stringField(num, typ, &ev.Creator)
		case 17:
			return c.uint64Field(num, typ, &ev.CreatorFeeBasisPoints)
		case 18:
			return c.uint64Field(num, typ, &ev.CreatorFee)
		case 19:
			return c.boolField(num, typ, &ev.TrackVolume)
		case 20:
			return c.uint64Field(num, typ, &ev.TotalUnclaimedTokens)
		case 21:
			return c.uint64Field(num, typ, &ev.TotalClaimedTokens)
		case 22:
			return c.uint64Field(num, typ, &ev.CurrentSolVolume)
		case 23:
			return c.int64Field(num, typ, &ev.LastUpdateTimestamp)
		case 24:
			return c.stringField(num, typ, &ev.BondingCurve)
		case 25:
			return c.stringField(num, typ, &ev.AssociatedBondingCurve)
		case 26:
			return c.stringField(num, typ, &ev.CreatorVault)
		}
		return c.Skip(num, typ)
	})
}

func decodePumpFunCreate(c *Cursor) (*models.PumpFunCreateEvent, error) {
	ev := &models.PumpFunCreateEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.stringField(num, typ, &ev.Name)
		case 3:
			return c.stringField(num, typ, &ev.Symbol)
		case 4:
			return c.stringField(num, typ, &ev.URI)
		case 5:
			return c.stringField(num, typ, &ev.Mint)
		case 6:
			return c.stringField(num, typ, &ev.BondingCurve)
		case 7:
			return c.stringField(num, typ, &ev.User)
		case 8:
			return c.stringField(num, typ, &ev.Creator)
		case 9:
			return c.int64Field(num, typ, &ev.Timestamp)
		case 10:
			return c.uint64Field(num, typ, &ev.VirtualTokenReserves)
		case 11:
			return c.uint64Field(num, typ, &ev.VirtualSolReserves)
		case 12:
			return c.uint64Field(num, typ, &ev.RealTokenReserves)
		case 13:
			return c.uint64Field(num, typ, &ev.TokenTotalSupply)
		}
		return c.Skip(num, typ)
	})
}

func decodePumpFunMigrate(c *Cursor) (*models.PumpFunMigrateEvent, error) {
	ev := &models.PumpFunMigrateEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.stringField(num, typ, &ev.User)
		case 3:
			return c.stringField(num, typ, &ev.Mint)
		case 4:
			return c.uint64Field(num, typ, &ev.MintAmount)
		case 5:
			return c.uint64Field(num, typ, &ev.SolAmount)
		case 6:
			return c.uint64Field(num, typ, &ev.PoolMigrationFee)
		case 7:
			return c.stringField(num, typ, &ev.BondingCurve)
		case 8:
			return c.int64Field(num, typ, &ev.Timestamp)
		case 9:
			return c.stringField(num, typ, &ev.Pool)
		}
		return c.Skip(num, typ)
	})
}

func decodePumpSwapBuy(c *Cursor) (*models.PumpSwapBuyEvent, error) {
	ev := &models.PumpSwapBuyEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.int64Field(num, typ, &ev.Timestamp)
		case 3:
			return c.uint64Field(num, typ, &ev.BaseAmountOut)
		case 4:
			return c.uint64Field(num, typ, &ev.MaxQuoteAmountIn)
		case 5:
			return c.uint64Field(num, typ, &ev.UserBaseTokenReserves)
		case 6:
			return c.uint64Field(num, typ, &ev.UserQuoteTokenReserves)
		case 7:
			return c.uint64Field(num, typ, &ev.PoolBaseTokenReserves)
		case 8:
			return c.uint64Field(num, typ, &ev.PoolQuoteTokenReserves)
		case 9:
			return c.uint64Field(num, typ, &ev.QuoteAmountIn)
		case 10:
			return c.uint64Field(num, typ, &ev.LpFeeBasisPoints)
		case 11:
			return c.uint64Field(num, typ, &ev.LpFee)
		case 12:
			return c.uint64Field(num, typ, &ev.ProtocolFeeBasisPoints)
		case 13:
			return c.uint64Field(num, typ, &ev.ProtocolFee)
		case 14:
			return c.uint64Field(num, typ, &ev.QuoteAmountInWithLpFee)
		case 15:
			return c.uint64Field(num, typ, &ev.UserQuoteAmountIn)
		case 16:
			return c.stringField(num, typ, &ev.Pool)
		case 17:
			return c.stringField(num, typ, &ev.User)
		case 18:
			return c.stringField(num, typ, &ev.UserBaseTokenAccount)
		case 19:
			return c.stringField(num, typ, &ev.UserQuoteTokenAccount)
		case 20:
			return c.stringField(num, typ, &ev.ProtocolFeeRecipient)
		case 21:
			return c.stringField(num, typ, &ev.ProtocolFeeRecipientTokenAccount)
		case 22:
			return c.stringField(num, typ, &ev.CoinCreator)
		case 23:
			return c.uint64Field(num, typ, &ev.CoinCreatorFeeBasisPoints)
		case 24:
			return c.uint64Field(num, typ, &ev.CoinCreatorFee)
		case 25:
			return c.boolField(num, typ, &ev.TrackVolume)
		case 26:
			return c.uint64Field(num, typ, &ev.TotalUnclaimedTokens)
		case 27:
			return c.uint64Field(num, typ, &ev.TotalClaimedTokens)
		case 28:
			return c.uint64Field(num, typ, &ev.CurrentSolVolume)
		case 29:
			return c.int64Field(num, typ, &ev.LastUpdateTimestamp)
		case 30:
			return c.stringField(num, typ, &ev.BaseMint)
		case 31:
			return c.stringField(num, typ, &ev.QuoteMint)
		case 32:
			return c.stringField(num, typ, &ev.PoolBaseTokenAccount)
		case 33:
			return c.stringField(num, typ, &ev.PoolQuoteTokenAccount)
		case 34:
			return c.stringField(num, typ, &ev.CoinCreatorVaultAta)
		case 35:
			return c.stringField(num, typ, &ev.CoinCreatorVaultAuthority)
		case 36:
			return c.stringField(num, typ, &ev.BaseTokenProgram)
		case 37:
			return c.stringField(num, typ, &ev.QuoteTokenProgram)
		}
		return c.Skip(num, typ)
	})
}

func decodePumpSwapSell(c *Cursor) (*models.PumpSwapSellEvent, error) {
	ev := &models.PumpSwapSellEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.int64Field(num, typ, &ev.Timestamp)
		case 3:
			return c.uint64Field(num, typ, &ev.BaseAmountIn)
		case 4:
			return c.uint64Field(num, typ, &ev.MinQuoteAmountOut)
		case 5:
			return c.uint64Field(num, typ, &ev.UserBaseTokenReserves)
		case 6:
			return c.uint64Field(num, typ, &ev.UserQuoteTokenReserves)
		case 7:
			return c.uint64Field(num, typ, &ev.PoolBaseTokenReserves)
		case 8:
			return c.uint64Field(num, typ, &ev.PoolQuoteTokenReserves)
		case 9:
			return c.uint64Field(num, typ, &ev.QuoteAmountOut)
		case 10:
			return c.uint64Field(num, typ, &ev.LpFeeBasisPoints)
		case 11:
			return c.uint64Field(num, typ, &ev.LpFee)
		case 12:
			return c.uint64Field(num, typ, &ev.ProtocolFeeBasisPoints)
		case 13:
			return c.uint64Field(num, typ, &ev.ProtocolFee)
		case 14:
			return c.uint64Field(num, typ, &ev.QuoteAmountOutWithoutLpFee)
		case 15:
			return c.uint64Field(num, typ, &ev.UserQuoteAmountOut)
		case 16:
			return c.stringField(num, typ, &ev.Pool)
		case 17:
			return c.stringField(num, typ, &ev.User)
		case 18:
			return c.stringField(num, typ, &ev.UserBaseTokenAccount)
		case 19:
			return c.stringField(num, typ, &ev.UserQuoteTokenAccount)
		case 20:
			return c.stringField(num, typ, &ev.ProtocolFeeRecipient)
		case 21:
			return c.stringField(num, typ, &ev.ProtocolFeeRecipientTokenAccount)
		case 22:
			return c.stringField(num, typ, &ev.CoinCreator)
		case 23:
			return c.uint64Field(num, typ, &ev.CoinCreatorFeeBasisPoints)
		case 24:
			return c.uint64Field(num, typ, &ev.CoinCreatorFee)
		case 25:
			return c.stringField(num, typ, &ev.BaseMint)
		case 26:
			return c.stringField(num, typ, &ev.QuoteMint)
		case 27:
			return c.stringField(num, typ, &ev.PoolBaseTokenAccount)
		case 28:
			return c.stringField(num, typ, &ev.PoolQuoteTokenAccount)
		case 29:
			return c.stringField(num, typ, &ev.CoinCreatorVaultAta)
		case 30:
			return c.stringField(num, typ, &ev.CoinCreatorVaultAuthority)
		case 31:
			return c.stringField(num, typ, &ev.BaseTokenProgram)
		case 32:
			return c.stringField(num, typ, &ev.QuoteTokenProgram)
		}
		return c.Skip(num, typ)
	})
}

func decodePumpSwapCreatePool(c *Cursor) (*models.PumpSwapCreatePoolEvent, error) {
	ev := &models.PumpSwapCreatePoolEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.int64Field(num, typ, &ev.Timestamp)
		case 3:
			return c.uint32Field(num, typ, &ev.Index)
		case 4:
			return c.stringField(num, typ, &ev.Creator)
		case 5:
			return c.stringField(num, typ, &ev.BaseMint)
		case 6:
			return c.stringField(num, typ, &ev.QuoteMint)
		case 7:
			return c.uint32Field(num, typ, &ev.BaseMintDecimals)
		case 8:
			return c.uint32Field(num, typ, &ev.QuoteMintDecimals)
		case 9:
			return c.uint64Field(num, typ, &ev.BaseAmountIn)
		case 10:
			return c.uint64Field(num, typ, &ev.QuoteAmountIn)
		case 11:
			return c.uint64Field(num, typ, &ev.PoolBaseAmount)
		case 12:
			return c.uint64Field(num, typ, &ev.PoolQuoteAmount)
		case 13:
			return c.uint64Field(num, typ, &ev.MinimumLiquidity)
		case 14:
			return c.uint64Field(num, typ, &ev.InitialLiquidity)
		case 15:
			return c.uint64Field(num, typ, &ev.LpTokenAmountOut)
		case 16:
			return c.uint32Field(num, typ, &ev.PoolBump)
		case 17:
			return c.stringField(num, typ, &ev.Pool)
		case 18:
			return c.stringField(num, typ, &ev.LpMint)
		case 21:
			return c.stringField(num, typ, &ev.CoinCreator)
		}
		return c.Skip(num, typ)
	})
}

// decodePumpSwapLiquidity reads deposit and withdraw events, which share
// their layout apart from the direction of fields 3, 10 and 11.
func decodePumpSwapLiquidity(c *Cursor) (*models.PumpSwapLiquidityEvent, error) {
	ev := &models.PumpSwapLiquidityEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.int64Field(num, typ, &ev.Timestamp)
		case 3:
			return c.uint64Field(num, typ, &ev.LpTokenAmount)
		case 8:
			return c.uint64Field(num, typ, &ev.PoolBaseTokenReserves)
		case 9:
			return c.uint64Field(num, typ, &ev.PoolQuoteTokenReserves)
		case 10:
			return c.uint64Field(num, typ, &ev.BaseAmount)
		case 11:
			return c.uint64Field(num, typ, &ev.QuoteAmount)
		case 12:
			return c.uint64Field(num, typ, &ev.LpMintSupply)
		case 13:
			return c.stringField(num, typ, &ev.Pool)
		case 14:
			return c.stringField(num, typ, &ev.User)
		}
		return c.Skip(num, typ)
	})
}

func decodeRaydiumClmmSwap(c *Cursor) (*models.RaydiumClmmSwapEvent, error) {
	ev := &models.RaydiumClmmSwapEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.stringField(num, typ, &ev.PoolState)
		case 3:
			return c.stringField(num, typ, &ev.Sender)
		case 4:
			return c.stringField(num, typ, &ev.TokenAccount0)
		case 5:
			return c.stringField(num, typ, &ev.TokenAccount1)
		case 6:
			return c.uint64Field(num, typ, &ev.Amount0)
		case 7:
			return c.uint64Field(num, typ, &ev.TransferFee0)
		case 8:
			return c.uint64Field(num, typ, &ev.Amount1)
		case 9:
			return c.uint64Field(num, typ, &ev.TransferFee1)
		case 10:
			return c.boolField(num, typ, &ev.ZeroForOne)
		case 11:
			return c.uint64Field(num, typ, &ev.SqrtPriceX64)
		case 12:
			return c.uint64Field(num, typ, &ev.Liquidity)
		case 13:
			return c.int32Field(num, typ, &ev.Tick)
		}
		return c.Skip(num, typ)
	})
}

func decodeRaydiumAmmV4Swap(c *Cursor) (*models.RaydiumAmmV4SwapEvent, error) {
	ev := &models.RaydiumAmmV4SwapEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.uint64Field(num, typ, &ev.AmountIn)
		case 3:
			return c.uint64Field(num, typ, &ev.MinimumAmountOut)
		case 4:
			return c.uint64Field(num, typ, &ev.MaxAmountIn)
		case 5:
			return c.uint64Field(num, typ, &ev.AmountOut)
		case 7:
			return c.stringField(num, typ, &ev.Amm)
		case 11:
			return c.stringField(num, typ, &ev.PoolCoinTokenAccount)
		case 12:
			return c.stringField(num, typ, &ev.PoolPcTokenAccount)
		case 21:
			return c.stringField(num, typ, &ev.UserSourceTokenAccount)
		case 22:
			return c.stringField(num, typ, &ev.UserDestinationTokenAccount)
		case 23:
			return c.stringField(num, typ, &ev.UserSourceOwner)
		}
		return c.Skip(num, typ)
	})
}

func decodeOrcaWhirlpoolSwap(c *Cursor) (*models.OrcaWhirlpoolSwapEvent, error) {
	ev := &models.OrcaWhirlpoolSwapEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.stringField(num, typ, &ev.Whirlpool)
		case 3:
			return c.boolField(num, typ, &ev.AToB)
		case 4:
			return c.uint64Field(num, typ, &ev.PreSqrtPrice)
		case 5:
			return c.uint64Field(num, typ, &ev.PostSqrtPrice)
		case 6:
			return c.uint64Field(num, typ, &ev.InputAmount)
		case 7:
			return c.uint64Field(num, typ, &ev.OutputAmount)
		case 8:
			return c.uint64Field(num, typ, &ev.InputTransferFee)
		case 9:
			return c.uint64Field(num, typ, &ev.OutputTransferFee)
		case 10:
			return c.uint64Field(num, typ, &ev.LpFee)
		case 11:
			return c.uint64Field(num, typ, &ev.ProtocolFee)
		}
		return c.Skip(num, typ)
	})
}

func decodeMeteoraPoolsSwap(c *Cursor) (*models.MeteoraPoolsSwapEvent, error) {
	ev := &models.MeteoraPoolsSwapEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.uint64Field(num, typ, &ev.InAmount)
		case 3:
			return c.uint64Field(num, typ, &ev.OutAmount)
		case 4:
			return c.uint64Field(num, typ, &ev.TradeFee)
		case 5:
			return c.uint64Field(num, typ, &ev.AdminFee)
		case 6:
			return c.uint64Field(num, typ, &ev.HostFee)
		}
		return c.Skip(num, typ)
	})
}

func decodeMeteoraDammV2Swap(c *Cursor) (*models.MeteoraDammV2SwapEvent, error) {
	ev := &models.MeteoraDammV2SwapEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.stringField(num, typ, &ev.Pool)
		case 3:
			return c.uint32Field(num, typ, &ev.TradeDirection)
		case 4:
			return c.boolField(num, typ, &ev.HasReferral)
		case 5:
			return c.uint64Field(num, typ, &ev.AmountIn)
		case 6:
			return c.uint64Field(num, typ, &ev.MinimumAmountOut)
		case 7:
			return c.uint64Field(num, typ, &ev.OutputAmount)
		case 8:
			return c.uint64Field(num, typ, &ev.NextSqrtPrice)
		case 9:
			return c.uint64Field(num, typ, &ev.LpFee)
		case 10:
			return c.uint64Field(num, typ, &ev.ProtocolFee)
		case 11:
			return c.uint64Field(num, typ, &ev.PartnerFee)
		case 12:
			return c.uint64Field(num, typ, &ev.ReferralFee)
		case 13:
			return c.uint64Field(num, typ, &ev.ActualAmountIn)
		case 14:
			return c.uint64Field(num, typ, &ev.CurrentTimestamp)
		case 15:
			return c.stringField(num, typ, &ev.TokenAVault)
		case 16:
			return c.stringField(num, typ, &ev.TokenBVault)
		case 17:
			return c.stringField(num, typ, &ev.TokenAMint)
		case 18:
			return c.stringField(num, typ, &ev.TokenBMint)
		case 19:
			return c.stringField(num, typ, &ev.TokenAProgram)
		case 20:
			return c.stringField(num, typ, &ev.TokenBProgram)
		}
		return c.Skip(num, typ)
	})
}

func decodeMeteoraDammV2Liquidity(c *Cursor) (*models.MeteoraDammV2LiquidityEvent, error) {
	ev := &models.MeteoraDammV2LiquidityEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.stringField(num, typ, &ev.Pool)
		case 3:
			return c.stringField(num, typ, &ev.Position)
		case 4:
			return c.stringField(num, typ, &ev.Owner)
		case 5:
			return c.uint64Field(num, typ, &ev.LiquidityDelta)
		case 8:
			return c.uint64Field(num, typ, &ev.TokenAAmount)
		case 9:
			return c.uint64Field(num, typ, &ev.TokenBAmount)
		}
		return c.Skip(num, typ)
	})
}

func decodeMeteoraDammV2Position(c *Cursor) (*models.MeteoraDammV2PositionEvent, error) {
	ev := &models.MeteoraDammV2PositionEvent{}
	return ev, c.fields(func(num protowire.Number, typ protowire.Type) error {
		switch num {
		case 1:
			return metadataField(c, num, typ, &ev.Metadata)
		case 2:
			return c.stringField(num, typ, &ev.Pool)
		case 3:
			return c.stringField(num, typ, &ev.Owner)
		case 4:
			return c.stringField(num, typ, &ev.Position)
		case 5:
			return c.stringField(num, typ, &ev.PositionNftMint)
		}
		return c.Skip(num, typ)
	})
}
