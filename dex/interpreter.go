// Package dex turns raw DEX events into normalized trades.
package dex

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// WSOLMint is the wrapped SOL mint
const WSOLMint = "So11111111111111111111111111111111111111112"

// prices of fresh tokens sit far below 1e-8 SOL, so division keeps extra places
const pricePrecision = 24

var (
	lamportsPerSOL  = decimal.New(1, 9)
	pumpFunTokenOne = decimal.New(1, 6)
)

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// Ratio returns sol/tok as a float, or 0 when tok is 0.
func Ratio(sol, tok uint64) float64 {
	if tok == 0 {
		return 0
	}
	return fromUint64(sol).DivRound(fromUint64(tok), pricePrecision).InexactFloat64()
}

// PumpFunPrice is the bonding curve price in SOL per whole token.
func PumpFunPrice(virtualSol, virtualToken uint64) float64 {
	if virtualToken == 0 {
		return 0
	}
	sol := fromUint64(virtualSol).Div(lamportsPerSOL)
	tok := fromUint64(virtualToken).Div(pumpFunTokenOne)
	return sol.DivRound(tok, pricePrecision).InexactFloat64()
}

// PumpFun interprets a bonding curve trade. Every PumpFun trade is interpretable.
func PumpFun(ev *models.PumpFunTradeEvent) models.Trade {
	return models.Trade{
		Platform:    models.PlatformPumpFun,
		Mint:        ev.Mint,
		IsBuy:       ev.IsBuy,
		SolAmount:   ev.SolAmount,
		TokenAmount: ev.TokenAmount,
		Price:       PumpFunPrice(ev.VirtualSolReserves, ev.VirtualTokenReserves),
		User:        ev.User,
	}
}

// PumpSwapBuy interprets a PumpSwap buy instruction. Pools without WSOL are skipped.
func PumpSwapBuy(ev *models.PumpSwapBuyEvent) (models.Trade, bool) {
	if ev.BaseMint != WSOLMint && ev.QuoteMint != WSOLMint {
		return models.Trade{}, false
	}

	trade := models.Trade{Platform: models.PlatformPumpSwap, User: ev.User}
	if ev.BaseMint == WSOLMint {
		trade.IsBuy = true
		trade.SolAmount = ev.BaseAmountOut
		trade.TokenAmount = ev.UserQuoteAmountIn
		trade.Mint = ev.QuoteMint
	} else {
		trade.SolAmount = ev.UserQuoteAmountIn
		trade.TokenAmount = ev.BaseAmountOut
		trade.Mint = ev.BaseMint
	}
	trade.Price = Ratio(trade.SolAmount, trade.TokenAmount)
	return trade, true
}

// PumpSwapSell interprets a PumpSwap sell instruction. Pools without WSOL are skipped.
func PumpSwapSell(ev *models.PumpSwapSellEvent) (models.Trade, bool) {
	if ev.BaseMint != WSOLMint && ev.QuoteMint != WSOLMint {
		return models.Trade{}, false
	}

	trade := models.Trade{Platform: models.PlatformPumpSwap, User: ev.User}
	if ev.BaseMint == WSOLMint {
		trade.IsBuy = true
		trade.SolAmount = ev.BaseAmountIn
		trade.TokenAmount = ev.UserQuoteAmountOut
		trade.Mint = ev.QuoteMint
	} else {
		trade.SolAmount = ev.UserQuoteAmountOut
		trade.TokenAmount = ev.BaseAmountIn
		trade.Mint = ev.BaseMint
	}
	trade.Price = Ratio(trade.SolAmount, trade.TokenAmount)
	return trade, true
}

// MeteoraDammV2 interprets a DAMM v2 swap. The event has no user field, so
// the trade never matches the bot's own account.
func MeteoraDammV2(ev *models.MeteoraDammV2SwapEvent) (models.Trade, bool) {
	if ev.TokenAMint != WSOLMint && ev.TokenBMint != WSOLMint {
		return models.Trade{}, false
	}

	inputMint, outputMint := ev.TokenAMint, ev.TokenBMint
	if ev.TradeDirection != models.TradeDirectionAToB {
		inputMint, outputMint = ev.TokenBMint, ev.TokenAMint
	}

	trade := models.Trade{Platform: models.PlatformMeteoraDammV2}
	if inputMint == WSOLMint {
		trade.IsBuy = true
		trade.SolAmount = ev.ActualAmountIn
		trade.TokenAmount = ev.OutputAmount
		trade.Mint = outputMint
	} else {
		trade.SolAmount = ev.OutputAmount
		trade.TokenAmount = ev.ActualAmountIn
		trade.Mint = inputMint
	}
	trade.Price = Ratio(trade.SolAmount, trade.TokenAmount)
	return trade, true
}

// Interpret returns the normalized trade and the raw snapshot for an event.
// ok is false for event kinds without an interpreter and for skipped pools.
func Interpret(ev *models.DexEvent) (trade models.Trade, snapshot interface{}, ok bool) {
	switch {
	case ev.PumpFunTrade != nil:
		return PumpFun(ev.PumpFunTrade), ev.PumpFunTrade, true
	case ev.PumpSwapBuy != nil:
		trade, ok = PumpSwapBuy(ev.PumpSwapBuy)
		return trade, ev.PumpSwapBuy, ok
	case ev.PumpSwapSell != nil:
		trade, ok = PumpSwapSell(ev.PumpSwapSell)
		return trade, ev.PumpSwapSell, ok
	case ev.MeteoraDammV2Swap != nil:
		trade, ok = MeteoraDammV2(ev.MeteoraDammV2Swap)
		return trade, ev.MeteoraDammV2Swap, ok
	}
	return models.Trade{}, nil, false
}
