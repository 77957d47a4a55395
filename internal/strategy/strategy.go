// Package strategy maps an indicator snapshot to a trade action.
package strategy

import "tronprofit/internal/types"

// Engine is the conjunctive-rule decision engine. It is stateless: every
// snapshot is evaluated independently of prior decisions, so consecutive
// cycles can repeat the same action with no inventory awareness.
type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Decide(ind types.Indicators) types.Decision {
	return Decide(ind)
}

// Decide returns BUY, SELL or HOLD for a snapshot. NaN indicators fail every
// comparison, so an undefined RSI or a cold EMA can never trigger a trade.
func Decide(ind types.Indicators) types.Decision {
	switch {
	case ind.RSI < 30 && ind.EMAFast > ind.EMASlow && ind.MACD > ind.MACDSignal:
		return types.Decision{Action: types.ActionBuy, Reason: "rsi oversold with bullish ema/macd"}
	case ind.RSI > 70 && ind.EMAFast < ind.EMASlow && ind.MACD < ind.MACDSignal:
		return types.Decision{Action: types.ActionSell, Reason: "rsi overbought with bearish ema/macd"}
	default:
		return types.Decision{Action: types.ActionHold, Reason: "no signal alignment"}
	}
}
