package engine

import (
	"context"
	"errors"
	"time"

	"tronprofit/internal/interfaces"
	"tronprofit/internal/ledger"
	"tronprofit/internal/logger"
	"tronprofit/internal/notifier"
	"tronprofit/internal/store"
	"tronprofit/internal/ta"
	"tronprofit/internal/types"
)

// Engine runs one decision-and-execution cycle per symbol: fetch candles,
// compute indicators, decide, report unrealized profit, and on a BUY/SELL
// decision place the order and record the fill in the ledger.
type Engine struct {
	cfg     *store.Config
	brk     interfaces.Broker
	decider interfaces.Decider
	ledger  *ledger.Ledger
	notify  interfaces.Notifier
}

var _ interfaces.Engine = (*Engine)(nil)

func New(cfg *store.Config, brk interfaces.Broker, decider interfaces.Decider, led *ledger.Ledger, notify interfaces.Notifier) *Engine {
	return &Engine{cfg: cfg, brk: brk, decider: decider, ledger: led, notify: notify}
}

func (e *Engine) Step(ctx context.Context, symbol string) (*types.StepResult, error) {
	candles, err := e.brk.Klines(ctx, symbol, e.cfg.Exchange.KlineLimit)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, errors.New("no candles returned")
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	inds := e.calcIndicators(closes)

	// A short history leaves the RSI at NaN, which can never satisfy the
	// rule conjunctions, so warm-up cycles always come out as HOLD.
	decision := e.decider.Decide(inds)
	logger.Decision(ctx, symbol, decision.Action, decision.Reason,
		"rsi", inds.RSI,
		"ema_fast", inds.EMAFast,
		"ema_slow", inds.EMASlow,
		"macd", inds.MACD,
		"macd_signal", inds.MACDSignal,
	)

	latest := candles[len(candles)-1]
	price := latest.Close
	qty := e.cfg.Quantity(symbol)
	profit, fee := e.ledger.ProfitAndFee(symbol, price, qty)
	logger.Info(ctx, "Unrealized profit", "symbol", symbol, "price", price, "profit", profit, "fee", fee)

	res := &types.StepResult{
		Symbol:     symbol,
		Decision:   decision,
		Price:      price,
		Time:       latest.Ts,
		Profit:     profit,
		Fee:        fee,
		Indicators: inds,
	}

	e.send(ctx, notifier.FormatCycleReport(symbol, decision, price, profit, fee))

	if decision.Action == types.ActionHold {
		return res, nil
	}

	resp, err := e.brk.PlaceOrder(ctx, types.OrderReq{Symbol: symbol, Side: decision.Action, Qty: qty})
	if err != nil {
		e.send(ctx, notifier.FormatOrderFailure(symbol, decision.Action, err))
		return nil, err
	}
	res.Order = &resp

	if !resp.FillConfirmed() {
		logger.Warn(ctx, "Order rejected by exchange",
			"symbol", symbol, "side", decision.Action, "code", resp.Code, "msg", resp.Msg)
		e.send(ctx, notifier.FormatOrderResult(symbol, decision.Action, qty, price, resp, false))
		if !e.cfg.Ledger.LogRejected {
			return res, nil
		}
	}

	rec := types.TradeRecord{Time: time.Now().UTC(), Symbol: symbol, Side: decision.Action, Price: price}
	if err := e.ledger.Append(rec); err != nil {
		// The order is already on the exchange at this point. Surface the
		// bookkeeping failure as its own error so an operator can tell
		// "placed but unrecorded" apart from "never placed".
		logger.ErrorWithErr(ctx, "Order placed but not recorded in ledger", err,
			"symbol", symbol, "side", decision.Action, "price", price)
		e.send(ctx, notifier.FormatLedgerFailure(symbol, decision.Action, err))
		return res, err
	}
	res.Recorded = true

	logger.Trade(ctx, symbol, decision.Action, qty, price, resp.OrderID)
	e.send(ctx, notifier.FormatOrderResult(symbol, decision.Action, qty, price, resp, true))
	return res, nil
}

func (e *Engine) calcIndicators(closes []float64) types.Indicators {
	ind := e.cfg.Indicators
	macd, signal := ta.MACD(closes, ind.EMAFast, ind.EMASlow, ind.MACDSignal)
	return types.Indicators{
		RSI:        ta.RSI(closes, ind.RSIPeriod),
		EMAFast:    ta.Last(ta.EMA(closes, ind.EMAFast)),
		EMASlow:    ta.Last(ta.EMA(closes, ind.EMASlow)),
		MACD:       ta.Last(macd),
		MACDSignal: ta.Last(signal),
	}
}

// send delivers a notification best-effort. Failures are logged, never
// escalated: a lost message must not abort a trading cycle.
func (e *Engine) send(ctx context.Context, text string) {
	if e.notify == nil {
		return
	}
	if err := e.notify.Notify(ctx, text); err != nil {
		logger.Warn(ctx, "Notification failed", "error", err)
	}
}
