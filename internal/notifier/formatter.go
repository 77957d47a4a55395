package notifier

import (
	"fmt"
	"strings"

	"tronprofit/internal/types"
)

// FormatCycleReport renders the per-cycle summary: the decision and the
// unrealized profit/fee against the last recorded trade.
func FormatCycleReport(symbol string, decision types.Decision, price, profit, fee float64) string {
	return fmt.Sprintf("%s @ %.2f\nDecision: %s (%s)\nUnrealized profit: %.4f | Fee: %.4f",
		symbol, price, decision.Action, decision.Reason, profit, fee)
}

// FormatOrderResult renders the outcome of an order submission.
func FormatOrderResult(symbol, side string, qty, price float64, resp types.OrderResp, recorded bool) string {
	if !resp.FillConfirmed() {
		return fmt.Sprintf("%s %s REJECTED by exchange: code=%d msg=%s", side, symbol, resp.Code, resp.Msg)
	}
	suffix := ""
	if !recorded {
		suffix = " (not yet recorded)"
	}
	return fmt.Sprintf("%s %s executed: qty=%g price=%.2f order_id=%d status=%s%s",
		side, symbol, qty, price, resp.OrderID, resp.Status, suffix)
}

// FormatOrderFailure renders a transport-level order failure (the order was
// never confirmed placed).
func FormatOrderFailure(symbol, side string, err error) string {
	return fmt.Sprintf("%s %s FAILED before reaching the exchange: %v", side, symbol, err)
}

// FormatLedgerFailure renders the critical case of an executed order that
// could not be recorded.
func FormatLedgerFailure(symbol, side string, err error) string {
	return fmt.Sprintf("WARNING: %s %s executed but NOT recorded in ledger: %v", side, symbol, err)
}

// FormatStatus renders the /status reply.
func FormatStatus(symbols []string, pollSeconds int) string {
	return fmt.Sprintf("Trading %s every %ds", strings.Join(symbols, ", "), pollSeconds)
}

// FormatTrades renders the /last reply.
func FormatTrades(records []types.TradeRecord) string {
	if len(records) == 0 {
		return "No trades recorded yet."
	}
	var b strings.Builder
	b.WriteString("Recent trades:\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%s %s %s @ %g\n", r.Time.Format("2006-01-02 15:04"), r.Side, r.Symbol, r.Price)
	}
	return strings.TrimRight(b.String(), "\n")
}
