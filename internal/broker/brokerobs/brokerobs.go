package brokerobs

import (
	"context"

	"tronprofit/internal/interfaces"
	"tronprofit/internal/logger"
	"tronprofit/internal/trace"
	"tronprofit/internal/types"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: broker}
}

func (ob *observableBroker) Klines(ctx context.Context, symbol string, limit int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Klines")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching klines", "symbol", symbol, "limit", limit)

	candles, err := ob.broker.Klines(ctx, symbol, limit)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch klines", err, "symbol", symbol, "limit", limit)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Klines fetched successfully", "symbol", symbol, "count", len(candles))
	return candles, nil
}

func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", req.Symbol,
		"side", req.Side,
		"qty", req.Qty,
	)

	resp, err := ob.broker.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"qty", req.Qty,
		)
		return types.OrderResp{}, err
	}

	if !resp.FillConfirmed() {
		logger.InfoSkip(ctx, 1, "Order rejected by exchange",
			"symbol", req.Symbol,
			"code", resp.Code,
			"msg", resp.Msg,
		)
		return resp, nil
	}

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"symbol", req.Symbol,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}
