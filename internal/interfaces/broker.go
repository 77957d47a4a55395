package interfaces

import (
	"context"

	"tronprofit/internal/types"
)

type Broker interface {
	Klines(ctx context.Context, symbol string, limit int) ([]types.Candle, error)
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
}
