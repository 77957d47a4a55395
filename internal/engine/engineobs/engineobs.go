package engineobs

import (
	"context"

	"tronprofit/internal/interfaces"
	"tronprofit/internal/logger"
	"tronprofit/internal/trace"
	"tronprofit/internal/types"
)

// observableEngine wraps an Engine with observability (logging & tracing)
type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

// Wrap wraps an engine with observability middleware
func Wrap(engine interfaces.Engine) interfaces.Engine {
	return &observableEngine{engine: engine}
}

func (oe *observableEngine) Step(ctx context.Context, symbol string) (*types.StepResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Step")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Starting trading step", "symbol", symbol)

	res, err := oe.engine.Step(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trading step failed", err, "symbol", symbol)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Trading step completed",
		"symbol", symbol,
		"action", res.Decision.Action,
		"price", res.Price,
		"profit", res.Profit,
		"fee", res.Fee,
		"recorded", res.Recorded,
	)
	return res, nil
}
