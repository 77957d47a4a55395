package interfaces

import (
	"context"

	"tronprofit/internal/types"
)

type Engine interface {
	Step(ctx context.Context, symbol string) (*types.StepResult, error)
}
