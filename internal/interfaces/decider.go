package interfaces

import "tronprofit/internal/types"

// Decider turns an indicator snapshot into a trade action. Implementations
// must be pure: the same snapshot always yields the same decision.
type Decider interface {
	Decide(ind types.Indicators) types.Decision
}
