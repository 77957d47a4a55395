package interfaces

import "context"

// Notifier is a best-effort text sink. Callers log failures and move on;
// a lost notification never aborts a trading cycle.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
