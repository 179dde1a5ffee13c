package ports

import "context"

// Notifier is a fire-and-forget text alert sink. Implementations must never
// propagate delivery failures to the caller; a lost alert is logged and dropped.
type Notifier interface {
	Notify(ctx context.Context, text string)
}
