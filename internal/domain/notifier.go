package domain

import "context"

// Notifier delivers a rendered message to a recipient via an external
// service. Implementations do not retry; retry policy belongs to the
// dispatcher.
type Notifier interface {
	Send(ctx context.Context, email, message string) error
}
