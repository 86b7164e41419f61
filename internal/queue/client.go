package queue

import "context"

// Client enqueues report jobs for the worker. A nil client means report
// generation is disabled; session completion still succeeds without it.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
