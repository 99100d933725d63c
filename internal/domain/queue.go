package domain

import (
	"context"
	"time"
)

// TaskQueue is the durable delayed task store, ordered by due time. At most
// one live task exists per user. All operations must be safe under
// concurrent callers.
type TaskQueue interface {
	// Insert adds a task keyed by its due time
	Insert(ctx context.Context, task *NotificationTask) error
	// Remove deletes the task for the given user from the live store
	Remove(ctx context.Context, task *NotificationTask) error
	// Due returns all tasks due at or before now, earliest-due first
	Due(ctx context.Context, now time.Time) ([]*NotificationTask, error)
	// Contains reports whether a live task exists for the user
	Contains(ctx context.Context, userID string) (bool, error)
	// Close releases the underlying connection
	Close() error
}

// OutcomeStore records terminal dispatch outcomes: the sent set and the
// failed-after-retries sets consumed by the recovery sweep.
type OutcomeStore interface {
	// MarkSent records that the user's notification was delivered this cycle
	MarkSent(ctx context.Context, userID string) error
	// WasSent reports whether the user was already delivered this cycle
	WasSent(ctx context.Context, userID string) (bool, error)
	// RecordFailed stores a task that exhausted its retries for later recovery
	RecordFailed(ctx context.Context, task *NotificationTask) error
	// FailedUserIDs lists users with a failed task awaiting recovery
	FailedUserIDs(ctx context.Context) ([]string, error)
	// FailedTask returns the failed task for a user, or nil if none is stored
	FailedTask(ctx context.Context, userID string) (*NotificationTask, error)
	// ClearFailed removes the user's entry from both failed sets
	ClearFailed(ctx context.Context, userID string) error
}
