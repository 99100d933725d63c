package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxRetryAttempts bounds how many times the dispatcher retries a transient
// send failure before handing the task to the recovery sweep.
const MaxRetryAttempts = 3

// NotificationTask is a queued birthday notification, held in the delayed
// task store keyed by DueAtMillis.
type NotificationTask struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	Message       string `json:"message"`
	DueAtMillis   int64  `json:"dueAtMillis"`
	RetryAttempts int    `json:"retryAttempts"`
}

// NewTask creates a pending notification task due at the given instant.
func NewTask(userID, message string, dueAt time.Time) *NotificationTask {
	return &NotificationTask{
		ID:          uuid.NewString(),
		UserID:      userID,
		Message:     message,
		DueAtMillis: dueAt.UnixMilli(),
	}
}

// DueAt returns the task's due time.
func (t *NotificationTask) DueAt() time.Time {
	return time.UnixMilli(t.DueAtMillis)
}

// TaskOutcome is the result of one dispatch attempt on a due task.
type TaskOutcome int

const (
	// OutcomeSent means the notifier accepted the message.
	OutcomeSent TaskOutcome = iota
	// OutcomeSendFailed means the notifier call failed or timed out.
	OutcomeSendFailed
	// OutcomeStale means the task's due time no longer matches the user's
	// current local-9AM window.
	OutcomeStale
	// OutcomeDuplicate means the user was already marked sent this cycle.
	OutcomeDuplicate
)

// TransitionKind tags the result of advancing a task.
type TransitionKind int

const (
	// TransitionRemoved removes the task from the live store with no
	// replacement (sent, stale, or duplicate).
	TransitionRemoved TransitionKind = iota
	// TransitionRequeued replaces the task with an incremented copy that is
	// immediately due again.
	TransitionRequeued
	// TransitionFailed removes the task and records it for the daily
	// recovery sweep.
	TransitionFailed
)

// Transition is the state change the dispatcher must apply to the store
// after an attempt. Task is set only for TransitionRequeued and
// TransitionFailed.
type Transition struct {
	Kind TransitionKind
	Task *NotificationTask
}

// Advance computes the store transition for a task given the outcome of one
// dispatch attempt. Retry bookkeeping lives here so it can be tested without
// a storage layer.
func Advance(task *NotificationTask, outcome TaskOutcome, now time.Time) Transition {
	if outcome != OutcomeSendFailed {
		return Transition{Kind: TransitionRemoved}
	}

	retried := *task
	retried.RetryAttempts++
	if retried.RetryAttempts < MaxRetryAttempts {
		retried.DueAtMillis = now.UnixMilli()
		return Transition{Kind: TransitionRequeued, Task: &retried}
	}
	return Transition{Kind: TransitionFailed, Task: &retried}
}
