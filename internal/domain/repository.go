package domain

import "context"

// UserRepository is the persistence layer for users and the eligibility
// source for the scheduler.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context, limit int) ([]*User, error)
	DeleteUser(ctx context.Context, id string) error
	// FindBirthdayCandidates returns users whose birth month and day match
	// the current calendar day in their own timezone and who have not been
	// notified for this year's occurrence.
	FindBirthdayCandidates(ctx context.Context) ([]*User, error)
	// MarkScheduled records that a task was enqueued for the given year's
	// occurrence.
	MarkScheduled(ctx context.Context, id string, year int) error
	// MarkNotified records that the user was notified for the given year's
	// occurrence.
	MarkNotified(ctx context.Context, id string, year int) error
}
