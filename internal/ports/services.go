package ports

import (
	"context"

	"github.com/dhifafaz/birthday-reminder/internal/domain"
)

type UserService interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

type SchedulerService interface {
	// RunScheduleCycle enqueues notification tasks for today's eligible users
	RunScheduleCycle(ctx context.Context) error
}

type DispatcherService interface {
	// RunDispatchCycle delivers all tasks due by now
	RunDispatchCycle(ctx context.Context) error
}

type RecoveryService interface {
	// RunSweep re-attempts failed notifications, at most once per UTC day
	RunSweep(ctx context.Context) error
}
