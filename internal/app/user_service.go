package app

import (
	"context"

	"github.com/dhifafaz/birthday-reminder/internal/domain"
	"github.com/dhifafaz/birthday-reminder/internal/ports"
)

type userService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) ports.UserService {
	return &userService{users: users}
}

func (s *userService) CreateUser(ctx context.Context, user *domain.User) error {
	return s.users.CreateUser(ctx, user)
}

func (s *userService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	return s.users.DeleteUser(ctx, id)
}

func (s *userService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	const defaultLimit = 100
	return s.users.ListUsers(ctx, defaultLimit)
}
