package app

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dhifafaz/birthday-reminder/internal/domain"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, limit int) ([]*domain.User, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindBirthdayCandidates(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) MarkScheduled(ctx context.Context, id string, year int) error {
	args := m.Called(ctx, id, year)
	return args.Error(0)
}

func (m *MockUserRepository) MarkNotified(ctx context.Context, id string, year int) error {
	args := m.Called(ctx, id, year)
	return args.Error(0)
}

// MockTaskQueue is a mock implementation of domain.TaskQueue
type MockTaskQueue struct {
	mock.Mock
}

func (m *MockTaskQueue) Insert(ctx context.Context, task *domain.NotificationTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskQueue) Remove(ctx context.Context, task *domain.NotificationTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskQueue) Due(ctx context.Context, now time.Time) ([]*domain.NotificationTask, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]*domain.NotificationTask), args.Error(1)
}

func (m *MockTaskQueue) Contains(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskQueue) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockOutcomeStore is a mock implementation of domain.OutcomeStore
type MockOutcomeStore struct {
	mock.Mock
}

func (m *MockOutcomeStore) MarkSent(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockOutcomeStore) WasSent(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOutcomeStore) RecordFailed(ctx context.Context, task *domain.NotificationTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockOutcomeStore) FailedUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockOutcomeStore) FailedTask(ctx context.Context, userID string) (*domain.NotificationTask, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*domain.NotificationTask), args.Error(1)
}

func (m *MockOutcomeStore) ClearFailed(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockNotifier is a mock implementation of domain.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, email, message string) error {
	args := m.Called(ctx, email, message)
	return args.Error(0)
}
