package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/dhifafaz/birthday-reminder/internal/domain"
)

type recoveryFixture struct {
	outcomes *MockOutcomeStore
	users    *MockUserRepository
	notifier *MockNotifier
	svc      *RecoveryService
}

func newRecoveryForTest() *recoveryFixture {
	f := &recoveryFixture{
		outcomes: &MockOutcomeStore{},
		users:    &MockUserRepository{},
		notifier: &MockNotifier{},
	}
	f.svc = NewRecoveryService(f.outcomes, f.users, f.notifier, zap.NewNop(), time.Second)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func newFailedTask(userID string) *domain.NotificationTask {
	task := domain.NewTask(userID, "Hey, Jane Doe, it's your birthday!", fixedNow.Add(-time.Hour))
	task.RetryAttempts = domain.MaxRetryAttempts
	return task
}

func TestRecoveryService_RunSweep(t *testing.T) {
	t.Run("should resurrect a failed notification when the notifier recovers", func(t *testing.T) {
		f := newRecoveryForTest()
		task := newFailedTask("user-1")

		f.outcomes.On("FailedUserIDs", mock.Anything).Return([]string{"user-1"}, nil)
		f.outcomes.On("FailedTask", mock.Anything, "user-1").Return(task, nil)
		f.users.On("GetUser", mock.Anything, "user-1").Return(newTestUser("user-1"), nil)
		f.notifier.On("Send", mock.Anything, "jane@example.com", task.Message).Return(nil)
		f.outcomes.On("ClearFailed", mock.Anything, "user-1").Return(nil)
		f.outcomes.On("MarkSent", mock.Anything, "user-1").Return(nil)
		f.users.On("MarkNotified", mock.Anything, "user-1", 2026).Return(nil)

		err := f.svc.RunSweep(context.Background())

		assert.NoError(t, err)
		f.outcomes.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("should keep the entry when the send fails again", func(t *testing.T) {
		f := newRecoveryForTest()
		task := newFailedTask("user-1")

		f.outcomes.On("FailedUserIDs", mock.Anything).Return([]string{"user-1"}, nil)
		f.outcomes.On("FailedTask", mock.Anything, "user-1").Return(task, nil)
		f.users.On("GetUser", mock.Anything, "user-1").Return(newTestUser("user-1"), nil)
		f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("still down"))

		err := f.svc.RunSweep(context.Background())

		assert.NoError(t, err)
		f.outcomes.AssertNotCalled(t, "ClearFailed", mock.Anything, mock.Anything)
		f.outcomes.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything)
	})

	t.Run("should clear a dangling entry with no payload", func(t *testing.T) {
		f := newRecoveryForTest()

		f.outcomes.On("FailedUserIDs", mock.Anything).Return([]string{"user-1"}, nil)
		f.outcomes.On("FailedTask", mock.Anything, "user-1").Return((*domain.NotificationTask)(nil), nil)
		f.outcomes.On("ClearFailed", mock.Anything, "user-1").Return(nil)

		err := f.svc.RunSweep(context.Background())

		assert.NoError(t, err)
		f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
		f.outcomes.AssertCalled(t, "ClearFailed", mock.Anything, "user-1")
	})

	t.Run("should scope the notified year to the user's location across New Year", func(t *testing.T) {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		assert.NoError(t, err)
		honolulu, err := time.LoadLocation("Pacific/Honolulu")
		assert.NoError(t, err)

		restore := time.Local
		time.Local = tokyo
		defer func() { time.Local = restore }()

		f := newRecoveryForTest()
		due := time.Date(2026, 12, 31, 9, 0, 0, 0, honolulu)
		f.svc.now = func() time.Time { return due.Add(time.Hour) }

		user := newTestUser("user-1")
		user.Location = "Pacific/Honolulu"
		task := domain.NewTask("user-1", "Hey, Jane Doe, it's your birthday!", due)
		task.RetryAttempts = domain.MaxRetryAttempts

		f.outcomes.On("FailedUserIDs", mock.Anything).Return([]string{"user-1"}, nil)
		f.outcomes.On("FailedTask", mock.Anything, "user-1").Return(task, nil)
		f.users.On("GetUser", mock.Anything, "user-1").Return(user, nil)
		f.notifier.On("Send", mock.Anything, "jane@example.com", task.Message).Return(nil)
		f.outcomes.On("ClearFailed", mock.Anything, "user-1").Return(nil)
		f.outcomes.On("MarkSent", mock.Anything, "user-1").Return(nil)
		f.users.On("MarkNotified", mock.Anything, "user-1", 2026).Return(nil)

		assert.NoError(t, f.svc.RunSweep(context.Background()))
		f.users.AssertCalled(t, "MarkNotified", mock.Anything, "user-1", 2026)
	})

	t.Run("should retry the sweep on the next tick after a store error", func(t *testing.T) {
		f := newRecoveryForTest()

		f.outcomes.On("FailedUserIDs", mock.Anything).Return([]string(nil), errors.New("redis down")).Once()
		f.outcomes.On("FailedUserIDs", mock.Anything).Return([]string{}, nil).Once()

		assert.Error(t, f.svc.RunSweep(context.Background()))
		assert.NoError(t, f.svc.RunSweep(context.Background()))

		f.outcomes.AssertNumberOfCalls(t, "FailedUserIDs", 2)
	})

	t.Run("should run at most once per UTC day", func(t *testing.T) {
		f := newRecoveryForTest()

		f.outcomes.On("FailedUserIDs", mock.Anything).Return([]string{}, nil)

		assert.NoError(t, f.svc.RunSweep(context.Background()))
		assert.NoError(t, f.svc.RunSweep(context.Background()))

		f.outcomes.AssertNumberOfCalls(t, "FailedUserIDs", 1)
	})

	t.Run("should run again on the next calendar day", func(t *testing.T) {
		f := newRecoveryForTest()

		f.outcomes.On("FailedUserIDs", mock.Anything).Return([]string{}, nil)

		assert.NoError(t, f.svc.RunSweep(context.Background()))

		f.svc.now = func() time.Time { return fixedNow.Add(24 * time.Hour) }
		assert.NoError(t, f.svc.RunSweep(context.Background()))

		f.outcomes.AssertNumberOfCalls(t, "FailedUserIDs", 2)
	})

	t.Run("should continue the sweep when one user fails", func(t *testing.T) {
		f := newRecoveryForTest()
		broken := newFailedTask("user-1")
		healthy := newFailedTask("user-2")

		userTwo := newTestUser("user-2")
		userTwo.Email = "john@example.com"

		f.outcomes.On("FailedUserIDs", mock.Anything).Return([]string{"user-1", "user-2"}, nil)
		f.outcomes.On("FailedTask", mock.Anything, "user-1").Return(broken, nil)
		f.outcomes.On("FailedTask", mock.Anything, "user-2").Return(healthy, nil)
		f.users.On("GetUser", mock.Anything, "user-1").Return(newTestUser("user-1"), nil)
		f.users.On("GetUser", mock.Anything, "user-2").Return(userTwo, nil)
		f.notifier.On("Send", mock.Anything, "jane@example.com", mock.Anything).Return(errors.New("still down"))
		f.notifier.On("Send", mock.Anything, "john@example.com", mock.Anything).Return(nil)
		f.outcomes.On("ClearFailed", mock.Anything, "user-2").Return(nil)
		f.outcomes.On("MarkSent", mock.Anything, "user-2").Return(nil)
		f.users.On("MarkNotified", mock.Anything, "user-2", 2026).Return(nil)

		err := f.svc.RunSweep(context.Background())

		assert.NoError(t, err)
		f.outcomes.AssertCalled(t, "ClearFailed", mock.Anything, "user-2")
		f.outcomes.AssertNotCalled(t, "ClearFailed", mock.Anything, "user-1")
	})
}
