package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dhifafaz/birthday-reminder/internal/domain"
)

// SchedulerService enqueues one notification task per eligible user, due at
// the user's local 9 AM.
type SchedulerService struct {
	users domain.UserRepository
	tasks domain.TaskQueue
	log   *zap.Logger
	now   func() time.Time
}

func NewSchedulerService(users domain.UserRepository, tasks domain.TaskQueue, log *zap.Logger) *SchedulerService {
	return &SchedulerService{
		users: users,
		tasks: tasks,
		log:   log,
		now:   time.Now,
	}
}

// RunScheduleCycle fetches today's birthday candidates and enqueues a task
// for each user that is not already scheduled. One user's failure never
// aborts the batch.
func (s *SchedulerService) RunScheduleCycle(ctx context.Context) error {
	users, err := s.users.FindBirthdayCandidates(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	scheduled := 0

	for _, user := range users {
		if s.scheduleUser(ctx, user, now) {
			scheduled++
		}
	}

	if scheduled > 0 {
		s.log.Info("scheduled birthday notifications", zap.Int("count", scheduled))
	}
	return nil
}

func (s *SchedulerService) scheduleUser(ctx context.Context, user *domain.User, now time.Time) bool {
	dueAt, ok, err := domain.NextOccurrence(user.Location, now, domain.NotificationHour, domain.NotificationMinute)
	if err != nil {
		s.log.Error("resolve local time failed", zap.String("userID", user.ID), zap.Error(err))
		return false
	}
	if !ok {
		// Local 9 AM already passed; the eligibility query surfaces the user
		// again on the next occurrence.
		s.log.Debug("notification window passed, skipping",
			zap.String("userID", user.ID),
			zap.Time("occurrence", dueAt))
		return false
	}

	year := dueAt.Year()
	if user.ScheduledFor(year) {
		s.log.Debug("already scheduled this year, skipping", zap.String("userID", user.ID))
		return false
	}

	pending, err := s.tasks.Contains(ctx, user.ID)
	if err != nil {
		s.log.Error("task store lookup failed", zap.String("userID", user.ID), zap.Error(err))
		return false
	}
	if pending {
		s.log.Debug("live task already queued, skipping", zap.String("userID", user.ID))
		return false
	}

	// The flag write must land before the enqueue so a concurrent cycle that
	// re-reads the user cannot pass the dedup check twice. If it fails, the
	// user is simply retried next cycle.
	if err := s.users.MarkScheduled(ctx, user.ID, year); err != nil {
		s.log.Error("mark scheduled failed", zap.String("userID", user.ID), zap.Error(err))
		return false
	}

	task := domain.NewTask(user.ID, domain.BirthdayMessage(user), dueAt)
	if err := s.tasks.Insert(ctx, task); err != nil {
		s.log.Error("enqueue task failed", zap.String("userID", user.ID), zap.Error(err))
		return false
	}

	s.log.Info("scheduled birthday notification",
		zap.String("userID", user.ID),
		zap.String("taskID", task.ID),
		zap.Time("dueAt", dueAt))
	return true
}
