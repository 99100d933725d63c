package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dhifafaz/birthday-reminder/internal/domain"
)

// RecoveryService re-attempts notifications that exhausted their dispatch
// retries. It runs at most once per UTC calendar day; the marker is held in
// memory, so a restarted process sweeps eagerly on its first tick.
type RecoveryService struct {
	outcomes    domain.OutcomeStore
	users       domain.UserRepository
	notifier    domain.Notifier
	log         *zap.Logger
	now         func() time.Time
	sendTimeout time.Duration

	mu         sync.Mutex
	lastRunDay string
}

func NewRecoveryService(
	outcomes domain.OutcomeStore,
	users domain.UserRepository,
	notifier domain.Notifier,
	log *zap.Logger,
	sendTimeout time.Duration,
) *RecoveryService {
	return &RecoveryService{
		outcomes:    outcomes,
		users:       users,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
		sendTimeout: sendTimeout,
	}
}

// RunSweep walks the failed sets and retries each entry once. Renewed
// failures stay in the sets for the next day's sweep; there is no attempt
// ceiling at this layer.
func (s *RecoveryService) RunSweep(ctx context.Context) error {
	day := s.now().UTC().Format("2006-01-02")

	s.mu.Lock()
	if s.lastRunDay == day {
		s.mu.Unlock()
		return nil
	}
	s.lastRunDay = day
	s.mu.Unlock()

	userIDs, err := s.outcomes.FailedUserIDs(ctx)
	if err != nil {
		// A store outage must not consume the day's slot; the next tick
		// retries the sweep.
		s.mu.Lock()
		s.lastRunDay = ""
		s.mu.Unlock()
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	s.log.Info("recovering failed birthday notifications", zap.Int("count", len(userIDs)))

	for _, userID := range userIDs {
		s.recoverUser(ctx, userID)
	}
	return nil
}

func (s *RecoveryService) recoverUser(ctx context.Context, userID string) {
	log := s.log.With(zap.String("userID", userID))

	task, err := s.outcomes.FailedTask(ctx, userID)
	if err != nil {
		log.Error("load failed task failed", zap.Error(err))
		return
	}
	if task == nil {
		// Dangling set entry with no payload; clean it up.
		log.Warn("no failed payload for user, clearing entry")
		if err := s.outcomes.ClearFailed(ctx, userID); err != nil {
			log.Error("clear dangling entry failed", zap.Error(err))
		}
		return
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		log.Error("load user failed", zap.Error(err))
		return
	}
	if user == nil {
		log.Warn("user gone, clearing failed entry")
		if err := s.outcomes.ClearFailed(ctx, userID); err != nil {
			log.Error("clear failed entry failed", zap.Error(err))
		}
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	sendErr := s.notifier.Send(sendCtx, user.Email, task.Message)
	cancel()

	if sendErr != nil {
		// Entry stays for tomorrow's sweep.
		log.Warn("recovery send failed", zap.Error(sendErr))
		return
	}

	if err := s.outcomes.ClearFailed(ctx, userID); err != nil {
		log.Error("clear recovered entry failed", zap.Error(err))
	}
	if err := s.outcomes.MarkSent(ctx, userID); err != nil {
		log.Error("mark sent failed", zap.Error(err))
	}
	if year, err := domain.OccurrenceYear(user.Location, task.DueAt()); err != nil {
		log.Warn("resolve notified year failed", zap.Error(err))
	} else if err := s.users.MarkNotified(ctx, userID, year); err != nil {
		log.Warn("mark notified failed", zap.Error(err))
	}
	log.Info("recovered birthday notification", zap.String("email", user.Email))
}
