package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dhifafaz/birthday-reminder/internal/domain"
)

// maxTaskAge is the staleness horizon: a task that has been sitting in the
// store for longer than this is discarded rather than delivered at the
// wrong local time.
const maxTaskAge = 24 * time.Hour

// DispatcherService pops due tasks from the delayed store, delivers them
// through the notifier, and routes each task to its terminal or retry path.
type DispatcherService struct {
	tasks       domain.TaskQueue
	outcomes    domain.OutcomeStore
	users       domain.UserRepository
	notifier    domain.Notifier
	log         *zap.Logger
	now         func() time.Time
	sendTimeout time.Duration
}

func NewDispatcherService(
	tasks domain.TaskQueue,
	outcomes domain.OutcomeStore,
	users domain.UserRepository,
	notifier domain.Notifier,
	log *zap.Logger,
	sendTimeout time.Duration,
) *DispatcherService {
	return &DispatcherService{
		tasks:       tasks,
		outcomes:    outcomes,
		users:       users,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
		sendTimeout: sendTimeout,
	}
}

// RunDispatchCycle processes every task due by now, earliest-due first.
// Each task is handled independently; a send failure on one never blocks
// the rest of the cycle.
func (s *DispatcherService) RunDispatchCycle(ctx context.Context) error {
	now := s.now()
	due, err := s.tasks.Due(ctx, now)
	if err != nil {
		return err
	}

	for _, task := range due {
		s.dispatchTask(ctx, task, now)
	}
	return nil
}

func (s *DispatcherService) dispatchTask(ctx context.Context, task *domain.NotificationTask, now time.Time) {
	log := s.log.With(zap.String("taskID", task.ID), zap.String("userID", task.UserID))

	user, err := s.users.GetUser(ctx, task.UserID)
	if errors.Is(err, domain.ErrUserNotFound) || (err == nil && user == nil) {
		// User deleted after scheduling; nothing to deliver.
		log.Warn("user gone, discarding task")
		if err := s.tasks.Remove(ctx, task); err != nil {
			log.Error("remove orphaned task failed", zap.Error(err))
		}
		return
	}
	if err != nil {
		log.Error("load user failed", zap.Error(err))
		return
	}

	stale, err := s.isStale(task, user, now)
	if err != nil {
		log.Error("staleness check failed", zap.Error(err))
		return
	}

	var outcome domain.TaskOutcome
	var sendErr error
	switch {
	case stale:
		// Sending outside the current local-9AM window would arrive at the
		// wrong wall-clock time.
		outcome = domain.OutcomeStale
		log.Info("stale task discarded", zap.Int64("dueAtMillis", task.DueAtMillis))
	default:
		sent, err := s.outcomes.WasSent(ctx, task.UserID)
		if err != nil {
			log.Error("sent-set lookup failed", zap.Error(err))
			return
		}
		if sent {
			outcome = domain.OutcomeDuplicate
			log.Info("duplicate task, already sent this cycle")
			break
		}

		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		sendErr = s.notifier.Send(sendCtx, user.Email, task.Message)
		cancel()

		outcome = domain.OutcomeSent
		if sendErr != nil {
			outcome = domain.OutcomeSendFailed
		}
	}

	switch tr := domain.Advance(task, outcome, now); tr.Kind {
	case domain.TransitionRemoved:
		if err := s.tasks.Remove(ctx, task); err != nil {
			log.Error("remove task failed", zap.Error(err))
			return
		}
		if outcome != domain.OutcomeSent {
			return
		}
		if err := s.outcomes.MarkSent(ctx, task.UserID); err != nil {
			log.Error("mark sent failed", zap.Error(err))
		}
		if year, err := domain.OccurrenceYear(user.Location, task.DueAt()); err != nil {
			log.Warn("resolve notified year failed", zap.Error(err))
		} else if err := s.users.MarkNotified(ctx, task.UserID, year); err != nil {
			// The outcome sets stay authoritative; the user flag is an
			// eventually-consistent mirror.
			log.Warn("mark notified failed", zap.Error(err))
		}
		log.Info("birthday notification sent", zap.String("email", user.Email))

	case domain.TransitionRequeued:
		log.Warn("send failed, requeued for retry",
			zap.Int("retryAttempts", tr.Task.RetryAttempts),
			zap.Error(sendErr))
		if err := s.tasks.Remove(ctx, task); err != nil {
			log.Error("remove task before requeue failed", zap.Error(err))
			return
		}
		if err := s.tasks.Insert(ctx, tr.Task); err != nil {
			log.Error("requeue task failed", zap.Error(err))
		}

	case domain.TransitionFailed:
		log.Error("retries exhausted, handing task to recovery",
			zap.Int("retryAttempts", tr.Task.RetryAttempts),
			zap.Error(sendErr))
		if err := s.tasks.Remove(ctx, task); err != nil {
			log.Error("remove exhausted task failed", zap.Error(err))
			return
		}
		if err := s.outcomes.RecordFailed(ctx, tr.Task); err != nil {
			log.Error("record failed task failed", zap.Error(err))
		}
	}
}

// isStale reports whether the task's due time no longer matches the user's
// current local-9AM window. A fresh task must be due exactly at today's
// occurrence (a mismatch means clock drift, a DST shift, or a leftover from
// a previous day). A retried task has its due time refreshed to the moment
// of failure, so it is checked against the window's local day and the age
// horizon instead.
func (s *DispatcherService) isStale(task *domain.NotificationTask, user *domain.User, now time.Time) (bool, error) {
	if now.Sub(task.DueAt()) > maxTaskAge {
		return true, nil
	}

	occ, err := domain.OccurrenceAt(user.Location, now, domain.NotificationHour, domain.NotificationMinute)
	if err != nil {
		return false, err
	}
	if task.RetryAttempts == 0 {
		return task.DueAtMillis != occ.UnixMilli(), nil
	}

	localDue, err := domain.LocalNow(user.Location, task.DueAt())
	if err != nil {
		return false, err
	}
	dueY, dueM, dueD := localDue.Date()
	occY, occM, occD := occ.Date()
	return dueY != occY || dueM != occM || dueD != occD, nil
}
