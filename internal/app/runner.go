package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cycleTimeout bounds a single unit of work so a wedged cycle cannot pile
// up behind its own timer.
const cycleTimeout = 5 * time.Minute

// Job is one periodic unit of work.
type Job func(ctx context.Context) error

// Runner schedules independent periodic tasks on their own cron entries, so
// a slow cycle in one component never delays the timers of another.
type Runner struct {
	cron *cron.Cron
	log  *zap.Logger
	ctx  context.Context
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(zap.NewStdLog(log))),
		)),
		log: log,
	}
}

// Add registers a named job on its own schedule. Specs use cron syntax,
// including "@every" intervals. Must be called before Start.
func (r *Runner) Add(name, spec string, job Job) error {
	_, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(r.ctx, cycleTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			r.log.Error("cycle failed", zap.String("job", name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}
	return nil
}

// Start runs the timers until ctx is canceled, then waits for in-flight
// cycles to finish.
func (r *Runner) Start(ctx context.Context) error {
	r.ctx = ctx
	r.cron.Start()

	<-ctx.Done()
	r.log.Info("runner shutting down")
	<-r.cron.Stop().Done()
	return nil
}
