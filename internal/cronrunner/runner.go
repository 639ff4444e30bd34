// Package cronrunner schedules background maintenance jobs.
package cronrunner

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner wraps a seconds-aware cron scheduler. Jobs receive the base context
// so they stop when the process shuts down.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Add registers job under a cron spec such as "0 30 3 * * *" or "@daily".
func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		job(r.baseCtx)
	})
}

func (r *Runner) Start() {
	r.logger.Info("cron started",
		zap.String("op", "cronrunner.Start"),
		zap.Int("jobs", len(r.cron.Entries())),
	)
	r.cron.Start()
}

// Stop waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped", zap.String("op", "cronrunner.Stop"))
}

// Purger deletes stored plans older than a given age.
type Purger interface {
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// RetentionJob returns a job that purges plans older than maxAge.
func RetentionJob(logger *zap.Logger, p Purger, maxAge time.Duration) func(context.Context) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) {
		start := time.Now()
		n, err := p.PurgeOlderThan(ctx, maxAge)
		if err != nil {
			logger.Error("plan retention purge failed",
				zap.String("op", "cronrunner.RetentionJob"),
				zap.Error(err),
			)
			return
		}
		logger.Debug("plan retention purge finished",
			zap.String("op", "cronrunner.RetentionJob"),
			zap.Int64("deleted", n),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
