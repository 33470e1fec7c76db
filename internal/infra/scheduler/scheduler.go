// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"tienda/config"
	"tienda/internal/domain/lifecycle"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Job is one scheduled task.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Params holds dependencies for the scheduler, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
	Jobs   []Job `group:"jobs"`
}

// New registers every job and ties the cron loop to the app lifecycle.
func New(params Params) (*cron.Cron, error) {
	sched, err := newCron(params.Config.Scheduler.Location, params.Logger, params.Jobs)
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			sched.Start()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-sched.Stop().Done():
			case <-ctx.Done():
			}

			return nil
		},
	})

	return sched, nil
}

func newCron(location string, logger *slog.Logger, jobs []Job) (*cron.Cron, error) {
	loc := time.UTC
	if location != "" {
		var err error
		if loc, err = time.LoadLocation(location); err != nil {
			return nil, errors.Wrapf(err, "invalid scheduler location %s", location)
		}
	}

	sched := cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))
	for _, job := range jobs {
		if _, err := sched.AddFunc(job.Spec, wrap(job, logger)); err != nil {
			return nil, errors.Wrapf(err, "invalid spec %q for job %s", job.Spec, job.Name)
		}
		logger.Info("Scheduled job", slog.String("job", job.Name), slog.String("spec", job.Spec))
	}

	return sched, nil
}

func wrap(job Job, logger *slog.Logger) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Scheduled job panicked", slog.String("job", job.Name), slog.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			logger.ErrorContext(ctx, "Scheduled job failed", slog.String("job", job.Name), slog.Any("error", err))

			return
		}
		logger.DebugContext(ctx, "Scheduled job finished",
			slog.String("job", job.Name),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
