package scheduler

import (
	"context"
	"log/slog"

	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/fraudcore/engine/domain/store"
)

// Module provides the backfill scheduler.
var Module = fx.Module("scheduler",
	fx.Provide(
		NewConfig,
		NewScheduler,
	),
	fx.Invoke(
		RegisterTasks,
		RegisterSchedulerLifecycle,
	),
)

// TaskParams contains dependencies for creating scheduled tasks.
type TaskParams struct {
	fx.In
	Scheduler     *Scheduler
	DB            *bun.DB
	ProcessingQueue *store.Queue `name:"processing_queue"`
	Log           *slog.Logger
	Cfg           *Config
}

// RegisterTasks registers the backfill sweep, either on a cron schedule or
// a fixed interval depending on which the config sets.
func RegisterTasks(p TaskParams) error {
	if !p.Cfg.Enabled {
		p.Log.Info("scheduler disabled, skipping task registration")
		return nil
	}

	task := NewBackfillTask(p.DB, p.ProcessingQueue, p.Cfg.CurrentSchemaMajor, p.Cfg.BackfillBatchSize, p.Log)

	var err error
	if p.Cfg.BackfillSchedule != "" {
		err = p.Scheduler.AddCronTask("backfill", p.Cfg.BackfillSchedule, task.Run)
	} else {
		err = p.Scheduler.AddIntervalTask("backfill", p.Cfg.BackfillInterval, task.Run)
	}
	if err != nil {
		p.Log.Error("failed to register backfill task", slog.String("error", err.Error()))
		return err
	}

	p.Log.Info("registered scheduled tasks", slog.Any("tasks", p.Scheduler.ListTasks()))
	return nil
}

// RegisterSchedulerLifecycle registers the scheduler with fx lifecycle.
func RegisterSchedulerLifecycle(lc fx.Lifecycle, scheduler *Scheduler, cfg *Config) {
	if !cfg.Enabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		},
	})
}
