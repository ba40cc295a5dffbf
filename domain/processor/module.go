package processor

import (
	"context"
	"log/slog"

	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/fraudcore/engine/domain/store"
	"github.com/fraudcore/engine/internal/config"
)

// Module wires the Processor and its two queue workers into the fx graph.
// The embedding binary must additionally provide features.Extractor
// registrations, a scoring.Scorer (or rely on scoring.Module's default),
// and a Discriminant and Config via fx.Provide/fx.Supply before this module
// is usable.
var Module = fx.Module("processor",
	fx.Provide(New),
	fx.Invoke(registerWorkers),
)

type workerParams struct {
	fx.In

	LC          fx.Lifecycle
	DB          bun.IDB
	Cfg         *config.Config
	Processor   *Processor
	ProcQueue   *store.Queue `name:"processing_queue"`
	RecalcQueue *store.Queue `name:"recalculation_queue"`
	Log         *slog.Logger
}

func registerWorkers(p workerParams) {
	workerCfg := WorkerConfig{
		PollInterval: p.Cfg.Processor.PollInterval,
		JobDeadline:  p.Cfg.Processor.JobDeadline,
		BatchSize:    p.Cfg.Processor.BatchSize,
	}

	processingWorker := NewQueueWorker("processing", p.DB, p.ProcQueue, workerCfg,
		func(ctx context.Context, tx bun.IDB, transactionID int64) error {
			neighbors, err := p.Processor.ProcessTransaction(ctx, tx, transactionID)
			if err != nil {
				return err
			}
			for _, neighborID := range neighbors {
				if err := store.NewQueue(tx, store.RecalculationQueueTable, p.Log).Enqueue(ctx, neighborID); err != nil {
					return err
				}
			}
			return nil
		}, p.Log)

	recalcWorker := NewQueueWorker("recalculation", p.DB, p.RecalcQueue, workerCfg,
		func(ctx context.Context, tx bun.IDB, transactionID int64) error {
			return p.Processor.RecalculateTransaction(ctx, tx, transactionID)
		}, p.Log)

	p.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := processingWorker.Start(context.Background()); err != nil {
				return err
			}
			return recalcWorker.Start(context.Background())
		},
		OnStop: func(ctx context.Context) error {
			if err := processingWorker.Stop(ctx); err != nil {
				return err
			}
			return recalcWorker.Stop(ctx)
		},
	})
}
