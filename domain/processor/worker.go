package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/fraudcore/engine/domain/store"
	"github.com/fraudcore/engine/internal/jobs"
	"github.com/fraudcore/engine/pkg/apperror"
	"github.com/fraudcore/engine/pkg/logger"
	"github.com/fraudcore/engine/pkg/metrics"
)

// WorkerConfig tunes both the processing and recalculation loops.
type WorkerConfig struct {
	PollInterval time.Duration
	JobDeadline  time.Duration
	BatchSize    int
}

// QueueWorker drains one durable queue, running each claimed job inside the
// transaction that claimed it: a deadline-exceeded or failing job rolls
// everything back together, leaving the row unclaimed for another worker.
type QueueWorker struct {
	name     string
	queue    *store.Queue
	db       bun.IDB
	deadline time.Duration
	run      func(ctx context.Context, tx bun.IDB, processableID int64) error
	worker   *jobs.Worker
	log      *slog.Logger
}

// NewQueueWorker builds a QueueWorker around the given queue; run performs
// the domain-specific work for one claimed processable_id.
func NewQueueWorker(name string, db bun.IDB, queue *store.Queue, cfg WorkerConfig, run func(ctx context.Context, tx bun.IDB, processableID int64) error, log *slog.Logger) *QueueWorker {
	qw := &QueueWorker{
		name:     name,
		queue:    queue,
		db:       db,
		deadline: cfg.JobDeadline,
		run:      run,
		log:      log.With(logger.Scope("processor." + name)),
	}

	jobsCfg := jobs.WorkerConfig{
		Name:         name,
		PollInterval: cfg.PollInterval,
		BatchSize:    cfg.BatchSize,
	}
	qw.worker = jobs.NewWorker(jobsCfg, log, qw.poll)
	return qw
}

// Start begins polling.
func (qw *QueueWorker) Start(ctx context.Context) error { return qw.worker.Start(ctx) }

// Stop gracefully stops polling.
func (qw *QueueWorker) Stop(ctx context.Context) error { return qw.worker.Stop(ctx) }

// Metrics exposes the underlying worker's processed/succeeded/failed counts.
func (qw *QueueWorker) Metrics() jobs.WorkerMetrics { return qw.worker.Metrics() }

func (qw *QueueWorker) poll(ctx context.Context) error {
	deadline := qw.deadline
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	tx, err := qw.db.BeginTx(jobCtx, nil)
	if err != nil {
		return apperror.Transient(err)
	}
	defer tx.Rollback()

	claimed, err := qw.queue.Claim(jobCtx, tx)
	if err != nil {
		return err
	}
	if claimed == nil {
		return tx.Rollback()
	}

	err = qw.run(jobCtx, tx, claimed.ProcessableID)
	if apperror.Is(err, apperror.KindNotFound) {
		qw.log.Warn("processable row not found, finishing job without processing",
			slog.Int64("job_id", claimed.JobID),
			slog.Int64("processable_id", claimed.ProcessableID),
			logger.Error(err))
		err = nil
	}
	if err != nil {
		qw.log.Error("job failed, rolling back",
			slog.Int64("job_id", claimed.JobID),
			slog.Int64("processable_id", claimed.ProcessableID),
			logger.Error(err))
		metrics.JobsProcessed.WithLabelValues(qw.name, "failed").Inc()
		qw.worker.IncrementFailure()
		return tx.Rollback()
	}

	if err := qw.queue.Finish(jobCtx, tx, claimed.JobID); err != nil {
		return err
	}
	metrics.JobsProcessed.WithLabelValues(qw.name, "succeeded").Inc()
	qw.worker.IncrementSuccess()
	return tx.Commit()
}
