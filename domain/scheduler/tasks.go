package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/fraudcore/engine/domain/store"
	"github.com/fraudcore/engine/pkg/logger"
)

// BackfillTask enqueues transactions that have never been processed, or
// whose stored feature schema major version has fallen behind the current
// floor, onto the processing queue. This is the producer side of the
// recompute-on-schema-bump path: bumping CurrentSchemaMajor after deploying
// a new extractor version is enough for the next sweep to pick up every
// transaction still on the old schema, without anything else having to
// notice the bump.
type BackfillTask struct {
	db                 *bun.DB
	queue              *store.Queue
	log                *slog.Logger
	currentSchemaMajor int
	batchSize          int
}

// NewBackfillTask creates a backfill task. currentSchemaMajor is the floor
// below which a transaction's stored feature schema is considered stale.
func NewBackfillTask(db *bun.DB, queue *store.Queue, currentSchemaMajor, batchSize int, log *slog.Logger) *BackfillTask {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &BackfillTask{
		db:                 db,
		queue:              queue,
		log:                log.With(logger.Scope("scheduler.backfill")),
		currentSchemaMajor: currentSchemaMajor,
		batchSize:          batchSize,
	}
}

type staleTransaction struct {
	ID int64 `bun:"id"`
}

// Run finds candidate transactions and enqueues the ones not already
// waiting in the processing queue.
func (t *BackfillTask) Run(ctx context.Context) error {
	start := time.Now()

	var candidates []staleTransaction
	err := t.db.NewRaw(`
		SELECT txn.id
		FROM fraud.transactions txn
		LEFT JOIN fraud.features f
			ON f.transaction_id = txn.id AND f.transaction_version = txn.transaction_version
		WHERE txn.is_latest = true
			AND (
				txn.processing_complete = false
				OR f.schema_version_major IS NULL
				OR f.schema_version_major < ?
			)
			AND NOT EXISTS (
				SELECT 1 FROM fraud.processing_queue q
				WHERE q.processable_id = txn.id AND q.processed_at IS NULL
			)
		ORDER BY txn.id ASC
		LIMIT ?`, t.currentSchemaMajor, t.batchSize).Scan(ctx, &candidates)
	if err != nil {
		t.log.Error("failed to scan for stale transactions", slog.String("error", err.Error()))
		return err
	}

	enqueued := 0
	for _, c := range candidates {
		if err := t.queue.Enqueue(ctx, c.ID); err != nil {
			t.log.Warn("failed to enqueue backfill candidate",
				slog.Int64("transaction_id", c.ID),
				slog.String("error", err.Error()))
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		t.log.Info("backfill sweep enqueued transactions",
			slog.Int("enqueued", enqueued),
			slog.Duration("duration", time.Since(start)))
	} else {
		t.log.Debug("backfill sweep found nothing to enqueue",
			slog.Duration("duration", time.Since(start)))
	}

	return nil
}
