package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/fraudcore/engine/pkg/apperror"
	"github.com/fraudcore/engine/pkg/logger"
)

// QueueRow mirrors the shared shape of processing_queue and
// recalculation_queue: (id, processable_id, processed_at?, created_at).
type QueueRow struct {
	bun.BaseModel `bun:"-"`

	ID            int64      `bun:"id,pk,autoincrement"`
	ProcessableID int64      `bun:"processable_id,notnull"`
	ProcessedAt   *time.Time `bun:"processed_at"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:now()"`
}

// Queue is a durable, PostgreSQL-backed FIFO work queue. "Claim" locks the
// oldest unprocessed row with FOR UPDATE SKIP LOCKED inside the caller's
// transaction and does not write to it; "finish" records processed_at.
// Two Queue instances (one per table) give the processing and
// recalculation queues described in the persistence layout.
type Queue struct {
	db        bun.IDB
	tableName string
	log       *slog.Logger
}

// NewQueue constructs a Queue bound to a fully qualified table name, e.g.
// "fraud.processing_queue".
func NewQueue(db bun.IDB, tableName string, log *slog.Logger) *Queue {
	return &Queue{db: db, tableName: tableName, log: log.With(logger.Scope("store.queue"), slog.String("table", tableName))}
}

// Enqueue inserts a new unclaimed row for processableID.
func (q *Queue) Enqueue(ctx context.Context, processableID int64) error {
	query := fmt.Sprintf(`INSERT INTO %s (processable_id, created_at) VALUES ($1, now())`, q.tableName)
	_, err := q.db.ExecContext(ctx, query, processableID)
	if err != nil {
		return apperror.Transient(err)
	}
	return nil
}

// ClaimedJob is one row claimed by Claim.
type ClaimedJob struct {
	JobID         int64
	ProcessableID int64
}

// Claim locks and returns the oldest unclaimed row, or nil if the queue is
// empty. Must be called within a transaction for the lock to have any
// effect beyond the statement itself; the caller finishes or lets the
// transaction roll back to release the row to another worker.
//
// SQL pattern, following the same FOR UPDATE SKIP LOCKED shape used
// throughout the store:
//
//	SELECT id, processable_id FROM <table>
//	WHERE processed_at IS NULL
//	ORDER BY created_at ASC
//	FOR UPDATE SKIP LOCKED
//	LIMIT 1
func (q *Queue) Claim(ctx context.Context, db bun.IDB) (*ClaimedJob, error) {
	query := fmt.Sprintf(`
		SELECT id, processable_id FROM %s
		WHERE processed_at IS NULL
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1`, q.tableName)

	var job ClaimedJob
	err := db.QueryRowContext(ctx, query).Scan(&job.JobID, &job.ProcessableID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Transient(err)
	}
	return &job, nil
}

// Finish marks a claimed row as done.
func (q *Queue) Finish(ctx context.Context, db bun.IDB, jobID int64) error {
	query := fmt.Sprintf(`UPDATE %s SET processed_at = now() WHERE id = $1`, q.tableName)
	_, err := db.ExecContext(ctx, query, jobID)
	if err != nil {
		return apperror.Transient(err)
	}
	return nil
}

// Depth returns the number of unclaimed rows, used by the health surface.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE processed_at IS NULL`, q.tableName)
	var n int64
	if err := q.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, apperror.Transient(err)
	}
	return n, nil
}
