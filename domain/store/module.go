package store

import (
	"log/slog"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
)

// ProcessingQueueTable and RecalculationQueueTable are the two durable work
// queues described in the persistence layout: one for first-pass processing,
// one for recalculating the direct neighbors a processing job finds.
const (
	ProcessingQueueTable     = "fraud.processing_queue"
	RecalculationQueueTable  = "fraud.recalculation_queue"
)

// Module wires the Store and its two named queues into the fx graph.
var Module = fx.Module("store",
	fx.Provide(
		NewStore,
		fx.Annotate(newProcessingQueue, fx.ResultTags(`name:"processing_queue"`)),
		fx.Annotate(newRecalculationQueue, fx.ResultTags(`name:"recalculation_queue"`)),
	),
)

func newProcessingQueue(db bun.IDB, log *slog.Logger) *Queue {
	return NewQueue(db, ProcessingQueueTable, log)
}

func newRecalculationQueue(db bun.IDB, log *slog.Logger) *Queue {
	return NewQueue(db, RecalculationQueueTable, log)
}
