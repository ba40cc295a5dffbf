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
	"github.com/fraudcore/engine/pkg/pgutils"
)

// Store is the persistence layer for transactions, the match graph,
// features, scores, and labels. Every method is atomic with respect to
// concurrent callers; callers needing several of these calls to commit
// together should wrap the sequence in their own bun.Tx and pass it as db.
type Store struct {
	db  bun.IDB
	log *slog.Logger
}

// NewStore constructs a Store bound to a database handle (pool, connection,
// or an open transaction via bun.IDB).
func NewStore(db bun.IDB, log *slog.Logger) *Store {
	return &Store{db: db, log: log.With(logger.Scope("store"))}
}

// WithTx returns a Store bound to an open transaction, for callers composing
// several Store calls into one atomic unit of work.
func (s *Store) WithTx(tx bun.IDB) *Store {
	return &Store{db: tx, log: s.log}
}

// InsertTransaction allocates the next transaction_version for
// payload_number, flips the previous latest row (if any) to is_latest=false,
// and inserts the new row in the same transaction.
func (s *Store) InsertTransaction(ctx context.Context, payloadNumber string, payload []byte) (int64, error) {
	var newID int64

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var prevID int64
		var prevVersion int
		err := tx.NewSelect().
			Model((*Transaction)(nil)).
			Column("id", "transaction_version").
			Where("payload_number = ?", payloadNumber).
			Where("is_latest = true").
			For("UPDATE").
			Scan(ctx, &prevID, &prevVersion)

		nextVersion := 1
		if err == nil {
			nextVersion = prevVersion + 1
			if _, uerr := tx.NewUpdate().
				Model((*Transaction)(nil)).
				Set("is_latest = false").
				Where("id = ?", prevID).
				Exec(ctx); uerr != nil {
				return apperror.Transient(uerr)
			}
		} else if err != sql.ErrNoRows {
			return apperror.Transient(err)
		}

		row := &Transaction{
			PayloadNumber:      payloadNumber,
			TransactionVersion: nextVersion,
			IsLatest:           true,
			Payload:            payload,
			ProcessingComplete: false,
			CreatedAt:          time.Now().UTC(),
		}
		_, err = tx.NewInsert().Model(row).Returning("id").Exec(ctx, &newID)
		if err != nil {
			if pgutils.IsUniqueViolation(err) {
				return apperror.ErrConflict.WithInternal(err)
			}
			return apperror.Transient(err)
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return newID, nil
}

// LoadTransaction loads a transaction by id.
func (s *Store) LoadTransaction(ctx context.Context, id int64) (*Transaction, error) {
	row := new(Transaction)
	err := s.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("transaction", id)
	}
	if err != nil {
		return nil, apperror.Transient(err)
	}
	return row, nil
}

// UpsertMatchNode returns the node id for (matcher, value), creating it with
// confidence/importance from the registry if it does not already exist.
// Idempotent: concurrent creators race on the (matcher, value) uniqueness
// constraint, and the loser simply re-reads the winner's row.
func (s *Store) UpsertMatchNode(ctx context.Context, registry MatcherRegistry, matcher, value string) (int64, error) {
	cfg := registry.Lookup(matcher)

	node := &MatchNode{Matcher: matcher, Value: value, Confidence: cfg.Confidence, Importance: cfg.Importance}
	_, err := s.db.NewInsert().
		Model(node).
		On("CONFLICT (matcher, value) DO NOTHING").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return 0, apperror.Transient(err)
	}
	if node.ID != 0 {
		return node.ID, nil
	}

	// Lost the race (or re-processing an existing matcher/value): read back.
	var id int64
	err = s.db.NewSelect().
		Model((*MatchNode)(nil)).
		Column("id").
		Where("matcher = ? AND value = ?", matcher, value).
		Scan(ctx, &id)
	if err != nil {
		return 0, apperror.Transient(err)
	}
	return id, nil
}

// UpsertMatchEdge links a node to a payload_number, recording (or merging)
// the edge's context. Existing non-null context fields are preserved unless
// the new call supplies a non-null replacement, matching the source's
// silent-overwrite-on-conflicting-context behavior; callers should log at
// the call site when they know a replacement is happening, since the store
// has no visibility into whether a value actually changed.
func (s *Store) UpsertMatchEdge(ctx context.Context, nodeID int64, payloadNumber string, edgeCtx EdgeCtx) error {
	edge := &MatchEdge{
		NodeID:        nodeID,
		PayloadNumber: payloadNumber,
		DatetimeAlpha: edgeCtx.DatetimeAlpha,
		DatetimeBeta:  edgeCtx.DatetimeBeta,
		LongAlpha:     edgeCtx.LongAlpha,
		LatAlpha:      edgeCtx.LatAlpha,
		LongBeta:      edgeCtx.LongBeta,
		LatBeta:       edgeCtx.LatBeta,
		LongGamma:     edgeCtx.LongGamma,
		LatGamma:      edgeCtx.LatGamma,
		LongDelta:     edgeCtx.LongDelta,
		LatDelta:      edgeCtx.LatDelta,
		CreatedAt:     time.Now().UTC(),
	}

	_, err := s.db.NewInsert().
		Model(edge).
		On("CONFLICT (node_id, payload_number) DO UPDATE").
		Set("datetime_alpha = COALESCE(EXCLUDED.datetime_alpha, fraud.match_node_transactions.datetime_alpha)").
		Set("datetime_beta = COALESCE(EXCLUDED.datetime_beta, fraud.match_node_transactions.datetime_beta)").
		Set("long_alpha = COALESCE(EXCLUDED.long_alpha, fraud.match_node_transactions.long_alpha)").
		Set("lat_alpha = COALESCE(EXCLUDED.lat_alpha, fraud.match_node_transactions.lat_alpha)").
		Set("long_beta = COALESCE(EXCLUDED.long_beta, fraud.match_node_transactions.long_beta)").
		Set("lat_beta = COALESCE(EXCLUDED.lat_beta, fraud.match_node_transactions.lat_beta)").
		Set("long_gamma = COALESCE(EXCLUDED.long_gamma, fraud.match_node_transactions.long_gamma)").
		Set("lat_gamma = COALESCE(EXCLUDED.lat_gamma, fraud.match_node_transactions.lat_gamma)").
		Set("long_delta = COALESCE(EXCLUDED.long_delta, fraud.match_node_transactions.long_delta)").
		Set("lat_delta = COALESCE(EXCLUDED.lat_delta, fraud.match_node_transactions.lat_delta)").
		Exec(ctx)
	if err != nil {
		return apperror.Transient(err)
	}
	return nil
}

// WriteFeatures upserts the full features row for (transactionID, version)
// during a processing job: simple_features, graph_features, and schema
// version are all set.
func (s *Store) WriteFeatures(ctx context.Context, transactionID int64, version int, simple, graph []byte, schema SchemaVersion) error {
	if err := ValidateFeatures(simple); err != nil {
		return err
	}
	if err := ValidateFeatures(graph); err != nil {
		return err
	}

	row := &Features{
		TransactionID:      transactionID,
		TransactionVersion: version,
		SchemaVersionMajor: schema.Major,
		SchemaVersionMinor: schema.Minor,
		SimpleFeatures:     simple,
		GraphFeatures:      graph,
		CreatedAt:          time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (transaction_id, transaction_version) DO UPDATE").
		Set("simple_features = EXCLUDED.simple_features").
		Set("graph_features = EXCLUDED.graph_features").
		Set("schema_version_major = EXCLUDED.schema_version_major").
		Set("schema_version_minor = EXCLUDED.schema_version_minor").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	if err != nil {
		return apperror.Transient(err)
	}
	return nil
}

// WriteGraphFeatures updates only graph_features and created_at for an
// existing (transactionID, version) row during recalculation. simple_features
// and the schema version are left untouched, per the recalc restriction.
func (s *Store) WriteGraphFeatures(ctx context.Context, transactionID int64, version int, graph []byte) error {
	if err := ValidateFeatures(graph); err != nil {
		return err
	}

	res, err := s.db.NewUpdate().
		Model((*Features)(nil)).
		Set("graph_features = ?", graph).
		Set("created_at = ?", time.Now().UTC()).
		Where("transaction_id = ? AND transaction_version = ?", transactionID, version).
		Exec(ctx)
	if err != nil {
		return apperror.Transient(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("features", fmt.Sprintf("%d/%d", transactionID, version))
	}
	return nil
}

// LoadSimpleFeatures returns the stored simple_features blob for
// (transactionID, version). ok is false when no features row exists yet —
// the recalculation job must no-op in that case (a processing job is still
// pending).
func (s *Store) LoadSimpleFeatures(ctx context.Context, transactionID int64, version int) (simple []byte, ok bool, err error) {
	row := new(Features)
	qerr := s.db.NewSelect().
		Model(row).
		Column("simple_features", "schema_version_major", "schema_version_minor").
		Where("transaction_id = ? AND transaction_version = ?", transactionID, version).
		Scan(ctx)
	if qerr == sql.ErrNoRows {
		return nil, false, nil
	}
	if qerr != nil {
		return nil, false, apperror.Transient(qerr)
	}
	if row.SimpleFeatures == nil {
		return nil, false, nil
	}
	return row.SimpleFeatures, true, nil
}

// FeatureSchema returns the stored schema version for a features row, used
// to detect a SchemaMismatch before recalculation re-extracts graph features.
func (s *Store) FeatureSchema(ctx context.Context, transactionID int64, version int) (SchemaVersion, bool, error) {
	row := new(Features)
	err := s.db.NewSelect().
		Model(row).
		Column("schema_version_major", "schema_version_minor").
		Where("transaction_id = ? AND transaction_version = ?", transactionID, version).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return SchemaVersion{}, false, nil
	}
	if err != nil {
		return SchemaVersion{}, false, apperror.Transient(err)
	}
	return SchemaVersion{Major: row.SchemaVersionMajor, Minor: row.SchemaVersionMinor}, true, nil
}

// WriteScore appends a new scoring event and its triggered rules. Scoring is
// append-only: duplicate appends from a retried job are acceptable since
// consumers read the latest event per channel.
func (s *Store) WriteScore(ctx context.Context, transactionID, channelID, total int64, ruleIDs []int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		event := &ScoringEvent{
			TransactionID: transactionID,
			ChannelID:     channelID,
			TotalScore:    total,
			CreatedAt:     time.Now().UTC(),
		}
		if _, err := tx.NewInsert().Model(event).Returning("id").Exec(ctx); err != nil {
			return apperror.Transient(err)
		}

		if len(ruleIDs) == 0 {
			return nil
		}

		rules := make([]*TriggeredRule, len(ruleIDs))
		for i, rid := range ruleIDs {
			rules[i] = &TriggeredRule{ScoringEventID: event.ID, RuleID: rid}
		}
		if _, err := tx.NewInsert().Model(&rules).Exec(ctx); err != nil {
			return apperror.Transient(err)
		}
		return nil
	})
}

// MarkProcessed records that a processing job completed: processing_complete
// flips to true and last_scoring_date advances.
func (s *Store) MarkProcessed(ctx context.Context, transactionID int64) error {
	_, err := s.db.NewUpdate().
		Model((*Transaction)(nil)).
		Set("processing_complete = true").
		Set("last_scoring_date = ?", time.Now().UTC()).
		Where("id = ?", transactionID).
		Exec(ctx)
	if err != nil {
		return apperror.Transient(err)
	}
	return nil
}

// MarkRecalculated records that a recalculation job completed:
// last_scoring_date advances but processing_complete is untouched.
func (s *Store) MarkRecalculated(ctx context.Context, transactionID int64) error {
	_, err := s.db.NewUpdate().
		Model((*Transaction)(nil)).
		Set("last_scoring_date = ?", time.Now().UTC()).
		Where("id = ?", transactionID).
		Exec(ctx)
	if err != nil {
		return apperror.Transient(err)
	}
	return nil
}

// MarkExtractionFault records the "bad payload" outcome for KindExtractor
// and KindScorer failures: the job is considered finished (so it never
// blocks the queue) with an empty graph features row and no score, but the
// transaction stays visible to operators via processing_complete=true.
func (s *Store) MarkExtractionFault(ctx context.Context, transactionID int64, version int, schema SchemaVersion) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.WithTx(tx).WriteFeatures(ctx, transactionID, version, nil, []byte("{}"), schema); err != nil {
			return err
		}
		return s.WithTx(tx).MarkProcessed(ctx, transactionID)
	})
}
