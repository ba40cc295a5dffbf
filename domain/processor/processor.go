// Package processor orchestrates the Store, Matching Graph Engine, Feature
// Extractor registry, and Scorer into the two job pipelines described by the
// embedder: first-pass processing and neighbor recalculation.
package processor

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fraudcore/engine/domain/features"
	"github.com/fraudcore/engine/domain/matching"
	"github.com/fraudcore/engine/domain/scoring"
	"github.com/fraudcore/engine/domain/store"
	"github.com/fraudcore/engine/pkg/apperror"
	"github.com/fraudcore/engine/pkg/logger"
	"github.com/fraudcore/engine/pkg/metrics"
	"github.com/fraudcore/engine/pkg/tracing"
)

// ChannelLister enumerates the channels a processing job should score
// against. scoring.RuleEvaluator implements this; a caller-supplied Scorer
// may plug in its own static or dynamic list.
type ChannelLister interface {
	ActiveChannels(ctx context.Context) ([]int64, error)
}

// Discriminant extracts the payload-type key used to select an Extractor
// from the registry. The embedding binary supplies this; the core never
// inspects payload bytes itself.
type Discriminant func(payload []byte) (string, error)

// Config holds the matcher weights used when upserting match nodes and the
// bounds and filters applied to every traversal.
type Config struct {
	MatcherRegistry store.MatcherRegistry
	TraversalOpts   matching.Options
}

// Processor is the C5 orchestrator: given a transaction id, it drives one
// processing or recalculation job to completion.
type Processor struct {
	db           bun.IDB
	store        *store.Store
	engine       *matching.Engine
	extractors   *features.Registry
	scorer       scoring.Scorer
	channels     ChannelLister
	discriminant Discriminant
	config       Config
	log          *slog.Logger
}

// New constructs a Processor.
func New(
	db bun.IDB,
	s *store.Store,
	engine *matching.Engine,
	extractors *features.Registry,
	scorer scoring.Scorer,
	channels ChannelLister,
	discriminant Discriminant,
	config Config,
	log *slog.Logger,
) *Processor {
	return &Processor{
		db:           db,
		store:        s,
		engine:       engine,
		extractors:   extractors,
		scorer:       scorer,
		channels:     channels,
		discriminant: discriminant,
		config:       config,
		log:          log.With(logger.Scope("processor")),
	}
}

// ProcessTransaction runs the first-pass processing job for transactionID,
// per the processing_queue pipeline: extract matching fields, update the
// graph, traverse, extract features, score every active channel, mark
// processed, and return the distinct neighbors to enqueue for
// recalculation.
//
// The caller is expected to run this inside the same transaction it used to
// claim the queue row, so that a deadline-exceeded abort rolls back every
// write this method made along with the claim.
func (p *Processor) ProcessTransaction(ctx context.Context, tx bun.IDB, transactionID int64) ([]int64, error) {
	ctx, span := tracing.Start(ctx, "processor.process",
		attribute.Int64("fraudcore.transaction_id", transactionID),
	)
	defer span.End()

	s := p.store.WithTx(tx)
	engine := p.engine.WithTx(tx)

	txn, err := s.LoadTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.ProcessingComplete {
		return nil, nil
	}

	extractor, err := p.resolveExtractor(txn.Payload)
	if err != nil {
		if faultErr := p.recordFault(ctx, s, txn, err); faultErr != nil {
			return nil, faultErr
		}
		return nil, nil
	}

	matchingFields, err := extractor.ExtractMatchingFields(txn.Payload)
	if err != nil {
		extractErr := apperror.ExtractorError(err)
		if faultErr := p.recordFault(ctx, s, txn, extractErr); faultErr != nil {
			return nil, faultErr
		}
		return nil, nil
	}

	if err := engine.UpsertMatchingFields(ctx, s, p.config.MatcherRegistry, txn.PayloadNumber, matchingFields); err != nil {
		return nil, err
	}

	connected, err := engine.FindConnected(ctx, txn.PayloadNumber, p.config.TraversalOpts)
	if err != nil {
		return nil, err
	}
	direct, err := engine.FindDirect(ctx, txn.PayloadNumber, p.config.TraversalOpts)
	if err != nil {
		return nil, err
	}

	simple, err := extractor.ExtractSimpleFeatures(txn.Payload)
	if err != nil {
		extractErr := apperror.ExtractorError(err)
		if faultErr := p.recordFault(ctx, s, txn, extractErr); faultErr != nil {
			return nil, faultErr
		}
		return nil, nil
	}

	graph, err := extractor.ExtractGraphFeatures(txn.Payload, connected, direct)
	if err != nil {
		extractErr := apperror.ExtractorError(err)
		if faultErr := p.recordFault(ctx, s, txn, extractErr); faultErr != nil {
			return nil, faultErr
		}
		return nil, nil
	}

	schema := extractor.SchemaVersion()
	simpleJSON, graphJSON, err := encodeFeatureSets(simple, graph)
	if err != nil {
		return nil, apperror.ExtractorError(err)
	}

	if err := s.WriteFeatures(ctx, transactionID, txn.TransactionVersion, simpleJSON, graphJSON, schema); err != nil {
		return nil, err
	}

	merged := features.Merge(simple, graph)
	if err := p.scoreAllChannels(ctx, s, transactionID, merged); err != nil {
		if !apperror.Is(err, apperror.KindScorer) {
			return nil, err
		}
		if faultErr := p.recordFault(ctx, s, txn, err); faultErr != nil {
			return nil, faultErr
		}
		return nil, nil
	}

	if err := s.MarkProcessed(ctx, transactionID); err != nil {
		return nil, err
	}

	neighbors := make([]int64, 0, len(direct))
	seen := map[int64]bool{transactionID: true}
	for _, row := range direct {
		if seen[row.TransactionID] {
			continue
		}
		seen[row.TransactionID] = true
		neighbors = append(neighbors, row.TransactionID)
	}
	return neighbors, nil
}

// RecalculateTransaction runs the neighbor-recalculation job: re-extract
// only graph features and rescore, without touching simple_features.
func (p *Processor) RecalculateTransaction(ctx context.Context, tx bun.IDB, transactionID int64) error {
	ctx, span := tracing.Start(ctx, "processor.recalculate",
		attribute.Int64("fraudcore.transaction_id", transactionID),
	)
	defer span.End()

	s := p.store.WithTx(tx)
	engine := p.engine.WithTx(tx)

	txn, err := s.LoadTransaction(ctx, transactionID)
	if err != nil {
		return err
	}

	simpleJSON, ok, err := s.LoadSimpleFeatures(ctx, transactionID, txn.TransactionVersion)
	if err != nil {
		return err
	}
	if !ok {
		// A processing job for this transaction is still pending; it will
		// run the full pipeline, including graph features, on its own.
		return nil
	}

	extractor, err := p.resolveExtractor(txn.Payload)
	if err != nil {
		return apperror.ExtractorError(err)
	}

	storedSchema, hasSchema, err := s.FeatureSchema(ctx, transactionID, txn.TransactionVersion)
	if err != nil {
		return err
	}
	currentSchema := extractor.SchemaVersion()
	if hasSchema && storedSchema.Major != currentSchema.Major {
		return apperror.SchemaMismatch(currentSchema.Major, storedSchema.Major)
	}

	connected, err := engine.FindConnected(ctx, txn.PayloadNumber, p.config.TraversalOpts)
	if err != nil {
		return err
	}
	direct, err := engine.FindDirect(ctx, txn.PayloadNumber, p.config.TraversalOpts)
	if err != nil {
		return err
	}

	var simple features.Set
	if err := decodeFeatureSet(simpleJSON, &simple); err != nil {
		return apperror.ExtractorError(err)
	}

	graph, err := extractor.ExtractGraphFeatures(txn.Payload, connected, direct)
	if err != nil {
		return apperror.ExtractorError(err)
	}

	graphJSON, err := encodeFeatureSet(graph)
	if err != nil {
		return apperror.ExtractorError(err)
	}

	if err := s.WriteGraphFeatures(ctx, transactionID, txn.TransactionVersion, graphJSON); err != nil {
		return err
	}

	merged := features.Merge(simple, graph)
	if err := p.scoreAllChannels(ctx, s, transactionID, merged); err != nil {
		return err
	}

	return s.MarkRecalculated(ctx, transactionID)
}

func (p *Processor) scoreAllChannels(ctx context.Context, s *store.Store, transactionID int64, merged features.Set) error {
	channels, err := p.channels.ActiveChannels(ctx)
	if err != nil {
		return err
	}
	for _, channelID := range channels {
		total, triggered, err := p.scorer.Score(ctx, channelID, merged)
		if err != nil {
			return apperror.ScorerError(err)
		}
		if err := s.WriteScore(ctx, transactionID, channelID, total, triggered); err != nil {
			return err
		}
		metrics.ScoringEvents.WithLabelValues(strconv.FormatInt(channelID, 10)).Inc()
	}
	return nil
}

func (p *Processor) resolveExtractor(payload []byte) (features.Extractor, error) {
	discriminant, err := p.discriminant(payload)
	if err != nil {
		return nil, err
	}
	extractor, ok := p.extractors.Get(discriminant)
	if !ok {
		return nil, errors.New("no extractor registered for payload discriminant " + discriminant)
	}
	return extractor, nil
}

// recordFault implements the ExtractorError/ScorerError handling policy: the
// job is finished (never retried), the transaction is flagged processed with
// an empty graph feature row, and the fault is logged for operator review.
func (p *Processor) recordFault(ctx context.Context, s *store.Store, txn *store.Transaction, cause error) error {
	p.log.Error("processing fault, marking transaction processed with empty features",
		slog.Int64("transaction_id", txn.ID),
		logger.Error(cause))
	return s.MarkExtractionFault(ctx, txn.ID, txn.TransactionVersion, store.SchemaVersion{})
}
