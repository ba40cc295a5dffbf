package scoring

import (
	"context"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/fraudcore/engine/domain/features"
	"github.com/fraudcore/engine/pkg/apperror"
	"github.com/fraudcore/engine/pkg/logger"
)

// RuleEvaluator is the default Scorer: for each active rule bound to a
// channel, it evaluates the rule's (field, operator, comparand) predicate
// against the unioned feature context and accumulates the rule's score on a
// truthy match.
type RuleEvaluator struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRuleEvaluator constructs a RuleEvaluator bound to a database handle.
func NewRuleEvaluator(db bun.IDB, log *slog.Logger) *RuleEvaluator {
	return &RuleEvaluator{db: db, log: log.With(logger.Scope("scoring"))}
}

var _ Scorer = (*RuleEvaluator)(nil)

// WithTx returns a RuleEvaluator bound to an open transaction.
func (r *RuleEvaluator) WithTx(tx bun.IDB) *RuleEvaluator {
	return &RuleEvaluator{db: tx, log: r.log}
}

// Score loads every active rule for channelID and evaluates it against
// featureSet.
func (r *RuleEvaluator) Score(ctx context.Context, channelID int64, featureSet features.Set) (int64, []int64, error) {
	var rules []ScoringRule
	err := r.db.NewSelect().
		Model(&rules).
		Where("channel_id = ? AND active = true", channelID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return 0, nil, apperror.Transient(err)
	}

	var total int64
	var triggered []int64

	for _, rule := range rules {
		value, ok := featureSet[rule.Field]
		if !ok {
			continue
		}

		matched, err := evaluate(rule.Operator, value.Value, rule.Comparand)
		if err != nil {
			r.log.Warn("skipping rule with unevaluable predicate",
				slog.Int64("rule_id", rule.ID), logger.Error(err))
			continue
		}
		if matched {
			total += rule.Score
			triggered = append(triggered, rule.ID)
		}
	}

	return total, triggered, nil
}

// ActiveChannels returns the ids of every channel currently marked active,
// used by the processor to iterate "each active channel" during a
// processing job.
func (r *RuleEvaluator) ActiveChannels(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.NewSelect().
		Model((*Channel)(nil)).
		Column("id").
		Where("active = true").
		Order("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, apperror.Transient(err)
	}
	return ids, nil
}
