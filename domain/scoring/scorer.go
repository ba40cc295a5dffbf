package scoring

import (
	"context"

	"github.com/fraudcore/engine/domain/features"
)

// Scorer maps a channel's feature context to a total score and the set of
// rule ids that fired. Implementations must be deterministic given identical
// features and channel configuration.
type Scorer interface {
	Score(ctx context.Context, channelID int64, featureSet features.Set) (total int64, triggeredRuleIDs []int64, err error)
}
